package utils

import (
	"strconv"
	"time"

	"lumapay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints an access token for the given user. Used by the
// issuing service that fronts this API and by tests.
func GenerateToken(secret string, userID uint, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := models.UserClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "lumapay-api",
			Subject:   strconv.FormatUint(uint64(userID), 10),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
