package models

import "github.com/golang-jwt/jwt/v5"

// UserClaims are the JWT claims attached to authenticated API requests.
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Roles carried in UserClaims.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
