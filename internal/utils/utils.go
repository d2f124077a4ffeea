package utils

import (
	"crypto/rand"
)

// RandomDigits creates a secure random string of decimal digits.
func RandomDigits(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	digits := make([]byte, length)
	for i, b := range bytes {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}
