package apiclient

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken signs a bearer token locally with the given secret, bypassing
// the auth endpoint. Useful for forging expired or wrong-role tokens in
// negative tests: pass a negative ttl for an already-expired token.
func GenerateToken(secret, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  username,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("apiclient: signing token: %w", err)
	}
	return signed, nil
}
