package apiclient

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateToken_Claims(t *testing.T) {
	signed, err := GenerateToken("secret", "alice", "user", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	if err != nil {
		t.Fatalf("parsing token: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token is not valid")
	}
	if claims["sub"] != "alice" {
		t.Errorf("sub = %v, want alice", claims["sub"])
	}
	if claims["role"] != "user" {
		t.Errorf("role = %v, want user", claims["role"])
	}
}

func TestGenerateToken_Expired(t *testing.T) {
	signed, err := GenerateToken("secret", "alice", "user", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	_, err = jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		return []byte("secret"), nil
	})
	if err == nil {
		t.Error("parsing an expired token returned nil error")
	}
}
