package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is the lifetime of issued access tokens.
const tokenTTL = time.Hour

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	Role      string `json:"role"`
}

// handleToken issues a JWT for the given credentials. Any non-empty
// username/password pair is accepted; usernames containing "admin" get the
// admin role. This mirrors how real deployments gate provisioning endpoints
// without requiring a user database in the mock.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	role := "user"
	if strings.Contains(req.Username, "admin") {
		role = "admin"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  req.Username,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("signing token", "error", err)
		writeInternalError(w, "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     signed,
		TokenType: "bearer",
		ExpiresIn: int(tokenTTL.Seconds()),
		Role:      role,
	})
}
