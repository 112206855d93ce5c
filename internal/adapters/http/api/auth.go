// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates JWT bearer tokens on protected routes. An empty
// secret disables auth, which is the default for local deployments.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates an auth middleware for the given HMAC secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &AuthMiddleware{secret: key}
}

// Enabled reports whether token validation is active.
func (a *AuthMiddleware) Enabled() bool {
	return len(a.secret) > 0
}

// Require wraps a handler with bearer token validation when auth is enabled.
func (a *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	if !a.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.auth"
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrBadRequest))
			return
		}
		if err := a.validate(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", Wrap(op, err))
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (a *AuthMiddleware) validate(tokenString string) error {
	_, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
