// Package auth authenticates API requests with bearer JWTs and places the
// resulting principal on the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/identity"
)

type contextKey struct{}

// Claims is the token payload the marketplace issues: subject is the user
// id, role distinguishes clients from providers.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Middleware rejects requests without a valid HS256 bearer token and stores
// the principal for handlers downstream.
func Middleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			principal, err := parse(token, key)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, principal)))
		})
	}
}

func parse(token string, key []byte) (identity.Principal, error) {
	var claims Claims

	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return identity.Principal{}, fmt.Errorf("parsing token: %w", err)
	}

	if !parsed.Valid {
		return identity.Principal{}, jwt.ErrTokenUnverifiable
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("parsing subject: %w", err)
	}

	role := identity.Role(claims.Role)
	if !role.Valid() {
		return identity.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	return identity.Principal{UserID: userID, Role: role}, nil
}

// PrincipalFromContext returns the authenticated principal, if any. Handlers
// behind Middleware can rely on ok being true.
func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	principal, ok := ctx.Value(contextKey{}).(identity.Principal)
	return principal, ok
}
