package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/services"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Authenticate extracts and verifies the bearer token, placing the verified
// claims in the request context. No store lookup happens here; the claims
// are trusted as of issuance.
func Authenticate(tokens services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize allows the request through only when the caller's role is in the
// given set. Must run after Authenticate.
func Authorize(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := ClaimsFromContext(r.Context())
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "missing token")
				return
			}

			for _, role := range roles {
				if role == claims.Role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*services.Claims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*services.Claims)
	if !ok || claims == nil {
		return nil, errors.New("claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims is used by handler tests to seed a request context.
func ContextWithClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
