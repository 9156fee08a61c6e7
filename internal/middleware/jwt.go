package middleware

import (
	"context"
	"net/http"
	"strings"

	"travelxguide/internal/auth"
)

type contextKey string

const (
	UserKey contextKey = "user_id"
	NameKey contextKey = "user_name"
	RoleKey contextKey = "user_role"
)

// TokenParser is what we need from the auth package.
// This interface keeps middleware decoupled from token internals.
type TokenParser interface {
	Parse(tokenString string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	parser TokenParser
}

func NewAuthMiddleware(p TokenParser) *AuthMiddleware {
	return &AuthMiddleware{parser: p}
}

// Require authenticates the request and, when role is non-empty, rejects
// principals with a different role. The token is read from the
// Authorization header or, for websocket handshakes, the token query param.
func (am *AuthMiddleware) Require(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				tokenString = r.URL.Query().Get("token")
			}

			if tokenString == "" {
				http.Error(w, "Missing authentication token", http.StatusUnauthorized)
				return
			}

			claims, err := am.parser.Parse(tokenString)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			if role != "" && claims.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, claims.ID)
			ctx = context.WithValue(ctx, NameKey, claims.Name)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
