package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/galerie/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// UserKey is the context key for the authenticated username.
const UserKey contextKey = "user"

// RoleKey is the context key for the authenticated role.
const RoleKey contextKey = "role"

// RequireAdmin returns middleware that validates the admin JWT and injects the
// identity into the request context. The token is read from the Authorization
// header (Bearer scheme) or, failing that, from the "token" cookie set at
// login — the admin UI authenticates with the cookie.
func RequireAdmin(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie("token"); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				response.Unauthorized(w, "authentication required")
				return
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				response.Unauthorized(w, "invalid token claims")
				return
			}

			role, _ := claims["role"].(string)
			if role != "admin" {
				response.Unauthorized(w, "admin access required")
				return
			}
			username, _ := claims["sub"].(string)

			ctx := context.WithValue(r.Context(), UserKey, username)
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
