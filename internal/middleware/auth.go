package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/user"

	"go.uber.org/zap"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the verified buyer attached to the request context.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == string(user.RoleAdmin)
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// extractToken pulls the bearer token from the Authorization header. Some
// clients send the raw token without the "Bearer " prefix; both forms are
// accepted, and the prefixless form is logged so it can be tracked down.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	logger.FromCtx(r.Context()).Warn("authorization header missing Bearer prefix",
		zap.String("path", r.URL.Path),
	)
	return authHeader
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// RequireSignIn verifies the bearer credential and attaches the caller's
// identity to the context. Any verification failure is a hard 401.
func RequireSignIn(tokens *user.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractToken(r)
			if tokenStr == "" {
				unauthorized(w, "Authorization header missing")
				return
			}

			claims, err := tokens.Verify(tokenStr)
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.UserID,
				Name:   claims.Name,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin-only routes. Must be mounted after RequireSignIn.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			unauthorized(w, "User not authenticated")
			return
		}

		if !id.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Admin access required",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
