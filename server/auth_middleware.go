package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-story-client/token"
	"github.com/jrsteele09/go-story-client/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyClaims stores the verified token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates a Bearer login token and injects the user it belongs to.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// Extract Bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			raw := strings.TrimSpace(parts[1])
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "empty token")
				return
			}

			user, claims, err := s.board.Authenticate(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// UserFromContext returns the user injected by RequireAuth.
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(*users.User)
	return user, ok && user != nil
}

func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok && claims != nil
}
