package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/thequantifier/quantifier/internal/domain/auth/repository"
	"github.com/thequantifier/quantifier/internal/domain/auth/service"
	"github.com/thequantifier/quantifier/pkg/server"
)

type contextKey struct{}

var userContextKey = contextKey{}

// UserFrom extracts the authenticated user from a request context.
func UserFrom(ctx context.Context) (*repository.User, bool) {
	user, ok := ctx.Value(userContextKey).(*repository.User)
	return user, ok
}

// RequireAuth authenticates the session cookie, falling back to a bearer
// token, and attaches the user to the request context.
func RequireAuth(svc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				server.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					server.RespondError(w, http.StatusUnauthorized, "user no longer exists")
					return
				}
				server.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}
