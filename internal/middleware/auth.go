package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go-contacts-api/internal/model"
	"go-contacts-api/internal/service"
)

type identityResolver interface {
	Resolve(ctx context.Context, accessToken string) (*model.PublicUser, error)
}

type contextKey string

const currentUserContextKey contextKey = "current_user"

type AuthMiddleware struct {
	resolver identityResolver
}

func NewAuthMiddleware(resolver identityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// RequireAuth resolves the bearer token into an identity and stores it on
// the request context. Any failure yields a single 401 with a
// re-authenticate signal; callers never learn why resolution failed.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeAuthFailure(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid authorization header")
			return
		}

		token := strings.TrimSpace(header[7:])
		user, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			writeAuthFailure(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the admin role. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthFailure(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}

		if _, err := service.RequireRole(user, model.RoleAdmin); err != nil {
			writeAuthFailure(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (*model.PublicUser, bool) {
	user, ok := ctx.Value(currentUserContextKey).(*model.PublicUser)
	return user, ok
}

func writeAuthFailure(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}
