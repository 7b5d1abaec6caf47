package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session_id"
)

type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*models.User, *Claims, error)
}

// Middleware attaches the caller's identity when a valid bearer token is
// present. Requests without one pass through anonymously.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			u, claims, err := a.Authenticate(r.Context(), rawToken)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, models.ErrUnavailable) {
					status = http.StatusServiceUnavailable
				}
				writeError(w, status, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			ctx = context.WithValue(ctx, sessionKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if u.Role != role {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func SessionIDFromContext(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionKey).(string); ok {
		return sid
	}
	return ""
}

// WithUser is used by tests and internal callers that already resolved the user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(utils.ErrorResponse(status, msg))
}
