package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dukerupert/savoir/internal/cookie"
	"github.com/dukerupert/savoir/internal/domain"
)

// TokenVerifier resolves an access token to a user ID.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UserLookup loads a user by ID.
type UserLookup interface {
	Get(ctx context.Context, id int64) (*domain.User, error)
}

// WithUser adds the user identified by the auth cookie or bearer token to the
// request context. Requests without a valid token continue anonymously.
func WithUser(tokens TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = cookie.Get(r, cookie.AuthCookieName)
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := tokens.Verify(token)
			if err != nil {
				GetLogger(r.Context()).Debug("ignoring invalid access token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.Get(r.Context(), id)
			if err != nil {
				if !domain.IsCode(err, domain.ENOTFOUND) {
					respondInternalError(w, r, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := domain.NewContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if domain.UserFromContext(r.Context()) == nil {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdminToken admits requests bearing the configured admin token. An
// empty token closes the route entirely.
func RequireAdminToken(adminToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := bearerToken(r)
			if adminToken == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(adminToken)) != 1 {
				respondForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
