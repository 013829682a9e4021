package middleware

import (
	"context"
	"net/http"

	"github.com/dukerupert/savoir/internal/cookie"
	"github.com/dukerupert/savoir/internal/session"
)

const scopeContextKey contextKey = "session_scope"

// WithSession opens the visitor's session scope from the session cookie,
// issuing a new session ID when the cookie is missing or malformed.
func WithSession(store session.Store, cookies *cookie.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := cookie.Get(r, cookie.SessionCookieName)
			if !session.ValidID(id) {
				var err error
				id, err = session.NewID()
				if err != nil {
					respondInternalError(w, r, err)
					return
				}
			}
			// Refreshed on every request so the cookie outlives active visitors.
			cookies.SetSession(w, cookie.SessionCookieName, id)

			ctx := context.WithValue(r.Context(), scopeContextKey, store.Scope(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionScope returns the scope opened by WithSession, or nil.
func GetSessionScope(ctx context.Context) session.Scope {
	scope, _ := ctx.Value(scopeContextKey).(session.Scope)
	return scope
}
