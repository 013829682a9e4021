// Package cookie provides the session cookie helpers shared by the HTTP handlers.
package cookie

import (
	"net/http"
)

// Config holds cookie configuration.
type Config struct {
	// Domain scopes the cookie. Empty means host-only.
	Domain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool

	// MaxAge is the session cookie lifetime in seconds.
	MaxAge int
}

// NewConfig creates a new cookie configuration.
//
// Example:
//
//	cfg := cookie.NewConfig("", true, 30*24*3600) // production
func NewConfig(domain string, secure bool, maxAge int) *Config {
	return &Config{
		Domain: domain,
		Secure: secure,
		MaxAge: maxAge,
	}
}

// SetSession writes an HttpOnly, SameSite=Lax session cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   c.MaxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes a session cookie by setting MaxAge to -1.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.Domain,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

const (
	// SessionCookieName carries the visitor session that scopes the cart.
	SessionCookieName = "savoir_session"

	// AuthCookieName carries the signed access token of a logged-in learner.
	AuthCookieName = "savoir_auth"
)
