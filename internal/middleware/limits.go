package middleware

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/domain"
)

// Common size limits
const (
	KB = 1024
	MB = 1024 * KB

	// DefaultMaxBodySize covers form posts and JSON bodies.
	DefaultMaxBodySize = 1 * MB

	// WebhookMaxBodySize matches the largest Stripe event payloads.
	WebhookMaxBodySize = 64 * KB
)

// MaxBodySize rejects declared oversize bodies with 413 and caps the reader
// for the rest.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondWithError(w, r, domain.Errorf(domain.ETOOLARGE, "", "Request body too large"))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
