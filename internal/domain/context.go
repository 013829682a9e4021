// Package domain provides the core catalog, cart and purchase types for
// Savoir along with request-scoped context helpers.
package domain

import "context"

type contextKey int

const (
	userContextKey contextKey = iota
	requestIDContextKey
)

// User is the authenticated learner attached to a request.
type User struct {
	ID       int64
	Username string
	Email    string
}

// NewContextWithUser returns a new context with the user attached.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the user from context.
// Returns nil for anonymous requests.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}
