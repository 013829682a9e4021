// Package session stores per-visitor key/value state. A Scope is the handle a
// request holds on its own visitor's data; there is no process-wide session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Scope is the key/value state of one visitor session.
type Scope interface {
	// Get returns the stored value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Store opens scopes by session ID.
type Store interface {
	Scope(sessionID string) Scope
}

// NewID generates a cryptographically secure session ID.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidID reports whether id has the shape produced by NewID.
func ValidID(id string) bool {
	if len(id) != 43 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil
}
