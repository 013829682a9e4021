package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAPIKey is returned when the Stripe API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("billing: invalid or missing API key")

	// ErrSessionNotFound is returned when a checkout session does not exist.
	ErrSessionNotFound = errors.New("billing: checkout session not found")

	// ErrInvalidWebhookSignature is returned when webhook signature verification fails.
	ErrInvalidWebhookSignature = errors.New("billing: invalid webhook signature")

	// ErrInvalidParams is returned when session parameters fail validation
	// before reaching the gateway.
	ErrInvalidParams = errors.New("billing: invalid checkout parameters")
)

// StripeError wraps a Stripe API error with additional context.
// Checkout returns it to callers unchanged.
type StripeError struct {
	Message       string // Human-readable error message
	Code          string // Stripe error code (e.g., "amount_too_small")
	DeclineCode   string // Card decline reason (if applicable)
	StatusCode    int    // HTTP status code from Stripe
	RequestID     string // Stripe request ID for debugging
	OriginalError error  // Original error from Stripe SDK
}

func (e *StripeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %s (code: %s)", e.Message, e.Code)
	}
	return fmt.Sprintf("stripe: %s", e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.OriginalError
}

// IsDeclined returns true if error is due to card decline.
func (e *StripeError) IsDeclined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTemporary returns true if error is likely transient and retryable.
func (e *StripeError) IsTemporary() bool {
	return e.Code == "rate_limit" || e.Code == "api_connection_error" || e.StatusCode >= 500
}

// IsGatewayError reports whether err originated at the payment gateway.
func IsGatewayError(err error) bool {
	var se *StripeError
	return errors.As(err, &se)
}
