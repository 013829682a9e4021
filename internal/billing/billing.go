// Package billing hosts the payment gateway used by checkout.
package billing

import (
	"context"
	"time"
)

// Gateway defines the hosted-checkout operations the shop relies on.
// Implementations can use Stripe Checkout or a mock in tests.
type Gateway interface {
	// CreateSession opens a hosted payment page for the line items.
	// The returned URL is where the visitor must be redirected.
	CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)

	// GetSession retrieves a checkout session to confirm it was paid.
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// ParseWebhook verifies the signature header and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// LineItem is one priced line sent to the gateway.
type LineItem struct {
	// Name is shown on the hosted payment page.
	Name string `validate:"required"`

	// UnitAmount is the unit price in minor currency units (cents).
	UnitAmount int64 `validate:"gte=0"`

	Quantity int64 `validate:"gte=1"`
}

// CreateSessionParams contains parameters for opening a checkout session.
type CreateSessionParams struct {
	LineItems []LineItem `validate:"required,min=1,dive"`

	// SuccessURL may contain the {CHECKOUT_SESSION_ID} placeholder.
	SuccessURL string `validate:"required,url"`
	CancelURL  string `validate:"required,url"`

	// Currency is an ISO 4217 code in lower case, e.g. "eur".
	Currency string `validate:"required,len=3,lowercase"`

	// ClientReferenceID links the session to our user, when known.
	ClientReferenceID string
}

// PaymentStatus mirrors the gateway's payment state of a session.
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

// CheckoutSession is the gateway-side checkout.
type CheckoutSession struct {
	ID                string
	URL               string
	PaymentStatus     PaymentStatus
	AmountTotal       int64
	Currency          string
	ClientReferenceID string
	CreatedAt         time.Time
}

// IsPaid reports whether the gateway captured the payment.
func (s *CheckoutSession) IsPaid() bool {
	return s != nil && s.PaymentStatus == PaymentStatusPaid
}

// WebhookEvent is a verified gateway notification.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

// Webhook event types handled by the shop.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)
