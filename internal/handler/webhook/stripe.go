// Package webhook receives payment gateway notifications.
package webhook

import (
	"io"
	"net/http"

	"github.com/dukerupert/savoir/internal/billing"
	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/handler"
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/telemetry"
)

// WebhookParser verifies and decodes a signed gateway notification.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*billing.WebhookEvent, error)
}

// StripeHandler handles Stripe webhook events.
//
// Purchases are not created here: the cart lives in the visitor's session,
// so materialization happens on the success redirect. Events are verified
// and logged for reconciliation.
type StripeHandler struct {
	parser  WebhookParser
	metrics *telemetry.BusinessMetrics
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(parser WebhookParser, metrics *telemetry.BusinessMetrics) *StripeHandler {
	return &StripeHandler{
		parser:  parser,
		metrics: metrics,
	}
}

// HandleWebhook handles POST /webhooks/stripe
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:3000/webhooks/stripe
//	stripe trigger checkout.session.completed
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.metrics.RecordWebhookFailure("read")
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "webhook.read", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.metrics.RecordWebhookFailure("missing_signature")
		handler.ErrorResponse(w, r, domain.Invalid("webhook.signature", "Missing signature"))
		return
	}

	event, err := h.parser.ParseWebhook(payload, signature)
	if err != nil {
		h.metrics.RecordWebhookFailure("invalid_signature")
		logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "webhook.signature", "Invalid signature"))
		return
	}

	h.metrics.RecordWebhook(event.Type)

	switch event.Type {
	case billing.EventCheckoutCompleted:
		h.logSession(r, "checkout session completed", event)
	case billing.EventCheckoutExpired:
		h.logSession(r, "checkout session expired", event)
	default:
		logger.Debug("unhandled webhook event", "event_id", event.ID, "event_type", event.Type)
	}

	handler.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *StripeHandler) logSession(r *http.Request, msg string, event *billing.WebhookEvent) {
	attrs := []any{"event_id", event.ID, "event_type", event.Type}
	if s := event.Session; s != nil {
		attrs = append(attrs,
			"checkout_session_id", s.ID,
			"payment_status", string(s.PaymentStatus),
			"amount_total", s.AmountTotal,
			"currency", s.Currency,
			"client_reference_id", s.ClientReferenceID,
		)
	}
	middleware.GetLogger(r.Context()).Info(msg, attrs...)
}
