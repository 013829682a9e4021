package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// checkoutSessions is the subset of the Stripe SDK client used here.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements Gateway using Stripe Checkout.
type StripeGateway struct {
	sessions      checkoutSessions
	webhookSecret string
	validate      *validator.Validate
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates a Stripe-backed gateway with its own API client.
func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
	}

	maxRetries := int64(cfg.MaxRetries)
	if maxRetries <= 0 {
		maxRetries = 2
	}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(maxRetries),
	})
	sc := client.New(cfg.APIKey, backends)

	return newStripeGateway(sc.CheckoutSessions, cfg.WebhookSecret), nil
}

func newStripeGateway(sessions checkoutSessions, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sessions:      sessions,
		webhookSecret: webhookSecret,
		validate:      validator.New(),
	}
}

// CreateSession opens a one-off card payment session.
func (g *StripeGateway) CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	if err := g.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	sess, err := g.sessions.New(buildCheckoutSessionParams(ctx, params))
	if err != nil {
		return nil, toStripeError(err)
	}

	return fromStripeSession(sess), nil
}

// GetSession retrieves a checkout session by ID.
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := g.sessions.Get(sessionID, params)
	if err != nil {
		se := toStripeError(err)
		if se.Code == string(stripe.ErrorCodeResourceMissing) {
			return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, se)
		}
		return nil, se
	}

	return fromStripeSession(sess), nil
}

// ParseWebhook verifies a Stripe-Signature header and decodes checkout events.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Session = fromStripeSession(&sess)
	}

	return out, nil
}

// buildCheckoutSessionParams maps our line items to ad-hoc Stripe prices.
func buildCheckoutSessionParams(ctx context.Context, p CreateSessionParams) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.Currency),
				UnitAmount: stripe.Int64(li.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
	}
	if p.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(p.ClientReferenceID)
	}
	params.Context = ctx

	return params
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		PaymentStatus:     PaymentStatus(s.PaymentStatus),
		AmountTotal:       s.AmountTotal,
		Currency:          string(s.Currency),
		ClientReferenceID: s.ClientReferenceID,
		CreatedAt:         time.Unix(s.Created, 0).UTC(),
	}
}

func toStripeError(err error) *StripeError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       stripeErr.Msg,
			Code:          string(stripeErr.Code),
			DeclineCode:   string(stripeErr.DeclineCode),
			StatusCode:    stripeErr.HTTPStatusCode,
			RequestID:     stripeErr.RequestID,
			OriginalError: err,
		}
	}

	return &StripeError{
		Message:       err.Error(),
		Code:          "api_connection_error",
		OriginalError: err,
	}
}
