package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/savoir/internal/billing"
	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/session"
	"github.com/dukerupert/savoir/internal/telemetry"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CheckoutConfig holds the URLs and currency used for gateway sessions.
type CheckoutConfig struct {
	// BaseURL is the public origin of the shop, e.g. "https://savoir.example".
	BaseURL string

	// Currency is an ISO 4217 code in lower case.
	Currency string
}

// CheckoutService sends resolved carts to the payment gateway and turns
// confirmed payments into purchases.
type CheckoutService struct {
	carts     *CartService
	purchases *PurchaseService
	gateway   billing.Gateway
	config    CheckoutConfig
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(
	carts *CartService,
	purchases *PurchaseService,
	gateway billing.Gateway,
	config CheckoutConfig,
	logger *slog.Logger,
	metrics *telemetry.BusinessMetrics,
) *CheckoutService {
	if config.Currency == "" {
		config.Currency = "eur"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &CheckoutService{
		carts:     carts,
		purchases: purchases,
		gateway:   gateway,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
}

// BuildLineItems converts resolved lines to gateway line items with unit
// prices in minor units.
func BuildLineItems(items []domain.CartItem) ([]billing.LineItem, error) {
	const op = "checkout.build_line_items"

	if len(items) == 0 {
		return nil, domain.WithOp(domain.ErrEmptyCart, op)
	}

	out := make([]billing.LineItem, 0, len(items))
	for _, item := range items {
		if item.Lesson == nil && item.Cursus == nil {
			return nil, fmt.Errorf("%w: line %s is not resolved", domain.WithOp(domain.ErrInvalidCartItem, op), item.Ref)
		}
		name := item.Name()
		price := item.UnitPrice()
		if name == "" || price.IsNegative() {
			return nil, fmt.Errorf("%w: line %s has no usable name or price", domain.WithOp(domain.ErrInvalidCartItem, op), item.Ref)
		}

		out = append(out, billing.LineItem{
			Name:       name,
			UnitAmount: MinorUnits(price),
			Quantity:   int64(item.Quantity),
		})
	}
	return out, nil
}

// MinorUnits converts a price to cents, rounding half away from zero.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// Start opens a gateway checkout for the visitor's cart and returns the URL
// to redirect to. An empty cart fails before the gateway is called. Gateway
// errors are returned unchanged.
func (s *CheckoutService) Start(ctx context.Context, scope session.Scope, user *domain.User) (string, error) {
	summary, err := s.carts.Resolve(ctx, scope)
	if err != nil {
		return "", err
	}

	lineItems, err := BuildLineItems(summary.Items)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			s.metrics.RecordCheckoutRejected("empty_cart")
		default:
			s.logger.Error("invalid cart item at checkout", "error", err)
			s.metrics.RecordCheckoutRejected("invalid_item")
		}
		return "", err
	}

	params := billing.CreateSessionParams{
		LineItems:  lineItems,
		SuccessURL: s.config.BaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.config.BaseURL + "/checkout/cancel",
		Currency:   s.config.Currency,
	}
	if user != nil {
		params.ClientReferenceID = strconv.FormatInt(user.ID, 10)
	}

	start := time.Now()
	sess, err := s.gateway.CreateSession(ctx, params)
	s.metrics.ObserveGateway("create_session", time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("payment gateway rejected checkout", "error", err)
		s.metrics.RecordCheckoutRejected("gateway")
		return "", err
	}

	total, _ := summary.Total.Float64()
	s.metrics.RecordCheckoutStarted(total)
	s.logger.Info("checkout started", "checkout_session_id", sess.ID, "lines", len(lineItems), "total", summary.Total.StringFixed(2))

	return sess.URL, nil
}

// ConfirmPayment checks with the gateway that the checkout session was paid,
// then materializes the visitor's cart for user and clears it.
//
// The session must have been opened for user, when it names one, and the
// cart must still add up to the amount the gateway collected. A session that
// was already confirmed returns the purchases recorded for it and leaves the
// current cart alone.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, scope session.Scope, user *domain.User, checkoutSessionID string) (*MaterializeResult, error) {
	const op = "checkout.confirm"

	if user == nil {
		return nil, domain.WithOp(domain.ErrNotAuthenticated, op)
	}
	if checkoutSessionID == "" {
		return nil, ErrMissingCheckoutSession
	}

	start := time.Now()
	sess, err := s.gateway.GetSession(ctx, checkoutSessionID)
	s.metrics.ObserveGateway("get_session", time.Since(start).Seconds())
	if errors.Is(err, billing.ErrSessionNotFound) {
		return nil, ErrCheckoutSessionUnknown
	}
	if err != nil {
		return nil, err
	}
	if !sess.IsPaid() {
		return nil, domain.WithOp(domain.ErrPaymentNotConfirmed, op)
	}
	if sess.ClientReferenceID != "" && sess.ClientReferenceID != strconv.FormatInt(user.ID, 10) {
		s.logger.Warn("checkout session confirmed by another user",
			"checkout_session_id", checkoutSessionID,
			"client_reference_id", sess.ClientReferenceID,
			"user_id", user.ID,
		)
		return nil, domain.WithOp(ErrCheckoutSessionForeign, op)
	}

	prior, err := s.purchases.ForCheckout(ctx, user, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		s.logger.Info("checkout already confirmed", "checkout_session_id", checkoutSessionID, "user_id", user.ID)
		return prior, nil
	}

	summary, err := s.carts.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}
	if summary.IsEmpty() {
		return nil, domain.WithOp(domain.ErrEmptyCart, op)
	}

	lineItems, err := BuildLineItems(summary.Items)
	if err != nil {
		return nil, err
	}
	if due := AmountDue(lineItems); due != sess.AmountTotal || !s.sameCurrency(sess.Currency) {
		s.logger.Warn("cart does not match paid checkout",
			"checkout_session_id", checkoutSessionID,
			"amount_due", due,
			"amount_paid", sess.AmountTotal,
			"currency", sess.Currency,
		)
		return nil, domain.WithOp(ErrCheckoutMismatch, op)
	}

	result, err := s.purchases.Materialize(ctx, user, PaidCheckout{
		SessionID:   checkoutSessionID,
		AmountTotal: sess.AmountTotal,
		Currency:    s.config.Currency,
	}, summary.Items)
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}

	if err := s.carts.Clear(ctx, scope); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to clear cart")
	}

	s.metrics.RecordCheckoutCompleted()
	return result, nil
}

// AmountDue sums line items in minor units.
func AmountDue(items []billing.LineItem) int64 {
	var total int64
	for _, li := range items {
		total += li.UnitAmount * li.Quantity
	}
	return total
}

func (s *CheckoutService) sameCurrency(currency string) bool {
	return currency == "" || strings.EqualFold(currency, s.config.Currency)
}
