package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockGateway is a mock payment gateway for testing.
// Simulates hosted checkout without calling Stripe.
type MockGateway struct {
	// CreateSessionFunc allows customizing session creation behavior
	CreateSessionFunc func(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)

	// GetSessionFunc allows customizing session retrieval behavior
	GetSessionFunc func(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// ParseWebhookFunc allows customizing webhook parsing behavior
	ParseWebhookFunc func(payload []byte, signature string) (*WebhookEvent, error)

	// Sessions stores created sessions for retrieval
	Sessions map[string]*CheckoutSession

	// LastParams records the last CreateSession input
	LastParams *CreateSessionParams

	// CallLog tracks method calls for test assertions
	CallLog []string
}

var _ Gateway = (*MockGateway)(nil)

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Sessions: make(map[string]*CheckoutSession),
		CallLog:  []string{},
	}
}

// CreateSession creates a mock session that is unpaid until MarkPaid is called.
func (m *MockGateway) CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("CreateSession(%d items, %s)", len(params.LineItems), params.Currency))
	m.LastParams = &params

	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, params)
	}

	var total int64
	for _, li := range params.LineItems {
		total += li.UnitAmount * li.Quantity
	}

	id := "cs_test_" + uuid.New().String()
	s := &CheckoutSession{
		ID:                id,
		URL:               "https://checkout.stripe.test/pay/" + id,
		PaymentStatus:     PaymentStatusUnpaid,
		AmountTotal:       total,
		Currency:          params.Currency,
		ClientReferenceID: params.ClientReferenceID,
		CreatedAt:         time.Now(),
	}
	m.Sessions[id] = s
	return s, nil
}

// GetSession returns a stored mock session.
func (m *MockGateway) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	m.CallLog = append(m.CallLog, fmt.Sprintf("GetSession(%s)", sessionID))

	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}

	s, ok := m.Sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ParseWebhook decodes nothing by default and accepts any signature.
func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	m.CallLog = append(m.CallLog, "ParseWebhook")

	if m.ParseWebhookFunc != nil {
		return m.ParseWebhookFunc(payload, signature)
	}
	return &WebhookEvent{ID: "evt_mock", Type: "mock"}, nil
}

// MarkPaid flips a stored session to paid, as the hosted page would.
func (m *MockGateway) MarkPaid(sessionID string) {
	if s, ok := m.Sessions[sessionID]; ok {
		s.PaymentStatus = PaymentStatusPaid
	}
}
