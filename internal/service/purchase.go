package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/events"
	"github.com/dukerupert/savoir/internal/postgres"
	"github.com/dukerupert/savoir/internal/repository"
	"github.com/dukerupert/savoir/internal/telemetry"
	"github.com/jackc/pgx/v5/pgtype"
)

// MaterializeResult lists the purchases created from one paid cart.
type MaterializeResult struct {
	Purchases []domain.Purchase

	// Replayed is set when the checkout had already been confirmed and the
	// purchases are the ones recorded then.
	Replayed bool
}

// Count returns how many purchases of the given kind were created.
func (r *MaterializeResult) Count(kind domain.ItemKind) int {
	n := 0
	for _, p := range r.Purchases {
		if (kind == domain.ItemKindLesson) == p.IsLesson() {
			n++
		}
	}
	return n
}

// PaidCheckout identifies the gateway payment a materialization consumes.
type PaidCheckout struct {
	SessionID   string
	AmountTotal int64
	Currency    string
}

// PurchaseService turns paid cart lines into purchase records.
type PurchaseService struct {
	tx        TxRunner
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(tx TxRunner, publisher events.Publisher, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *PurchaseService {
	return &PurchaseService{
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Materialize records one purchase per lesson line, and for a cursus line one
// cursus purchase plus one per lesson of the cursus. Quantities are ignored.
// The checkout is recorded in the same transaction as the purchases, so a
// gateway session is consumed at most once. Materializing an already
// consumed checkout returns the purchases recorded for it, or EFORBIDDEN
// when another user consumed it.
func (s *PurchaseService) Materialize(ctx context.Context, user *domain.User, checkout PaidCheckout, items []domain.CartItem) (*MaterializeResult, error) {
	const op = "purchase.materialize"

	if user == nil {
		return nil, domain.WithOp(domain.ErrNotAuthenticated, op)
	}
	if checkout.SessionID == "" {
		return nil, ErrMissingCheckoutSession
	}
	if len(items) == 0 {
		return nil, domain.WithOp(domain.ErrEmptyCart, op)
	}
	for _, item := range items {
		if item.Lesson == nil && item.Cursus == nil {
			s.logger.Error("cart line has no catalog item", "ref", item.Ref.Key())
			return nil, domain.WithOp(domain.ErrInvalidCartItem, op)
		}
	}

	result := &MaterializeResult{}

	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		result.Purchases = result.Purchases[:0]

		_, err := q.CreateCheckoutSession(ctx, repository.CreateCheckoutSessionParams{
			ID:          checkout.SessionID,
			UserID:      user.ID,
			AmountTotal: checkout.AmountTotal,
			Currency:    checkout.Currency,
		})
		if postgres.IsUniqueViolation(err, "checkout_sessions_pkey") {
			return errCheckoutConsumed
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}

		record := func(p domain.Purchase) error {
			p.CheckoutSessionID = checkout.SessionID
			created, err := createPurchase(ctx, q, p)
			if err != nil {
				return err
			}
			result.Purchases = append(result.Purchases, created)
			return nil
		}

		for _, item := range items {
			if item.Lesson != nil {
				if err := record(domain.NewLessonPurchase(user.ID, item.Lesson.ID)); err != nil {
					return domain.PersistenceError(op, err)
				}
				continue
			}

			if err := record(domain.NewCursusPurchase(user.ID, item.Cursus.ID)); err != nil {
				return domain.PersistenceError(op, err)
			}

			lessons, err := q.ListLessonsByCursus(ctx, item.Cursus.ID)
			if err != nil {
				return domain.PersistenceError(op, err)
			}
			for _, l := range lessons {
				if err := record(domain.NewLessonPurchase(user.ID, l.ID)); err != nil {
					return domain.PersistenceError(op, err)
				}
			}
		}
		return nil
	})
	if errors.Is(err, errCheckoutConsumed) {
		return s.consumedCheckout(ctx, user, checkout.SessionID)
	}
	if err != nil {
		return nil, asDomainError(op, err)
	}

	s.metrics.RecordPurchases(string(domain.ItemKindLesson), result.Count(domain.ItemKindLesson))
	s.metrics.RecordPurchases(string(domain.ItemKindCursus), result.Count(domain.ItemKindCursus))
	s.logger.Info("purchases materialized", "user_id", user.ID, "checkout_session_id", checkout.SessionID, "count", len(result.Purchases))

	ids := make([]int64, 0, len(result.Purchases))
	for _, p := range result.Purchases {
		ids = append(ids, p.ID)
	}
	if err := s.publisher.Publish(ctx, events.SubjectPurchasesMaterialized, events.PurchasesMaterialized{
		UserID:      user.ID,
		PurchaseIDs: ids,
		OccurredAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("failed to publish purchases event", "error", err)
	}

	return result, nil
}

// ForCheckout returns the purchases already recorded for a gateway session,
// or nil when the session has not been consumed. A session consumed by
// another user is EFORBIDDEN.
func (s *PurchaseService) ForCheckout(ctx context.Context, user *domain.User, checkoutSessionID string) (*MaterializeResult, error) {
	const op = "purchase.for_checkout"

	if user == nil {
		return nil, domain.WithOp(domain.ErrNotAuthenticated, op)
	}

	var result *MaterializeResult
	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		result = nil

		cs, err := q.GetCheckoutSession(ctx, checkoutSessionID)
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}
		if cs.UserID != user.ID {
			return domain.WithOp(ErrCheckoutSessionForeign, op)
		}

		rows, err := q.ListPurchasesByCheckoutSession(ctx, checkoutSessionID)
		if err != nil {
			return domain.PersistenceError(op, err)
		}
		result = &MaterializeResult{Replayed: true, Purchases: make([]domain.Purchase, 0, len(rows))}
		for _, row := range rows {
			result.Purchases = append(result.Purchases, toDomainPurchase(row))
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(op, err)
	}
	return result, nil
}

// consumedCheckout resolves a lost race on the checkout record.
func (s *PurchaseService) consumedCheckout(ctx context.Context, user *domain.User, checkoutSessionID string) (*MaterializeResult, error) {
	result, err := s.ForCheckout(ctx, user, checkoutSessionID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, domain.Errorf(domain.EINTERNAL, "purchase.materialize", "checkout session %s vanished after conflict", checkoutSessionID)
	}
	s.logger.Info("checkout already materialized", "user_id", user.ID, "checkout_session_id", checkoutSessionID)
	return result, nil
}

func createPurchase(ctx context.Context, q repository.Querier, p domain.Purchase) (domain.Purchase, error) {
	if err := p.Validate(); err != nil {
		return domain.Purchase{}, err
	}

	params := repository.CreatePurchaseParams{UserID: p.UserID}
	if p.LessonID != nil {
		params.LessonID = pgtype.Int8{Int64: *p.LessonID, Valid: true}
	}
	if p.CursusID != nil {
		params.CursusID = pgtype.Int8{Int64: *p.CursusID, Valid: true}
	}
	if p.CheckoutSessionID != "" {
		params.CheckoutSessionID = pgtype.Text{String: p.CheckoutSessionID, Valid: true}
	}

	row, err := q.CreatePurchase(ctx, params)
	if err != nil {
		return domain.Purchase{}, err
	}
	return toDomainPurchase(row), nil
}
