package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/repository"
	"github.com/dukerupert/savoir/internal/session"
	"github.com/dukerupert/savoir/internal/telemetry"
	"github.com/shopspring/decimal"
)

// cartSessionKey is where the raw cart lives inside a visitor session.
const cartSessionKey = "cart"

// RawCart maps "{kind}-{id}" keys to quantities.
type RawCart map[string]int

// =============================================================================
// Cart store
// =============================================================================

// CartStore keeps the raw cart in the visitor's session scope. It does not
// check that referenced items exist.
type CartStore struct {
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics
}

// NewCartStore creates a CartStore.
func NewCartStore(logger *slog.Logger, metrics *telemetry.BusinessMetrics) *CartStore {
	return &CartStore{logger: logger, metrics: metrics}
}

// Add increments the quantity for ref, inserting it with quantity 1.
func (s *CartStore) Add(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	raw, err := s.Raw(ctx, scope)
	if err != nil {
		return err
	}

	raw[ref.Key()]++
	if err := s.save(ctx, scope, raw); err != nil {
		return err
	}

	s.metrics.RecordCartAdd(string(ref.Kind))
	return nil
}

// Remove deletes the line for ref. Removing a missing line is a no-op.
func (s *CartStore) Remove(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	raw, err := s.Raw(ctx, scope)
	if err != nil {
		return err
	}

	if _, ok := raw[ref.Key()]; !ok {
		return nil
	}
	delete(raw, ref.Key())
	if err := s.save(ctx, scope, raw); err != nil {
		return err
	}

	s.metrics.RecordCartRemove(string(ref.Kind))
	return nil
}

// Raw returns the stored key to quantity mapping. A missing or unreadable
// cart reads as empty.
func (s *CartStore) Raw(ctx context.Context, scope session.Scope) (RawCart, error) {
	data, ok, err := scope.Get(ctx, cartSessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart from session: %w", err)
	}

	raw := RawCart{}
	if !ok {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("discarding unreadable cart", "error", err)
		return RawCart{}, nil
	}
	return raw, nil
}

// Clear empties the cart.
func (s *CartStore) Clear(ctx context.Context, scope session.Scope) error {
	if err := scope.Remove(ctx, cartSessionKey); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartStore) save(ctx context.Context, scope session.Scope, raw RawCart) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := scope.Set(ctx, cartSessionKey, data); err != nil {
		return fmt.Errorf("failed to write cart to session: %w", err)
	}
	return nil
}

// =============================================================================
// Cart aggregator
// =============================================================================

// CartService resolves raw carts against the catalog.
type CartService struct {
	store   *CartStore
	repo    repository.Querier
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics
}

// NewCartService creates a CartService.
func NewCartService(store *CartStore, repo repository.Querier, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *CartService {
	return &CartService{
		store:   store,
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// AddItem adds a catalog item after checking it exists.
func (s *CartService) AddItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	const op = "cart.add"

	item, err := s.lookup(ctx, ref)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "failed to look up item")
	}
	if item == nil {
		if ref.Kind == domain.ItemKindCursus {
			return ErrCursusNotFound
		}
		return ErrLessonNotFound
	}

	return s.store.Add(ctx, scope, ref)
}

// RemoveItem removes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	return s.store.Remove(ctx, scope, ref)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, scope session.Scope) error {
	return s.store.Clear(ctx, scope)
}

// Resolve turns the raw cart into priced lines and a total. Lines whose item
// no longer exists, whose key is unreadable, or whose quantity is not
// positive are dropped and the stored cart is rewritten without them.
func (s *CartService) Resolve(ctx context.Context, scope session.Scope) (*domain.CartSummary, error) {
	const op = "cart.resolve"

	raw, err := s.store.Raw(ctx, scope)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to read cart")
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	summary := &domain.CartSummary{Items: []domain.CartItem{}}
	var dropped []string

	for _, key := range keys {
		qty := raw[key]

		ref, err := domain.ParseItemRef(key)
		if err != nil || qty < 1 {
			s.logger.Debug("dropping unreadable cart line", "key", key, "quantity", qty)
			s.metrics.RecordCartLineDropped("unknown")
			dropped = append(dropped, key)
			continue
		}

		item, err := s.lookup(ctx, ref)
		if err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to look up item")
		}
		if item == nil {
			s.logger.Debug("dropping dangling cart line", "key", key)
			s.metrics.RecordCartLineDropped(string(ref.Kind))
			dropped = append(dropped, key)
			continue
		}

		item.Quantity = qty
		summary.Items = append(summary.Items, *item)
		summary.ItemCount += qty
	}

	if len(dropped) > 0 {
		for _, key := range dropped {
			delete(raw, key)
		}
		if err := s.store.save(ctx, scope, raw); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "failed to rewrite cart")
		}
	}

	summary.Total = CartTotal(summary.Items)
	return summary, nil
}

// lookup returns nil, nil when the referenced item does not exist.
func (s *CartService) lookup(ctx context.Context, ref domain.ItemRef) (*domain.CartItem, error) {
	switch ref.Kind {
	case domain.ItemKindCursus:
		c, err := s.repo.GetCursus(ctx, ref.ID)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &domain.CartItem{Ref: ref, Cursus: toDomainCursus(c)}, nil

	case domain.ItemKindLesson:
		l, err := s.repo.GetLesson(ctx, ref.ID)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &domain.CartItem{Ref: ref, Lesson: toDomainLesson(l)}, nil
	}

	return nil, nil
}

// CartTotal sums price times quantity over the lines, rounded to cents.
func CartTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total.Round(2)
}
