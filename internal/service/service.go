// Package service implements the shop and learning workflows: cart
// resolution, checkout, purchase materialization and the validation cascade.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/postgres"
	"github.com/dukerupert/savoir/internal/repository"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TxRunner runs fn inside a single database transaction. When fn returns an
// error nothing it wrote is kept.
type TxRunner interface {
	InTx(ctx context.Context, fn func(q repository.Querier) error) error
}

func isNoRows(err error) bool {
	return postgres.IsNotFound(err)
}

// asDomainError passes domain errors through and turns anything else into a
// persistence error.
func asDomainError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.PersistenceError(op, err)
}

// =============================================================================
// Row mapping
// =============================================================================

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timestamptz(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func toDomainTheme(t repository.Theme) *domain.Theme {
	return &domain.Theme{
		ID:    t.ID,
		Name:  t.Name,
		Image: t.Image,
		Valid: t.Valid,
	}
}

func toDomainCursus(c repository.Cursus) *domain.Cursus {
	return &domain.Cursus{
		ID:        c.ID,
		ThemeID:   c.ThemeID,
		Name:      c.Name,
		Price:     numericToDecimal(c.Price),
		Validated: c.Validated,
	}
}

func toDomainLesson(l repository.Lesson) *domain.Lesson {
	return &domain.Lesson{
		ID:       l.ID,
		CursusID: l.CursusID,
		Name:     l.Name,
		Price:    numericToDecimal(l.Price),
	}
}

func toDomainCertification(c repository.Certification) *domain.Certification {
	return &domain.Certification{
		ID:        c.ID,
		ThemeID:   c.ThemeID,
		CreatedAt: timestamptz(c.CreatedAt),
	}
}

func toDomainPurchase(p repository.Purchase) domain.Purchase {
	return domain.Purchase{
		ID:        p.ID,
		UserID:    p.UserID,
		LessonID:  int8Ptr(p.LessonID),
		CursusID:  int8Ptr(p.CursusID),
		Validated: p.Validated,
		CreatedAt: timestamptz(p.CreatedAt),

		CheckoutSessionID: p.CheckoutSessionID.String,
	}
}
