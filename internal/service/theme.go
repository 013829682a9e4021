package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/events"
	"github.com/dukerupert/savoir/internal/repository"
	"github.com/dukerupert/savoir/internal/telemetry"
)

// ThemeService holds administrative theme operations.
type ThemeService struct {
	tx        TxRunner
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewThemeService creates a ThemeService.
func NewThemeService(tx TxRunner, publisher events.Publisher, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *ThemeService {
	return &ThemeService{
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// ValidateTheme marks a theme valid directly, without looking at its cursus.
// It returns false when the theme was already valid. Otherwise it creates the
// certification if the theme has none and reports whether it did.
func (s *ThemeService) ValidateTheme(ctx context.Context, themeID int64) (bool, error) {
	const op = "theme.validate"

	var (
		validated bool
		created   bool
		cert      repository.Certification
	)

	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		validated, created = false, false

		theme, err := q.LockTheme(ctx, themeID)
		if isNoRows(err) {
			return ErrThemeNotFound
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}
		if theme.Valid {
			return nil
		}

		n, err := q.CountCursusInTheme(ctx, themeID)
		if err != nil {
			return domain.PersistenceError(op, err)
		}
		if n == 0 {
			s.logger.Warn("validating theme without cursus", "theme_id", themeID)
		}

		if err := q.SetThemeValid(ctx, themeID); err != nil {
			return domain.PersistenceError(op, err)
		}
		validated = true

		cert, err = q.CreateCertificationIfAbsent(ctx, themeID)
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, asDomainError(op, err)
	}

	if validated {
		s.metrics.RecordThemeValidated()
		s.logger.Info("theme validated", "theme_id", themeID)
	}
	if created {
		s.metrics.RecordCertificationIssued("admin")
		s.logger.Info("certification issued", "theme_id", themeID, "certification_id", cert.ID)
		if err := s.publisher.Publish(ctx, events.SubjectCertificationIssued, events.CertificationIssued{
			CertificationID: cert.ID,
			ThemeID:         themeID,
			IssuedAt:        timestamptz(cert.CreatedAt),
		}); err != nil {
			s.logger.Warn("failed to publish certification event", "error", err)
		}
	}

	return created, nil
}
