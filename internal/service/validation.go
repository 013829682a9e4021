package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/events"
	"github.com/dukerupert/savoir/internal/repository"
	"github.com/dukerupert/savoir/internal/telemetry"
)

// ValidationResult reports what a lesson validation changed.
type ValidationResult struct {
	// AlreadyValidated is true when the lesson was validated before this call.
	// Nothing else is changed in that case.
	AlreadyValidated bool

	CursusValidated bool
	ThemeValidated  bool

	// CertificationIssued is true only when this call created the theme's
	// certification. Re-completing a certified theme refreshes its timestamp.
	CertificationIssued bool

	// Certification is set whenever the theme became valid.
	Certification *domain.Certification
}

// ValidationService validates lessons and cascades completion upwards to the
// cursus, the theme and its certification.
type ValidationService struct {
	tx        TxRunner
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewValidationService creates a ValidationService.
func NewValidationService(tx TxRunner, publisher events.Publisher, logger *slog.Logger, metrics *telemetry.BusinessMetrics) *ValidationService {
	return &ValidationService{
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// ValidateLesson marks the user's purchase of the lesson validated. When every
// lesson of the cursus is then validated for the user the cursus is marked
// validated, and when every cursus of the theme is validated the theme is
// marked valid and certified. All writes share one transaction, and the theme
// row lock serializes concurrent cascades within a theme.
func (s *ValidationService) ValidateLesson(ctx context.Context, user *domain.User, lessonID int64) (*ValidationResult, error) {
	const op = "validation.lesson"

	if user == nil {
		return nil, domain.WithOp(domain.ErrNotAuthenticated, op)
	}

	var (
		result *ValidationResult
		lesson repository.Lesson
		cursus repository.Cursus
	)

	err := s.tx.InTx(ctx, func(q repository.Querier) error {
		result = &ValidationResult{}

		var err error
		lesson, err = q.GetLesson(ctx, lessonID)
		if isNoRows(err) {
			return ErrLessonNotFound
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}

		cursus, err = q.GetCursus(ctx, lesson.CursusID)
		if err != nil {
			return domain.PersistenceError(op, err)
		}

		if _, err := q.LockTheme(ctx, cursus.ThemeID); err != nil {
			return domain.PersistenceError(op, err)
		}

		purchase, err := q.GetLessonPurchaseForUpdate(ctx, repository.GetLessonPurchaseForUpdateParams{
			UserID:   user.ID,
			LessonID: lesson.ID,
		})
		if isNoRows(err) {
			return domain.WithOp(domain.ErrNotPurchased, op)
		}
		if err != nil {
			return domain.PersistenceError(op, err)
		}

		if purchase.Validated {
			result.AlreadyValidated = true
			return nil
		}

		if err := q.MarkPurchaseValidated(ctx, purchase.ID); err != nil {
			return domain.PersistenceError(op, err)
		}

		return s.cascade(ctx, q, op, user.ID, cursus, result)
	})
	if err != nil {
		switch {
		case domain.IsCode(err, domain.EFORBIDDEN):
			s.metrics.RecordLessonValidation("not_purchased")
		case domain.IsCode(err, domain.EINTERNAL):
			s.logger.Error("lesson validation failed", "lesson_id", lessonID, "user_id", user.ID, "error", err)
			s.metrics.RecordLessonValidation("failed")
		}
		return nil, asDomainError(op, err)
	}

	if result.AlreadyValidated {
		s.metrics.RecordLessonValidation("already_validated")
		return result, nil
	}

	s.afterCommit(ctx, user.ID, lesson, cursus, result)
	return result, nil
}

// cascade propagates a fresh lesson validation to the cursus and theme.
func (s *ValidationService) cascade(ctx context.Context, q repository.Querier, op string, userID int64, cursus repository.Cursus, result *ValidationResult) error {
	total, err := q.CountLessonsInCursus(ctx, cursus.ID)
	if err != nil {
		return domain.PersistenceError(op, err)
	}
	validated, err := q.CountValidatedLessonsInCursus(ctx, repository.CountValidatedLessonsInCursusParams{
		UserID:   userID,
		CursusID: cursus.ID,
	})
	if err != nil {
		return domain.PersistenceError(op, err)
	}
	if validated < total {
		return nil
	}

	if err := q.SetCursusValidated(ctx, cursus.ID); err != nil {
		return domain.PersistenceError(op, err)
	}
	result.CursusValidated = true

	totalCursus, err := q.CountCursusInTheme(ctx, cursus.ThemeID)
	if err != nil {
		return domain.PersistenceError(op, err)
	}
	validCursus, err := q.CountValidatedCursusInTheme(ctx, cursus.ThemeID)
	if err != nil {
		return domain.PersistenceError(op, err)
	}
	if validCursus != totalCursus {
		return nil
	}

	if err := q.SetThemeValid(ctx, cursus.ThemeID); err != nil {
		return domain.PersistenceError(op, err)
	}
	result.ThemeValidated = true

	cert, err := q.UpsertCertification(ctx, cursus.ThemeID)
	if err != nil {
		return domain.PersistenceError(op, err)
	}
	result.CertificationIssued = cert.Inserted
	result.Certification = toDomainCertification(repository.Certification{
		ID:        cert.ID,
		ThemeID:   cert.ThemeID,
		CreatedAt: cert.CreatedAt,
	})

	return nil
}

func (s *ValidationService) afterCommit(ctx context.Context, userID int64, lesson repository.Lesson, cursus repository.Cursus, result *ValidationResult) {
	s.metrics.RecordLessonValidation("validated")
	if result.CursusValidated {
		s.metrics.RecordCursusValidated()
		s.logger.Info("cursus validated", "cursus_id", cursus.ID, "user_id", userID)
	}
	if result.ThemeValidated {
		s.metrics.RecordThemeValidated()
		s.logger.Info("theme validated", "theme_id", cursus.ThemeID, "user_id", userID)
	}

	now := time.Now().UTC()
	if err := s.publisher.Publish(ctx, events.SubjectLessonValidated, events.LessonValidated{
		UserID:          userID,
		LessonID:        lesson.ID,
		CursusID:        cursus.ID,
		ThemeID:         cursus.ThemeID,
		CursusValidated: result.CursusValidated,
		ThemeValidated:  result.ThemeValidated,
		OccurredAt:      now,
	}); err != nil {
		s.logger.Warn("failed to publish lesson event", "error", err)
	}

	if !result.CertificationIssued {
		return
	}

	s.metrics.RecordCertificationIssued("cascade")
	s.logger.Info("certification issued", "theme_id", cursus.ThemeID, "certification_id", result.Certification.ID)
	if err := s.publisher.Publish(ctx, events.SubjectCertificationIssued, events.CertificationIssued{
		CertificationID: result.Certification.ID,
		ThemeID:         cursus.ThemeID,
		UserID:          userID,
		IssuedAt:        result.Certification.CreatedAt,
	}); err != nil {
		s.logger.Warn("failed to publish certification event", "error", err)
	}
}
