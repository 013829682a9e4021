package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/repository"
)

// CertificationView pairs a certification with its theme name.
type CertificationView struct {
	domain.Certification
	ThemeName string
}

// LibraryService lists what a user owns and which themes are certified.
type LibraryService struct {
	repo   repository.Querier
	logger *slog.Logger
}

// NewLibraryService creates a LibraryService.
func NewLibraryService(repo repository.Querier, logger *slog.Logger) *LibraryService {
	return &LibraryService{repo: repo, logger: logger}
}

// ListPurchases returns the user's purchases, newest first.
func (s *LibraryService) ListPurchases(ctx context.Context, user *domain.User) ([]domain.PurchaseView, error) {
	const op = "library.purchases"

	if user == nil {
		return nil, domain.WithOp(domain.ErrNotAuthenticated, op)
	}

	rows, err := s.repo.ListPurchasesByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}

	views := make([]domain.PurchaseView, 0, len(rows))
	for _, row := range rows {
		p := toDomainPurchase(repository.Purchase{
			ID:        row.ID,
			UserID:    row.UserID,
			LessonID:  row.LessonID,
			CursusID:  row.CursusID,
			Validated: row.Validated,
			CreatedAt: row.CreatedAt,
		})
		kind := domain.ItemKindCursus
		if p.IsLesson() {
			kind = domain.ItemKindLesson
		}
		views = append(views, domain.PurchaseView{Purchase: p, Kind: kind, Name: row.ItemName})
	}
	return views, nil
}

// ListCertifications returns every issued certification.
func (s *LibraryService) ListCertifications(ctx context.Context) ([]CertificationView, error) {
	const op = "library.certifications"

	certs, err := s.repo.ListCertifications(ctx)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}

	views := make([]CertificationView, 0, len(certs))
	for _, c := range certs {
		theme, err := s.repo.GetTheme(ctx, c.ThemeID)
		if err != nil {
			// Certifications cascade with their theme, so a miss here is a race.
			if isNoRows(err) {
				s.logger.Warn("certification without theme", "certification_id", c.ID, "theme_id", c.ThemeID)
				continue
			}
			return nil, domain.PersistenceError(op, err)
		}
		views = append(views, CertificationView{
			Certification: *toDomainCertification(c),
			ThemeName:     theme.Name,
		})
	}
	return views, nil
}
