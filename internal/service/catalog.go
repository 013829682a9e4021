package service

import (
	"context"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/repository"
)

// CatalogService reads the theme, cursus and lesson tree.
type CatalogService struct {
	repo repository.Querier
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(repo repository.Querier) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListThemes returns every theme with its cursus, lessons and certification.
func (s *CatalogService) ListThemes(ctx context.Context) ([]*domain.Theme, error) {
	const op = "catalog.themes"

	themeRows, err := s.repo.ListThemes(ctx)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}
	cursusRows, err := s.repo.ListCursus(ctx)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}
	lessonRows, err := s.repo.ListLessons(ctx)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}
	certRows, err := s.repo.ListCertifications(ctx)
	if err != nil {
		return nil, domain.PersistenceError(op, err)
	}

	themes := make([]*domain.Theme, 0, len(themeRows))
	byTheme := make(map[int64]*domain.Theme, len(themeRows))
	for _, row := range themeRows {
		t := toDomainTheme(row)
		themes = append(themes, t)
		byTheme[t.ID] = t
	}

	byCursus := make(map[int64]*domain.Cursus, len(cursusRows))
	for _, row := range cursusRows {
		c := toDomainCursus(row)
		byCursus[c.ID] = c
		if t, ok := byTheme[c.ThemeID]; ok {
			t.AddCursus(c)
		}
	}

	for _, row := range lessonRows {
		if c, ok := byCursus[row.CursusID]; ok {
			c.AddLesson(toDomainLesson(row))
		}
	}

	for _, row := range certRows {
		if t, ok := byTheme[row.ThemeID]; ok {
			t.AttachCertification(toDomainCertification(row))
		}
	}

	return themes, nil
}
