package storefront

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/handler"
)

// CatalogHandler serves the public catalog and certification listings.
type CatalogHandler struct {
	catalog CatalogReader
	library Library
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog CatalogReader, library Library) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		library: library,
	}
}

// Themes handles GET /themes
func (h *CatalogHandler) Themes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.catalog.ListThemes(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]themeJSON, 0, len(themes))
	for _, t := range themes {
		out = append(out, newThemeJSON(t))
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"themes": out})
}

// Certifications handles GET /certifications
func (h *CatalogHandler) Certifications(w http.ResponseWriter, r *http.Request) {
	certs, err := h.library.ListCertifications(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]certificationJSON, 0, len(certs))
	for _, c := range certs {
		out = append(out, newCertificationJSON(c))
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"certifications": out})
}
