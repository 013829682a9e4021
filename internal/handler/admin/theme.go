// Package admin serves back-office operations guarded by the admin token.
package admin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dukerupert/savoir/internal/handler"
	"github.com/dukerupert/savoir/internal/middleware"
)

// ThemeValidator marks a theme valid directly.
type ThemeValidator interface {
	ValidateTheme(ctx context.Context, themeID int64) (bool, error)
}

// ThemeHandler handles theme administration.
type ThemeHandler struct {
	themes ThemeValidator
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(themes ThemeValidator) *ThemeHandler {
	return &ThemeHandler{themes: themes}
}

// Validate handles POST /admin/themes/{id}/validate
func (h *ThemeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	themeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || themeID <= 0 {
		handler.BadRequestResponse(w, r, "Invalid theme id")
		return
	}

	created, err := h.themes.ValidateTheme(r.Context(), themeID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("theme validated by admin",
		"theme_id", themeID,
		"certification_created", created,
	)

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"theme_id":              themeID,
		"certification_created": created,
	})
}
