package storefront

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/handler"
)

// LessonHandler lets learners mark purchased lessons as completed.
type LessonHandler struct {
	validator LessonValidator
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(validator LessonValidator) *LessonHandler {
	return &LessonHandler{validator: validator}
}

type validationJSON struct {
	LessonID            int64              `json:"lesson_id"`
	AlreadyValidated    bool               `json:"already_validated"`
	CursusValidated     bool               `json:"cursus_validated"`
	ThemeValidated      bool               `json:"theme_validated"`
	CertificationIssued bool               `json:"certification_issued"`
	Certification       *certificationJSON `json:"certification,omitempty"`
}

// Validate handles POST /lessons/{id}/validate
func (h *LessonHandler) Validate(w http.ResponseWriter, r *http.Request) {
	lessonID, err := pathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.validator.ValidateLesson(r.Context(), domain.UserFromContext(r.Context()), lessonID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := validationJSON{
		LessonID:            lessonID,
		AlreadyValidated:    result.AlreadyValidated,
		CursusValidated:     result.CursusValidated,
		ThemeValidated:      result.ThemeValidated,
		CertificationIssued: result.CertificationIssued,
	}
	if c := result.Certification; c != nil {
		out.Certification = &certificationJSON{ID: c.ID, ThemeID: c.ThemeID, CreatedAt: c.CreatedAt}
	}
	handler.WriteJSON(w, http.StatusOK, out)
}
