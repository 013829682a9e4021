package storefront

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/handler"
)

// AccountHandler serves the signed-in learner's library.
type AccountHandler struct {
	library Library
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(library Library) *AccountHandler {
	return &AccountHandler{library: library}
}

// Purchases handles GET /account/purchases
func (h *AccountHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	views, err := h.library.ListPurchases(r.Context(), domain.UserFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]purchaseJSON, 0, len(views))
	for _, v := range views {
		out = append(out, newPurchaseJSON(v.Purchase, v.Name))
	}
	handler.WriteJSON(w, http.StatusOK, map[string]any{"purchases": out})
}
