package storefront

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/handler"
	"github.com/dukerupert/savoir/internal/session"
)

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	carts CartManager
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartManager) *CartHandler {
	return &CartHandler{carts: carts}
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, scope)
}

// Add handles POST /cart/add/{kind}/{id}
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	kind := domain.ItemKind(r.PathValue("kind"))
	if !kind.Valid() {
		handler.BadRequestResponse(w, r, "Unknown item kind: "+string(kind))
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.carts.AddItem(r.Context(), scope, domain.ItemRef{Kind: kind, ID: id}); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, scope)
}

// Remove handles POST /cart/remove/{key}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ref, err := domain.ParseItemRef(r.PathValue("key"))
	if err != nil {
		handler.BadRequestResponse(w, r, "Invalid cart key")
		return
	}

	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := h.carts.RemoveItem(r.Context(), scope, ref); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.writeCart(w, r, scope)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, scope session.Scope) {
	summary, err := h.carts.Resolve(r.Context(), scope)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, newCartJSON(summary))
}
