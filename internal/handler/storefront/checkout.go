package storefront

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/handler"
	"github.com/dukerupert/savoir/internal/middleware"
)

// CheckoutHandler handles the hosted checkout round trip.
type CheckoutHandler struct {
	checkout Checkout
	carts    CartManager
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout Checkout, carts CartManager) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
	}
}

// Start handles POST /checkout
// Redirects to the gateway's hosted payment page with 303 See Other.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	url, err := h.checkout.Start(r.Context(), scope, domain.UserFromContext(r.Context()))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Success handles GET /checkout/success?session_id=
// The gateway redirects here after payment. The paid cart becomes purchases.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	user := domain.UserFromContext(r.Context())
	result, err := h.checkout.ConfirmPayment(r.Context(), scope, user, r.URL.Query().Get("session_id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	purchases := make([]purchaseJSON, 0, len(result.Purchases))
	for _, p := range result.Purchases {
		purchases = append(purchases, newPurchaseJSON(p, ""))
	}

	middleware.GetLogger(r.Context()).Info("checkout completed",
		"user_id", user.ID,
		"purchases", len(result.Purchases),
		"already_confirmed", result.Replayed,
	)

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"purchases":         purchases,
		"lesson_count":      result.Count(domain.ItemKindLesson),
		"cursus_count":      result.Count(domain.ItemKindCursus),
		"already_confirmed": result.Replayed,
	})
}

// Cancel handles GET /checkout/cancel
// The cart is kept so the visitor can try again.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	scope, err := sessionScope(r)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary, err := h.carts.Resolve(r.Context(), scope)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "cancelled",
		"cart":   newCartJSON(summary),
	})
}
