package routes

import (
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/router"
)

// RegisterStorefrontRoutes registers all learner-facing routes.
// Every route runs inside the visitor's session so the cart follows them
// from anonymous browsing through checkout.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	s := r.Group(deps.Session)

	// Catalog
	s.Get("/themes", deps.CatalogHandler.Themes)
	s.Get("/certifications", deps.CatalogHandler.Certifications)

	// Shopping cart
	s.Get("/cart", deps.CartHandler.View)
	s.Post("/cart/add/{kind}/{id}", deps.CartHandler.Add)
	s.Post("/cart/remove/{key}", deps.CartHandler.Remove)

	// Checkout flow
	checkout := s
	if deps.CheckoutLimit != nil {
		checkout = s.Group(deps.CheckoutLimit)
	}
	checkout.Post("/checkout", deps.CheckoutHandler.Start)
	checkout.Get("/checkout/success", deps.CheckoutHandler.Success)
	s.Get("/checkout/cancel", deps.CheckoutHandler.Cancel)

	// Learner routes (require authentication)
	learner := s.Group(middleware.RequireAuth)
	learner.Post("/lessons/{id}/validate", deps.LessonHandler.Validate)
	learner.Get("/account/purchases", deps.AccountHandler.Purchases)
}
