package routes

import (
	"net/http"

	"github.com/dukerupert/savoir/internal/handler/admin"
	"github.com/dukerupert/savoir/internal/handler/storefront"
	"github.com/dukerupert/savoir/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Session opens the visitor's cart scope. Required.
	Session router.Middleware

	// CheckoutLimit throttles routes that call the payment gateway.
	// Optional.
	CheckoutLimit router.Middleware

	CatalogHandler  *storefront.CatalogHandler
	CartHandler     *storefront.CartHandler
	CheckoutHandler *storefront.CheckoutHandler
	LessonHandler   *storefront.LessonHandler
	AccountHandler  *storefront.AccountHandler
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	// Token is the shared admin bearer token. Empty disables admin routes.
	Token string

	ThemeHandler *admin.ThemeHandler
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
}
