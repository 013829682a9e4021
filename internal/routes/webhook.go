package routes

import (
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/router"
)

// RegisterWebhookRoutes registers all webhook routes.
//
// Webhook routes run without session or user middleware. Each webhook
// handler verifies the request signature itself.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Post("/webhooks/stripe", deps.StripeHandler, middleware.MaxBodySize(middleware.WebhookMaxBodySize))
}
