package routes

import (
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/router"
)

// RegisterAdminRoutes registers back-office routes behind the admin token.
// Nothing is registered when no token is configured.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	if deps.Token == "" {
		return
	}

	admin := r.Group(middleware.RequireAdminToken(deps.Token))
	admin.Post("/admin/themes/{id}/validate", deps.ThemeHandler.Validate)
}
