// Package storefront serves the learner-facing JSON API: catalog, cart,
// checkout, lesson validation and the learner's library.
package storefront

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/service"
	"github.com/dukerupert/savoir/internal/session"
)

// CatalogReader lists the catalog tree.
type CatalogReader interface {
	ListThemes(ctx context.Context) ([]*domain.Theme, error)
}

// CartManager edits and resolves the visitor's cart.
type CartManager interface {
	AddItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error
	RemoveItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error
	Resolve(ctx context.Context, scope session.Scope) (*domain.CartSummary, error)
}

// Checkout starts gateway checkouts and confirms paid ones.
type Checkout interface {
	Start(ctx context.Context, scope session.Scope, user *domain.User) (string, error)
	ConfirmPayment(ctx context.Context, scope session.Scope, user *domain.User, checkoutSessionID string) (*service.MaterializeResult, error)
}

// LessonValidator validates a purchased lesson and cascades completion.
type LessonValidator interface {
	ValidateLesson(ctx context.Context, user *domain.User, lessonID int64) (*service.ValidationResult, error)
}

// Library lists purchases and certifications.
type Library interface {
	ListPurchases(ctx context.Context, user *domain.User) ([]domain.PurchaseView, error)
	ListCertifications(ctx context.Context) ([]service.CertificationView, error)
}

var errNoSession = domain.Errorf(domain.EINTERNAL, "storefront.session", "session middleware not installed")

// sessionScope returns the scope opened by middleware.WithSession.
func sessionScope(r *http.Request) (session.Scope, error) {
	scope := middleware.GetSessionScope(r.Context())
	if scope == nil {
		return nil, errNoSession
	}
	return scope, nil
}

// pathID parses a positive numeric path value.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("storefront."+name, "Invalid "+name+": "+strconv.Quote(raw))
	}
	return id, nil
}
