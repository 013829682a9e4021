package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/dukerupert/savoir/internal/cookie"
	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/middleware"
	"github.com/dukerupert/savoir/internal/service"
	"github.com/dukerupert/savoir/internal/session"
)

type fakeCatalog struct {
	themes []*domain.Theme
	err    error
}

func (f *fakeCatalog) ListThemes(context.Context) ([]*domain.Theme, error) {
	return f.themes, f.err
}

type fakeCarts struct {
	AddItemFunc    func(ctx context.Context, scope session.Scope, ref domain.ItemRef) error
	RemoveItemFunc func(ctx context.Context, scope session.Scope, ref domain.ItemRef) error
	Summary        *domain.CartSummary
	Added          []domain.ItemRef
	Removed        []domain.ItemRef
}

func (f *fakeCarts) AddItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	f.Added = append(f.Added, ref)
	if f.AddItemFunc != nil {
		return f.AddItemFunc(ctx, scope, ref)
	}
	return nil
}

func (f *fakeCarts) RemoveItem(ctx context.Context, scope session.Scope, ref domain.ItemRef) error {
	f.Removed = append(f.Removed, ref)
	if f.RemoveItemFunc != nil {
		return f.RemoveItemFunc(ctx, scope, ref)
	}
	return nil
}

func (f *fakeCarts) Resolve(context.Context, session.Scope) (*domain.CartSummary, error) {
	if f.Summary == nil {
		return &domain.CartSummary{}, nil
	}
	return f.Summary, nil
}

type fakeCheckout struct {
	StartFunc   func(ctx context.Context, scope session.Scope, user *domain.User) (string, error)
	ConfirmFunc func(ctx context.Context, scope session.Scope, user *domain.User, id string) (*service.MaterializeResult, error)
}

func (f *fakeCheckout) Start(ctx context.Context, scope session.Scope, user *domain.User) (string, error) {
	return f.StartFunc(ctx, scope, user)
}

func (f *fakeCheckout) ConfirmPayment(ctx context.Context, scope session.Scope, user *domain.User, id string) (*service.MaterializeResult, error) {
	return f.ConfirmFunc(ctx, scope, user, id)
}

type fakeValidator struct {
	result *service.ValidationResult
	err    error
	calls  []int64
}

func (f *fakeValidator) ValidateLesson(_ context.Context, user *domain.User, lessonID int64) (*service.ValidationResult, error) {
	f.calls = append(f.calls, lessonID)
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return f.result, f.err
}

type fakeLibrary struct {
	purchases []domain.PurchaseView
	certs     []service.CertificationView
}

func (f *fakeLibrary) ListPurchases(_ context.Context, user *domain.User) ([]domain.PurchaseView, error) {
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return f.purchases, nil
}

func (f *fakeLibrary) ListCertifications(context.Context) ([]service.CertificationView, error) {
	return f.certs, nil
}

// serve runs h behind the session middleware, optionally as user.
func serve(h http.HandlerFunc, req *http.Request, user *domain.User) *httptest.ResponseRecorder {
	if user != nil {
		req = req.WithContext(domain.NewContextWithUser(req.Context(), user))
	}
	req.Header.Set("Accept", "application/json")

	wrapped := middleware.WithSession(session.NewMemoryStore(), cookie.NewConfig("", false, 3600))(h)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	return rec
}

// routed registers h on pattern so path values are populated.
func routed(pattern string, h http.HandlerFunc) http.HandlerFunc {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	return mux.ServeHTTP
}
