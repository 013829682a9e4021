package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/service"
	"github.com/dukerupert/savoir/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var learner = &domain.User{ID: 7, Username: "ada"}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func sampleSummary() *domain.CartSummary {
	knives := &domain.Lesson{ID: 1, CursusID: 1, Name: "Knives", Price: decimal.RequireFromString("10")}
	pastry := &domain.Cursus{ID: 2, ThemeID: 1, Name: "Pastry", Price: decimal.RequireFromString("30.5")}
	return &domain.CartSummary{
		Items: []domain.CartItem{
			{Ref: domain.LessonRef(1), Lesson: knives, Quantity: 1},
			{Ref: domain.CursusRef(2), Cursus: pastry, Quantity: 1},
		},
		Total:     decimal.RequireFromString("40.5"),
		ItemCount: 2,
	}
}

func TestCatalogHandler_Themes(t *testing.T) {
	theme := &domain.Theme{ID: 1, Name: "Cooking", Valid: true}
	basics := &domain.Cursus{ID: 1, Name: "Basics", Price: decimal.RequireFromString("50")}
	basics.AddLesson(&domain.Lesson{ID: 1, Name: "Knives", Price: decimal.RequireFromString("10")})
	theme.AddCursus(basics)
	theme.AttachCertification(&domain.Certification{ID: 3, CreatedAt: time.Now()})

	h := NewCatalogHandler(&fakeCatalog{themes: []*domain.Theme{theme}}, &fakeLibrary{})
	rec := serve(h.Themes, httptest.NewRequest(http.MethodGet, "/themes", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Themes []themeJSON `json:"themes"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Themes, 1)
	got := body.Themes[0]
	assert.Equal(t, "Cooking", got.Name)
	assert.True(t, got.Valid)
	require.NotNil(t, got.Certification)
	assert.Equal(t, int64(1), got.Certification.ThemeID)
	require.Len(t, got.Cursus, 1)
	assert.Equal(t, "50.00", got.Cursus[0].Price)
	require.Len(t, got.Cursus[0].Lessons, 1)
	assert.Equal(t, "10.00", got.Cursus[0].Lessons[0].Price)
}

func TestCatalogHandler_Certifications(t *testing.T) {
	lib := &fakeLibrary{certs: []service.CertificationView{
		{Certification: domain.Certification{ID: 3, ThemeID: 1}, ThemeName: "Cooking"},
	}}
	h := NewCatalogHandler(&fakeCatalog{}, lib)
	rec := serve(h.Certifications, httptest.NewRequest(http.MethodGet, "/certifications", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Certifications []certificationJSON `json:"certifications"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Certifications, 1)
	assert.Equal(t, "Cooking", body.Certifications[0].ThemeName)
}

func TestCartHandler_View(t *testing.T) {
	h := NewCartHandler(&fakeCarts{Summary: sampleSummary()})
	rec := serve(h.View, httptest.NewRequest(http.MethodGet, "/cart", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies(), "session cookie issued")

	var body cartJSON
	decode(t, rec, &body)
	assert.Equal(t, "40.50", body.Total)
	assert.Equal(t, 2, body.ItemCount)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "lesson-1", body.Items[0].Key)
	assert.Equal(t, "Knives", body.Items[0].Name)
	assert.Equal(t, "30.50", body.Items[1].LineTotal)
}

func TestCartHandler_ViewEmpty(t *testing.T) {
	h := NewCartHandler(&fakeCarts{})
	rec := serve(h.View, httptest.NewRequest(http.MethodGet, "/cart", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body cartJSON
	decode(t, rec, &body)
	assert.Empty(t, body.Items)
	assert.Equal(t, "0.00", body.Total)
}

func TestCartHandler_Add(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		addErr     error
		wantStatus int
		wantRef    *domain.ItemRef
	}{
		{name: "lesson", path: "/cart/add/lesson/4", wantStatus: http.StatusOK, wantRef: &domain.ItemRef{Kind: domain.ItemKindLesson, ID: 4}},
		{name: "cursus", path: "/cart/add/cursus/2", wantStatus: http.StatusOK, wantRef: &domain.ItemRef{Kind: domain.ItemKindCursus, ID: 2}},
		{name: "unknown kind", path: "/cart/add/theme/1", wantStatus: http.StatusBadRequest},
		{name: "bad id", path: "/cart/add/lesson/abc", wantStatus: http.StatusBadRequest},
		{name: "zero id", path: "/cart/add/lesson/0", wantStatus: http.StatusBadRequest},
		{name: "missing item", path: "/cart/add/lesson/99", addErr: service.ErrLessonNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &fakeCarts{AddItemFunc: func(context.Context, session.Scope, domain.ItemRef) error { return tt.addErr }}
			h := NewCartHandler(carts)

			rec := serve(routed("POST /cart/add/{kind}/{id}", h.Add), httptest.NewRequest(http.MethodPost, tt.path, nil), nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantRef != nil {
				require.Len(t, carts.Added, 1)
				assert.Equal(t, *tt.wantRef, carts.Added[0])
			}
		})
	}
}

func TestCartHandler_Remove(t *testing.T) {
	carts := &fakeCarts{}
	h := NewCartHandler(carts)
	handler := routed("POST /cart/remove/{key}", h.Remove)

	rec := serve(handler, httptest.NewRequest(http.MethodPost, "/cart/remove/cursus-3", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.ItemRef{domain.CursusRef(3)}, carts.Removed)

	rec = serve(handler, httptest.NewRequest(http.MethodPost, "/cart/remove/bogus", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, carts.Removed, 1)
}

func TestCartHandler_NoSessionMiddleware(t *testing.T) {
	h := NewCartHandler(&fakeCarts{})
	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckoutHandler_Start(t *testing.T) {
	var gotUser *domain.User
	checkout := &fakeCheckout{StartFunc: func(_ context.Context, _ session.Scope, user *domain.User) (string, error) {
		gotUser = user
		return "https://checkout.stripe.test/pay/cs_1", nil
	}}
	h := NewCheckoutHandler(checkout, &fakeCarts{})

	rec := serve(h.Start, httptest.NewRequest(http.MethodPost, "/checkout", nil), learner)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_1", rec.Header().Get("Location"))
	assert.Equal(t, learner, gotUser)
}

func TestCheckoutHandler_StartEmptyCart(t *testing.T) {
	checkout := &fakeCheckout{StartFunc: func(context.Context, session.Scope, *domain.User) (string, error) {
		return "", domain.WithOp(domain.ErrEmptyCart, "checkout.start")
	}}
	h := NewCheckoutHandler(checkout, &fakeCarts{})

	rec := serve(h.Start, httptest.NewRequest(http.MethodPost, "/checkout", nil), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_Success(t *testing.T) {
	lessonID, cursusID := int64(1), int64(2)
	var gotSessionID string
	checkout := &fakeCheckout{ConfirmFunc: func(_ context.Context, _ session.Scope, user *domain.User, id string) (*service.MaterializeResult, error) {
		gotSessionID = id
		if user == nil {
			return nil, domain.ErrNotAuthenticated
		}
		return &service.MaterializeResult{Purchases: []domain.Purchase{
			{ID: 1, UserID: user.ID, CursusID: &cursusID},
			{ID: 2, UserID: user.ID, LessonID: &lessonID},
		}}, nil
	}}
	h := NewCheckoutHandler(checkout, &fakeCarts{})

	t.Run("signed in", func(t *testing.T) {
		rec := serve(h.Success, httptest.NewRequest(http.MethodGet, "/checkout/success?session_id=cs_1", nil), learner)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cs_1", gotSessionID)

		var body struct {
			Purchases        []purchaseJSON `json:"purchases"`
			LessonCount      int            `json:"lesson_count"`
			CursusCount      int            `json:"cursus_count"`
			AlreadyConfirmed bool           `json:"already_confirmed"`
		}
		decode(t, rec, &body)
		assert.Len(t, body.Purchases, 2)
		assert.Equal(t, 1, body.LessonCount)
		assert.Equal(t, 1, body.CursusCount)
		assert.False(t, body.AlreadyConfirmed)
		assert.Equal(t, "cursus", body.Purchases[0].Kind)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := serve(h.Success, httptest.NewRequest(http.MethodGet, "/checkout/success?session_id=cs_1", nil), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCheckoutHandler_SuccessRejected(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unpaid", domain.WithOp(domain.ErrPaymentNotConfirmed, "checkout.confirm"), http.StatusPaymentRequired},
		{"another user's session", domain.WithOp(service.ErrCheckoutSessionForeign, "checkout.confirm"), http.StatusForbidden},
		{"cart changed after paying", domain.WithOp(service.ErrCheckoutMismatch, "checkout.confirm"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkout := &fakeCheckout{ConfirmFunc: func(context.Context, session.Scope, *domain.User, string) (*service.MaterializeResult, error) {
				return nil, tt.err
			}}
			h := NewCheckoutHandler(checkout, &fakeCarts{})

			rec := serve(h.Success, httptest.NewRequest(http.MethodGet, "/checkout/success?session_id=cs_1", nil), learner)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCheckoutHandler_SuccessAlreadyConfirmed(t *testing.T) {
	lessonID := int64(1)
	checkout := &fakeCheckout{ConfirmFunc: func(_ context.Context, _ session.Scope, user *domain.User, _ string) (*service.MaterializeResult, error) {
		return &service.MaterializeResult{
			Replayed:  true,
			Purchases: []domain.Purchase{{ID: 1, UserID: user.ID, LessonID: &lessonID}},
		}, nil
	}}
	h := NewCheckoutHandler(checkout, &fakeCarts{})

	rec := serve(h.Success, httptest.NewRequest(http.MethodGet, "/checkout/success?session_id=cs_1", nil), learner)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Purchases        []purchaseJSON `json:"purchases"`
		AlreadyConfirmed bool           `json:"already_confirmed"`
	}
	decode(t, rec, &body)
	assert.True(t, body.AlreadyConfirmed)
	assert.Len(t, body.Purchases, 1)
}

func TestCheckoutHandler_Cancel(t *testing.T) {
	h := NewCheckoutHandler(&fakeCheckout{}, &fakeCarts{Summary: sampleSummary()})

	rec := serve(h.Cancel, httptest.NewRequest(http.MethodGet, "/checkout/cancel", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string   `json:"status"`
		Cart   cartJSON `json:"cart"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "cancelled", body.Status)
	assert.Len(t, body.Cart.Items, 2)
}

func TestLessonHandler_Validate(t *testing.T) {
	cert := &domain.Certification{ID: 9, ThemeID: 1, CreatedAt: time.Now()}
	validator := &fakeValidator{result: &service.ValidationResult{
		CursusValidated:     true,
		ThemeValidated:      true,
		CertificationIssued: true,
		Certification:       cert,
	}}
	h := NewLessonHandler(validator)
	handler := routed("POST /lessons/{id}/validate", h.Validate)

	rec := serve(handler, httptest.NewRequest(http.MethodPost, "/lessons/5/validate", nil), learner)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{5}, validator.calls)

	var body validationJSON
	decode(t, rec, &body)
	assert.Equal(t, int64(5), body.LessonID)
	assert.True(t, body.CertificationIssued)
	require.NotNil(t, body.Certification)
	assert.Equal(t, int64(9), body.Certification.ID)
}

func TestLessonHandler_ValidateErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		user       *domain.User
		err        error
		wantStatus int
	}{
		{name: "bad id", path: "/lessons/x/validate", user: learner, wantStatus: http.StatusBadRequest},
		{name: "anonymous", path: "/lessons/5/validate", wantStatus: http.StatusUnauthorized},
		{name: "not purchased", path: "/lessons/5/validate", user: learner, err: domain.ErrNotPurchased, wantStatus: http.StatusForbidden},
		{name: "missing lesson", path: "/lessons/5/validate", user: learner, err: service.ErrLessonNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLessonHandler(&fakeValidator{err: tt.err, result: &service.ValidationResult{}})
			rec := serve(routed("POST /lessons/{id}/validate", h.Validate), httptest.NewRequest(http.MethodPost, tt.path, nil), tt.user)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAccountHandler_Purchases(t *testing.T) {
	lessonID := int64(1)
	lib := &fakeLibrary{purchases: []domain.PurchaseView{
		{Purchase: domain.Purchase{ID: 4, UserID: 7, LessonID: &lessonID, Validated: true}, Kind: domain.ItemKindLesson, Name: "Knives"},
	}}
	h := NewAccountHandler(lib)

	rec := serve(h.Purchases, httptest.NewRequest(http.MethodGet, "/account/purchases", nil), learner)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Purchases []purchaseJSON `json:"purchases"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Purchases, 1)
	assert.Equal(t, "Knives", body.Purchases[0].Name)
	assert.Equal(t, "lesson", body.Purchases[0].Kind)
	assert.True(t, body.Purchases[0].Validated)

	rec = serve(h.Purchases, httptest.NewRequest(http.MethodGet, "/account/purchases", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
