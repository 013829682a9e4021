package service

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/dukerupert/savoir/internal/billing"
	"github.com/dukerupert/savoir/internal/domain"
	"github.com/dukerupert/savoir/internal/events"
	"github.com/dukerupert/savoir/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// catalogFixture is one theme with two cursus:
//
//	Cooking
//	  Basics (50.00): Knives (10.00), Stocks (15.50)
//	  Pastry (30.00): Dough (12.00)
type catalogFixture struct {
	store     *memStore
	publisher *events.MemoryPublisher
	gateway   *billing.MockGateway
	sessions  *session.MemoryStore

	userID  int64
	themeID int64
	basics  int64
	knives  int64
	stocks  int64
	pastry  int64
	dough   int64

	carts      *CartService
	purchases  *PurchaseService
	checkout   *CheckoutService
	validation *ValidationService
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		store:     newMemStore(),
		publisher: &events.MemoryPublisher{},
		gateway:   billing.NewMockGateway(),
		sessions:  session.NewMemoryStore(),
	}

	f.userID = f.store.addUser("ada")
	f.themeID = f.store.addTheme("Cooking")
	f.basics = f.store.addCursus(f.themeID, "Basics", "50.00")
	f.knives = f.store.addLesson(f.basics, "Knives", "10.00")
	f.stocks = f.store.addLesson(f.basics, "Stocks", "15.50")
	f.pastry = f.store.addCursus(f.themeID, "Pastry", "30.00")
	f.dough = f.store.addLesson(f.pastry, "Dough", "12.00")

	logger := discardLogger()
	f.carts = NewCartService(NewCartStore(logger, nil), f.store, logger, nil)
	f.purchases = NewPurchaseService(f.store, f.publisher, logger, nil)
	f.checkout = NewCheckoutService(f.carts, f.purchases, f.gateway, CheckoutConfig{
		BaseURL:  "https://savoir.test/",
		Currency: "eur",
	}, logger, nil)
	f.validation = NewValidationService(f.store, f.publisher, logger, nil)
	return f
}

func (f *catalogFixture) user() *domain.User {
	return &domain.User{ID: f.userID, Username: "ada", Email: "ada@example.com"}
}

func (f *catalogFixture) scope() session.Scope {
	return f.sessions.Scope("visitor-1")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

var checkoutSeq atomic.Int64

// paid returns a checkout no other test has consumed.
func paid() PaidCheckout {
	return PaidCheckout{
		SessionID: fmt.Sprintf("cs_test_paid_%d", checkoutSeq.Add(1)),
		Currency:  "eur",
	}
}
