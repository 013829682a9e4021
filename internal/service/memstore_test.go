package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dukerupert/savoir/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ============================================================================
// In-memory repository
// ============================================================================

var errInjected = errors.New("injected failure")

type failure struct {
	after int
	err   error
}

type memData struct {
	themes    map[int64]repository.Theme
	cursus    map[int64]repository.Cursus
	lessons   map[int64]repository.Lesson
	users     map[int64]repository.User
	purchases []repository.Purchase
	certs     map[int64]repository.Certification
	checkouts map[string]repository.CheckoutSession
	nextID    int64
}

func (d memData) clone() memData {
	c := memData{
		themes:    make(map[int64]repository.Theme, len(d.themes)),
		cursus:    make(map[int64]repository.Cursus, len(d.cursus)),
		lessons:   make(map[int64]repository.Lesson, len(d.lessons)),
		users:     make(map[int64]repository.User, len(d.users)),
		purchases: append([]repository.Purchase(nil), d.purchases...),
		certs:     make(map[int64]repository.Certification, len(d.certs)),
		checkouts: make(map[string]repository.CheckoutSession, len(d.checkouts)),
		nextID:    d.nextID,
	}
	for k, v := range d.themes {
		c.themes[k] = v
	}
	for k, v := range d.cursus {
		c.cursus[k] = v
	}
	for k, v := range d.lessons {
		c.lessons[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.certs {
		c.certs[k] = v
	}
	for k, v := range d.checkouts {
		c.checkouts[k] = v
	}
	return c
}

// memStore implements repository.Querier and TxRunner. Transactions run one
// at a time and roll back to a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data memData

	calls    map[string]int
	failures map[string]failure
	commits  int
	commitFn func() error
}

var (
	_ repository.Querier = (*memStore)(nil)
	_ TxRunner           = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		data: memData{
			themes:    map[int64]repository.Theme{},
			cursus:    map[int64]repository.Cursus{},
			lessons:   map[int64]repository.Lesson{},
			users:     map[int64]repository.User{},
			certs:     map[int64]repository.Certification{},
			checkouts: map[string]repository.CheckoutSession{},
		},
		calls:    map[string]int{},
		failures: map[string]failure{},
	}
}

// failOn makes the named method fail once it has succeeded after times.
func (m *memStore) failOn(method string, after int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[method] = failure{after: after, err: errInjected}
}

func (m *memStore) call(method string) error {
	m.calls[method]++
	if f, ok := m.failures[method]; ok && m.calls[method] > f.after {
		return f.err
	}
	return nil
}

func (m *memStore) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	err := fn(m)
	if err == nil && m.commitFn != nil {
		err = m.commitFn()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.data = snapshot
		return err
	}
	m.commits++
	return nil
}

// ----------------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------------

func numeric(s string) pgtype.Numeric {
	d := decimal.RequireFromString(s)
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func (m *memStore) id() int64 {
	m.data.nextID++
	return m.data.nextID
}

func (m *memStore) addUser(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.data.users[id] = repository.User{ID: id, Username: name, Email: name + "@example.com"}
	return id
}

func (m *memStore) addTheme(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.data.themes[id] = repository.Theme{ID: id, Name: name, Image: name + ".png"}
	return id
}

func (m *memStore) addCursus(themeID int64, name, price string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.data.cursus[id] = repository.Cursus{ID: id, ThemeID: themeID, Name: name, Price: numeric(price)}
	return id
}

func (m *memStore) addLesson(cursusID int64, name, price string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.data.lessons[id] = repository.Lesson{ID: id, CursusID: cursusID, Name: name, Price: numeric(price)}
	return id
}

func (m *memStore) deleteLesson(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data.lessons, id)
}

func (m *memStore) purchasesFor(userID int64) []repository.Purchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Purchase
	for _, p := range m.data.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) theme(id int64) repository.Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.themes[id]
}

func (m *memStore) cursusRow(id int64) repository.Cursus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.cursus[id]
}

func (m *memStore) certCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.certs)
}

// checkoutCount returns how many gateway sessions have been consumed.
func (m *memStore) checkoutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.checkouts)
}

// ----------------------------------------------------------------------------
// Querier
// ----------------------------------------------------------------------------

func (m *memStore) CountCursusInTheme(ctx context.Context, themeID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountCursusInTheme"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range m.data.cursus {
		if c.ThemeID == themeID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountLessonsInCursus(ctx context.Context, cursusID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountLessonsInCursus"); err != nil {
		return 0, err
	}
	var n int64
	for _, l := range m.data.lessons {
		if l.CursusID == cursusID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountValidatedCursusInTheme(ctx context.Context, themeID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountValidatedCursusInTheme"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range m.data.cursus {
		if c.ThemeID == themeID && c.Validated {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CountValidatedLessonsInCursus(ctx context.Context, arg repository.CountValidatedLessonsInCursusParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CountValidatedLessonsInCursus"); err != nil {
		return 0, err
	}
	var n int64
	for _, l := range m.data.lessons {
		if l.CursusID != arg.CursusID {
			continue
		}
		for _, p := range m.data.purchases {
			if p.UserID == arg.UserID && p.LessonID.Valid && p.LessonID.Int64 == l.ID && p.Validated {
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *memStore) CreateCertificationIfAbsent(ctx context.Context, themeID int64) (repository.Certification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateCertificationIfAbsent"); err != nil {
		return repository.Certification{}, err
	}
	if _, ok := m.data.certs[themeID]; ok {
		return repository.Certification{}, pgx.ErrNoRows
	}
	c := repository.Certification{
		ID:        m.id(),
		ThemeID:   themeID,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	m.data.certs[themeID] = c
	return c, nil
}

func (m *memStore) CreateCheckoutSession(ctx context.Context, arg repository.CreateCheckoutSessionParams) (repository.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreateCheckoutSession"); err != nil {
		return repository.CheckoutSession{}, err
	}
	if _, ok := m.data.checkouts[arg.ID]; ok {
		return repository.CheckoutSession{}, &pgconn.PgError{Code: "23505", ConstraintName: "checkout_sessions_pkey"}
	}
	cs := repository.CheckoutSession{
		ID:          arg.ID,
		UserID:      arg.UserID,
		AmountTotal: arg.AmountTotal,
		Currency:    arg.Currency,
		CreatedAt:   pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	m.data.checkouts[arg.ID] = cs
	return cs, nil
}

func (m *memStore) GetCheckoutSession(ctx context.Context, id string) (repository.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetCheckoutSession"); err != nil {
		return repository.CheckoutSession{}, err
	}
	cs, ok := m.data.checkouts[id]
	if !ok {
		return repository.CheckoutSession{}, pgx.ErrNoRows
	}
	return cs, nil
}

func (m *memStore) ListPurchasesByCheckoutSession(ctx context.Context, checkoutSessionID string) ([]repository.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListPurchasesByCheckoutSession"); err != nil {
		return nil, err
	}
	var out []repository.Purchase
	for _, p := range m.data.purchases {
		if p.CheckoutSessionID.Valid && p.CheckoutSessionID.String == checkoutSessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreatePurchase(ctx context.Context, arg repository.CreatePurchaseParams) (repository.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("CreatePurchase"); err != nil {
		return repository.Purchase{}, err
	}
	p := repository.Purchase{
		ID:        m.id(),
		UserID:    arg.UserID,
		LessonID:  arg.LessonID,
		CursusID:  arg.CursusID,
		CreatedAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},

		CheckoutSessionID: arg.CheckoutSessionID,
	}
	m.data.purchases = append(m.data.purchases, p)
	return p, nil
}

func (m *memStore) GetCursus(ctx context.Context, id int64) (repository.Cursus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetCursus"); err != nil {
		return repository.Cursus{}, err
	}
	c, ok := m.data.cursus[id]
	if !ok {
		return repository.Cursus{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *memStore) GetLesson(ctx context.Context, id int64) (repository.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetLesson"); err != nil {
		return repository.Lesson{}, err
	}
	l, ok := m.data.lessons[id]
	if !ok {
		return repository.Lesson{}, pgx.ErrNoRows
	}
	return l, nil
}

func (m *memStore) GetLessonPurchaseForUpdate(ctx context.Context, arg repository.GetLessonPurchaseForUpdateParams) (repository.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetLessonPurchaseForUpdate"); err != nil {
		return repository.Purchase{}, err
	}
	var found *repository.Purchase
	for i := range m.data.purchases {
		p := &m.data.purchases[i]
		if p.UserID != arg.UserID || !p.LessonID.Valid || p.LessonID.Int64 != arg.LessonID {
			continue
		}
		if found == nil || (p.Validated && !found.Validated) {
			found = p
		}
	}
	if found == nil {
		return repository.Purchase{}, pgx.ErrNoRows
	}
	return *found, nil
}

func (m *memStore) GetTheme(ctx context.Context, id int64) (repository.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetTheme"); err != nil {
		return repository.Theme{}, err
	}
	t, ok := m.data.themes[id]
	if !ok {
		return repository.Theme{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("GetUser"); err != nil {
		return repository.User{}, err
	}
	u, ok := m.data.users[id]
	if !ok {
		return repository.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *memStore) ListCertifications(ctx context.Context) ([]repository.Certification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListCertifications"); err != nil {
		return nil, err
	}
	out := make([]repository.Certification, 0, len(m.data.certs))
	for _, c := range m.data.certs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListCursus(ctx context.Context) ([]repository.Cursus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListCursus"); err != nil {
		return nil, err
	}
	out := make([]repository.Cursus, 0, len(m.data.cursus))
	for _, c := range m.data.cursus {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListLessons(ctx context.Context) ([]repository.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListLessons"); err != nil {
		return nil, err
	}
	out := make([]repository.Lesson, 0, len(m.data.lessons))
	for _, l := range m.data.lessons {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListLessonsByCursus(ctx context.Context, cursusID int64) ([]repository.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListLessonsByCursus"); err != nil {
		return nil, err
	}
	var out []repository.Lesson
	for _, l := range m.data.lessons {
		if l.CursusID == cursusID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPurchasesByUser(ctx context.Context, userID int64) ([]repository.ListPurchasesByUserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListPurchasesByUser"); err != nil {
		return nil, err
	}
	var out []repository.ListPurchasesByUserRow
	for i := len(m.data.purchases) - 1; i >= 0; i-- {
		p := m.data.purchases[i]
		if p.UserID != userID {
			continue
		}
		var name string
		if p.LessonID.Valid {
			name = m.data.lessons[p.LessonID.Int64].Name
		} else {
			name = m.data.cursus[p.CursusID.Int64].Name
		}
		out = append(out, repository.ListPurchasesByUserRow{
			ID:        p.ID,
			UserID:    p.UserID,
			LessonID:  p.LessonID,
			CursusID:  p.CursusID,
			Validated: p.Validated,
			CreatedAt: p.CreatedAt,
			ItemName:  name,
		})
	}
	return out, nil
}

func (m *memStore) ListThemes(ctx context.Context) ([]repository.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("ListThemes"); err != nil {
		return nil, err
	}
	out := make([]repository.Theme, 0, len(m.data.themes))
	for _, t := range m.data.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) LockTheme(ctx context.Context, id int64) (repository.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("LockTheme"); err != nil {
		return repository.Theme{}, err
	}
	t, ok := m.data.themes[id]
	if !ok {
		return repository.Theme{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memStore) MarkPurchaseValidated(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("MarkPurchaseValidated"); err != nil {
		return err
	}
	for i := range m.data.purchases {
		if m.data.purchases[i].ID == id {
			m.data.purchases[i].Validated = true
		}
	}
	return nil
}

func (m *memStore) SetCursusValidated(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SetCursusValidated"); err != nil {
		return err
	}
	c := m.data.cursus[id]
	c.Validated = true
	m.data.cursus[id] = c
	return nil
}

func (m *memStore) SetThemeValid(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("SetThemeValid"); err != nil {
		return err
	}
	t := m.data.themes[id]
	t.Valid = true
	m.data.themes[id] = t
	return nil
}

func (m *memStore) UpsertCertification(ctx context.Context, themeID int64) (repository.UpsertCertificationRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.call("UpsertCertification"); err != nil {
		return repository.UpsertCertificationRow{}, err
	}
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	c, ok := m.data.certs[themeID]
	if ok {
		c.CreatedAt = now
		m.data.certs[themeID] = c
		return repository.UpsertCertificationRow{ID: c.ID, ThemeID: themeID, CreatedAt: now, Inserted: false}, nil
	}
	c = repository.Certification{ID: m.id(), ThemeID: themeID, CreatedAt: now}
	m.data.certs[themeID] = c
	return repository.UpsertCertificationRow{ID: c.ID, ThemeID: themeID, CreatedAt: now, Inserted: true}, nil
}
