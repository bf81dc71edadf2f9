package service_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"chicpos/internal/model"
	"chicpos/internal/repository"
	"chicpos/internal/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Ledger ────────────────────────────────────────────────────────────────────

// fakeLedgerRepo is an in-memory LedgerRepository. failAttendances makes the
// next N attendance writes fail.
type fakeLedgerRepo struct {
	mu              sync.Mutex
	set             repository.EventSet
	failAttendances int
	snapshots       int
	// staleKeyCheck makes PurchaseKeyExists miss, as when a concurrent import
	// commits between the check and the insert
	staleKeyCheck bool
}

func newFakeLedgerRepo() *fakeLedgerRepo { return &fakeLedgerRepo{} }

func (r *fakeLedgerRepo) CreateSale(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Sales = append(r.set.Sales, *s)
	return nil
}

func (r *fakeLedgerRepo) CreateAttendance(_ context.Context, _ *gorm.DB, a *model.Attendance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAttendances > 0 {
		r.failAttendances--
		return errors.New("attendance store unavailable")
	}
	r.set.Attendances = append(r.set.Attendances, *a)
	return nil
}

func (r *fakeLedgerRepo) CreateAdjustment(_ context.Context, a *model.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Adjustments = append(r.set.Adjustments, *a)
	return nil
}

func (r *fakeLedgerRepo) CreateGift(_ context.Context, g *model.Gift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Gifts = append(r.set.Gifts, *g)
	return nil
}

func (r *fakeLedgerRepo) CreateExpense(_ context.Context, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Expenses = append(r.set.Expenses, *e)
	return nil
}

func (r *fakeLedgerRepo) CreatePurchase(_ context.Context, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.set.Purchases {
		if existing.InvoiceKey == p.InvoiceKey {
			return repository.ErrDuplicateInvoice
		}
	}
	r.set.Purchases = append(r.set.Purchases, *p)
	return nil
}

func (r *fakeLedgerRepo) PurchaseKeyExists(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleKeyCheck {
		return false, nil
	}
	for _, p := range r.set.Purchases {
		if p.InvoiceKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) Snapshot(_ context.Context, f repository.EventFilter) (*repository.EventSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots++
	in := func(t time.Time) bool {
		if f.From != nil && t.Before(*f.From) {
			return false
		}
		if f.To != nil && !t.Before(*f.To) {
			return false
		}
		return true
	}
	wants := func(k model.EventKind) bool { return len(f.Kinds) == 0 || slices.Contains(f.Kinds, k) }

	out := &repository.EventSet{}
	if wants(model.KindSale) {
		out.Sales = filterRows(r.set.Sales, func(s model.Sale) bool { return in(s.OccurredAt) })
	}
	if wants(model.KindAdjustment) {
		out.Adjustments = filterRows(r.set.Adjustments, func(a model.Adjustment) bool { return in(a.OccurredAt) })
	}
	if wants(model.KindGift) {
		out.Gifts = filterRows(r.set.Gifts, func(g model.Gift) bool { return in(g.OccurredAt) })
	}
	if wants(model.KindExpense) {
		out.Expenses = filterRows(r.set.Expenses, func(e model.Expense) bool { return in(e.OccurredAt) })
	}
	if wants(model.KindPurchase) {
		out.Purchases = filterRows(r.set.Purchases, func(p model.Purchase) bool { return in(p.OccurredAt) })
	}
	if f.IncludeAttendances {
		out.Attendances = filterRows(r.set.Attendances, func(a model.Attendance) bool { return in(a.OccurredAt) })
	}
	return out, nil
}

func (r *fakeLedgerRepo) FindEvent(_ context.Context, kind model.EventKind, id uuid.UUID) (model.LedgerEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case model.KindSale:
		for i := range r.set.Sales {
			if r.set.Sales[i].ID == id {
				s := r.set.Sales[i]
				return &s, nil
			}
		}
	case model.KindExpense:
		for i := range r.set.Expenses {
			if r.set.Expenses[i].ID == id {
				e := r.set.Expenses[i]
				return &e, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeLedgerRepo) DB() *gorm.DB { return nil }

var _ repository.LedgerRepository = (*fakeLedgerRepo)(nil)

func filterRows[T any](rows []T, keep func(T) bool) []T {
	var out []T
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// ── Catalog & users ───────────────────────────────────────────────────────────

type fakeProductRepo struct{ products map[uuid.UUID]model.Product }

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[uuid.UUID]model.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := map[uuid.UUID]model.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Product) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *fakeProductRepo) Count(_ context.Context) (int64, error) { return int64(len(r.products)), nil }

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errors.New("email já cadastrado")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) DB() *gorm.DB { return nil }

var _ repository.UserRepository = (*fakeUserRepo)(nil)

// ── Audit, closures, settings ─────────────────────────────────────────────────

type fakeAuditRepo struct {
	entries []model.AuditLog
	failErr error
}

func (r *fakeAuditRepo) Create(_ context.Context, _ *gorm.DB, e *model.AuditLog) error {
	if r.failErr != nil {
		return r.failErr
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, query string) ([]model.AuditLog, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if q == "" ||
			strings.Contains(strings.ToLower(e.Action), q) ||
			strings.Contains(strings.ToLower(e.Description), q) ||
			strings.Contains(strings.ToLower(e.PerformedBy), q) {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ repository.AuditRepository = (*fakeAuditRepo)(nil)

type fakeClosureRepo struct{ closures []model.DailyClosure }

func (r *fakeClosureRepo) Create(_ context.Context, c *model.DailyClosure) error {
	r.closures = append(r.closures, *c)
	return nil
}

func (r *fakeClosureRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DailyClosure, error) {
	for i := range r.closures {
		if r.closures[i].ID == id {
			c := r.closures[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeClosureRepo) List(_ context.Context) ([]model.DailyClosure, error) {
	out := slices.Clone(r.closures)
	slices.Reverse(out)
	return out, nil
}

func (r *fakeClosureRepo) CountByDay(_ context.Context, day string) (int64, error) {
	var n int64
	for _, c := range r.closures {
		if c.Day == day {
			n++
		}
	}
	return n, nil
}

var _ repository.ClosureRepository = (*fakeClosureRepo)(nil)

type fakeSettingsRepo struct{ revs []model.AccountingSettings }

func (r *fakeSettingsRepo) Create(_ context.Context, s *model.AccountingSettings) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.revs = append(r.revs, *s)
	return nil
}

func (r *fakeSettingsRepo) Latest(ctx context.Context) (*model.AccountingSettings, error) {
	return r.EffectiveAt(ctx, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (r *fakeSettingsRepo) EffectiveAt(_ context.Context, at time.Time) (*model.AccountingSettings, error) {
	var best *model.AccountingSettings
	for i := range r.revs {
		rev := r.revs[i]
		if rev.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || !rev.EffectiveFrom.Before(best.EffectiveFrom) {
			best = &rev
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *fakeSettingsRepo) List(_ context.Context) ([]model.AccountingSettings, error) {
	out := slices.Clone(r.revs)
	slices.Reverse(out)
	return out, nil
}

var _ repository.SettingsRepository = (*fakeSettingsRepo)(nil)

// ── Collaborators ─────────────────────────────────────────────────────────────

type recordingPublisher struct {
	events []model.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.LedgerEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var _ service.EventPublisher = (*recordingPublisher)(nil)

type recordingReceipts struct{ ids []uuid.UUID }

func (q *recordingReceipts) EnqueueClosureReceipt(_ context.Context, id uuid.UUID) error {
	q.ids = append(q.ids, id)
	return nil
}

var _ service.ReceiptQueue = (*recordingReceipts)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

var storeLoc = time.FixedZone("ACT", -5*3600)

func seller(name string) model.User {
	return model.User{ID: uuid.New(), Name: name, Email: strings.ToLower(name) + "@chic.test", Role: model.RoleSeller, Status: "ACTIVE"}
}

func actorOf(u model.User) service.Actor {
	return service.Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}
