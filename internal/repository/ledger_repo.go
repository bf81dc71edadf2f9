package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"chicpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateInvoice is returned by CreatePurchase when the invoice key is
// already stored, including when a concurrent import won the race.
var ErrDuplicateInvoice = errors.New("repository: invoice key already stored")

// EventFilter narrows a ledger read. Empty Kinds = every kind.
// The window is half-open: From <= occurred_at < To.
type EventFilter struct {
	Kinds              []model.EventKind
	From               *time.Time
	To                 *time.Time
	IncludeAttendances bool
}

func (f EventFilter) wants(k model.EventKind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, want := range f.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// EventSet is a point-in-time read of the ledger. Each slice is sorted by
// occurred_at ascending, then id.
type EventSet struct {
	Sales       []model.Sale
	Adjustments []model.Adjustment
	Gifts       []model.Gift
	Expenses    []model.Expense
	Purchases   []model.Purchase
	Attendances []model.Attendance
}

// LedgerRepository is append-only: there is no update or delete on purpose.
type LedgerRepository interface {
	CreateSale(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	CreateAttendance(ctx context.Context, tx *gorm.DB, a *model.Attendance) error
	CreateAdjustment(ctx context.Context, a *model.Adjustment) error
	CreateGift(ctx context.Context, g *model.Gift) error
	CreateExpense(ctx context.Context, e *model.Expense) error
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	PurchaseKeyExists(ctx context.Context, invoiceKey string) (bool, error)
	Snapshot(ctx context.Context, f EventFilter) (*EventSet, error)
	FindEvent(ctx context.Context, kind model.EventKind, id uuid.UUID) (model.LedgerEvent, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) CreateSale(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	return r.conn(tx).WithContext(ctx).Create(s).Error
}

func (r *ledgerRepo) CreateAttendance(ctx context.Context, tx *gorm.DB, a *model.Attendance) error {
	return r.conn(tx).WithContext(ctx).Create(a).Error
}

func (r *ledgerRepo) CreateAdjustment(ctx context.Context, a *model.Adjustment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ledgerRepo) CreateGift(ctx context.Context, g *model.Gift) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *ledgerRepo) CreateExpense(ctx context.Context, e *model.Expense) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *ledgerRepo) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if isUniqueViolation(err) {
		return ErrDuplicateInvoice
	}
	return err
}

// isUniqueViolation recognises gorm's translated error (TranslateError) and the
// raw driver messages of PostgreSQL (23505) and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

func (r *ledgerRepo) PurchaseKeyExists(ctx context.Context, invoiceKey string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("invoice_key = ?", invoiceKey).Count(&n).Error
	return n > 0, err
}

// Snapshot reads every requested table inside one transaction so projections
// see a consistent point in time. On PostgreSQL the transaction is read-only
// REPEATABLE READ; other dialects fall back to their default isolation.
func (r *ledgerRepo) Snapshot(ctx context.Context, f EventFilter) (*EventSet, error) {
	set := &EventSet{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if f.wants(model.KindSale) {
			if err := window(tx, f).Preload("Items").Find(&set.Sales).Error; err != nil {
				return err
			}
		}
		if f.wants(model.KindAdjustment) {
			if err := window(tx, f).Find(&set.Adjustments).Error; err != nil {
				return err
			}
		}
		if f.wants(model.KindGift) {
			if err := window(tx, f).Preload("Items").Find(&set.Gifts).Error; err != nil {
				return err
			}
		}
		if f.wants(model.KindExpense) {
			if err := window(tx, f).Find(&set.Expenses).Error; err != nil {
				return err
			}
		}
		if f.wants(model.KindPurchase) {
			if err := window(tx, f).Find(&set.Purchases).Error; err != nil {
				return err
			}
		}
		if f.IncludeAttendances {
			if err := window(tx, f).Find(&set.Attendances).Error; err != nil {
				return err
			}
		}
		return nil
	}, r.snapshotOptions())
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (r *ledgerRepo) FindEvent(ctx context.Context, kind model.EventKind, id uuid.UUID) (model.LedgerEvent, error) {
	q := r.db.WithContext(ctx)
	switch kind {
	case model.KindSale:
		var s model.Sale
		if err := q.Preload("Items").First(&s, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &s, nil
	case model.KindAdjustment:
		var a model.Adjustment
		if err := q.First(&a, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &a, nil
	case model.KindGift:
		var g model.Gift
		if err := q.Preload("Items").First(&g, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &g, nil
	case model.KindExpense:
		var e model.Expense
		if err := q.First(&e, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &e, nil
	case model.KindPurchase:
		var p model.Purchase
		if err := q.First(&p, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *ledgerRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ledgerRepo) snapshotOptions() *sql.TxOptions {
	if r.db.Dialector.Name() == "postgres" {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

func window(tx *gorm.DB, f EventFilter) *gorm.DB {
	q := tx
	if f.From != nil {
		q = q.Where("occurred_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("occurred_at < ?", *f.To)
	}
	return q.Order("occurred_at ASC").Order("id ASC")
}
