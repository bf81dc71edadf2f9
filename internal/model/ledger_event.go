package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventKind names one variant of the ledger sum type.
type EventKind string

const (
	KindSale       EventKind = "SALE"
	KindAdjustment EventKind = "ADJUSTMENT"
	KindGift       EventKind = "GIFT"
	KindExpense    EventKind = "EXPENSE"
	KindPurchase   EventKind = "PURCHASE"
)

// EventKinds lists every ledger kind in a fixed order.
var EventKinds = []EventKind{KindSale, KindAdjustment, KindGift, KindExpense, KindPurchase}

func (k EventKind) Valid() bool {
	for _, known := range EventKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EventHeader carries the fields every ledger event shares.
// Rows are written once and never updated; corrections are new compensating events.
type EventHeader struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurredAt  time.Time `gorm:"not null;index"`
	PerformedBy string    `gorm:"type:varchar(120);not null"`
}

// BeforeCreate assigns the id when the caller did not.
func (h *EventHeader) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (h EventHeader) Header() EventHeader { return h }

// LedgerEvent is the closed set of money-moving records.
// Only the types declared in this package implement it.
type LedgerEvent interface {
	Header() EventHeader
	Kind() EventKind
	Accept(v EventVisitor)
	ledgerEvent()
}

// EventVisitor must handle every ledger kind; adding a kind adds a method here
// and every aggregator stops compiling until it handles the new case.
type EventVisitor interface {
	VisitSale(*Sale)
	VisitAdjustment(*Adjustment)
	VisitGift(*Gift)
	VisitExpense(*Expense)
	VisitPurchase(*Purchase)
}
