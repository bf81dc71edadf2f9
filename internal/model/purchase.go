package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a supplier invoice (NF-e) taken into the books.
// OccurredAt is when it was recorded; IssuedAt is the invoice date.
type Purchase struct {
	EventHeader
	SupplierName  string          `gorm:"not null"`
	TaxID         string          `gorm:"type:varchar(20);not null"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	InvoiceNumber string          `gorm:"type:varchar(20);not null"`
	InvoiceKey    string          `gorm:"type:varchar(60);uniqueIndex;not null"`
	IssuedAt      time.Time       `gorm:"not null"`
}

func (p *Purchase) Kind() EventKind       { return KindPurchase }
func (p *Purchase) Accept(v EventVisitor) { v.VisitPurchase(p) }
func (p *Purchase) ledgerEvent()          {}
