package model

import "github.com/shopspring/decimal"

// AdjustmentKind: "SURPLUS" (cash over) | "SHORTAGE" (cash short)
type AdjustmentKind string

const (
	AdjustmentSurplus  AdjustmentKind = "SURPLUS"
	AdjustmentShortage AdjustmentKind = "SHORTAGE"
)

// Adjustment records a justified cash discrepancy found at the register.
type Adjustment struct {
	EventHeader
	AdjustmentKind AdjustmentKind  `gorm:"column:kind;type:varchar(10);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Justification  string          `gorm:"not null"`
}

func (a *Adjustment) Kind() EventKind       { return KindAdjustment }
func (a *Adjustment) Accept(v EventVisitor) { v.VisitAdjustment(a) }
func (a *Adjustment) ledgerEvent()          {}

// Signed returns +amount for a surplus and -amount for a shortage.
func (a *Adjustment) Signed() decimal.Decimal {
	if a.AdjustmentKind == AdjustmentShortage {
		return a.Amount.Neg()
	}
	return a.Amount
}
