package model

import "github.com/shopspring/decimal"

// ExpenseCategory: "VIDEO" | "MAINTENANCE" | "MARKETING" | "OTHER"
type ExpenseCategory string

const (
	ExpenseVideo       ExpenseCategory = "VIDEO"
	ExpenseMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseMarketing   ExpenseCategory = "MARKETING"
	ExpenseOther       ExpenseCategory = "OTHER"
)

// ExpenseStatus: "PAID" | "PENDING". Only PAID expenses reach the DRE and the trail.
type ExpenseStatus string

const (
	ExpensePaid    ExpenseStatus = "PAID"
	ExpensePending ExpenseStatus = "PENDING"
)

// Expense is a service order paid (or owed) to an outside provider.
type Expense struct {
	EventHeader
	Category     ExpenseCategory `gorm:"type:varchar(20);not null"`
	ProviderName string          `gorm:"not null"`
	Description  string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status       ExpenseStatus   `gorm:"type:varchar(10);not null;index"`
}

func (e *Expense) Kind() EventKind       { return KindExpense }
func (e *Expense) Accept(v EventVisitor) { v.VisitExpense(e) }
func (e *Expense) ledgerEvent()          {}
