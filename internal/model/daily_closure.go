package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentBreakdown maps each payment method to the day's sales total for it.
type PaymentBreakdown map[PaymentMethod]decimal.Decimal

// DailyClosure is the immutable snapshot of one calendar day of the ledger.
// Closing the same day twice yields two rows; the newest is authoritative.
type DailyClosure struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Day              string          `gorm:"type:varchar(10);not null;index"` // YYYY-MM-DD in store time
	ClosedAt         time.Time       `gorm:"not null;index"`
	ClosedBy         string          `gorm:"type:varchar(120);not null"`
	TotalSales       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalGiftsAtCost decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalesCount       int             `gorm:"not null"`
	GiftsCount       int             `gorm:"not null"`
	AttendanceCount  int             `gorm:"not null"`
	NetAdjustments   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	PaymentBreakdown datatypes.JSONType[PaymentBreakdown] `gorm:"not null"`
}

func (c *DailyClosure) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
