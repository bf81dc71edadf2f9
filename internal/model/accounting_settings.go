package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountingSettings is one revision of the cost/tax model. Revisions are
// appended, never edited; the one with the latest EffectiveFrom is current.
type AccountingSettings struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	MdrPix        decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	MdrCard       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	MdrCash       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	EffectiveFrom time.Time       `gorm:"not null;index"`
	ChangedBy     string          `gorm:"type:varchar(120);not null"`
}

func (s *AccountingSettings) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// MdrFor returns the card-fee rate for a payment method. Anything that is not
// PIX or CARD is charged at the cash rate.
func (s AccountingSettings) MdrFor(m PaymentMethod) decimal.Decimal {
	switch m {
	case PaymentPix:
		return s.MdrPix
	case PaymentCard:
		return s.MdrCard
	default:
		return s.MdrCash
	}
}
