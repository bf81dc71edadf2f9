package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. The ledger only reads it: price to validate
// overrides, cost to value gifts and inventory.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"not null"`
	Category    string          `gorm:"type:varchar(60);not null;index"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cost        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	Size        string          `gorm:"type:varchar(10)"`
	Color       string          `gorm:"type:varchar(40)"`
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
