package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Gift is merchandise handed out (influencers, donations). Valued at cost, not at price.
type Gift struct {
	EventHeader
	TotalValueAtCost decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RecipientName    string          `gorm:"not null"`
	AuthorizedBy     string          `gorm:"not null"`

	Items []GiftItem `gorm:"foreignKey:GiftID"`
}

func (g *Gift) Kind() EventKind       { return KindGift }
func (g *Gift) Accept(v EventVisitor) { v.VisitGift(g) }
func (g *Gift) ledgerEvent()          {}

type GiftItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	GiftID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i *GiftItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
