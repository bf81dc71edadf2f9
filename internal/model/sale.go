package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod: "CASH" | "PIX" | "CARD" | "STORE_CREDIT" | "OTHER"
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "CASH"
	PaymentPix         PaymentMethod = "PIX"
	PaymentCard        PaymentMethod = "CARD"
	PaymentStoreCredit PaymentMethod = "STORE_CREDIT"
	PaymentOther       PaymentMethod = "OTHER"
)

// PaymentMethods is the full enum; closure breakdowns carry one entry per member.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentPix, PaymentCard, PaymentStoreCredit, PaymentOther}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Sale is an immutable ledger event. Total must equal the sum of its line extensions.
type Sale struct {
	EventHeader
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null;index"`
	PaymentDetails *string
	SellerID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SellerName     string    `gorm:"not null"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) Kind() EventKind       { return KindSale }
func (s *Sale) Accept(v EventVisitor) { v.VisitSale(s) }
func (s *Sale) ledgerEvent()          {}

// SaleItem freezes the unit price at the moment of sale.
// Note is mandatory when the price differs from the catalog price.
type SaleItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName     string          `gorm:"not null"`
	Quantity        int             `gorm:"not null"`
	UnitPriceAtSale decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Note            *string
}

func (i *SaleItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Extension is quantity × unit price.
func (i SaleItem) Extension() decimal.Decimal {
	return i.UnitPriceAtSale.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
