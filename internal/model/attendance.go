package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance is one customer interaction on the floor. A sale creates one with
// ResultedInSale=true; a consultation without purchase is recorded manually.
type Attendance struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OccurredAt     time.Time `gorm:"not null;index"`
	SellerID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SellerName     string    `gorm:"not null"`
	ResultedInSale bool      `gorm:"not null;default:false"`
	// SaleID links the attendance to the sale that produced it, nil for consultations
	SaleID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
}

func (a *Attendance) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
