package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions written by the system itself.
const (
	AuditUserDeleted     = "USER_DELETED"
	AuditUserCreated     = "USER_CREATED"
	AuditLogin           = "LOGIN"
	AuditSettingsChanged = "SETTINGS_CHANGED"
	AuditDayClosed       = "DAY_CLOSED"
)

// AuditLog is an append-only record of a sensitive non-financial action.
type AuditLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Action      string    `gorm:"type:varchar(60);not null;index"`
	Description string    `gorm:"not null"`
	PerformedBy string    `gorm:"type:varchar(120);not null"`
	Timestamp   time.Time `gorm:"not null;index"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
