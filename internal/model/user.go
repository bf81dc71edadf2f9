package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles
const (
	RoleOwner   = "OWNER"
	RoleAuditor = "AUDITOR"
	RoleAdmin   = "ADMIN"
	RoleSeller  = "SELLER"
)

// User stores staff accounts with role-based access.
// Status: "ACTIVE" | "VACATION" | "SICK" | "EXTERNAL_SALES"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	Status       string    `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	AvatarSeed   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
