package repository

import (
	"context"
	"time"

	"chicpos/internal/model"

	"gorm.io/gorm"
)

// SettingsRepository stores accounting settings as an append-only revision list.
type SettingsRepository interface {
	Create(ctx context.Context, s *model.AccountingSettings) error
	// Latest returns gorm.ErrRecordNotFound when no revision exists yet.
	Latest(ctx context.Context) (*model.AccountingSettings, error)
	// EffectiveAt returns the newest revision with effective_from <= at.
	EffectiveAt(ctx context.Context, at time.Time) (*model.AccountingSettings, error)
	List(ctx context.Context) ([]model.AccountingSettings, error)
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepo{db: db} }

func (r *settingsRepo) Create(ctx context.Context, s *model.AccountingSettings) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *settingsRepo) Latest(ctx context.Context) (*model.AccountingSettings, error) {
	var s model.AccountingSettings
	err := r.db.WithContext(ctx).Order("effective_from DESC").First(&s).Error
	return &s, err
}

func (r *settingsRepo) EffectiveAt(ctx context.Context, at time.Time) (*model.AccountingSettings, error) {
	var s model.AccountingSettings
	err := r.db.WithContext(ctx).
		Where("effective_from <= ?", at).
		Order("effective_from DESC").
		First(&s).Error
	return &s, err
}

func (r *settingsRepo) List(ctx context.Context) ([]model.AccountingSettings, error) {
	var out []model.AccountingSettings
	err := r.db.WithContext(ctx).Order("effective_from DESC").Find(&out).Error
	return out, err
}
