package repository

import (
	"context"

	"chicpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClosureRepository interface {
	Create(ctx context.Context, c *model.DailyClosure) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DailyClosure, error)
	// List returns every closure, newest first.
	List(ctx context.Context) ([]model.DailyClosure, error)
	CountByDay(ctx context.Context, day string) (int64, error)
}

type closureRepo struct{ db *gorm.DB }

func NewClosureRepository(db *gorm.DB) ClosureRepository { return &closureRepo{db: db} }

func (r *closureRepo) Create(ctx context.Context, c *model.DailyClosure) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *closureRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DailyClosure, error) {
	var c model.DailyClosure
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *closureRepo) List(ctx context.Context) ([]model.DailyClosure, error) {
	var out []model.DailyClosure
	err := r.db.WithContext(ctx).Order("closed_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *closureRepo) CountByDay(ctx context.Context, day string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DailyClosure{}).Where("day = ?", day).Count(&n).Error
	return n, err
}
