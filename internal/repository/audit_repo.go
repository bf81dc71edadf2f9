package repository

import (
	"context"
	"strings"

	"chicpos/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error
	// List returns entries newest first. A non-empty query keeps only entries whose
	// action, description or author contains it, ignoring case.
	List(ctx context.Context, query string) ([]model.AuditLog, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, query string) ([]model.AuditLog, error) {
	var out []model.AuditLog
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where(`LOWER(action) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(performed_by) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern)
	}
	err := q.Order("timestamp DESC").Order("id DESC").Find(&out).Error
	return out, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
