package service

import (
	"context"
	"strings"

	"chicpos/internal/clock"
	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"gorm.io/gorm"
)

type AuditService interface {
	Record(ctx context.Context, actor Actor, req dto.RecordAuditRequest) (*dto.AuditLogResponse, error)
	// RecordTx writes inside the caller's transaction; tx may be nil.
	RecordTx(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error
	List(ctx context.Context, query string) ([]dto.AuditLogResponse, error)
}

type auditService struct {
	repo  repository.AuditRepository
	clock clock.Clock
}

func NewAuditService(repo repository.AuditRepository, clk clock.Clock) AuditService {
	if clk == nil {
		clk = clock.System()
	}
	return &auditService{repo: repo, clock: clk}
}

func (s *auditService) Record(ctx context.Context, actor Actor, req dto.RecordAuditRequest) (*dto.AuditLogResponse, error) {
	entry := &model.AuditLog{
		Action:      req.Action,
		Description: req.Description,
		PerformedBy: actor.Name,
	}
	if err := s.RecordTx(ctx, nil, entry); err != nil {
		return nil, err
	}
	resp := auditToResponse(entry)
	return &resp, nil
}

func (s *auditService) RecordTx(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error {
	entry.Action = strings.TrimSpace(entry.Action)
	entry.Description = strings.TrimSpace(entry.Description)
	entry.PerformedBy = strings.TrimSpace(entry.PerformedBy)

	fields := map[string]string{}
	if entry.Action == "" {
		fields["action"] = "campo obrigatório"
	}
	if entry.Description == "" {
		fields["description"] = "campo obrigatório"
	}
	if entry.PerformedBy == "" {
		fields["performed_by"] = "campo obrigatório"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return s.repo.Create(ctx, tx, entry)
}

func (s *auditService) List(ctx context.Context, query string) ([]dto.AuditLogResponse, error) {
	entries, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AuditLogResponse, len(entries))
	for i := range entries {
		resp[i] = auditToResponse(&entries[i])
	}
	return resp, nil
}
