package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settingsCacheKey = "accounting:settings:current"

// Defaults seeds the first settings revision.
type Defaults struct {
	TaxRate decimal.Decimal
	MdrPix  decimal.Decimal
	MdrCard decimal.Decimal
	MdrCash decimal.Decimal
}

// StandardDefaults are the rates the store started with.
func StandardDefaults() Defaults {
	return Defaults{
		TaxRate: decimal.RequireFromString("0.155"),
		MdrPix:  decimal.RequireFromString("0.009"),
		MdrCard: decimal.RequireFromString("0.035"),
		MdrCash: decimal.Zero,
	}
}

type SettingsService interface {
	// Current returns the latest revision, creating the defaults on first use.
	Current(ctx context.Context) (*model.AccountingSettings, error)
	// EffectiveAt returns the revision in force at t.
	EffectiveAt(ctx context.Context, t time.Time) (*model.AccountingSettings, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
	History(ctx context.Context) ([]dto.SettingsResponse, error)
}

type settingsService struct {
	repo     repository.SettingsRepository
	audit    AuditService
	rdb      *redis.Client
	ttl      time.Duration
	defaults Defaults
	clock    clock.Clock
}

// NewSettingsService builds the service. rdb may be nil, which disables caching.
func NewSettingsService(repo repository.SettingsRepository, audit AuditService, rdb *redis.Client, ttl time.Duration, defaults Defaults, clk clock.Clock) SettingsService {
	if clk == nil {
		clk = clock.System()
	}
	return &settingsService{repo: repo, audit: audit, rdb: rdb, ttl: ttl, defaults: defaults, clock: clk}
}

func (s *settingsService) Current(ctx context.Context) (*model.AccountingSettings, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, settingsCacheKey).Bytes(); err == nil {
			var st model.AccountingSettings
			if jsonErr := json.Unmarshal(cached, &st); jsonErr == nil {
				return &st, nil
			}
		}
	}

	st, err := s.repo.Latest(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		st, err = s.seedDefaults(ctx)
	}
	if err != nil {
		return nil, err
	}

	// best effort
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(st); jsonErr == nil {
			_ = s.rdb.Set(ctx, settingsCacheKey, b, s.ttl).Err()
		}
	}
	return st, nil
}

func (s *settingsService) EffectiveAt(ctx context.Context, t time.Time) (*model.AccountingSettings, error) {
	st, err := s.repo.EffectiveAt(ctx, t.UTC())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.Current(ctx)
	}
	return st, err
}

func (s *settingsService) Update(ctx context.Context, actor Actor, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	fields := map[string]string{}
	checkRate(fields, "tax_rate", req.TaxRate)
	checkRate(fields, "mdr_pix", req.MdrPix)
	checkRate(fields, "mdr_card", req.MdrCard)
	checkRate(fields, "mdr_cash", req.MdrCash)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	// the first change keeps the defaults as the revision before it
	if _, err := s.Current(ctx); err != nil {
		return nil, err
	}

	st := &model.AccountingSettings{
		TaxRate:       req.TaxRate,
		MdrPix:        req.MdrPix,
		MdrCard:       req.MdrCard,
		MdrCash:       req.MdrCash,
		EffectiveFrom: s.clock.Now().UTC(),
		ChangedBy:     actor.Name,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, settingsCacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("settings: cache invalidation failed")
		}
	}

	if s.audit != nil {
		entry := &model.AuditLog{
			Action: model.AuditSettingsChanged,
			Description: fmt.Sprintf("Imposto %s%%, MDR Pix %s%%, MDR Cartão %s%%, MDR Dinheiro %s%%",
				pct(st.TaxRate), pct(st.MdrPix), pct(st.MdrCard), pct(st.MdrCash)),
			PerformedBy: actor.Name,
		}
		if err := s.audit.RecordTx(ctx, nil, entry); err != nil {
			log.Warn().Err(err).Msg("settings: audit entry not written")
		}
	}

	resp := SettingsToResponse(st)
	return &resp, nil
}

func (s *settingsService) History(ctx context.Context) ([]dto.SettingsResponse, error) {
	revs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SettingsResponse, len(revs))
	for i := range revs {
		resp[i] = SettingsToResponse(&revs[i])
	}
	return resp, nil
}

// seedDefaults stores the first revision, effective since the epoch so it
// also covers months recorded before any settings change.
func (s *settingsService) seedDefaults(ctx context.Context) (*model.AccountingSettings, error) {
	st := &model.AccountingSettings{
		TaxRate:       s.defaults.TaxRate,
		MdrPix:        s.defaults.MdrPix,
		MdrCard:       s.defaults.MdrCard,
		MdrCash:       s.defaults.MdrCash,
		EffectiveFrom: time.Unix(0, 0).UTC(),
		ChangedBy:     "system",
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	log.Info().Msg("settings: default accounting settings created")
	return st, nil
}

func checkRate(fields map[string]string, name string, v decimal.Decimal) {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		fields[name] = "deve estar entre 0 e 1"
	}
}

func pct(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(2)
}
