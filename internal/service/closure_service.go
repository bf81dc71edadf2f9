package service

import (
	"context"
	"fmt"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/dto"
	"chicpos/internal/metrics"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const dayLayout = "2006-01-02"

// ReceiptQueue schedules the closure receipt after the closure is stored.
type ReceiptQueue interface {
	EnqueueClosureReceipt(ctx context.Context, closureID uuid.UUID) error
}

type ClosureService interface {
	// Close snapshots one store-local calendar day. Empty day = today.
	// It always appends; closing a day twice yields two closures.
	Close(ctx context.Context, actor Actor, day string) (*dto.ClosureResponse, error)
	History(ctx context.Context) ([]dto.ClosureResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ClosureResponse, error)
}

type closureService struct {
	ledger   repository.LedgerRepository
	repo     repository.ClosureRepository
	audit    AuditService
	receipts ReceiptQueue
	metrics  *metrics.Metrics
	clock    clock.Clock
	loc      *time.Location
}

func NewClosureService(
	ledger repository.LedgerRepository,
	repo repository.ClosureRepository,
	audit AuditService,
	receipts ReceiptQueue,
	m *metrics.Metrics,
	clk clock.Clock,
	loc *time.Location,
) ClosureService {
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &closureService{ledger: ledger, repo: repo, audit: audit, receipts: receipts, metrics: m, clock: clk, loc: loc}
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *closureService) Close(ctx context.Context, actor Actor, day string) (*dto.ClosureResponse, error) {
	if actor.Name == "" {
		return nil, invalid("closed_by", "responsável obrigatório")
	}
	start, err := s.dayStart(day)
	if err != nil {
		return nil, err
	}
	from, to := start.UTC(), start.AddDate(0, 0, 1).UTC()

	set, err := s.ledger.Snapshot(ctx, repository.EventFilter{
		Kinds:              []model.EventKind{model.KindSale, model.KindAdjustment, model.KindGift},
		From:               &from,
		To:                 &to,
		IncludeAttendances: true,
	})
	if err != nil {
		return nil, err
	}

	previous, err := s.repo.CountByDay(ctx, start.Format(dayLayout))
	if err != nil {
		return nil, err
	}

	closure := AggregateDay(start.Format(dayLayout), set)
	closure.ID = uuid.New()
	closure.ClosedAt = s.clock.Now().UTC()
	closure.ClosedBy = actor.Name

	if err := s.repo.Create(ctx, &closure); err != nil {
		return nil, err
	}
	s.metrics.ClosureWritten(previous > 0)
	if previous > 0 {
		log.Warn().
			Str("day", closure.Day).
			Int64("previous_closures", previous).
			Str("closed_by", closure.ClosedBy).
			Msg("closure: day closed again, newest closure supersedes earlier ones")
	}

	if s.audit != nil {
		entry := &model.AuditLog{
			Action: model.AuditDayClosed,
			Description: fmt.Sprintf("Fechamento de %s: vendas %s, brindes %s, ajustes %s",
				closure.Day, closure.TotalSales.StringFixed(2), closure.TotalGiftsAtCost.StringFixed(2), closure.NetAdjustments.StringFixed(2)),
			PerformedBy: actor.Name,
			Timestamp:   closure.ClosedAt,
		}
		if err := s.audit.RecordTx(ctx, nil, entry); err != nil {
			log.Warn().Err(err).Str("closure_id", closure.ID.String()).Msg("closure: audit entry not written")
		}
	}

	if s.receipts != nil {
		if err := s.receipts.EnqueueClosureReceipt(ctx, closure.ID); err != nil {
			log.Warn().Err(err).Str("closure_id", closure.ID.String()).Msg("closure: failed to enqueue receipt")
		}
	}

	resp := closureToResponse(&closure, int(previous))
	return &resp, nil
}

func (s *closureService) History(ctx context.Context) ([]dto.ClosureResponse, error) {
	closures, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClosureResponse, len(closures))
	for i := range closures {
		resp[i] = closureToResponse(&closures[i], 0)
	}
	return resp, nil
}

func (s *closureService) Get(ctx context.Context, id uuid.UUID) (*dto.ClosureResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "fechamento", id.String())
	}
	resp := closureToResponse(c, 0)
	return &resp, nil
}

func (s *closureService) dayStart(day string) (time.Time, error) {
	if day == "" {
		now := s.clock.Now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), nil
	}
	t, err := time.ParseInLocation(dayLayout, day, s.loc)
	if err != nil {
		return time.Time{}, invalid("day", "data inválida, use AAAA-MM-DD")
	}
	return t, nil
}

// ── Aggregation ───────────────────────────────────────────────────────────────

// AggregateDay folds one day of events into a closure. It never fails: an
// empty set yields zero totals with every payment method present.
func AggregateDay(day string, set *repository.EventSet) model.DailyClosure {
	agg := newClosureAggregator()
	for ev := range mergeByTime(set) {
		ev.Accept(agg)
	}
	return model.DailyClosure{
		Day:              day,
		TotalSales:       agg.totalSales,
		TotalGiftsAtCost: agg.totalGifts,
		SalesCount:       agg.salesCount,
		GiftsCount:       agg.giftsCount,
		AttendanceCount:  len(set.Attendances),
		NetAdjustments:   agg.netAdjustments,
		PaymentBreakdown: datatypes.NewJSONType(agg.breakdown),
	}
}

type closureAggregator struct {
	totalSales     decimal.Decimal
	totalGifts     decimal.Decimal
	netAdjustments decimal.Decimal
	salesCount     int
	giftsCount     int
	breakdown      model.PaymentBreakdown
}

func newClosureAggregator() *closureAggregator {
	b := make(model.PaymentBreakdown, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		b[m] = decimal.Zero
	}
	return &closureAggregator{
		totalSales:     decimal.Zero,
		totalGifts:     decimal.Zero,
		netAdjustments: decimal.Zero,
		breakdown:      b,
	}
}

func (a *closureAggregator) VisitSale(s *model.Sale) {
	a.totalSales = a.totalSales.Add(s.Total)
	a.salesCount++
	a.breakdown[s.PaymentMethod] = a.breakdown[s.PaymentMethod].Add(s.Total)
}

func (a *closureAggregator) VisitAdjustment(adj *model.Adjustment) {
	a.netAdjustments = a.netAdjustments.Add(adj.Signed())
}

func (a *closureAggregator) VisitGift(g *model.Gift) {
	a.totalGifts = a.totalGifts.Add(g.TotalValueAtCost)
	a.giftsCount++
}

func (a *closureAggregator) VisitExpense(*model.Expense)   {}
func (a *closureAggregator) VisitPurchase(*model.Purchase) {}
