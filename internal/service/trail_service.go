package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/shopspring/decimal"
)

// Trail directions and sources.
const (
	DirectionInflow  = "INFLOW"
	DirectionOutflow = "OUTFLOW"

	SourceSale           = "SALE"
	SourceAdjustment     = "ADJUSTMENT"
	SourceExpensePayment = "EXPENSE_PAYMENT"
)

// TrailService is the money trail: every sale, every adjustment and every
// paid expense, newest first. It has no storage of its own.
type TrailService interface {
	Get(ctx context.Context) ([]dto.TrailEntry, error)
}

type trailService struct {
	ledger LedgerService
}

func NewTrailService(ledger LedgerService) TrailService {
	return &trailService{ledger: ledger}
}

func (s *trailService) Get(ctx context.Context) ([]dto.TrailEntry, error) {
	b := &trailBuilder{}
	for ev, err := range s.ledger.Query(ctx, repository.EventFilter{
		Kinds: []model.EventKind{model.KindSale, model.KindAdjustment, model.KindExpense},
	}) {
		if err != nil {
			return nil, err
		}
		ev.Accept(b)
	}
	return b.entries(), nil
}

type trailRow struct {
	at    time.Time
	entry dto.TrailEntry
}

type trailBuilder struct{ rows []trailRow }

func (b *trailBuilder) add(h model.EventHeader, direction, source string, amount decimal.Decimal, description, performedBy string) {
	b.rows = append(b.rows, trailRow{
		at: h.OccurredAt,
		entry: dto.TrailEntry{
			ID:          h.ID.String(),
			Date:        h.OccurredAt.Format(timeLayout),
			Direction:   direction,
			Source:      source,
			Amount:      amount,
			Description: description,
			PerformedBy: performedBy,
		},
	})
}

func (b *trailBuilder) VisitSale(s *model.Sale) {
	id := s.ID.String()
	b.add(s.EventHeader, DirectionInflow, SourceSale, s.Total,
		fmt.Sprintf("Venda #%s (%s)", id[len(id)-4:], PaymentLabel(s.PaymentMethod)), s.SellerName)
}

func (b *trailBuilder) VisitAdjustment(a *model.Adjustment) {
	dir := DirectionInflow
	if a.AdjustmentKind == model.AdjustmentShortage {
		dir = DirectionOutflow
	}
	b.add(a.EventHeader, dir, SourceAdjustment, a.Amount, "Ajuste: "+a.Justification, a.PerformedBy)
}

func (b *trailBuilder) VisitExpense(e *model.Expense) {
	if e.Status != model.ExpensePaid {
		return
	}
	b.add(e.EventHeader, DirectionOutflow, SourceExpensePayment, e.Amount,
		e.ProviderName+": "+e.Description, e.PerformedBy)
}

func (b *trailBuilder) VisitGift(*model.Gift)         {}
func (b *trailBuilder) VisitPurchase(*model.Purchase) {}

// entries returns rows newest first; equal timestamps come out in reverse arrival order.
func (b *trailBuilder) entries() []dto.TrailEntry {
	slices.Reverse(b.rows)
	slices.SortStableFunc(b.rows, func(x, y trailRow) int { return y.at.Compare(x.at) })
	out := make([]dto.TrailEntry, len(b.rows))
	for i, r := range b.rows {
		out[i] = r.entry
	}
	return out
}

// PaymentLabel is the receipt wording of a payment method.
func PaymentLabel(m model.PaymentMethod) string {
	switch m {
	case model.PaymentCash:
		return "Dinheiro"
	case model.PaymentPix:
		return "Pix"
	case model.PaymentCard:
		return "Cartão"
	case model.PaymentStoreCredit:
		return "Crédito Loja"
	default:
		return "Outro"
	}
}
