package service

import (
	"context"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/shopspring/decimal"
)

// cmvMarkupAssumption prices cost of goods as a fixed share of revenue: the
// store marks up 100% over cost, so cost is half of what it sells for.
const cmvMarkupAssumption = 0.5

// DREResult is the income statement of one month.
type DREResult struct {
	Revenue   decimal.Decimal
	Taxes     decimal.Decimal
	MDR       decimal.Decimal
	Expenses  decimal.Decimal
	CMV       decimal.Decimal
	NetProfit decimal.Decimal
}

// CalculateDRE is a pure function of its inputs. Events outside the month
// (in loc) are ignored, so callers may pass a wider stream.
func CalculateDRE(events []model.LedgerEvent, month time.Month, year int, settings model.AccountingSettings, loc *time.Location) DREResult {
	if loc == nil {
		loc = time.UTC
	}
	agg := &dreAggregator{
		month:    month,
		year:     year,
		loc:      loc,
		settings: settings,
		revenue:  decimal.Zero,
		mdr:      decimal.Zero,
		expenses: decimal.Zero,
	}
	for _, ev := range events {
		ev.Accept(agg)
	}

	taxes := agg.revenue.Mul(settings.TaxRate)
	cmv := agg.revenue.Mul(decimal.NewFromFloat(cmvMarkupAssumption))
	return DREResult{
		Revenue:   agg.revenue,
		Taxes:     taxes,
		MDR:       agg.mdr,
		Expenses:  agg.expenses,
		CMV:       cmv,
		NetProfit: agg.revenue.Sub(taxes).Sub(agg.mdr).Sub(agg.expenses).Sub(cmv),
	}
}

type dreAggregator struct {
	month    time.Month
	year     int
	loc      *time.Location
	settings model.AccountingSettings

	revenue  decimal.Decimal
	mdr      decimal.Decimal
	expenses decimal.Decimal
}

func (a *dreAggregator) inMonth(h model.EventHeader) bool {
	t := h.OccurredAt.In(a.loc)
	return t.Year() == a.year && t.Month() == a.month
}

func (a *dreAggregator) VisitSale(s *model.Sale) {
	if !a.inMonth(s.EventHeader) {
		return
	}
	a.revenue = a.revenue.Add(s.Total)
	a.mdr = a.mdr.Add(s.Total.Mul(a.settings.MdrFor(s.PaymentMethod)))
}

func (a *dreAggregator) VisitExpense(e *model.Expense) {
	if e.Status != model.ExpensePaid || !a.inMonth(e.EventHeader) {
		return
	}
	a.expenses = a.expenses.Add(e.Amount)
}

// Adjustments, gifts and purchases do not enter the statement.
func (a *dreAggregator) VisitAdjustment(*model.Adjustment) {}
func (a *dreAggregator) VisitGift(*model.Gift)             {}
func (a *dreAggregator) VisitPurchase(*model.Purchase)     {}

// ── DREService ────────────────────────────────────────────────────────────────

type DREService interface {
	Calculate(ctx context.Context, q dto.DREQuery) (*dto.DREResponse, error)
}

type dreService struct {
	ledger   LedgerService
	settings SettingsService
	loc      *time.Location
}

func NewDREService(ledger LedgerService, settings SettingsService, loc *time.Location) DREService {
	if loc == nil {
		loc = time.UTC
	}
	return &dreService{ledger: ledger, settings: settings, loc: loc}
}

// Calculate uses the current settings unless q.Rates is "effective", in which
// case it uses the revision in force on the last instant of the month.
func (s *dreService) Calculate(ctx context.Context, q dto.DREQuery) (*dto.DREResponse, error) {
	if q.Month < 1 || q.Month > 12 {
		return nil, invalid("month", "mês deve estar entre 1 e 12")
	}
	from, to := MonthWindow(time.Month(q.Month), q.Year, s.loc)

	var (
		settings *model.AccountingSettings
		err      error
	)
	if q.Rates == "effective" {
		settings, err = s.settings.EffectiveAt(ctx, to.Add(-time.Nanosecond))
	} else {
		settings, err = s.settings.Current(ctx)
	}
	if err != nil {
		return nil, err
	}

	var events []model.LedgerEvent
	for ev, err := range s.ledger.Query(ctx, repository.EventFilter{
		Kinds: []model.EventKind{model.KindSale, model.KindExpense},
		From:  &from,
		To:    &to,
	}) {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	r := CalculateDRE(events, time.Month(q.Month), q.Year, *settings, s.loc)
	return &dto.DREResponse{
		Month:     q.Month,
		Year:      q.Year,
		Revenue:   r.Revenue,
		Taxes:     r.Taxes,
		MDR:       r.MDR,
		Expenses:  r.Expenses,
		CMV:       r.CMV,
		NetProfit: r.NetProfit,
	}, nil
}

// MonthWindow returns the UTC half-open window [from, to) of a store-local month.
func MonthWindow(month time.Month, year int, loc *time.Location) (from, to time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}
