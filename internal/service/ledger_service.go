package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	"chicpos/internal/clock"
	"chicpos/internal/dto"
	"chicpos/internal/metrics"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor identifies who performs an operation. It is always passed in
// explicitly; services never read session state on their own.
type Actor struct {
	UserID uuid.UUID
	Name   string
	Role   string
}

// EventPublisher receives every ledger event after it is committed.
// Implementations must not block on the network.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.LedgerEvent) error
}

type LedgerService interface {
	// Append validates and stores one event. A sale also stores its attendance.
	Append(ctx context.Context, ev model.LedgerEvent) (uuid.UUID, error)
	// Query streams events ordered by occurredAt ascending. Each range over the
	// returned sequence reads a fresh snapshot.
	Query(ctx context.Context, f repository.EventFilter) iter.Seq2[model.LedgerEvent, error]
	FindEvent(ctx context.Context, kind model.EventKind, id uuid.UUID) (model.LedgerEvent, error)

	RecordSale(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.AppendResponse, error)
	RecordAttendance(ctx context.Context, actor Actor, req dto.CreateAttendanceRequest) (*dto.AppendResponse, error)
	RecordAdjustment(ctx context.Context, actor Actor, req dto.CreateAdjustmentRequest) (*dto.AppendResponse, error)
	RecordGift(ctx context.Context, actor Actor, req dto.CreateGiftRequest) (*dto.AppendResponse, error)
	RecordExpense(ctx context.Context, actor Actor, req dto.CreateExpenseRequest) (*dto.AppendResponse, error)
	RecordPurchase(ctx context.Context, actor Actor, req dto.CreatePurchaseRequest) (*dto.AppendResponse, error)
	ImportPurchase(ctx context.Context, actor Actor, r io.Reader) (*dto.AppendResponse, error)
	ListExpenses(ctx context.Context) (*dto.ExpenseListResponse, error)
}

type ledgerService struct {
	repo      repository.LedgerRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	publisher EventPublisher
	metrics   *metrics.Metrics
	clock     clock.Clock
}

func NewLedgerService(
	repo repository.LedgerRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	publisher EventPublisher,
	m *metrics.Metrics,
	clk clock.Clock,
) LedgerService {
	if clk == nil {
		clk = clock.System()
	}
	return &ledgerService{repo: repo, products: products, users: users, publisher: publisher, metrics: m, clock: clk}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Append ────────────────────────────────────────────────────────────────────

func (s *ledgerService) Append(ctx context.Context, ev model.LedgerEvent) (uuid.UUID, error) {
	if ev == nil {
		return uuid.Nil, invalid("event", "evento obrigatório")
	}
	s.stamp(ev)

	v := &eventValidator{}
	ev.Accept(v)
	if len(v.fields) > 0 {
		s.metrics.LedgerRejected(string(ev.Kind()))
		return uuid.Nil, &ValidationError{Fields: v.fields}
	}

	w := &eventWriter{ctx: ctx, svc: s}
	ev.Accept(w)
	if w.err != nil {
		var ce *ConsistencyError
		if errors.As(w.err, &ce) {
			s.metrics.ConsistencyFailure(ce.Op)
			log.Error().Err(w.err).Str("kind", string(ev.Kind())).Str("id", ev.Header().ID.String()).
				Msg("ledger: coupled write left the store inconsistent")
		}
		return uuid.Nil, w.err
	}

	s.metrics.LedgerAppended(string(ev.Kind()))
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.metrics.PublishFailed()
			log.Warn().Err(err).Str("kind", string(ev.Kind())).Msg("ledger: publish failed")
		}
	}
	return ev.Header().ID, nil
}

// stamp fills the id and timestamp when the caller left them empty and
// normalizes the timestamp to UTC.
func (s *ledgerService) stamp(ev model.LedgerEvent) {
	st := &stamper{now: s.clock.Now()}
	ev.Accept(st)
}

// eventWriter persists one event. The sale case couples the attendance.
type eventWriter struct {
	ctx context.Context
	svc *ledgerService
	err error
}

func (w *eventWriter) VisitSale(sale *model.Sale) {
	w.err = w.svc.appendSale(w.ctx, sale)
}

func (w *eventWriter) VisitAdjustment(a *model.Adjustment) {
	w.err = w.svc.repo.CreateAdjustment(w.ctx, a)
}

func (w *eventWriter) VisitGift(g *model.Gift) {
	w.err = w.svc.repo.CreateGift(w.ctx, g)
}

func (w *eventWriter) VisitExpense(e *model.Expense) {
	w.err = w.svc.repo.CreateExpense(w.ctx, e)
}

func (w *eventWriter) VisitPurchase(p *model.Purchase) {
	exists, err := w.svc.repo.PurchaseKeyExists(w.ctx, p.InvoiceKey)
	if err != nil {
		w.err = err
		return
	}
	if exists {
		w.err = invalid("invoice_key", "nota fiscal já importada")
		return
	}
	w.err = w.svc.repo.CreatePurchase(w.ctx, p)
	if errors.Is(w.err, repository.ErrDuplicateInvoice) {
		w.err = invalid("invoice_key", "nota fiscal já importada")
	}
}

// appendSale writes the sale and its attendance as one unit. Without a
// transactional store the attendance is retried once; if it still fails the
// sale stands alone and a ConsistencyError is returned.
func (s *ledgerService) appendSale(ctx context.Context, sale *model.Sale) error {
	saleID := sale.ID
	att := &model.Attendance{
		ID:             uuid.New(),
		OccurredAt:     sale.OccurredAt,
		SellerID:       sale.SellerID,
		SellerName:     sale.SellerName,
		ResultedInSale: true,
		SaleID:         &saleID,
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateSale(ctx, tx, sale); err != nil {
			return err
		}
		err := s.repo.CreateAttendance(ctx, tx, att)
		if err == nil || tx != nil {
			return err
		}
		log.Warn().Err(err).Str("sale_id", saleID.String()).Msg("ledger: attendance write failed, retrying once")
		if retryErr := s.repo.CreateAttendance(ctx, nil, att); retryErr != nil {
			return &ConsistencyError{Op: "sale_attendance", Err: retryErr}
		}
		return nil
	})
}

// ── Query ─────────────────────────────────────────────────────────────────────

func (s *ledgerService) Query(ctx context.Context, f repository.EventFilter) iter.Seq2[model.LedgerEvent, error] {
	return func(yield func(model.LedgerEvent, error) bool) {
		set, err := s.repo.Snapshot(ctx, f)
		if err != nil {
			yield(nil, err)
			return
		}
		for ev := range mergeByTime(set) {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func (s *ledgerService) FindEvent(ctx context.Context, kind model.EventKind, id uuid.UUID) (model.LedgerEvent, error) {
	if !kind.Valid() {
		return nil, invalid("kind", "tipo de evento desconhecido")
	}
	ev, err := s.repo.FindEvent(ctx, kind, id)
	if err != nil {
		return nil, notFoundOr(err, string(kind), id.String())
	}
	return ev, nil
}

// mergeByTime performs a k-way merge of the per-kind streams of set.
// Equal timestamps keep the kind order of model.EventKinds.
func mergeByTime(set *repository.EventSet) iter.Seq[model.LedgerEvent] {
	streams := [][]model.LedgerEvent{
		asEvents(set.Sales),
		asEvents(set.Adjustments),
		asEvents(set.Gifts),
		asEvents(set.Expenses),
		asEvents(set.Purchases),
	}
	for _, st := range streams {
		slices.SortStableFunc(st, func(a, b model.LedgerEvent) int {
			return a.Header().OccurredAt.Compare(b.Header().OccurredAt)
		})
	}
	return func(yield func(model.LedgerEvent) bool) {
		heads := make([]int, len(streams))
		for {
			pick := -1
			for i, st := range streams {
				if heads[i] >= len(st) {
					continue
				}
				if pick < 0 || st[heads[i]].Header().OccurredAt.Before(streams[pick][heads[pick]].Header().OccurredAt) {
					pick = i
				}
			}
			if pick < 0 {
				return
			}
			ev := streams[pick][heads[pick]]
			heads[pick]++
			if !yield(ev) {
				return
			}
		}
	}
}

// asEvents converts a slice of concrete rows into ledger events that point
// into the slice.
func asEvents[T any, P interface {
	*T
	model.LedgerEvent
}](rows []T) []model.LedgerEvent {
	out := make([]model.LedgerEvent, len(rows))
	for i := range rows {
		out[i] = P(&rows[i])
	}
	return out
}

// ── Recorders (request → event) ───────────────────────────────────────────────

func (s *ledgerService) RecordSale(ctx context.Context, actor Actor, req dto.CreateSaleRequest) (*dto.AppendResponse, error) {
	sellerID, sellerName, err := s.resolveSeller(ctx, actor, req.SellerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d].product_id", i), "id inválido")
		}
		ids[i] = pid
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	items := make([]model.SaleItem, 0, len(req.Items))
	// quantities add up across lines of the same product
	requested := map[uuid.UUID]int{}
	for i, item := range req.Items {
		p, ok := catalog[ids[i]]
		if !ok {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "produto não encontrado"
			continue
		}
		requested[p.ID] += item.Quantity
		if requested[p.ID] > p.Stock {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "estoque insuficiente"
		}
		note := trimmedPtr(item.Note)
		if !item.UnitPrice.Equal(p.Price) && note == nil {
			fields[fmt.Sprintf("items[%d].note", i)] = "preço alterado exige justificativa"
		}
		items = append(items, model.SaleItem{
			ProductID:       p.ID,
			ProductName:     p.Name,
			Quantity:        item.Quantity,
			UnitPriceAtSale: item.UnitPrice,
			Note:            note,
		})
	}
	if len(fields) > 0 {
		s.metrics.LedgerRejected(string(model.KindSale))
		return nil, &ValidationError{Fields: fields}
	}

	sale := &model.Sale{
		EventHeader:    model.EventHeader{PerformedBy: actor.Name},
		Total:          req.Total,
		PaymentMethod:  model.PaymentMethod(req.PaymentMethod),
		PaymentDetails: trimmedPtr(req.PaymentDetails),
		SellerID:       sellerID,
		SellerName:     sellerName,
		Items:          items,
	}
	return s.appendAndRespond(ctx, sale)
}

func (s *ledgerService) RecordAttendance(ctx context.Context, actor Actor, req dto.CreateAttendanceRequest) (*dto.AppendResponse, error) {
	sellerID, sellerName, err := s.resolveSeller(ctx, actor, req.SellerID)
	if err != nil {
		return nil, err
	}
	att := &model.Attendance{
		ID:         uuid.New(),
		OccurredAt: s.clock.Now().UTC(),
		SellerID:   sellerID,
		SellerName: sellerName,
	}
	if err := s.repo.CreateAttendance(ctx, nil, att); err != nil {
		return nil, err
	}
	return &dto.AppendResponse{ID: att.ID.String(), Kind: "ATTENDANCE"}, nil
}

func (s *ledgerService) RecordAdjustment(ctx context.Context, actor Actor, req dto.CreateAdjustmentRequest) (*dto.AppendResponse, error) {
	return s.appendAndRespond(ctx, &model.Adjustment{
		EventHeader:    model.EventHeader{PerformedBy: actor.Name},
		AdjustmentKind: model.AdjustmentKind(req.Kind),
		Amount:         req.Amount,
		Justification:  strings.TrimSpace(req.Justification),
	})
}

func (s *ledgerService) RecordGift(ctx context.Context, actor Actor, req dto.CreateGiftRequest) (*dto.AppendResponse, error) {
	ids := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, invalid(fmt.Sprintf("items[%d].product_id", i), "id inválido")
		}
		ids[i] = pid
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	items := make([]model.GiftItem, 0, len(req.Items))
	atCost := decimal.Zero
	for i, item := range req.Items {
		p, ok := catalog[ids[i]]
		if !ok {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "produto não encontrado"
			continue
		}
		items = append(items, model.GiftItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitCost:    p.Cost,
		})
		atCost = atCost.Add(p.Cost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if len(fields) > 0 {
		s.metrics.LedgerRejected(string(model.KindGift))
		return nil, &ValidationError{Fields: fields}
	}
	if req.TotalValueAtCost != nil {
		atCost = *req.TotalValueAtCost
	}

	return s.appendAndRespond(ctx, &model.Gift{
		EventHeader:      model.EventHeader{PerformedBy: actor.Name},
		TotalValueAtCost: atCost,
		RecipientName:    strings.TrimSpace(req.RecipientName),
		AuthorizedBy:     actor.Name,
		Items:            items,
	})
}

func (s *ledgerService) RecordExpense(ctx context.Context, actor Actor, req dto.CreateExpenseRequest) (*dto.AppendResponse, error) {
	return s.appendAndRespond(ctx, &model.Expense{
		EventHeader:  model.EventHeader{PerformedBy: actor.Name},
		Category:     model.ExpenseCategory(req.Category),
		ProviderName: strings.TrimSpace(req.ProviderName),
		Description:  strings.TrimSpace(req.Description),
		Amount:       req.Amount,
		Status:       model.ExpenseStatus(req.Status),
	})
}

func (s *ledgerService) RecordPurchase(ctx context.Context, actor Actor, req dto.CreatePurchaseRequest) (*dto.AppendResponse, error) {
	return s.appendAndRespond(ctx, &model.Purchase{
		EventHeader:   model.EventHeader{PerformedBy: actor.Name},
		SupplierName:  strings.TrimSpace(req.SupplierName),
		TaxID:         strings.TrimSpace(req.TaxID),
		TotalValue:    req.TotalValue,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		InvoiceKey:    strings.TrimSpace(req.InvoiceKey),
		IssuedAt:      req.IssuedAt.UTC(),
	})
}

func (s *ledgerService) ListExpenses(ctx context.Context) (*dto.ExpenseListResponse, error) {
	set, err := s.repo.Snapshot(ctx, repository.EventFilter{Kinds: []model.EventKind{model.KindExpense}})
	if err != nil {
		return nil, err
	}
	resp := &dto.ExpenseListResponse{
		Data:         make([]dto.ExpenseResponse, 0, len(set.Expenses)),
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
	}
	// newest first
	for i := len(set.Expenses) - 1; i >= 0; i-- {
		e := set.Expenses[i]
		resp.Data = append(resp.Data, expenseToResponse(&e, true))
		if e.Status == model.ExpensePaid {
			resp.TotalPaid = resp.TotalPaid.Add(e.Amount)
		} else {
			resp.TotalPending = resp.TotalPending.Add(e.Amount)
		}
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *ledgerService) appendAndRespond(ctx context.Context, ev model.LedgerEvent) (*dto.AppendResponse, error) {
	id, err := s.Append(ctx, ev)
	if err != nil {
		return nil, err
	}
	return &dto.AppendResponse{ID: id.String(), Kind: string(ev.Kind())}, nil
}

// resolveSeller returns the actor unless another seller id was given, in
// which case that user must exist.
func (s *ledgerService) resolveSeller(ctx context.Context, actor Actor, sellerID *string) (uuid.UUID, string, error) {
	if sellerID == nil || *sellerID == "" || *sellerID == actor.UserID.String() {
		return actor.UserID, actor.Name, nil
	}
	id, err := uuid.Parse(*sellerID)
	if err != nil {
		return uuid.Nil, "", invalid("seller_id", "id inválido")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, "", invalid("seller_id", "vendedor não encontrado")
		}
		return uuid.Nil, "", err
	}
	return u.ID, u.Name, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
