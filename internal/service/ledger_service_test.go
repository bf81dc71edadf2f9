package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chicpos/internal/clock"
	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"
	"chicpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledgerFixture struct {
	repo      *fakeLedgerRepo
	products  *fakeProductRepo
	users     *fakeUserRepo
	publisher *recordingPublisher
	clock     *clock.FakeClock
	svc       service.LedgerService
	ana       model.User
	dress     model.Product
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		repo:      newFakeLedgerRepo(),
		publisher: &recordingPublisher{},
		clock:     clock.NewFakeClock(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)),
		ana:       seller("Ana"),
		dress: model.Product{
			ID:       uuid.New(),
			Name:     "Vestido Midi",
			Category: "Vestidos",
			Price:    decimal.NewFromInt(100),
			Cost:     decimal.NewFromInt(40),
			Stock:    5,
		},
	}
	f.products = newFakeProductRepo(f.dress)
	f.users = newFakeUserRepo(f.ana)
	f.svc = service.NewLedgerService(f.repo, f.products, f.users, f.publisher, nil, f.clock)
	return f
}

func (f *ledgerFixture) saleRequest(qty int, unit decimal.Decimal) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{
		Items:         []dto.SaleItemRequest{{ProductID: f.dress.ID.String(), Quantity: qty, UnitPrice: unit}},
		Total:         unit.Mul(decimal.NewFromInt(int64(qty))),
		PaymentMethod: string(model.PaymentPix),
	}
}

func collect(t *testing.T, svc service.LedgerService, filter repository.EventFilter) []model.LedgerEvent {
	t.Helper()
	var out []model.LedgerEvent
	for ev, err := range svc.Query(context.Background(), filter) {
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

// ── Append ────────────────────────────────────────────────────────────────────

func TestAppend_StampsIDAndTimestamp(t *testing.T) {
	f := newLedgerFixture()

	id, err := f.svc.Append(context.Background(), &model.Adjustment{
		EventHeader:    model.EventHeader{PerformedBy: "  Ana  "},
		AdjustmentKind: model.AdjustmentSurplus,
		Amount:         decimal.NewFromInt(10),
		Justification:  "troco",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.Len(t, f.repo.set.Adjustments, 1)
	stored := f.repo.set.Adjustments[0]
	assert.Equal(t, id, stored.ID)
	assert.True(t, stored.OccurredAt.Equal(f.clock.Now()))
	assert.Equal(t, time.UTC, stored.OccurredAt.Location())
	assert.Equal(t, "Ana", stored.PerformedBy)
	require.Len(t, f.publisher.events, 1)
}

func TestAppend_InvalidEventWritesNothing(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.Append(context.Background(), &model.Expense{
		EventHeader: model.EventHeader{PerformedBy: "Dona"},
		Category:    "TAXI",
		Amount:      decimal.Zero,
		Status:      model.ExpensePaid,
	})

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "category")
	assert.Contains(t, ve.Fields, "amount")
	assert.Contains(t, ve.Fields, "provider_name")
	assert.Empty(t, f.repo.set.Expenses)
	assert.Empty(t, f.publisher.events)
}

func TestAppend_PublishFailureDoesNotFailAppend(t *testing.T) {
	f := newLedgerFixture()
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.Append(context.Background(), &model.Adjustment{
		EventHeader:    model.EventHeader{PerformedBy: "Ana"},
		AdjustmentKind: model.AdjustmentShortage,
		Amount:         decimal.NewFromInt(5),
		Justification:  "moeda perdida",
	})

	require.NoError(t, err)
	assert.Len(t, f.repo.set.Adjustments, 1)
}

func TestAppend_DuplicateInvoiceKeyRejected(t *testing.T) {
	f := newLedgerFixture()
	req := dto.CreatePurchaseRequest{
		SupplierName:  "Malharia Sul",
		TaxID:         "12345678000190",
		TotalValue:    decimal.NewFromInt(800),
		InvoiceNumber: "991",
		InvoiceKey:    "35260312345678000190550010000009911000000001",
		IssuedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	actor := actorOf(f.ana)

	_, err := f.svc.RecordPurchase(context.Background(), actor, req)
	require.NoError(t, err)
	_, err = f.svc.RecordPurchase(context.Background(), actor, req)

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "invoice_key")
	assert.Len(t, f.repo.set.Purchases, 1)
}

func TestAppend_ConcurrentDuplicateInvoiceIsValidationError(t *testing.T) {
	f := newLedgerFixture()
	req := dto.CreatePurchaseRequest{
		SupplierName:  "Malharia Sul",
		TaxID:         "12345678000190",
		TotalValue:    decimal.NewFromInt(800),
		InvoiceNumber: "993",
		InvoiceKey:    "35260312345678000190550010000009931000000001",
		IssuedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	_, err := f.svc.RecordPurchase(context.Background(), actorOf(f.ana), req)
	require.NoError(t, err)

	f.repo.staleKeyCheck = true
	_, err = f.svc.RecordPurchase(context.Background(), actorOf(f.ana), req)

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "nota fiscal já importada", ve.Fields["invoice_key"])
	assert.Len(t, f.repo.set.Purchases, 1)
}

// ── Sale ↔ attendance coupling ────────────────────────────────────────────────

func TestRecordSale_AlsoRecordsAttendance(t *testing.T) {
	f := newLedgerFixture()

	resp, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), f.saleRequest(2, decimal.NewFromInt(100)))

	require.NoError(t, err)
	assert.Equal(t, "SALE", resp.Kind)
	require.Len(t, f.repo.set.Sales, 1)
	require.Len(t, f.repo.set.Attendances, 1)
	att := f.repo.set.Attendances[0]
	assert.True(t, att.ResultedInSale)
	require.NotNil(t, att.SaleID)
	assert.Equal(t, resp.ID, att.SaleID.String())
	assert.Equal(t, f.ana.ID, att.SellerID)
	assert.True(t, att.OccurredAt.Equal(f.repo.set.Sales[0].OccurredAt))
}

func TestRecordSale_AttendanceRetriedOnce(t *testing.T) {
	f := newLedgerFixture()
	f.repo.failAttendances = 1

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), f.saleRequest(1, decimal.NewFromInt(100)))

	require.NoError(t, err)
	assert.Len(t, f.repo.set.Sales, 1)
	assert.Len(t, f.repo.set.Attendances, 1)
}

func TestRecordSale_AttendanceFailureSurfacesConsistencyError(t *testing.T) {
	f := newLedgerFixture()
	f.repo.failAttendances = 2

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), f.saleRequest(1, decimal.NewFromInt(100)))

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrConsistency))
	var ce *service.ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "sale_attendance", ce.Op)
	assert.Len(t, f.repo.set.Sales, 1, "the sale stands on its own")
	assert.Empty(t, f.repo.set.Attendances)
	assert.Empty(t, f.publisher.events)
}

func TestRecordSale_TotalMustMatchItems(t *testing.T) {
	f := newLedgerFixture()
	req := f.saleRequest(2, decimal.NewFromInt(100))
	req.Total = decimal.NewFromInt(150)

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), req)

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "total")
	assert.Empty(t, f.repo.set.Sales)
	assert.Empty(t, f.repo.set.Attendances)
}

func TestRecordSale_PriceOverrideNeedsNote(t *testing.T) {
	f := newLedgerFixture()
	req := f.saleRequest(1, decimal.NewFromInt(90))

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), req)
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items[0].note")

	note := "cliente fidelidade"
	req.Items[0].Note = &note
	_, err = f.svc.RecordSale(context.Background(), actorOf(f.ana), req)
	require.NoError(t, err)
	require.Len(t, f.repo.set.Sales, 1)
	assert.Equal(t, note, *f.repo.set.Sales[0].Items[0].Note)
}

func TestRecordSale_UnknownProduct(t *testing.T) {
	f := newLedgerFixture()
	req := f.saleRequest(1, decimal.NewFromInt(100))
	req.Items[0].ProductID = uuid.NewString()

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), req)

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items[0].product_id")
}

func TestRecordSale_QuantityLimitedByStock(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), f.saleRequest(50, decimal.NewFromInt(100)))

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "estoque insuficiente", ve.Fields["items[0].quantity"])
	assert.Empty(t, f.repo.set.Sales)
	assert.Empty(t, f.repo.set.Attendances)

	// two lines of the same dress add up past the 5 in stock
	req := f.saleRequest(3, decimal.NewFromInt(100))
	req.Items = append(req.Items, req.Items[0])
	req.Total = decimal.NewFromInt(600)
	_, err = f.svc.RecordSale(context.Background(), actorOf(f.ana), req)
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items[1].quantity")
	assert.NotContains(t, ve.Fields, "items[0].quantity")

	_, err = f.svc.RecordSale(context.Background(), actorOf(f.ana), f.saleRequest(5, decimal.NewFromInt(100)))
	require.NoError(t, err)
}

func TestRecordSale_AmountsLimitedToCents(t *testing.T) {
	f := newLedgerFixture()
	note := "arredondamento"
	req := f.saleRequest(2, decimal.RequireFromString("10.005"))
	req.Items[0].Note = &note
	req.Total = decimal.RequireFromString("20.01")

	_, err := f.svc.RecordSale(context.Background(), actorOf(f.ana), req)

	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "items[0].unit_price")
	assert.Empty(t, f.repo.set.Sales)

	_, err = f.svc.RecordAdjustment(context.Background(), actorOf(f.ana), dto.CreateAdjustmentRequest{
		Kind: string(model.AdjustmentSurplus), Amount: decimal.RequireFromString("0.001"), Justification: "moeda achada",
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "amount")

	_, err = f.svc.RecordExpense(context.Background(), actorOf(f.ana), dto.CreateExpenseRequest{
		Category: string(model.ExpenseMarketing), ProviderName: "Gráfica", Description: "panfletos",
		Amount: decimal.RequireFromString("99.999"), Status: string(model.ExpensePaid),
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "amount")

	_, err = f.svc.RecordPurchase(context.Background(), actorOf(f.ana), dto.CreatePurchaseRequest{
		SupplierName: "Malharia Sul", TaxID: "12345678000190", TotalValue: decimal.RequireFromString("800.125"),
		InvoiceNumber: "992", InvoiceKey: "35260312345678000190550010000009921000000001",
		IssuedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "total_value")
	assert.Empty(t, f.repo.set.Purchases)
}

func TestRecordAttendance_NotASale(t *testing.T) {
	f := newLedgerFixture()

	resp, err := f.svc.RecordAttendance(context.Background(), actorOf(f.ana), dto.CreateAttendanceRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ATTENDANCE", resp.Kind)
	require.Len(t, f.repo.set.Attendances, 1)
	assert.False(t, f.repo.set.Attendances[0].ResultedInSale)
	assert.Nil(t, f.repo.set.Attendances[0].SaleID)
}

func TestRecordGift_ValuedAtCatalogCost(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.RecordGift(context.Background(), actorOf(f.ana), dto.CreateGiftRequest{
		Items:         []dto.GiftItemRequest{{ProductID: f.dress.ID.String(), Quantity: 2}},
		RecipientName: "Influencer",
	})

	require.NoError(t, err)
	require.Len(t, f.repo.set.Gifts, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(f.repo.set.Gifts[0].TotalValueAtCost))
	assert.Equal(t, "Ana", f.repo.set.Gifts[0].AuthorizedBy)
}

// ── Query ─────────────────────────────────────────────────────────────────────

func TestQuery_OrderedAcrossKinds(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := f.svc.Append(ctx, &model.Expense{
		EventHeader:  model.EventHeader{OccurredAt: base.Add(3 * time.Hour), PerformedBy: "Dona"},
		Category:     model.ExpenseVideo,
		ProviderName: "Studio",
		Description:  "reels",
		Amount:       decimal.NewFromInt(200),
		Status:       model.ExpensePaid,
	})
	require.NoError(t, err)
	_, err = f.svc.Append(ctx, &model.Adjustment{
		EventHeader:    model.EventHeader{OccurredAt: base.Add(1 * time.Hour), PerformedBy: "Ana"},
		AdjustmentKind: model.AdjustmentSurplus,
		Amount:         decimal.NewFromInt(3),
		Justification:  "sobra",
	})
	require.NoError(t, err)
	_, err = f.svc.Append(ctx, &model.Sale{
		EventHeader:   model.EventHeader{OccurredAt: base.Add(2 * time.Hour), PerformedBy: "Ana"},
		Total:         decimal.NewFromInt(100),
		PaymentMethod: model.PaymentCash,
		SellerID:      f.ana.ID,
		SellerName:    f.ana.Name,
		Items:         []model.SaleItem{{ProductID: f.dress.ID, ProductName: f.dress.Name, Quantity: 1, UnitPriceAtSale: decimal.NewFromInt(100)}},
	})
	require.NoError(t, err)
	_, err = f.svc.Append(ctx, &model.Adjustment{
		EventHeader:    model.EventHeader{OccurredAt: base, PerformedBy: "Ana"},
		AdjustmentKind: model.AdjustmentShortage,
		Amount:         decimal.NewFromInt(1),
		Justification:  "falta",
	})
	require.NoError(t, err)

	events := collect(t, f.svc, repository.EventFilter{})
	require.Len(t, events, 4)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Header().OccurredAt.Before(events[i-1].Header().OccurredAt),
			"event %d is older than event %d", i, i-1)
	}
	assert.Equal(t, model.KindAdjustment, events[0].Kind())
	assert.Equal(t, model.KindSale, events[2].Kind())
	assert.Equal(t, model.KindExpense, events[3].Kind())

	onlySales := collect(t, f.svc, repository.EventFilter{Kinds: []model.EventKind{model.KindSale}})
	require.Len(t, onlySales, 1)
}

func TestQuery_EachRangeReadsFreshSnapshot(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	seq := f.svc.Query(ctx, repository.EventFilter{})

	count := func() int {
		n := 0
		for _, err := range seq {
			require.NoError(t, err)
			n++
		}
		return n
	}

	assert.Equal(t, 0, count())
	_, err := f.svc.RecordSale(ctx, actorOf(f.ana), f.saleRequest(1, decimal.NewFromInt(100)))
	require.NoError(t, err)
	assert.Equal(t, 1, count())
	assert.Equal(t, 2, f.repo.snapshots)
}

func TestFindEvent_NotFound(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.FindEvent(context.Background(), model.KindSale, uuid.New())
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, err = f.svc.FindEvent(context.Background(), "REFUND", uuid.New())
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestImportPurchase_ParsesNFe(t *testing.T) {
	f := newLedgerFixture()

	resp, err := f.svc.ImportPurchase(context.Background(), actorOf(f.ana), strings.NewReader(sampleNFe))

	require.NoError(t, err)
	assert.Equal(t, "PURCHASE", resp.Kind)
	require.Len(t, f.repo.set.Purchases, 1)
	p := f.repo.set.Purchases[0]
	assert.Equal(t, "Malharia Sul LTDA", p.SupplierName)
	assert.Equal(t, "12345678000190", p.TaxID)
	assert.Equal(t, "1523", p.InvoiceNumber)
	assert.Equal(t, "35260312345678000190550010000015231000015230", p.InvoiceKey)
	assert.True(t, decimal.RequireFromString("1890.50").Equal(p.TotalValue))
	assert.True(t, time.Date(2026, 3, 2, 13, 30, 0, 0, time.UTC).Equal(p.IssuedAt))
}

func TestListExpenses_NewestFirstWithTotals(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	actor := actorOf(f.ana)

	_, err := f.svc.RecordExpense(ctx, actor, dto.CreateExpenseRequest{
		Category: "VIDEO", ProviderName: "Studio", Description: "reels", Amount: decimal.NewFromInt(200), Status: "PAID",
	})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = f.svc.RecordExpense(ctx, actor, dto.CreateExpenseRequest{
		Category: "MAINTENANCE", ProviderName: "Refrigeração", Description: "ar", Amount: decimal.NewFromInt(150), Status: "PENDING",
	})
	require.NoError(t, err)

	resp, err := f.svc.ListExpenses(ctx)

	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "MAINTENANCE", resp.Data[0].Category)
	assert.True(t, decimal.NewFromInt(200).Equal(resp.TotalPaid))
	assert.True(t, decimal.NewFromInt(150).Equal(resp.TotalPending))
}
