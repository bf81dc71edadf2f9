package service

import (
	"fmt"
	"strings"
	"time"

	"chicpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── stamper ───────────────────────────────────────────────────────────────────

type stamper struct{ now time.Time }

func (s *stamper) stamp(h *model.EventHeader) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.OccurredAt.IsZero() {
		h.OccurredAt = s.now
	}
	h.OccurredAt = h.OccurredAt.UTC()
	h.PerformedBy = strings.TrimSpace(h.PerformedBy)
}

func (s *stamper) VisitSale(e *model.Sale)             { s.stamp(&e.EventHeader) }
func (s *stamper) VisitAdjustment(e *model.Adjustment) { s.stamp(&e.EventHeader) }
func (s *stamper) VisitGift(e *model.Gift)             { s.stamp(&e.EventHeader) }
func (s *stamper) VisitExpense(e *model.Expense)       { s.stamp(&e.EventHeader) }
func (s *stamper) VisitPurchase(e *model.Purchase)     { s.stamp(&e.EventHeader) }

// ── eventValidator ────────────────────────────────────────────────────────────
// Collects every field problem of one event so the caller gets them all at once.

type eventValidator struct {
	fields map[string]string
}

func (v *eventValidator) fail(field, msg string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, seen := v.fields[field]; !seen {
		v.fields[field] = msg
	}
}

func (v *eventValidator) header(h model.EventHeader) {
	if h.PerformedBy == "" {
		v.fail("performed_by", "responsável obrigatório")
	}
}

func (v *eventValidator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "campo obrigatório")
	}
}

func (v *eventValidator) positive(field string, d decimal.Decimal) {
	if !d.IsPositive() {
		v.fail(field, "deve ser maior que zero")
	}
}

func (v *eventValidator) nonNegative(field string, d decimal.Decimal) {
	if d.IsNegative() {
		v.fail(field, "não pode ser negativo")
	}
}

// cents rejects amounts finer than the two decimal places the ledger columns store.
func (v *eventValidator) cents(field string, d decimal.Decimal) {
	if !d.Equal(d.Round(2)) {
		v.fail(field, "no máximo 2 casas decimais")
	}
}

func (v *eventValidator) VisitSale(s *model.Sale) {
	v.header(s.EventHeader)
	if !s.PaymentMethod.Valid() {
		v.fail("payment_method", "forma de pagamento inválida")
	}
	if s.SellerID == uuid.Nil {
		v.fail("seller_id", "vendedor obrigatório")
	}
	v.required("seller_name", s.SellerName)
	v.nonNegative("total", s.Total)
	v.cents("total", s.Total)
	if len(s.Items) == 0 {
		v.fail("items", "a venda precisa de ao menos um item")
		return
	}
	sum := decimal.Zero
	for i, item := range s.Items {
		if item.Quantity <= 0 {
			v.fail(fmt.Sprintf("items[%d].quantity", i), "deve ser maior que zero")
		}
		v.nonNegative(fmt.Sprintf("items[%d].unit_price", i), item.UnitPriceAtSale)
		v.cents(fmt.Sprintf("items[%d].unit_price", i), item.UnitPriceAtSale)
		sum = sum.Add(item.Extension())
	}
	if !sum.Equal(s.Total) {
		v.fail("total", fmt.Sprintf("total %s difere da soma dos itens %s", s.Total.StringFixed(2), sum.StringFixed(2)))
	}
}

func (v *eventValidator) VisitAdjustment(a *model.Adjustment) {
	v.header(a.EventHeader)
	if a.AdjustmentKind != model.AdjustmentSurplus && a.AdjustmentKind != model.AdjustmentShortage {
		v.fail("kind", "tipo de ajuste inválido")
	}
	v.positive("amount", a.Amount)
	v.cents("amount", a.Amount)
	v.required("justification", a.Justification)
}

func (v *eventValidator) VisitGift(g *model.Gift) {
	v.header(g.EventHeader)
	v.required("recipient_name", g.RecipientName)
	v.required("authorized_by", g.AuthorizedBy)
	v.nonNegative("total_value_at_cost", g.TotalValueAtCost)
	v.cents("total_value_at_cost", g.TotalValueAtCost)
	if len(g.Items) == 0 {
		v.fail("items", "o brinde precisa de ao menos um item")
	}
	for i, item := range g.Items {
		if item.Quantity <= 0 {
			v.fail(fmt.Sprintf("items[%d].quantity", i), "deve ser maior que zero")
		}
	}
}

func (v *eventValidator) VisitExpense(e *model.Expense) {
	v.header(e.EventHeader)
	switch e.Category {
	case model.ExpenseVideo, model.ExpenseMaintenance, model.ExpenseMarketing, model.ExpenseOther:
	default:
		v.fail("category", "categoria inválida")
	}
	if e.Status != model.ExpensePaid && e.Status != model.ExpensePending {
		v.fail("status", "status inválido")
	}
	v.required("provider_name", e.ProviderName)
	v.required("description", e.Description)
	v.positive("amount", e.Amount)
	v.cents("amount", e.Amount)
}

func (v *eventValidator) VisitPurchase(p *model.Purchase) {
	v.header(p.EventHeader)
	v.required("supplier_name", p.SupplierName)
	v.required("tax_id", p.TaxID)
	v.required("invoice_number", p.InvoiceNumber)
	v.required("invoice_key", p.InvoiceKey)
	v.nonNegative("total_value", p.TotalValue)
	v.cents("total_value", p.TotalValue)
	if p.IssuedAt.IsZero() {
		v.fail("issued_at", "data de emissão obrigatória")
	}
}
