package service

import (
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"

	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339

// EventToResponse renders any ledger event in its wire envelope.
func EventToResponse(ev model.LedgerEvent) dto.LedgerEventResponse {
	r := &responseBuilder{}
	ev.Accept(r)
	h := ev.Header()
	return dto.LedgerEventResponse{
		ID:          h.ID.String(),
		Kind:        string(ev.Kind()),
		OccurredAt:  h.OccurredAt.Format(timeLayout),
		PerformedBy: h.PerformedBy,
		Data:        r.data,
	}
}

type responseBuilder struct{ data any }

func (r *responseBuilder) VisitSale(s *model.Sale) {
	items := make([]dto.SaleItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = dto.SaleItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceAtSale,
			Note:        it.Note,
		}
	}
	r.data = dto.SaleResponse{
		Total:          s.Total,
		PaymentMethod:  string(s.PaymentMethod),
		PaymentDetails: s.PaymentDetails,
		SellerID:       s.SellerID.String(),
		SellerName:     s.SellerName,
		Items:          items,
	}
}

func (r *responseBuilder) VisitAdjustment(a *model.Adjustment) {
	r.data = dto.AdjustmentResponse{
		Kind:          string(a.AdjustmentKind),
		Amount:        a.Amount,
		Justification: a.Justification,
	}
}

func (r *responseBuilder) VisitGift(g *model.Gift) {
	items := make([]dto.GiftItemResponse, len(g.Items))
	for i, it := range g.Items {
		items[i] = dto.GiftItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitCost:    it.UnitCost,
		}
	}
	r.data = dto.GiftResponse{
		TotalValueAtCost: g.TotalValueAtCost,
		RecipientName:    g.RecipientName,
		AuthorizedBy:     g.AuthorizedBy,
		Items:            items,
	}
}

func (r *responseBuilder) VisitExpense(e *model.Expense) {
	r.data = expenseToResponse(e, false)
}

func (r *responseBuilder) VisitPurchase(p *model.Purchase) {
	r.data = dto.PurchaseResponse{
		SupplierName:  p.SupplierName,
		TaxID:         p.TaxID,
		TotalValue:    p.TotalValue,
		InvoiceNumber: p.InvoiceNumber,
		InvoiceKey:    p.InvoiceKey,
		IssuedAt:      p.IssuedAt.Format(timeLayout),
	}
}

// expenseToResponse includes id and timestamp only for standalone listings;
// inside an envelope they already sit on the wrapper.
func expenseToResponse(e *model.Expense, withHeader bool) dto.ExpenseResponse {
	out := dto.ExpenseResponse{
		Category:     string(e.Category),
		ProviderName: e.ProviderName,
		Description:  e.Description,
		Amount:       e.Amount,
		Status:       string(e.Status),
	}
	if withHeader {
		out.ID = e.ID.String()
		out.OccurredAt = e.OccurredAt.Format(timeLayout)
	}
	return out
}

func closureToResponse(c *model.DailyClosure, previous int) dto.ClosureResponse {
	breakdown := make(map[string]decimal.Decimal, len(model.PaymentMethods))
	for _, m := range model.PaymentMethods {
		breakdown[string(m)] = c.PaymentBreakdown.Data()[m]
	}
	return dto.ClosureResponse{
		ID:               c.ID.String(),
		Day:              c.Day,
		ClosedAt:         c.ClosedAt.Format(timeLayout),
		ClosedBy:         c.ClosedBy,
		TotalSales:       c.TotalSales,
		TotalGiftsAtCost: c.TotalGiftsAtCost,
		SalesCount:       c.SalesCount,
		GiftsCount:       c.GiftsCount,
		AttendanceCount:  c.AttendanceCount,
		NetAdjustments:   c.NetAdjustments,
		PaymentBreakdown: breakdown,
		PreviousClosures: previous,
	}
}

func auditToResponse(a *model.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:          a.ID.String(),
		Action:      a.Action,
		Description: a.Description,
		PerformedBy: a.PerformedBy,
		Timestamp:   a.Timestamp.Format(timeLayout),
	}
}

func SettingsToResponse(s *model.AccountingSettings) dto.SettingsResponse {
	return dto.SettingsResponse{
		TaxRate:       s.TaxRate,
		MdrPix:        s.MdrPix,
		MdrCard:       s.MdrCard,
		MdrCash:       s.MdrCash,
		EffectiveFrom: s.EffectiveFrom.Format(timeLayout),
		ChangedBy:     s.ChangedBy,
	}
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Status:     u.Status,
		AvatarSeed: u.AvatarSeed,
	}
}

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Cost:        p.Cost,
		Stock:       p.Stock,
		Size:        p.Size,
		Color:       p.Color,
		Description: p.Description,
	}
}
