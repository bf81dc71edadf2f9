package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter ──────────────────────────────────────────────────────────────────

// LedgerFilter is bound from the query string of GET /v1/ledger.
// The window is half-open: From <= occurredAt < To.
type LedgerFilter struct {
	Kinds []string   `form:"kind"`
	From  *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To    *time.Time `form:"to"   time_format:"2006-01-02T15:04:05Z07:00"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
	// Note is required by the ledger when UnitPrice differs from the catalog price
	Note *string `json:"note" validate:"omitempty,max=200"`
}

type CreateSaleRequest struct {
	Items          []SaleItemRequest `json:"items"           validate:"required,min=1,dive"`
	Total          decimal.Decimal   `json:"total"           validate:"min=0"`
	PaymentMethod  string            `json:"payment_method"  validate:"required,oneof=CASH PIX CARD STORE_CREDIT OTHER"`
	PaymentDetails *string           `json:"payment_details" validate:"omitempty,max=120"`
	// SellerID defaults to the authenticated user
	SellerID *string `json:"seller_id" validate:"omitempty,uuid"`
}

type CreateAttendanceRequest struct {
	SellerID *string `json:"seller_id" validate:"omitempty,uuid"`
}

type CreateAdjustmentRequest struct {
	Kind          string          `json:"kind"          validate:"required,oneof=SURPLUS SHORTAGE"`
	Amount        decimal.Decimal `json:"amount"        validate:"required,gt=0"`
	Justification string          `json:"justification" validate:"required,min=3"`
}

type GiftItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateGiftRequest struct {
	Items         []GiftItemRequest `json:"items"          validate:"required,min=1,dive"`
	RecipientName string            `json:"recipient_name" validate:"required,min=2"`
	// TotalValueAtCost is computed from catalog cost when omitted
	TotalValueAtCost *decimal.Decimal `json:"total_value_at_cost"`
}

type CreateExpenseRequest struct {
	Category     string          `json:"category"      validate:"required,oneof=VIDEO MAINTENANCE MARKETING OTHER"`
	ProviderName string          `json:"provider_name" validate:"required,min=2"`
	Description  string          `json:"description"   validate:"required,min=3"`
	Amount       decimal.Decimal `json:"amount"        validate:"required,gt=0"`
	Status       string          `json:"status"        validate:"required,oneof=PAID PENDING"`
}

type CreatePurchaseRequest struct {
	SupplierName  string          `json:"supplier_name"  validate:"required"`
	TaxID         string          `json:"tax_id"         validate:"required,min=11,max=20"`
	TotalValue    decimal.Decimal `json:"total_value"    validate:"required,gt=0"`
	InvoiceNumber string          `json:"invoice_number" validate:"required"`
	InvoiceKey    string          `json:"invoice_key"    validate:"required"`
	IssuedAt      time.Time       `json:"issued_at"      validate:"required"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AppendResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type SaleItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Note        *string         `json:"note,omitempty"`
}

type SaleResponse struct {
	Total          decimal.Decimal    `json:"total"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentDetails *string            `json:"payment_details,omitempty"`
	SellerID       string             `json:"seller_id"`
	SellerName     string             `json:"seller_name"`
	Items          []SaleItemResponse `json:"items"`
}

type AdjustmentResponse struct {
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Justification string          `json:"justification"`
}

type GiftItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

type GiftResponse struct {
	TotalValueAtCost decimal.Decimal    `json:"total_value_at_cost"`
	RecipientName    string             `json:"recipient_name"`
	AuthorizedBy     string             `json:"authorized_by"`
	Items            []GiftItemResponse `json:"items"`
}

type ExpenseResponse struct {
	ID           string          `json:"id,omitempty"`
	OccurredAt   string          `json:"occurred_at,omitempty"`
	Category     string          `json:"category"`
	ProviderName string          `json:"provider_name"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
}

type PurchaseResponse struct {
	SupplierName  string          `json:"supplier_name"`
	TaxID         string          `json:"tax_id"`
	TotalValue    decimal.Decimal `json:"total_value"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceKey    string          `json:"invoice_key"`
	IssuedAt      string          `json:"issued_at"`
}

// LedgerEventResponse wraps any ledger event; Data holds the kind-specific body.
type LedgerEventResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	OccurredAt  string `json:"occurred_at"`
	PerformedBy string `json:"performed_by"`
	Data        any    `json:"data"`
}

type ExpenseListResponse struct {
	Data         []ExpenseResponse `json:"data"`
	TotalPaid    decimal.Decimal   `json:"total_paid"`
	TotalPending decimal.Decimal   `json:"total_pending"`
}
