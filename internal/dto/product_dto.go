package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string          `json:"name"        validate:"required,min=2,max=120"`
	Category    string          `json:"category"    validate:"required,max=60"`
	Price       decimal.Decimal `json:"price"       validate:"required,gt=0"`
	Cost        decimal.Decimal `json:"cost"        validate:"min=0"`
	Stock       int             `json:"stock"       validate:"min=0"`
	Size        string          `json:"size"        validate:"max=10"`
	Color       string          `json:"color"       validate:"max=40"`
	Description *string         `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Description *string         `json:"description,omitempty"`
}
