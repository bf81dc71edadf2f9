package dto

import "github.com/shopspring/decimal"

// DREQuery is bound from GET /v1/accounting/dre. Month is 1-12.
type DREQuery struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year"  validate:"required,min=2000,max=2100"`
	// Rates: "current" (default) | "effective" (revision in force at month end)
	Rates string `form:"rates" validate:"omitempty,oneof=current effective"`
}

type DREResponse struct {
	Month     int             `json:"month"`
	Year      int             `json:"year"`
	Revenue   decimal.Decimal `json:"revenue"`
	Taxes     decimal.Decimal `json:"taxes"`
	MDR       decimal.Decimal `json:"mdr"`
	Expenses  decimal.Decimal `json:"expenses"`
	CMV       decimal.Decimal `json:"cmv"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

type UpdateSettingsRequest struct {
	TaxRate decimal.Decimal `json:"tax_rate" validate:"min=0,max=1"`
	MdrPix  decimal.Decimal `json:"mdr_pix"  validate:"min=0,max=1"`
	MdrCard decimal.Decimal `json:"mdr_card" validate:"min=0,max=1"`
	MdrCash decimal.Decimal `json:"mdr_cash" validate:"min=0,max=1"`
}

type SettingsResponse struct {
	TaxRate       decimal.Decimal `json:"tax_rate"`
	MdrPix        decimal.Decimal `json:"mdr_pix"`
	MdrCard       decimal.Decimal `json:"mdr_card"`
	MdrCash       decimal.Decimal `json:"mdr_cash"`
	EffectiveFrom string          `json:"effective_from"`
	ChangedBy     string          `json:"changed_by"`
}

// ExportQuery is bound from GET /v1/accounting/export. Month is 1-12.
type ExportQuery struct {
	Month int `form:"month" validate:"required,min=1,max=12"`
	Year  int `form:"year"  validate:"required,min=2000,max=2100"`
}
