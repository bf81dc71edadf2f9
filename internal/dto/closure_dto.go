package dto

import "github.com/shopspring/decimal"

type CloseDayRequest struct {
	// Day is YYYY-MM-DD in store time; empty = today
	Day string `json:"day" validate:"omitempty,datetime=2006-01-02"`
}

type ClosureResponse struct {
	ID               string                     `json:"id"`
	Day              string                     `json:"day"`
	ClosedAt         string                     `json:"closed_at"`
	ClosedBy         string                     `json:"closed_by"`
	TotalSales       decimal.Decimal            `json:"total_sales"`
	TotalGiftsAtCost decimal.Decimal            `json:"total_gifts_at_cost"`
	SalesCount       int                        `json:"sales_count"`
	GiftsCount       int                        `json:"gifts_count"`
	AttendanceCount  int                        `json:"attendance_count"`
	NetAdjustments   decimal.Decimal            `json:"net_adjustments"`
	PaymentBreakdown map[string]decimal.Decimal `json:"payment_breakdown"`
	// PreviousClosures counts earlier closures of the same day at the time of closing
	PreviousClosures int `json:"previous_closures"`
}
