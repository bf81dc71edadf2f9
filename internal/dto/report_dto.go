package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductivityQuery is bound from GET /v1/productivity. Empty window = all time.
type ProductivityQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to"   time_format:"2006-01-02T15:04:05Z07:00"`
}

type ProductivityEntry struct {
	SellerID           string          `json:"seller_id"`
	Name               string          `json:"name"`
	Revenue            decimal.Decimal `json:"revenue"`
	AttendanceCount    int             `json:"attendance_count"`
	YieldPerAttendance decimal.Decimal `json:"yield_per_attendance"`
}

type TrailEntry struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Direction   string          `json:"direction"` // INFLOW | OUTFLOW
	Source      string          `json:"source"`    // SALE | ADJUSTMENT | EXPENSE_PAYMENT
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PerformedBy string          `json:"performed_by"`
}
