package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/subtrack/subtrack/internal/calendar"
)

// Payment records one subscription payment covering a whole-month term.
// EndDate is always PaidDate advanced by Months calendar months; it is
// recomputed wholesale whenever a payment is edited, never patched.
type Payment struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	CustomerID uuid.UUID       `json:"customer_id" db:"customer_id"`
	PaidDate   calendar.Date   `json:"paid_date" db:"paid_date"`
	Currency   Currency        `json:"currency" db:"currency"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Months     int             `json:"months" db:"months"`
	EndDate    calendar.Date   `json:"end_date" db:"end_date"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type RecordPaymentRequest struct {
	PaidDate string          `json:"paid_date" validate:"required"`
	Currency string          `json:"currency" validate:"required,oneof=VND USD"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	// Months omitted or zero means "use the recommended term for the
	// amount"; an explicit positive value always wins.
	Months int `json:"months" validate:"omitempty,gte=0"`
}

type PaymentResponse struct {
	Payment *Payment `json:"payment"`
}

// MonthlyAllocation is one month's share of a multi-month payment
// (service-period accounting view).
type MonthlyAllocation struct {
	MonthBucket string          `json:"month_bucket"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
}

type AllocationsResponse struct {
	PaymentID   uuid.UUID           `json:"payment_id"`
	Allocations []MonthlyAllocation `json:"allocations"`
}

// MonthlyTotal is one report row: every payment *paid* in the bucket
// contributes its full amount (cash-received view, deliberately not the
// allocation view).
type MonthlyTotal struct {
	MonthBucket  string          `json:"month_bucket"`
	VND          decimal.Decimal `json:"vnd"`
	USD          decimal.Decimal `json:"usd"`
	ConvertedVND decimal.Decimal `json:"converted_vnd"`
}

type MonthlyReportResponse struct {
	Months []MonthlyTotal `json:"months"`
}
