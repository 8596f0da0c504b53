package domain

import (
	"time"

	"github.com/google/uuid"
)

// Subscription status badges, recomputed fresh on every read.
const (
	StatusActive  = "active"
	StatusDue     = "due"
	StatusGrace   = "grace"
	StatusExpired = "expired"
	StatusNone    = "none"
)

// Customer represents a recurring-subscription customer
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Note      string    `json:"note" db:"note"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
	Note  string `json:"note" validate:"omitempty,max=500"`
}

type UpdateCustomerRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
	Note  string `json:"note" validate:"omitempty,max=500"`
}

// StatusInfo is the renewal badge for a customer, derived from today and
// the end date of the most recent payment. Never persisted.
type StatusInfo struct {
	Status      string `json:"status"`
	DaysToEnd   *int   `json:"days_to_end,omitempty"`
	DaysPastEnd *int   `json:"days_past_end,omitempty"`
}

type CustomerStatusResponse struct {
	Customer *Customer  `json:"customer"`
	Status   StatusInfo `json:"status"`
	EndDate  string     `json:"end_date,omitempty"`
}
