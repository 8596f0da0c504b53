package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/domain"
)

// LatestEndDate pairs a customer with the end date of their most recent
// payment, for bulk status sweeps.
type LatestEndDate struct {
	CustomerID uuid.UUID     `db:"customer_id"`
	EndDate    calendar.Date `db:"end_date"`
}

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)

	// List retrieves all customers ordered by name
	List(ctx context.Context) ([]*domain.Customer, error)

	// Update updates a customer
	Update(ctx context.Context, customer *domain.Customer) error

	// Delete removes a customer and, via the schema, their payments
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create creates a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// ListByCustomer retrieves all payments for a customer, newest paid first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error)

	// LatestByCustomer retrieves the payment with the latest end date for a
	// customer, or sql.ErrNoRows when none exists
	LatestByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Payment, error)

	// ListByPaidDateRange retrieves payments paid within [from, to]
	ListByPaidDateRange(ctx context.Context, from, to calendar.Date) ([]*domain.Payment, error)

	// ListAllLatest returns, per customer with payment history, the latest
	// end date
	ListAllLatest(ctx context.Context) ([]*LatestEndDate, error)

	// Update rewrites a payment's computed fields wholesale
	Update(ctx context.Context, payment *domain.Payment) error

	// Delete removes a payment record
	Delete(ctx context.Context, id uuid.UUID) error
}
