package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, customer_id, paid_date, currency, amount, months, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.CustomerID,
		payment.PaidDate,
		payment.Currency,
		payment.Amount,
		payment.Months,
		payment.EndDate,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, customer_id, paid_date, currency, amount, months, end_date, created_at
		FROM payments
		WHERE id = $1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, id)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, customer_id, paid_date, currency, amount, months, end_date, created_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY paid_date DESC, created_at DESC
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, customerID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) LatestByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, customer_id, paid_date, currency, amount, months, end_date, created_at
		FROM payments
		WHERE customer_id = $1
		ORDER BY end_date DESC, created_at DESC
		LIMIT 1
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, customerID)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByPaidDateRange(ctx context.Context, from, to calendar.Date) ([]*domain.Payment, error) {
	query := `
		SELECT id, customer_id, paid_date, currency, amount, months, end_date, created_at
		FROM payments
		WHERE paid_date BETWEEN $1 AND $2
		ORDER BY paid_date
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, from, to)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) ListAllLatest(ctx context.Context) ([]*LatestEndDate, error) {
	query := `
		SELECT customer_id, MAX(end_date) AS end_date
		FROM payments
		GROUP BY customer_id
	`

	var latest []*LatestEndDate
	err := r.db.SelectContext(ctx, &latest, query)
	if err != nil {
		return nil, err
	}

	return latest, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET paid_date = $2, currency = $3, amount = $4, months = $5, end_date = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.PaidDate,
		payment.Currency,
		payment.Amount,
		payment.Months,
		payment.EndDate,
	)

	return err
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM payments WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
