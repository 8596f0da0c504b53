package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/subtrack/subtrack/internal/amqp"
	"github.com/subtrack/subtrack/internal/billing"
	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/domain"
	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/internal/repository"
	customError "github.com/subtrack/subtrack/pkg/errors"
)

const (
	reportVersionKey  = "report:ver"
	pqUniqueViolation = "23505"
)

// SubscriptionService orchestrates customers, payments, and the pure
// billing core. Redis and the event publisher are optional; a nil client
// degrades to uncached computation and no events.
type SubscriptionService struct {
	customerRepo repository.CustomerRepository
	paymentRepo  repository.PaymentRepository
	redis        *redis.Client
	publisher    amqp.EventPublisher
	config       *config.Config
	engine       billing.Engine
	aggregator   billing.Aggregator
	logger       *applog.Logger
}

func NewSubscriptionService(
	customerRepo repository.CustomerRepository,
	paymentRepo repository.PaymentRepository,
	redisClient *redis.Client,
	publisher amqp.EventPublisher,
	cfg *config.Config,
	logger *applog.Logger,
) *SubscriptionService {
	policy := cfg.Policy()
	return &SubscriptionService{
		customerRepo: customerRepo,
		paymentRepo:  paymentRepo,
		redis:        redisClient,
		publisher:    publisher,
		config:       cfg,
		engine:       billing.NewEngine(policy),
		aggregator:   billing.NewAggregator(policy),
		logger:       logger.WithComponent("service"),
	}
}

// CreateCustomer registers a new customer
func (s *SubscriptionService) CreateCustomer(ctx context.Context, request *domain.CreateCustomerRequest) (*domain.Customer, error) {
	now := time.Now()
	customer := &domain.Customer{
		ID:        uuid.New(),
		Name:      request.Name,
		Email:     request.Email,
		Phone:     request.Phone,
		Note:      request.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, customError.WrapDuplicateEmail(request.Email)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return customer, nil
}

// GetCustomer fetches a single customer
func (s *SubscriptionService) GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapCustomerNotFound(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}

// ListCustomers returns all customers
func (s *SubscriptionService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return customers, nil
}

// UpdateCustomer rewrites a customer's profile fields
func (s *SubscriptionService) UpdateCustomer(ctx context.Context, id uuid.UUID, request *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	customer.Name = request.Name
	customer.Email = request.Email
	customer.Phone = request.Phone
	customer.Note = request.Note
	customer.UpdatedAt = time.Now()

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, customError.WrapDuplicateEmail(request.Email)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return customer, nil
}

// DeleteCustomer removes a customer; payments cascade at the schema level
func (s *SubscriptionService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return customError.WrapDatabaseError(err)
	}
	s.invalidateReportCache(ctx)
	return nil
}

// RecordPayment validates and stores a payment, computing its end date from
// the paid date and term length. A zero month count means "use the
// recommended term for the amount".
func (s *SubscriptionService) RecordPayment(ctx context.Context, customerID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	payment, err := s.buildPayment(customerID, request)
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateReportCache(ctx)
	s.publishPaymentRecorded(ctx, payment)

	return payment, nil
}

// UpdatePayment recomputes a payment wholesale from the request; computed
// fields are never patched in isolation.
func (s *SubscriptionService) UpdatePayment(ctx context.Context, paymentID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	existing, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	payment, err := s.buildPayment(existing.CustomerID, request)
	if err != nil {
		return nil, err
	}
	payment.ID = existing.ID
	payment.CreatedAt = existing.CreatedAt

	if err := s.paymentRepo.Update(ctx, payment); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateReportCache(ctx)

	return payment, nil
}

// GetPayment fetches a single payment
func (s *SubscriptionService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapPaymentNotFound(paymentID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return payment, nil
}

// ListPayments returns a customer's payments, newest paid first
func (s *SubscriptionService) ListPayments(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return payments, nil
}

// DeletePayment removes a payment record
func (s *SubscriptionService) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	if _, err := s.GetPayment(ctx, paymentID); err != nil {
		return err
	}
	if err := s.paymentRepo.Delete(ctx, paymentID); err != nil {
		return customError.WrapDatabaseError(err)
	}
	s.invalidateReportCache(ctx)
	return nil
}

// GetStatus computes the renewal badge for one customer from the end date
// of their most recent payment. Today is captured once so the answer stays
// consistent across a midnight boundary.
func (s *SubscriptionService) GetStatus(ctx context.Context, customerID uuid.UUID) (*domain.CustomerStatusResponse, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var endDate *calendar.Date
	latest, err := s.paymentRepo.LatestByCustomer(ctx, customerID)
	switch {
	case err == nil:
		endDate = &latest.EndDate
	case errors.Is(err, sql.ErrNoRows):
		// No payment history; classified as none.
	default:
		return nil, customError.WrapDatabaseError(err)
	}

	today := calendar.Today()
	response := &domain.CustomerStatusResponse{
		Customer: customer,
		Status:   s.engine.ComputeStatus(endDate, today),
	}
	if endDate != nil {
		response.EndDate = endDate.String()
	}
	return response, nil
}

// ReminderCandidate is a customer the renewal sweep should nudge.
type ReminderCandidate struct {
	CustomerID uuid.UUID
	Status     string
	EndDate    calendar.Date
}

// SweepResult summarizes one renewal sweep.
type SweepResult struct {
	Counts    map[string]int
	Reminders []ReminderCandidate
}

// RenewalSweep classifies every customer against a single captured today
// and collects the due and grace ones for reminders.
func (s *SubscriptionService) RenewalSweep(ctx context.Context) (*SweepResult, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	latest, err := s.paymentRepo.ListAllLatest(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	today := calendar.Today()
	result := &SweepResult{Counts: map[string]int{}}
	for _, entry := range latest {
		info := s.engine.ComputeStatus(&entry.EndDate, today)
		result.Counts[info.Status]++
		if info.Status == domain.StatusDue || info.Status == domain.StatusGrace {
			result.Reminders = append(result.Reminders, ReminderCandidate{
				CustomerID: entry.CustomerID,
				Status:     info.Status,
				EndDate:    entry.EndDate,
			})
		}
	}
	if withoutHistory := len(customers) - len(latest); withoutHistory > 0 {
		result.Counts[domain.StatusNone] = withoutHistory
	}

	return result, nil
}

// PublishReminder emits one renewal-reminder event
func (s *SubscriptionService) PublishReminder(ctx context.Context, candidate ReminderCandidate) error {
	if s.publisher == nil {
		return nil
	}
	err := s.publisher.PublishRenewalReminder(ctx, &amqp.RenewalReminderMessage{
		CustomerID: candidate.CustomerID,
		Status:     candidate.Status,
		EndDate:    candidate.EndDate.String(),
		Timestamp:  time.Now(),
	})
	if err != nil {
		return customError.WrapEventError(err)
	}
	return nil
}

// PaymentAllocations spreads one payment across the months it covers
// (service-period accounting view).
func (s *SubscriptionService) PaymentAllocations(ctx context.Context, paymentID uuid.UUID) ([]domain.MonthlyAllocation, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return billing.AllocateToMonths(*payment)
}

// MonthlyReport aggregates revenue for the most recent months, current
// month first (cash-received view: whole payments land in their paid
// month).
func (s *SubscriptionService) MonthlyReport(ctx context.Context, months int) ([]domain.MonthlyTotal, error) {
	if months <= 0 {
		return nil, customError.WrapInvalidMonths(months)
	}

	today := calendar.Today()
	buckets := billing.LastMonths(today, months)

	cacheKey := s.reportCacheKey(ctx, buckets)
	if rows, ok := s.cachedReport(ctx, cacheKey); ok {
		return rows, nil
	}

	oldest := today.AddMonths(-(months - 1))
	from := calendar.MustNew(oldest.Year(), oldest.Month(), 1)
	to := calendar.MustNew(today.Year(), today.Month(), 1).AddMonths(1).AddDays(-1)

	payments, err := s.paymentRepo.ListByPaidDateRange(ctx, from, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	flat := make([]domain.Payment, len(payments))
	for i, p := range payments {
		flat[i] = *p
	}
	rows := s.aggregator.ComputeMonthlyTotals(flat, buckets)

	s.cacheReport(ctx, cacheKey, rows)

	return rows, nil
}

func (s *SubscriptionService) buildPayment(customerID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error) {
	paidDate, err := calendar.Parse(request.PaidDate)
	if err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(request.Currency)
	if err != nil {
		return nil, err
	}
	amount := currency.Round(request.Amount)
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	months := request.Months
	if months < 0 {
		return nil, customError.WrapInvalidMonths(months)
	}
	if months == 0 {
		months = s.engine.RecommendedMonths(amount, currency)
	}

	return &domain.Payment{
		ID:         uuid.New(),
		CustomerID: customerID,
		PaidDate:   paidDate,
		Currency:   currency,
		Amount:     amount,
		Months:     months,
		EndDate:    paidDate.AddMonths(months),
		CreatedAt:  time.Now(),
	}, nil
}

func (s *SubscriptionService) publishPaymentRecorded(ctx context.Context, payment *domain.Payment) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishPaymentRecorded(ctx, &amqp.PaymentRecordedMessage{
		PaymentID:  payment.ID,
		CustomerID: payment.CustomerID,
		EndDate:    payment.EndDate.String(),
		Timestamp:  time.Now(),
	})
	if err != nil {
		// Events are best-effort; the payment is already stored.
		s.logger.Warn("publish payment recorded failed", "payment_id", payment.ID, "error", err)
	}
}

// Report cache keys carry a generation counter; any payment mutation bumps
// it, and stale generations age out by TTL.
func (s *SubscriptionService) reportCacheKey(ctx context.Context, buckets []string) string {
	if s.redis == nil || len(buckets) == 0 {
		return ""
	}
	version, err := s.redis.Get(ctx, reportVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn("report cache version read failed", "error", err)
		return ""
	}
	return fmt.Sprintf("report:monthly:v%d:%s:%d", version, buckets[0], len(buckets))
}

func (s *SubscriptionService) cachedReport(ctx context.Context, key string) ([]domain.MonthlyTotal, bool) {
	if s.redis == nil || key == "" {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("report cache read failed", "error", err)
		}
		return nil, false
	}
	var rows []domain.MonthlyTotal
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *SubscriptionService) cacheReport(ctx context.Context, key string, rows []domain.MonthlyTotal) {
	if s.redis == nil || key == "" {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.config.Redis.ReportTTL).Err(); err != nil {
		s.logger.Warn("report cache write failed", "error", err)
	}
}

func (s *SubscriptionService) invalidateReportCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Incr(ctx, reportVersionKey).Err(); err != nil {
		s.logger.Warn("report cache invalidation failed", "error", err)
	}
}
