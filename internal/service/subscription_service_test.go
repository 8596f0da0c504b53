package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subtrack/subtrack/internal/amqp"
	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/domain"
	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/internal/repository"
	customError "github.com/subtrack/subtrack/pkg/errors"
)

func newTestService(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) *SubscriptionService {
	cfg := &config.Config{
		Business: config.BusinessConfig{
			DueSoonDays:  3,
			GraceDays:    7,
			BasePriceVND: "50000",
			BasePriceUSD: "2",
			UsdToVndRate: "25800",
		},
	}
	logger := applog.New(applog.Config{Level: "error", Format: "text"})

	var pub amqp.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	return NewSubscriptionService(customerRepo, paymentRepo, nil, pub, cfg, logger)
}

func existingCustomer(id uuid.UUID) *domain.Customer {
	return &domain.Customer{ID: id, Name: "Linh Tran", Email: "linh@example.com"}
}

func TestRecordPayment(t *testing.T) {
	customerID := uuid.New()

	tests := []struct {
		name          string
		request       *domain.RecordPaymentRequest
		setupMocks    func(*MockCustomerRepository, *MockPaymentRepository, *MockEventPublisher)
		expectedError error
		validate      func(*testing.T, *domain.Payment)
	}{
		{
			name: "Success - explicit months",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-31",
				Currency: "VND",
				Amount:   decimal.NewFromInt(100000),
				Months:   2,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
				paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
					return p.CustomerID == customerID && p.Months == 2
				})).Return(nil)
				publisher.On("PublishPaymentRecorded", mock.Anything, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, payment *domain.Payment) {
				// Month-end clamp: Jan 31 + 2 months is Mar 31.
				assert.Equal(t, "2026-03-31", payment.EndDate.String())
				assert.Equal(t, domain.CurrencyVND, payment.Currency)
				assert.True(t, payment.Amount.Equal(decimal.NewFromInt(100000)))
			},
		},
		{
			name: "Success - months omitted falls back to recommendation",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-15",
				Currency: "VND",
				Amount:   decimal.NewFromInt(150000),
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
				paymentRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
					return p.Months == 3
				})).Return(nil)
				publisher.On("PublishPaymentRecorded", mock.Anything, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, payment *domain.Payment) {
				assert.Equal(t, 3, payment.Months)
				assert.Equal(t, "2026-04-15", payment.EndDate.String())
			},
		},
		{
			name: "Success - USD amount rounded to cents",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-02-05",
				Currency: "USD",
				Amount:   decimal.RequireFromString("10.499"),
				Months:   5,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
				paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
				publisher.On("PublishPaymentRecorded", mock.Anything, mock.Anything).Return(nil)
			},
			validate: func(t *testing.T, payment *domain.Payment) {
				assert.Equal(t, "10.5", payment.Amount.String())
				assert.Equal(t, "2026-07-05", payment.EndDate.String())
			},
		},
		{
			name: "Failure - customer not found",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-15",
				Currency: "VND",
				Amount:   decimal.NewFromInt(50000),
				Months:   1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(nil, sql.ErrNoRows)
			},
			expectedError: customError.ErrCustomerNotFound,
		},
		{
			name: "Failure - malformed paid date",
			request: &domain.RecordPaymentRequest{
				PaidDate: "15/01/2026",
				Currency: "VND",
				Amount:   decimal.NewFromInt(50000),
				Months:   1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
			},
			expectedError: customError.ErrInvalidFormat,
		},
		{
			name: "Failure - impossible paid date",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-02-30",
				Currency: "VND",
				Amount:   decimal.NewFromInt(50000),
				Months:   1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
			},
			expectedError: customError.ErrInvalidDate,
		},
		{
			name: "Failure - unknown currency",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-15",
				Currency: "EUR",
				Amount:   decimal.NewFromInt(50),
				Months:   1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
			},
			expectedError: customError.ErrInvalidCurrency,
		},
		{
			name: "Failure - negative months",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-15",
				Currency: "VND",
				Amount:   decimal.NewFromInt(50000),
				Months:   -1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
			},
			expectedError: customError.ErrInvalidMonths,
		},
		{
			name: "Failure - non-positive amount",
			request: &domain.RecordPaymentRequest{
				PaidDate: "2026-01-15",
				Currency: "VND",
				Amount:   decimal.Zero,
				Months:   1,
			},
			setupMocks: func(customerRepo *MockCustomerRepository, paymentRepo *MockPaymentRepository, publisher *MockEventPublisher) {
				customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
			},
			expectedError: customError.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customerRepo := &MockCustomerRepository{}
			paymentRepo := &MockPaymentRepository{}
			publisher := &MockEventPublisher{}
			tt.setupMocks(customerRepo, paymentRepo, publisher)

			svc := newTestService(customerRepo, paymentRepo, publisher)
			payment, err := svc.RecordPayment(context.Background(), customerID, tt.request)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, payment)
			} else {
				require.NoError(t, err)
				require.NotNil(t, payment)
				tt.validate(t, payment)
			}

			customerRepo.AssertExpectations(t)
			paymentRepo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestRecordPaymentSurvivesPublishFailure(t *testing.T) {
	customerID := uuid.New()
	customerRepo := &MockCustomerRepository{}
	paymentRepo := &MockPaymentRepository{}
	publisher := &MockEventPublisher{}

	customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
	paymentRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	publisher.On("PublishPaymentRecorded", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := newTestService(customerRepo, paymentRepo, publisher)
	payment, err := svc.RecordPayment(context.Background(), customerID, &domain.RecordPaymentRequest{
		PaidDate: "2026-01-15",
		Currency: "VND",
		Amount:   decimal.NewFromInt(50000),
		Months:   1,
	})

	require.NoError(t, err)
	assert.NotNil(t, payment)
	publisher.AssertExpectations(t)
}

func TestGetStatus(t *testing.T) {
	customerID := uuid.New()

	t.Run("active customer", func(t *testing.T) {
		customerRepo := &MockCustomerRepository{}
		paymentRepo := &MockPaymentRepository{}

		endDate := calendar.Today().AddDays(30)
		customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
		paymentRepo.On("LatestByCustomer", mock.Anything, customerID).Return(&domain.Payment{
			CustomerID: customerID,
			EndDate:    endDate,
		}, nil)

		svc := newTestService(customerRepo, paymentRepo, nil)
		response, err := svc.GetStatus(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, response.Status.Status)
		require.NotNil(t, response.Status.DaysToEnd)
		assert.Equal(t, 30, *response.Status.DaysToEnd)
		assert.Equal(t, endDate.String(), response.EndDate)
	})

	t.Run("expired customer", func(t *testing.T) {
		customerRepo := &MockCustomerRepository{}
		paymentRepo := &MockPaymentRepository{}

		endDate := calendar.Today().AddDays(-20)
		customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
		paymentRepo.On("LatestByCustomer", mock.Anything, customerID).Return(&domain.Payment{
			CustomerID: customerID,
			EndDate:    endDate,
		}, nil)

		svc := newTestService(customerRepo, paymentRepo, nil)
		response, err := svc.GetStatus(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusExpired, response.Status.Status)
		require.NotNil(t, response.Status.DaysPastEnd)
		assert.Equal(t, 20, *response.Status.DaysPastEnd)
	})

	t.Run("no payment history", func(t *testing.T) {
		customerRepo := &MockCustomerRepository{}
		paymentRepo := &MockPaymentRepository{}

		customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
		paymentRepo.On("LatestByCustomer", mock.Anything, customerID).Return(nil, sql.ErrNoRows)

		svc := newTestService(customerRepo, paymentRepo, nil)
		response, err := svc.GetStatus(context.Background(), customerID)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusNone, response.Status.Status)
		assert.Nil(t, response.Status.DaysToEnd)
		assert.Empty(t, response.EndDate)
	})
}

func TestRenewalSweep(t *testing.T) {
	customerRepo := &MockCustomerRepository{}
	paymentRepo := &MockPaymentRepository{}

	today := calendar.Today()
	dueCustomer := uuid.New()
	graceCustomer := uuid.New()
	activeCustomer := uuid.New()
	expiredCustomer := uuid.New()

	customerRepo.On("List", mock.Anything).Return([]*domain.Customer{
		existingCustomer(dueCustomer),
		existingCustomer(graceCustomer),
		existingCustomer(activeCustomer),
		existingCustomer(expiredCustomer),
		existingCustomer(uuid.New()), // never paid
	}, nil)
	paymentRepo.On("ListAllLatest", mock.Anything).Return([]*repository.LatestEndDate{
		{CustomerID: dueCustomer, EndDate: today.AddDays(2)},
		{CustomerID: graceCustomer, EndDate: today.AddDays(-5)},
		{CustomerID: activeCustomer, EndDate: today.AddDays(100)},
		{CustomerID: expiredCustomer, EndDate: today.AddDays(-60)},
	}, nil)

	svc := newTestService(customerRepo, paymentRepo, nil)
	result, err := svc.RenewalSweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts[domain.StatusDue])
	assert.Equal(t, 1, result.Counts[domain.StatusGrace])
	assert.Equal(t, 1, result.Counts[domain.StatusActive])
	assert.Equal(t, 1, result.Counts[domain.StatusExpired])
	assert.Equal(t, 1, result.Counts[domain.StatusNone])

	require.Len(t, result.Reminders, 2)
	reminded := map[uuid.UUID]string{}
	for _, r := range result.Reminders {
		reminded[r.CustomerID] = r.Status
	}
	assert.Equal(t, domain.StatusDue, reminded[dueCustomer])
	assert.Equal(t, domain.StatusGrace, reminded[graceCustomer])
}

func TestPaymentAllocations(t *testing.T) {
	paymentRepo := &MockPaymentRepository{}
	paymentID := uuid.New()

	paymentRepo.On("GetByID", mock.Anything, paymentID).Return(&domain.Payment{
		ID:       paymentID,
		PaidDate: calendar.MustParse("2026-01-15"),
		Currency: domain.CurrencyVND,
		Amount:   decimal.NewFromInt(100000),
		Months:   3,
	}, nil)

	svc := newTestService(&MockCustomerRepository{}, paymentRepo, nil)
	allocations, err := svc.PaymentAllocations(context.Background(), paymentID)

	require.NoError(t, err)
	require.Len(t, allocations, 3)
	assert.Equal(t, "2026-01", allocations[0].MonthBucket)
	assert.Equal(t, "33334", allocations[0].Amount.String())
	assert.Equal(t, "33333", allocations[1].Amount.String())
}

func TestMonthlyReport(t *testing.T) {
	paymentRepo := &MockPaymentRepository{}

	today := calendar.Today()
	paymentRepo.On("ListByPaidDateRange", mock.Anything, mock.Anything, mock.Anything).Return([]*domain.Payment{
		{PaidDate: today, Currency: domain.CurrencyVND, Amount: decimal.NewFromInt(50000), Months: 1},
		{PaidDate: today, Currency: domain.CurrencyUSD, Amount: decimal.NewFromInt(2), Months: 1},
	}, nil)

	svc := newTestService(&MockCustomerRepository{}, paymentRepo, nil)
	rows, err := svc.MonthlyReport(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, today.MonthBucket(), rows[0].MonthBucket)
	assert.Equal(t, "50000", rows[0].VND.String())
	assert.Equal(t, "2", rows[0].USD.String())
	// 50000 + 2 * 25800
	assert.Equal(t, "101600", rows[0].ConvertedVND.String())
	assert.True(t, rows[1].ConvertedVND.IsZero())
	assert.True(t, rows[2].ConvertedVND.IsZero())
}

func TestMonthlyReportRejectsNonPositiveMonths(t *testing.T) {
	svc := newTestService(&MockCustomerRepository{}, &MockPaymentRepository{}, nil)

	_, err := svc.MonthlyReport(context.Background(), 0)
	assert.ErrorIs(t, err, customError.ErrInvalidMonths)
}

func TestDeleteCustomer(t *testing.T) {
	customerRepo := &MockCustomerRepository{}
	customerID := uuid.New()

	customerRepo.On("GetByID", mock.Anything, customerID).Return(existingCustomer(customerID), nil)
	customerRepo.On("Delete", mock.Anything, customerID).Return(nil)

	svc := newTestService(customerRepo, &MockPaymentRepository{}, nil)
	require.NoError(t, svc.DeleteCustomer(context.Background(), customerID))
	customerRepo.AssertExpectations(t)
}

func TestDeleteCustomerNotFound(t *testing.T) {
	customerRepo := &MockCustomerRepository{}
	customerID := uuid.New()

	customerRepo.On("GetByID", mock.Anything, customerID).Return(nil, sql.ErrNoRows)

	svc := newTestService(customerRepo, &MockPaymentRepository{}, nil)
	err := svc.DeleteCustomer(context.Background(), customerID)
	assert.ErrorIs(t, err, customError.ErrCustomerNotFound)
}
