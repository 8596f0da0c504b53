package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/subtrack/subtrack/internal/domain"
	customError "github.com/subtrack/subtrack/pkg/errors"
	"github.com/subtrack/subtrack/pkg/response"
)

// SubscriptionService is the surface the HTTP layer needs from the service.
type SubscriptionService interface {
	CreateCustomer(ctx context.Context, request *domain.CreateCustomerRequest) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, request *domain.UpdateCustomerRequest) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
	GetStatus(ctx context.Context, customerID uuid.UUID) (*domain.CustomerStatusResponse, error)
	RecordPayment(ctx context.Context, customerID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error)
	ListPayments(ctx context.Context, customerID uuid.UUID) ([]*domain.Payment, error)
	UpdatePayment(ctx context.Context, paymentID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.Payment, error)
	DeletePayment(ctx context.Context, paymentID uuid.UUID) error
	PaymentAllocations(ctx context.Context, paymentID uuid.UUID) ([]domain.MonthlyAllocation, error)
	MonthlyReport(ctx context.Context, months int) ([]domain.MonthlyTotal, error)
}

type SubscriptionHandler struct {
	service   SubscriptionService
	validator *validator.Validate
}

func NewSubscriptionHandler(service SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *SubscriptionHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateCustomerRequest
	if !h.decode(w, r, &request) {
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, customer)
}

func (h *SubscriptionHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, customers)
}

func (h *SubscriptionHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, customer)
}

func (h *SubscriptionHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	var request domain.UpdateCustomerRequest
	if !h.decode(w, r, &request) {
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), id, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, customer)
}

func (h *SubscriptionHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *SubscriptionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	status, err := h.service.GetStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, status)
}

func (h *SubscriptionHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	var request domain.RecordPaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), id, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, domain.PaymentResponse{Payment: payment})
}

func (h *SubscriptionHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "customerId")
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, payments)
}

func (h *SubscriptionHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	var request domain.RecordPaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.UpdatePayment(r.Context(), id, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, domain.PaymentResponse{Payment: payment})
}

func (h *SubscriptionHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *SubscriptionHandler) GetAllocations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	allocations, err := h.service.PaymentAllocations(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, domain.AllocationsResponse{PaymentID: id, Allocations: allocations})
}

// decode unmarshals and validates a JSON request body, reporting failures
// to the client itself. Returns false when the request is already handled.
func (h *SubscriptionHandler) decode(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		response.BadRequest(w, "INVALID_BODY", "Invalid JSON body", err)
		return false
	}
	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "VALIDATION_FAILED", "Request validation failed", err)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "INVALID_ID", "Path ID must be a UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto HTTP statuses with their taxonomy
// codes.
func writeError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	switch {
	case errors.Is(err, customError.ErrCustomerNotFound),
		errors.Is(err, customError.ErrPaymentNotFound):
		response.NotFound(w, code, err.Error())
	case errors.Is(err, customError.ErrInvalidFormat),
		errors.Is(err, customError.ErrInvalidDate),
		errors.Is(err, customError.ErrInvalidCurrency),
		errors.Is(err, customError.ErrInvalidMonths),
		errors.Is(err, customError.ErrInvalidAmount):
		response.BadRequest(w, code, "Request validation failed", err)
	case errors.Is(err, customError.ErrDuplicateEmail):
		response.Conflict(w, code, err.Error(), nil)
	default:
		response.InternalServerError(w, code, "Internal server error", err)
	}
}

func errorCode(err error) string {
	var businessErr *customError.BusinessError
	if errors.As(err, &businessErr) {
		return businessErr.Code
	}
	switch {
	case errors.Is(err, customError.ErrInvalidFormat):
		return customError.ErrCodeInvalidFormat
	case errors.Is(err, customError.ErrInvalidDate):
		return customError.ErrCodeInvalidDate
	default:
		return ""
	}
}
