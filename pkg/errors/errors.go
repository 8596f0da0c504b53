package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidFormat    = errors.New("date string does not match YYYY-MM-DD")
	ErrInvalidDate      = errors.New("not a real calendar day")
	ErrInvalidCurrency  = errors.New("currency must be VND or USD")
	ErrInvalidMonths    = errors.New("month count must be positive")
	ErrInvalidAmount    = errors.New("invalid payment amount")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicateEmail   = errors.New("customer with this email already exists")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidFormat    = "INVALID_FORMAT"
	ErrCodeInvalidDate      = "INVALID_DATE"
	ErrCodeInvalidCurrency  = "INVALID_CURRENCY"
	ErrCodeInvalidMonths    = "INVALID_MONTHS"
	ErrCodeInvalidAmount    = "INVALID_AMOUNT"
	ErrCodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	ErrCodePaymentNotFound  = "PAYMENT_NOT_FOUND"
	ErrCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeCacheError       = "CACHE_ERROR"
	ErrCodeEventError       = "EVENT_ERROR"
)

// Wrap common errors with business context
func WrapCustomerNotFound(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerNotFound,
		fmt.Sprintf("Customer with ID %s not found", customerID),
		ErrCustomerNotFound,
	)
}

func WrapPaymentNotFound(paymentID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment with ID %s not found", paymentID),
		ErrPaymentNotFound,
	)
}

func WrapInvalidCurrency(value string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidCurrency,
		fmt.Sprintf("Unknown currency %q", value),
		ErrInvalidCurrency,
	)
}

func WrapInvalidMonths(months int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidMonths,
		fmt.Sprintf("Month count must be positive, got %d", months),
		ErrInvalidMonths,
	)
}

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapDuplicateEmail(email string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateEmail,
		fmt.Sprintf("Customer with email %s already exists", email),
		ErrDuplicateEmail,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapEventError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeEventError,
		"Event publish failed",
		err,
	)
}
