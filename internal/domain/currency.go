package domain

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/subtrack/subtrack/pkg/errors"
)

// Currency is one of the two billing currencies. VND amounts are whole
// numbers; USD amounts carry at most two fractional digits.
type Currency string

const (
	CurrencyVND Currency = "VND"
	CurrencyUSD Currency = "USD"
)

// ParseCurrency validates a raw currency string.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyVND:
		return CurrencyVND, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	default:
		return "", apperrors.WrapInvalidCurrency(s)
	}
}

// Scale returns the number of fractional digits of the currency's minor
// unit: 0 for VND, 2 for USD.
func (c Currency) Scale() int32 {
	if c == CurrencyUSD {
		return 2
	}
	return 0
}

// IsValid reports whether c is a known currency.
func (c Currency) IsValid() bool {
	return c == CurrencyVND || c == CurrencyUSD
}

// Round normalizes an amount to the currency's native precision.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(c.Scale())
}

// ValidateAmount checks that amount is positive and already expressed at
// the currency's native precision.
func (c Currency) ValidateAmount(amount decimal.Decimal) error {
	if !c.IsValid() {
		return apperrors.WrapInvalidCurrency(string(c))
	}
	if !amount.IsPositive() || !amount.Equal(c.Round(amount)) {
		return apperrors.WrapInvalidAmount(amount.String())
	}
	return nil
}
