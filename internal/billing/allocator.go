package billing

import (
	"github.com/shopspring/decimal"

	"github.com/subtrack/subtrack/internal/domain"
	apperrors "github.com/subtrack/subtrack/pkg/errors"
)

// AllocateToMonths splits a payment covering N months into N per-month
// allocations (service-period accounting view). Bucket i is the month of
// PaidDate advanced by i calendar months, so the buckets are contiguous and
// start at the paid month.
//
// The split runs in integer minor units (whole VND, USD cents): every month
// gets floor(total/N) and the leftover minor units go one each to the
// earliest months. The allocations therefore sum back to the amount
// exactly, at native currency precision, with a deterministic front-loaded
// distribution.
func AllocateToMonths(p domain.Payment) ([]domain.MonthlyAllocation, error) {
	if p.Months <= 0 {
		return nil, apperrors.WrapInvalidMonths(p.Months)
	}
	if err := p.Currency.ValidateAmount(p.Amount); err != nil {
		return nil, err
	}

	scale := p.Currency.Scale()
	totalUnits := p.Amount.Shift(scale).IntPart()
	n := int64(p.Months)
	baseUnits := totalUnits / n
	remainder := totalUnits - baseUnits*n

	allocations := make([]domain.MonthlyAllocation, p.Months)
	for i := 0; i < p.Months; i++ {
		units := baseUnits
		if int64(i) < remainder {
			units++
		}
		allocations[i] = domain.MonthlyAllocation{
			MonthBucket: p.PaidDate.AddMonths(i).MonthBucket(),
			Amount:      decimal.New(units, -scale),
			Currency:    p.Currency,
		}
	}

	return allocations, nil
}
