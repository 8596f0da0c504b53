package billing

import (
	"github.com/shopspring/decimal"

	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/domain"
)

// Engine classifies subscription renewal status. It is a pure classifier:
// no stored state, no persisted transitions, recomputed fresh on every
// read.
type Engine struct {
	policy Policy
}

// NewEngine creates a status engine with the given policy.
func NewEngine(policy Policy) Engine {
	return Engine{policy: policy}
}

// ComputeStatus maps the end date of a customer's latest payment (nil when
// no payment history exists) and today to a status badge.
//
// The boundaries are exact: active flips to due at exactly
// daysToEnd == DueSoonDays, due to grace the day after the end date, and
// grace to expired the day after endDate + GraceDays.
func (e Engine) ComputeStatus(endDate *calendar.Date, today calendar.Date) domain.StatusInfo {
	if endDate == nil {
		return domain.StatusInfo{Status: domain.StatusNone}
	}

	daysToEnd := endDate.Sub(today)
	if daysToEnd >= 0 {
		info := domain.StatusInfo{Status: domain.StatusActive, DaysToEnd: &daysToEnd}
		if daysToEnd <= e.policy.DueSoonDays {
			info.Status = domain.StatusDue
		}
		return info
	}

	daysPastEnd := -daysToEnd
	info := domain.StatusInfo{Status: domain.StatusGrace, DaysPastEnd: &daysPastEnd}
	if daysPastEnd > e.policy.GraceDays {
		info.Status = domain.StatusExpired
	}
	return info
}

// RecommendedMonths suggests a term length for a payment amount:
// max(1, floor(amount / basePrice)). This is a pricing hint, not a
// validated constraint; callers may override it.
func (e Engine) RecommendedMonths(amount decimal.Decimal, currency domain.Currency) int {
	basePrice := e.policy.BasePriceVND
	if currency == domain.CurrencyUSD {
		basePrice = e.policy.BasePriceUSD
	}
	if !amount.IsPositive() || !basePrice.IsPositive() {
		return 1
	}

	months := amount.Div(basePrice).Floor().IntPart()
	if months < 1 {
		return 1
	}
	return int(months)
}
