// Package billing holds the pure billing core: the renewal status
// classifier, the term-length pricing hint, the per-month revenue
// allocator, and the monthly revenue aggregator. Everything in this package
// is a deterministic function over plain data; it never touches a clock, a
// database, or the network.
package billing

import "github.com/shopspring/decimal"

// Policy carries the billing constants. They are injected at construction
// rather than read from globals so alternate policies can be exercised in
// tests and per deployment.
type Policy struct {
	// DueSoonDays is the width of the window before expiry during which a
	// subscription is flagged "due" instead of "active".
	DueSoonDays int
	// GraceDays is the width of the window after expiry during which a
	// subscription is "grace" instead of "expired".
	GraceDays int
	// BasePriceVND and BasePriceUSD are the per-month list prices used by
	// the recommended-term hint.
	BasePriceVND decimal.Decimal
	BasePriceUSD decimal.Decimal
	// UsdToVndRate converts USD report totals into VND.
	UsdToVndRate decimal.Decimal
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		DueSoonDays:  3,
		GraceDays:    7,
		BasePriceVND: decimal.NewFromInt(50000),
		BasePriceUSD: decimal.NewFromInt(2),
		UsdToVndRate: decimal.NewFromInt(25800),
	}
}
