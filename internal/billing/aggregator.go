package billing

import (
	"github.com/shopspring/decimal"

	"github.com/subtrack/subtrack/internal/calendar"
	"github.com/subtrack/subtrack/internal/domain"
)

// Aggregator produces monthly revenue report rows.
type Aggregator struct {
	policy Policy
}

// NewAggregator creates an aggregator with the given policy.
func NewAggregator(policy Policy) Aggregator {
	return Aggregator{policy: policy}
}

// ComputeMonthlyTotals sums payments into the caller-supplied month
// buckets, in the supplied order. A payment contributes its full, un-split
// amount to the bucket its *paid* date falls in (cash-received view; the
// allocator's service-period view is intentionally different and lives
// alongside, not instead).
//
// Per bucket: VND is the integer sum of VND amounts, USD the two-decimal
// sum of USD amounts, and ConvertedVND = round(VND + USD * UsdToVndRate).
// Buckets with no payments report zeros. Input payment order never affects
// the sums.
func (a Aggregator) ComputeMonthlyTotals(payments []domain.Payment, buckets []string) []domain.MonthlyTotal {
	// Sums are carried in integer minor units so no intermediate rounding
	// exists.
	vndUnits := make(map[string]int64, len(buckets))
	usdCents := make(map[string]int64, len(buckets))
	wanted := make(map[string]bool, len(buckets))
	for _, bucket := range buckets {
		wanted[bucket] = true
	}

	for _, p := range payments {
		bucket := p.PaidDate.MonthBucket()
		if !wanted[bucket] {
			continue
		}
		switch p.Currency {
		case domain.CurrencyVND:
			vndUnits[bucket] += p.Amount.Round(0).IntPart()
		case domain.CurrencyUSD:
			usdCents[bucket] += p.Amount.Round(2).Shift(2).IntPart()
		}
	}

	rows := make([]domain.MonthlyTotal, len(buckets))
	for i, bucket := range buckets {
		vnd := decimal.NewFromInt(vndUnits[bucket])
		usd := decimal.New(usdCents[bucket], -2)
		converted := vnd.Add(usd.Mul(a.policy.UsdToVndRate)).Round(0)
		rows[i] = domain.MonthlyTotal{
			MonthBucket:  bucket,
			VND:          vnd,
			USD:          usd,
			ConvertedVND: converted,
		}
	}

	return rows
}

// LastMonths returns the n month buckets ending at today's month, most
// recent first. This is the bucket list the report endpoints feed into
// ComputeMonthlyTotals.
func LastMonths(today calendar.Date, n int) []string {
	if n <= 0 {
		return nil
	}
	buckets := make([]string, n)
	for i := 0; i < n; i++ {
		buckets[i] = today.AddMonths(-i).MonthBucket()
	}
	return buckets
}
