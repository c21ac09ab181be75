// Package validate sanity-checks normalized quotes before detection.
package validate

import (
	"fmt"
	"math"

	"github.com/sharpagents/linesight/internal/domain"
)

const (
	defaultSpreadWarn   = 0.20
	defaultSumTolerance = 0.10
)

// SpreadValidator checks the bid/ask structure of quotes. Hard failures
// exclude a quote from detection; warnings flag data quality without blocking.
type SpreadValidator struct {
	spreadWarnThreshold float64
	sumTolerance        float64
}

// New creates a SpreadValidator. Non-positive thresholds fall back to the
// defaults (0.20 spread warn, 0.10 probability-sum tolerance).
func New(spreadWarnThreshold, sumTolerance float64) *SpreadValidator {
	if spreadWarnThreshold <= 0 {
		spreadWarnThreshold = defaultSpreadWarn
	}
	if sumTolerance <= 0 {
		sumTolerance = defaultSumTolerance
	}
	return &SpreadValidator{
		spreadWarnThreshold: spreadWarnThreshold,
		sumTolerance:        sumTolerance,
	}
}

// Validate checks a single quote. It returns ok=false when any hard rule
// fails; issues lists every triggered rule, hard or warning. The quote's
// Spread field is always set to ask-bid.
func (v *SpreadValidator) Validate(q *domain.Quote) (ok bool, issues []string) {
	ok = true

	if q.Bid < 0 || q.Bid > 1 {
		ok = false
		issues = append(issues, fmt.Sprintf("bid %.4f outside [0,1]", q.Bid))
	}
	if q.Ask < 0 || q.Ask > 1 {
		ok = false
		issues = append(issues, fmt.Sprintf("ask %.4f outside [0,1]", q.Ask))
	}
	if q.Ask < q.Bid {
		ok = false
		issues = append(issues, fmt.Sprintf("ask %.4f below bid %.4f", q.Ask, q.Bid))
	}

	if ok {
		// Detection keys off the implied probability, which must be a real
		// probability: a 0/0 or 1/1 book would otherwise rank as a huge edge.
		if mid := q.Mid(); mid <= 0 || mid >= 1 {
			ok = false
			issues = append(issues, fmt.Sprintf("implied probability %.4f outside (0,1)", mid))
		}
	}

	q.Spread = q.Ask - q.Bid
	if ok && q.Spread > v.spreadWarnThreshold {
		issues = append(issues, fmt.Sprintf("spread %.4f above %.2f", q.Spread, v.spreadWarnThreshold))
	}

	return ok, issues
}

// CheckComplement verifies that the midpoints of two complementary-side quotes
// sum to approximately 1. A deviation beyond the tolerance is a data-quality
// warning (stale or partial feed data), never a rejection.
func (v *SpreadValidator) CheckComplement(a, b domain.Quote) (ok bool, issue string) {
	sum := a.Mid() + b.Mid()
	if math.Abs(sum-1.0) > v.sumTolerance {
		return false, fmt.Sprintf("complementary midpoints sum to %.4f (expected ~1.0)", sum)
	}
	return true, ""
}
