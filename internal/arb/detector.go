// Package arb detects arbitrage and value opportunities over validated,
// probability-annotated quotes.
package arb

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sharpagents/linesight/internal/domain"
)

const defaultTotalStake = 100

// EventBook holds every valid quote for one event, grouped by outcome. Quotes
// may come from multiple venues and bookmakers.
type EventBook struct {
	EventKey     string
	Participants [2]string
	Outcomes     map[string][]domain.Quote
}

// Detector runs the three detection algorithms. Quotes are priced at the ask,
// which is what a taker pays.
type Detector struct {
	minThreshold float64
	totalStake   float64
	log          *slog.Logger
}

// NewDetector creates a Detector with the given minimum profit threshold
// (probability units, e.g. 0.02 for 2%). Stake plans are sized against a
// notional total stake of 100.
func NewDetector(minThreshold float64, log *slog.Logger) *Detector {
	return &Detector{
		minThreshold: minThreshold,
		totalStake:   defaultTotalStake,
		log:          log.With(slog.String("component", "detector")),
	}
}

// DetectAll runs every algorithm over the book and returns all opportunities
// found.
func (d *Detector) DetectAll(book EventBook) []domain.Opportunity {
	var opps []domain.Opportunity
	if opp, ok := d.DetectTrueArbitrage(book); ok {
		opps = append(opps, opp)
	}
	if opp, ok := d.DetectCrossBookmaker(book); ok {
		opps = append(opps, opp)
	}
	if opp, ok := d.DetectCrossPlatformBinary(book); ok {
		opps = append(opps, opp)
	}
	return opps
}

// DetectTrueArbitrage finds a guaranteed-profit position: if the best (lowest)
// ask probabilities across all outcomes sum below 1-threshold, backing every
// outcome at those prices locks in profit regardless of the result.
func (d *Detector) DetectTrueArbitrage(book EventBook) (domain.Opportunity, bool) {
	best := bestPerOutcome(book.Outcomes)
	if len(best) < 2 {
		return domain.Opportunity{}, false
	}

	var sum float64
	for _, q := range best {
		sum += askProb(q)
	}
	if sum >= 1-d.minThreshold {
		return domain.Opportunity{}, false
	}

	opp := domain.Opportunity{
		ID:               uuid.NewString(),
		EventKey:         book.EventKey,
		Kind:             domain.KindTrueArbitrage,
		Participants:     book.Participants,
		ProfitPercent:    (1 - sum) * 100,
		TotalProbability: sum,
		StakePlan:        d.stakePlan(best, sum),
		DetectedAt:       time.Now().UTC(),
	}
	d.log.Info("true arbitrage detected",
		slog.String("event", book.EventKey),
		slog.Float64("total_probability", sum),
		slog.Float64("profit_percent", opp.ProfitPercent))
	return opp, true
}

// DetectCrossBookmaker flags outcomes whose implied probability differs across
// bookmakers by more than the threshold. Findings across outcomes are
// aggregated into one opportunity per event, scored by the largest spread.
func (d *Detector) DetectCrossBookmaker(book EventBook) (domain.Opportunity, bool) {
	var findings []domain.ValueFinding
	var maxDiff float64

	for _, outcome := range sortedOutcomes(book.Outcomes) {
		quotes := book.Outcomes[outcome]
		if len(quotes) < 2 {
			continue
		}
		best, worst := quotes[0], quotes[0]
		for _, q := range quotes[1:] {
			if askProb(q) < askProb(best) {
				best = q
			}
			if askProb(q) > askProb(worst) {
				worst = q
			}
		}
		diff := askProb(worst) - askProb(best)
		if diff <= d.minThreshold {
			continue
		}
		findings = append(findings, domain.ValueFinding{
			Outcome:        outcome,
			BestBookmaker:  bookmakerLabel(best),
			WorstBookmaker: bookmakerLabel(worst),
			BestProb:       askProb(best),
			WorstProb:      askProb(worst),
			Diff:           diff,
		})
		if diff > maxDiff {
			maxDiff = diff
		}
	}

	if len(findings) == 0 {
		return domain.Opportunity{}, false
	}
	return domain.Opportunity{
		ID:            uuid.NewString(),
		EventKey:      book.EventKey,
		Kind:          domain.KindCrossBookmaker,
		Participants:  book.Participants,
		ProfitPercent: maxDiff * 100,
		Findings:      findings,
		DetectedAt:    time.Now().UTC(),
	}, true
}

// DetectCrossPlatformBinary finds two-leg arbitrage on a binary event priced
// on at least two venues: the cheapest quote for each side, taken on
// different venues, summing below 1-threshold.
func (d *Detector) DetectCrossPlatformBinary(book EventBook) (domain.Opportunity, bool) {
	outcomes := sortedOutcomes(book.Outcomes)
	if len(outcomes) != 2 {
		return domain.Opportunity{}, false
	}

	var bestPair []domain.Quote
	bestSum := 2.0
	for _, qa := range book.Outcomes[outcomes[0]] {
		for _, qb := range book.Outcomes[outcomes[1]] {
			if qa.Venue == qb.Venue {
				continue
			}
			if sum := askProb(qa) + askProb(qb); sum < bestSum {
				bestSum = sum
				bestPair = []domain.Quote{qa, qb}
			}
		}
	}
	if bestPair == nil || bestSum >= 1-d.minThreshold {
		return domain.Opportunity{}, false
	}

	best := map[string]domain.Quote{
		outcomes[0]: bestPair[0],
		outcomes[1]: bestPair[1],
	}
	opp := domain.Opportunity{
		ID:               uuid.NewString(),
		EventKey:         book.EventKey,
		Kind:             domain.KindCrossPlatformBinary,
		Participants:     book.Participants,
		ProfitPercent:    (1 - bestSum) * 100,
		TotalProbability: bestSum,
		StakePlan:        d.stakePlan(best, bestSum),
		DetectedAt:       time.Now().UTC(),
	}
	d.log.Info("cross-platform arbitrage detected",
		slog.String("event", book.EventKey),
		slog.String("venue_a", bestPair[0].Venue),
		slog.String("venue_b", bestPair[1].Venue),
		slog.Float64("profit_percent", opp.ProfitPercent))
	return opp, true
}

// stakePlan sizes legs proportionally to their probabilities so the payout
// totalStake/sum is identical whichever outcome wins.
func (d *Detector) stakePlan(best map[string]domain.Quote, sum float64) []domain.StakeLeg {
	payout := d.totalStake / sum
	legs := make([]domain.StakeLeg, 0, len(best))
	for _, outcome := range sortedQuoteKeys(best) {
		q := best[outcome]
		p := askProb(q)
		legs = append(legs, domain.StakeLeg{
			Outcome:     outcome,
			Venue:       q.Venue,
			Bookmaker:   q.Bookmaker,
			Probability: p,
			Stake:       d.totalStake * p / sum,
			Payout:      payout,
		})
	}
	return legs
}

// bestPerOutcome picks the lowest-ask quote for each outcome.
func bestPerOutcome(outcomes map[string][]domain.Quote) map[string]domain.Quote {
	best := make(map[string]domain.Quote, len(outcomes))
	for outcome, quotes := range outcomes {
		for _, q := range quotes {
			cur, ok := best[outcome]
			if !ok || askProb(q) < askProb(cur) {
				best[outcome] = q
			}
		}
	}
	return best
}

// askProb is the probability a taker pays to back the outcome.
func askProb(q domain.Quote) float64 {
	if q.Ask > 0 {
		return q.Ask
	}
	return q.ImpliedProb
}

func bookmakerLabel(q domain.Quote) string {
	if q.Bookmaker != "" {
		return q.Bookmaker
	}
	return q.Venue
}

func sortedOutcomes(m map[string][]domain.Quote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedQuoteKeys(m map[string]domain.Quote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
