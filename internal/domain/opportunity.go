package domain

import "time"

// OpportunityKind identifies which detection algorithm produced an opportunity.
type OpportunityKind string

const (
	KindTrueArbitrage       OpportunityKind = "true_arbitrage"
	KindCrossBookmaker      OpportunityKind = "cross_bookmaker"
	KindCrossPlatformBinary OpportunityKind = "cross_platform_binary"
)

// StakeLeg is one leg of a recommended stake allocation. Stakes are sized so
// the payout is equal regardless of which outcome wins.
type StakeLeg struct {
	Outcome     string
	Venue       string
	Bookmaker   string
	Probability float64
	Stake       float64
	Payout      float64
}

// ValueFinding is a single outcome-level pricing discrepancy between
// bookmakers, aggregated into a cross_bookmaker opportunity.
type ValueFinding struct {
	Outcome        string
	BestBookmaker  string
	WorstBookmaker string
	BestProb       float64
	WorstProb      float64
	Diff           float64
}

// Opportunity is a detected profit opportunity. It is immutable once emitted;
// lifecycle tracking (executed, expired) belongs to downstream consumers.
type Opportunity struct {
	ID               string
	EventKey         string
	Kind             OpportunityKind
	Participants     [2]string
	ProfitPercent    float64
	TotalProbability float64
	StakePlan        []StakeLeg
	Findings         []ValueFinding
	DetectedAt       time.Time
}
