package domain

import "time"

// MarketType classifies the outcome structure of a market.
type MarketType string

const (
	MarketTypeBinary      MarketType = "binary"
	MarketTypeCategorical MarketType = "categorical"
	MarketTypeScalar      MarketType = "scalar"
)

// Market is the venue-agnostic representation of a single tradable
// event/question. Identity is (Venue, Ticker); re-ingesting the same pair
// updates fields rather than creating a new record.
type Market struct {
	ID           string // store-assigned UUID, empty until first upsert
	Venue        string
	Ticker       string
	MarketKey    string // venue market class, e.g. "h2h"
	Title        string
	EventTime    *time.Time
	ParticipantA string
	ParticipantB string
	Type         MarketType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EventKey identifies the event a market belongs to across detection passes.
func (m Market) EventKey() string {
	return m.Venue + ":" + m.Ticker
}

// Quote is a point-in-time snapshot of one side/outcome of a market, quoted in
// probability units (0..1). Quotes are always inserted, never updated.
type Quote struct {
	Outcome      string
	Venue        string
	Bookmaker    string // empty for exchange top-of-book quotes
	Bid          float64
	Ask          float64
	LastPrice    float64
	Volume       float64
	OpenInterest float64

	// Spread and ImpliedProb are derived during validation/normalization and
	// are not persisted as venue data.
	Spread      float64
	ImpliedProb float64

	CapturedAt time.Time
}

// Mid returns the bid/ask midpoint.
func (q Quote) Mid() float64 {
	return (q.Bid + q.Ask) / 2
}
