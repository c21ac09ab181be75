package domain

import (
	"context"
	"time"
)

// OutcomeSummary is the latest top-of-book view of one outcome.
type OutcomeSummary struct {
	Outcome     string  `json:"outcome"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	ImpliedProb float64 `json:"implied_prob"`
}

// QuoteSummary is the latest per-market quote view served to the dashboard.
type QuoteSummary struct {
	MarketID   string           `json:"market_id"`
	Venue      string           `json:"venue"`
	Ticker     string           `json:"ticker"`
	Title      string           `json:"title"`
	Outcomes   []OutcomeSummary `json:"outcomes"`
	CapturedAt time.Time        `json:"captured_at"`
}

// SummaryCache provides fast access to the latest per-market quote summaries.
type SummaryCache interface {
	SetSummary(ctx context.Context, s QuoteSummary) error
	GetSummary(ctx context.Context, venue, ticker string) (QuoteSummary, error)
}
