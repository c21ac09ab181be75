package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Venue  string
}

// MarketStore persists canonical markets. Upsert is keyed on (venue, ticker):
// create-if-absent, else field-merge update, never duplicate.
type MarketStore interface {
	Upsert(ctx context.Context, m Market) (id string, created bool, err error)
	GetByTicker(ctx context.Context, venue, ticker string) (Market, error)
	List(ctx context.Context, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// QuoteStore persists point-in-time quote snapshots. Snapshots are
// insert-only; history accumulates here.
type QuoteStore interface {
	InsertSnapshots(ctx context.Context, marketID string, quotes []Quote) error
	ListLatest(ctx context.Context, marketID string, limit int) ([]Quote, error)
}

// OpportunityStore persists detected opportunities.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	InsertBatch(ctx context.Context, opps []Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
	ListSince(ctx context.Context, since time.Time, limit int) ([]Opportunity, error)
}
