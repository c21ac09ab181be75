package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharpagents/linesight/internal/domain"
)

// QuoteStore implements domain.QuoteStore using PostgreSQL. Snapshots are
// insert-only.
type QuoteStore struct {
	pool *pgxpool.Pool
}

var _ domain.QuoteStore = (*QuoteStore)(nil)

// NewQuoteStore creates a new QuoteStore backed by the given connection pool.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

// InsertSnapshots writes one snapshot row per quote for the given market.
func (s *QuoteStore) InsertSnapshots(ctx context.Context, marketID string, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	const query = `
		INSERT INTO quote_snapshots (
			market_id, outcome, venue, bookmaker,
			bid, ask, last_price, volume, open_interest,
			implied_prob, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	batch := &pgx.Batch{}
	for _, q := range quotes {
		batch.Queue(query,
			marketID, q.Outcome, q.Venue, q.Bookmaker,
			q.Bid, q.Ask, q.LastPrice, q.Volume, q.OpenInterest,
			q.ImpliedProb, q.CapturedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range quotes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert snapshot %d for market %s: %w", i, marketID, err)
		}
	}
	return nil
}

// ListLatest returns the most recent snapshots for a market, newest first.
func (s *QuoteStore) ListLatest(ctx context.Context, marketID string, limit int) ([]domain.Quote, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT outcome, venue, bookmaker, bid, ask, last_price,
			volume, open_interest, implied_prob, captured_at
		FROM quote_snapshots
		WHERE market_id = $1
		ORDER BY captured_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, marketID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list snapshots for %s: %w", marketID, err)
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		var q domain.Quote
		if err := rows.Scan(
			&q.Outcome, &q.Venue, &q.Bookmaker, &q.Bid, &q.Ask, &q.LastPrice,
			&q.Volume, &q.OpenInterest, &q.ImpliedProb, &q.CapturedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan snapshot: %w", err)
		}
		q.Spread = q.Ask - q.Bid
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list snapshots rows: %w", err)
	}
	return quotes, nil
}
