package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharpagents/linesight/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

var _ domain.MarketStore = (*MarketStore)(nil)

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Upsert inserts or updates a market keyed on (venue, ticker). It returns the
// row id and whether the row was newly created.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) (string, bool, error) {
	const query = `
		INSERT INTO markets (
			venue, ticker, market_key, title, event_time,
			participant_a, participant_b, market_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (venue, ticker) DO UPDATE SET
			market_key    = EXCLUDED.market_key,
			title         = EXCLUDED.title,
			event_time    = EXCLUDED.event_time,
			participant_a = EXCLUDED.participant_a,
			participant_b = EXCLUDED.participant_b,
			market_type   = EXCLUDED.market_type,
			updated_at    = NOW()
		RETURNING id, (xmax = 0) AS created`

	var id string
	var created bool
	err := s.pool.QueryRow(ctx, query,
		m.Venue, m.Ticker, m.MarketKey, m.Title, m.EventTime,
		m.ParticipantA, m.ParticipantB, string(m.Type),
	).Scan(&id, &created)
	if err != nil {
		return "", false, fmt.Errorf("postgres: upsert market %s/%s: %w", m.Venue, m.Ticker, err)
	}
	return id, created, nil
}

const marketCols = `id, venue, ticker, market_key, title, event_time,
	participant_a, participant_b, market_type, created_at, updated_at`

func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	var marketType string
	err := row.Scan(
		&m.ID, &m.Venue, &m.Ticker, &m.MarketKey, &m.Title, &m.EventTime,
		&m.ParticipantA, &m.ParticipantB, &marketType,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	m.Type = domain.MarketType(marketType)
	return m, nil
}

// GetByTicker retrieves a market by its natural key.
func (s *MarketStore) GetByTicker(ctx context.Context, venue, ticker string) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE venue = $1 AND ticker = $2`, venue, ticker)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %s/%s: %w", venue, ticker, err)
	}
	return m, nil
}

// List returns markets, newest first, with pagination and optional venue
// filtering.
func (s *MarketStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets`
	args := []any{}
	argIdx := 1

	if opts.Venue != "" {
		query += fmt.Sprintf(" WHERE venue = $%d", argIdx)
		args = append(args, opts.Venue)
		argIdx++
	}

	query += " ORDER BY updated_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}
