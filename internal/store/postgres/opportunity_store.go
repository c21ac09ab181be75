package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharpagents/linesight/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Stake plans and value findings are stored as JSONB documents.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const insertOppQuery = `
	INSERT INTO arb_opportunities (
		id, event_key, kind, participant_a, participant_b,
		profit_percent, total_probability, stake_plan, findings, detected_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING`

func oppArgs(opp domain.Opportunity) ([]any, error) {
	stakePlan, err := json.Marshal(opp.StakePlan)
	if err != nil {
		return nil, fmt.Errorf("marshal stake plan: %w", err)
	}
	findings, err := json.Marshal(opp.Findings)
	if err != nil {
		return nil, fmt.Errorf("marshal findings: %w", err)
	}
	return []any{
		opp.ID, opp.EventKey, string(opp.Kind),
		opp.Participants[0], opp.Participants[1],
		opp.ProfitPercent, opp.TotalProbability,
		stakePlan, findings, opp.DetectedAt,
	}, nil
}

// Insert writes a single opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	args, err := oppArgs(opp)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	if _, err := s.pool.Exec(ctx, insertOppQuery, args...); err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// InsertBatch writes multiple opportunities in a single batch.
func (s *OpportunityStore) InsertBatch(ctx context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, opp := range opps {
		args, err := oppArgs(opp)
		if err != nil {
			return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
		}
		batch.Queue(insertOppQuery, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range opps {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert opportunity batch item %d: %w", i, err)
		}
	}
	return nil
}

const oppCols = `id, event_key, kind, participant_a, participant_b,
	profit_percent, total_probability, stake_plan, findings, detected_at`

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var opp domain.Opportunity
	var kind string
	var stakePlan, findings []byte
	err := row.Scan(
		&opp.ID, &opp.EventKey, &kind,
		&opp.Participants[0], &opp.Participants[1],
		&opp.ProfitPercent, &opp.TotalProbability,
		&stakePlan, &findings, &opp.DetectedAt,
	)
	if err != nil {
		return domain.Opportunity{}, err
	}
	opp.Kind = domain.OpportunityKind(kind)
	if len(stakePlan) > 0 {
		if err := json.Unmarshal(stakePlan, &opp.StakePlan); err != nil {
			return domain.Opportunity{}, fmt.Errorf("unmarshal stake plan: %w", err)
		}
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &opp.Findings); err != nil {
			return domain.Opportunity{}, fmt.Errorf("unmarshal findings: %w", err)
		}
	}
	return opp, nil
}

func (s *OpportunityStore) list(ctx context.Context, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

// ListRecent returns the most recently detected opportunities, newest first.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx,
		`SELECT `+oppCols+` FROM arb_opportunities ORDER BY detected_at DESC LIMIT $1`, limit)
}

// ListSince returns opportunities detected at or after the given time, most
// profitable first.
func (s *OpportunityStore) ListSince(ctx context.Context, since time.Time, limit int) ([]domain.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx,
		`SELECT `+oppCols+` FROM arb_opportunities
		WHERE detected_at >= $1
		ORDER BY profit_percent DESC, detected_at DESC
		LIMIT $2`, since, limit)
}
