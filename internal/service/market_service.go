// Package service wires normalization, validation, persistence, and detection
// into the operations the pipeline and HTTP API call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/normalize"
	"github.com/sharpagents/linesight/internal/validate"
)

// IngestResult summarizes one venue batch after normalization, validation,
// and persistence.
type IngestResult struct {
	Venue           string
	MarketsCreated  int
	MarketsUpdated  int
	QuotesStored    int
	QuotesRejected  int
	PayloadsSkipped int
	Books           []EventQuotes
}

// EventQuotes carries the valid quotes of one persisted market, ready for
// detection.
type EventQuotes struct {
	Market domain.Market
	Quotes []domain.Quote
}

// MarketService ingests raw venue batches into the canonical model.
type MarketService struct {
	normalizer *normalize.Normalizer
	validator  *validate.SpreadValidator
	markets    domain.MarketStore
	quotes     domain.QuoteStore
	summaries  domain.SummaryCache
	logger     *slog.Logger
}

// NewMarketService creates a MarketService. summaries may be nil when no
// cache is configured; summary writes are then skipped.
func NewMarketService(
	normalizer *normalize.Normalizer,
	validator *validate.SpreadValidator,
	markets domain.MarketStore,
	quotes domain.QuoteStore,
	summaries domain.SummaryCache,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		normalizer: normalizer,
		validator:  validator,
		markets:    markets,
		quotes:     quotes,
		summaries:  summaries,
		logger:     logger.With(slog.String("component", "market_service")),
	}
}

// IngestBatch normalizes a venue batch, validates every quote, upserts the
// markets, and appends snapshot history for the quotes that pass validation.
// Payload-level failures skip the payload; quote-level failures drop the
// quote. The batch itself only fails on storage errors.
func (s *MarketService) IngestBatch(ctx context.Context, venue string, payloads []domain.RawPayload) (IngestResult, error) {
	report := s.normalizer.NormalizeBatch(venue, payloads)

	result := IngestResult{Venue: venue, PayloadsSkipped: report.Skipped}
	for _, issue := range report.Issues {
		s.logger.WarnContext(ctx, "payload skipped", slog.String("issue", issue))
	}

	for i, m := range report.Markets {
		valid := s.validateQuotes(ctx, m, report.Quotes[i])
		result.QuotesRejected += len(report.Quotes[i]) - len(valid)

		id, created, err := s.markets.Upsert(ctx, m)
		if err != nil {
			return result, fmt.Errorf("service: ingest %s: %w", m.EventKey(), err)
		}
		m.ID = id
		if created {
			result.MarketsCreated++
		} else {
			result.MarketsUpdated++
		}

		if len(valid) == 0 {
			continue
		}
		if err := s.quotes.InsertSnapshots(ctx, id, valid); err != nil {
			return result, fmt.Errorf("service: ingest %s: %w", m.EventKey(), err)
		}
		result.QuotesStored += len(valid)
		result.Books = append(result.Books, EventQuotes{Market: m, Quotes: valid})

		s.writeSummary(ctx, m, valid)
	}

	s.logger.InfoContext(ctx, "batch ingested",
		slog.String("venue", venue),
		slog.Int("markets_created", result.MarketsCreated),
		slog.Int("markets_updated", result.MarketsUpdated),
		slog.Int("quotes_stored", result.QuotesStored),
		slog.Int("quotes_rejected", result.QuotesRejected),
		slog.Int("payloads_skipped", result.PayloadsSkipped),
	)
	return result, nil
}

// validateQuotes runs the spread validator over a market's quotes and checks
// complement consistency per book: exchange yes/no sides as well as each
// bookmaker's two-outcome line should have midpoints summing to ~1.
func (s *MarketService) validateQuotes(ctx context.Context, m domain.Market, quotes []domain.Quote) []domain.Quote {
	valid := make([]domain.Quote, 0, len(quotes))
	byBook := make(map[string]map[string]domain.Quote)

	for _, q := range quotes {
		ok, issues := s.validator.Validate(&q)
		for _, issue := range issues {
			level := slog.LevelWarn
			if ok {
				level = slog.LevelInfo
			}
			s.logger.Log(ctx, level, "quote issue",
				slog.String("event", m.EventKey()),
				slog.String("outcome", q.Outcome),
				slog.String("issue", issue),
			)
		}
		if !ok {
			continue
		}
		valid = append(valid, q)
		if byBook[q.Bookmaker] == nil {
			byBook[q.Bookmaker] = make(map[string]domain.Quote)
		}
		byBook[q.Bookmaker][q.Outcome] = q
	}

	for bookmaker, outcomes := range byBook {
		if len(outcomes) != 2 {
			continue
		}
		pair := make([]domain.Quote, 0, 2)
		for _, q := range outcomes {
			pair = append(pair, q)
		}
		if ok, issue := s.validator.CheckComplement(pair[0], pair[1]); !ok {
			s.logger.WarnContext(ctx, "complement check failed",
				slog.String("event", m.EventKey()),
				slog.String("bookmaker", bookmaker),
				slog.String("issue", issue),
			)
		}
	}
	return valid
}

// writeSummary refreshes the latest-quote view. Cache failures are logged and
// otherwise ignored.
func (s *MarketService) writeSummary(ctx context.Context, m domain.Market, quotes []domain.Quote) {
	if s.summaries == nil {
		return
	}

	summary := domain.QuoteSummary{
		MarketID:   m.ID,
		Venue:      m.Venue,
		Ticker:     m.Ticker,
		Title:      m.Title,
		CapturedAt: time.Now().UTC(),
	}
	for _, q := range quotes {
		summary.Outcomes = append(summary.Outcomes, domain.OutcomeSummary{
			Outcome:     q.Outcome,
			Bid:         q.Bid,
			Ask:         q.Ask,
			ImpliedProb: q.ImpliedProb,
		})
	}

	if err := s.summaries.SetSummary(ctx, summary); err != nil {
		s.logger.WarnContext(ctx, "summary cache write failed",
			slog.String("event", m.EventKey()),
			slog.String("error", err.Error()),
		)
	}
}

// GetMarket retrieves a market by its natural key.
func (s *MarketService) GetMarket(ctx context.Context, venue, ticker string) (domain.Market, error) {
	m, err := s.markets.GetByTicker(ctx, venue, ticker)
	if err != nil {
		return domain.Market{}, fmt.Errorf("service: get market %s/%s: %w", venue, ticker, err)
	}
	return m, nil
}

// ListMarkets returns markets with pagination and optional venue filtering.
func (s *MarketService) ListMarkets(ctx context.Context, opts domain.ListOpts) ([]domain.Market, error) {
	markets, err := s.markets.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service: list markets: %w", err)
	}
	return markets, nil
}

// LatestQuotes returns the latest snapshots for a market, preferring the
// summary cache and falling back to snapshot history.
func (s *MarketService) LatestQuotes(ctx context.Context, venue, ticker string, limit int) ([]domain.Quote, error) {
	m, err := s.markets.GetByTicker(ctx, venue, ticker)
	if err != nil {
		return nil, fmt.Errorf("service: latest quotes %s/%s: %w", venue, ticker, err)
	}
	quotes, err := s.quotes.ListLatest(ctx, m.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("service: latest quotes %s/%s: %w", venue, ticker, err)
	}
	return quotes, nil
}
