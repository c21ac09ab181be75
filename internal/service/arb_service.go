package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sharpagents/linesight/internal/arb"
	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/normalize"
)

// Alerter pushes detected opportunities to external channels.
type Alerter interface {
	OpportunityDetected(ctx context.Context, o domain.Opportunity) error
}

// ArbService assembles event books from ingested quotes, runs detection,
// ranks the results, and records them.
type ArbService struct {
	detector     *arb.Detector
	store        domain.OpportunityStore
	alerter      Alerter
	minThreshold float64
	topN         int
	logger       *slog.Logger
}

// NewArbService creates an ArbService.
func NewArbService(
	detector *arb.Detector,
	store domain.OpportunityStore,
	minThreshold float64,
	topN int,
	logger *slog.Logger,
) *ArbService {
	return &ArbService{
		detector:     detector,
		store:        store,
		minThreshold: minThreshold,
		topN:         topN,
		logger:       logger.With(slog.String("component", "arb_service")),
	}
}

// WithAlerter enables opportunity alerts. Alert delivery is best effort;
// failures are logged and never fail the detection pass.
func (s *ArbService) WithAlerter(a Alerter) *ArbService {
	s.alerter = a
	return s
}

// DetectAndRecord builds event books from the given markets (merging markets
// that cover the same matchup across venues), runs every detector, ranks the
// surviving opportunities, and persists them. The ranked slice is returned.
func (s *ArbService) DetectAndRecord(ctx context.Context, books []EventQuotes) ([]domain.Opportunity, error) {
	assembled := BuildEventBooks(books)

	var found []domain.Opportunity
	for _, book := range assembled {
		found = append(found, s.detector.DetectAll(book)...)
	}

	ranked := arb.Rank(found, s.minThreshold, s.topN)
	if len(ranked) == 0 {
		s.logger.InfoContext(ctx, "no opportunities this pass",
			slog.Int("books", len(assembled)))
		return nil, nil
	}

	if err := s.store.InsertBatch(ctx, ranked); err != nil {
		return nil, fmt.Errorf("service: record opportunities: %w", err)
	}

	s.logger.InfoContext(ctx, "opportunities recorded",
		slog.Int("books", len(assembled)),
		slog.Int("found", len(found)),
		slog.Int("ranked", len(ranked)),
		slog.Float64("top_profit_percent", ranked[0].ProfitPercent),
	)

	if s.alerter != nil {
		for _, o := range ranked {
			if err := s.alerter.OpportunityDetected(ctx, o); err != nil {
				s.logger.WarnContext(ctx, "opportunity alert failed",
					slog.String("id", o.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return ranked, nil
}

// RecentOpportunities returns the most recently detected opportunities.
func (s *ArbService) RecentOpportunities(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	opps, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: recent opportunities: %w", err)
	}
	return opps, nil
}

// OpportunitiesSince returns opportunities detected at or after the given
// time, most profitable first.
func (s *ArbService) OpportunitiesSince(ctx context.Context, since time.Time, limit int) ([]domain.Opportunity, error) {
	opps, err := s.store.ListSince(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("service: opportunities since: %w", err)
	}
	return opps, nil
}

// BuildEventBooks groups per-market quotes into detection books. Markets from
// different venues that name the same two participants are merged into one
// book; exchange yes/no outcomes are relabeled to the participants so quotes
// line up across venues. Markets without resolved participants stand alone.
func BuildEventBooks(books []EventQuotes) []arb.EventBook {
	grouped := make(map[string]*arb.EventBook)
	var order []string

	for _, eq := range books {
		key, participants := bookKey(eq.Market)
		b, ok := grouped[key]
		if !ok {
			b = &arb.EventBook{
				EventKey:     key,
				Participants: participants,
				Outcomes:     make(map[string][]domain.Quote),
			}
			grouped[key] = b
			order = append(order, key)
		}

		for _, q := range eq.Quotes {
			outcome := relabelOutcome(q.Outcome, eq.Market)
			b.Outcomes[outcome] = append(b.Outcomes[outcome], q)
		}
	}

	out := make([]arb.EventBook, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	return out
}

// bookKey produces a venue-independent grouping key for a market. Markets
// naming the same participant pair in either order share a key.
func bookKey(m domain.Market) (string, [2]string) {
	if m.ParticipantA == "" || m.ParticipantB == "" {
		return m.EventKey(), [2]string{m.ParticipantA, m.ParticipantB}
	}
	pair := []string{
		strings.ToLower(normalize.CanonicalTeam(m.ParticipantA)),
		strings.ToLower(normalize.CanonicalTeam(m.ParticipantB)),
	}
	sort.Strings(pair)
	return "match:" + pair[0] + "|" + pair[1], [2]string{m.ParticipantA, m.ParticipantB}
}

// relabelOutcome maps exchange yes/no sides onto the market's participants and
// canonicalizes team names so cross-venue quotes share outcome labels.
func relabelOutcome(outcome string, m domain.Market) string {
	switch strings.ToLower(outcome) {
	case "yes":
		if m.ParticipantA != "" {
			return normalize.CanonicalTeam(m.ParticipantA)
		}
	case "no":
		if m.ParticipantB != "" {
			return normalize.CanonicalTeam(m.ParticipantB)
		}
	}
	return normalize.CanonicalTeam(outcome)
}
