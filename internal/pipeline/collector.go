// Package pipeline drives the periodic collect-and-detect cycle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/service"
)

// Ingestor turns a venue's raw payloads into persisted markets and quotes.
type Ingestor interface {
	IngestBatch(ctx context.Context, venue string, payloads []domain.RawPayload) (service.IngestResult, error)
}

// Detector runs detection over the quotes of one cycle and records the ranked
// results.
type Detector interface {
	DetectAndRecord(ctx context.Context, books []service.EventQuotes) ([]domain.Opportunity, error)
}

// FeedSource returns the raw payloads for a feed key, typically through the
// feed cache.
type FeedSource interface {
	Get(ctx context.Context, feedKey string) ([]domain.RawPayload, error)
}

// CycleStatus describes the outcome of the most recent collection cycle.
type CycleStatus struct {
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
	VenuesOK      []string  `json:"venues_ok"`
	VenuesFailed  []string  `json:"venues_failed"`
	QuotesStored  int       `json:"quotes_stored"`
	Opportunities int       `json:"opportunities"`
}

// Collector fetches every configured venue, ingests the payloads, and runs
// detection over the combined cycle. One venue failing degrades the cycle; it
// does not abort it.
type Collector struct {
	source   FeedSource
	ingestor Ingestor
	detector Detector
	venues   []string
	logger   *slog.Logger

	mu   sync.Mutex
	last CycleStatus
}

// NewCollector creates a Collector over the given feed keys.
func NewCollector(source FeedSource, ingestor Ingestor, detector Detector, venues []string, logger *slog.Logger) *Collector {
	return &Collector{
		source:   source,
		ingestor: ingestor,
		detector: detector,
		venues:   venues,
		logger:   logger.With(slog.String("component", "collector")),
	}
}

// Run executes a single collection cycle. It returns an error only when every
// venue failed or detection could not record its results.
func (c *Collector) Run(ctx context.Context) error {
	status := CycleStatus{StartedAt: time.Now().UTC()}
	var books []service.EventQuotes

	for _, venue := range c.venues {
		payloads, err := c.source.Get(ctx, venue)
		if err != nil {
			c.logger.Error("no data this cycle",
				slog.String("venue", venue),
				slog.String("error", err.Error()),
			)
			status.VenuesFailed = append(status.VenuesFailed, venue)
			continue
		}

		result, err := c.ingestor.IngestBatch(ctx, venue, payloads)
		if err != nil {
			c.logger.Error("ingest failed",
				slog.String("venue", venue),
				slog.String("error", err.Error()),
			)
			status.VenuesFailed = append(status.VenuesFailed, venue)
			continue
		}

		status.VenuesOK = append(status.VenuesOK, venue)
		status.QuotesStored += result.QuotesStored
		books = append(books, result.Books...)
	}

	if len(status.VenuesOK) == 0 {
		status.CompletedAt = time.Now().UTC()
		c.setStatus(status)
		return fmt.Errorf("pipeline: all venues failed: %w", domain.ErrFeedUnavailable)
	}

	ranked, err := c.detector.DetectAndRecord(ctx, books)
	if err != nil {
		status.CompletedAt = time.Now().UTC()
		c.setStatus(status)
		return fmt.Errorf("pipeline: detect: %w", err)
	}
	status.Opportunities = len(ranked)
	status.CompletedAt = time.Now().UTC()
	c.setStatus(status)

	c.logger.Info("cycle complete",
		slog.Int("venues_ok", len(status.VenuesOK)),
		slog.Int("venues_failed", len(status.VenuesFailed)),
		slog.Int("quotes_stored", status.QuotesStored),
		slog.Int("opportunities", status.Opportunities),
	)
	return nil
}

// RunLoop runs collection cycles on a repeating interval until the context is
// cancelled. Cycle failures are logged, not returned.
func (c *Collector) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := c.Run(ctx); err != nil {
		c.logger.Error("collection cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := c.Run(ctx); err != nil {
				c.logger.Error("collection cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// LastStatus returns the status of the most recent cycle. The zero value means
// no cycle has completed yet.
func (c *Collector) LastStatus() CycleStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Collector) setStatus(s CycleStatus) {
	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
}
