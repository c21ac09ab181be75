package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/service"
)

type fakeSource struct {
	payloads map[string][]domain.RawPayload
	fail     map[string]bool
}

func (f *fakeSource) Get(_ context.Context, feedKey string) ([]domain.RawPayload, error) {
	if f.fail[feedKey] {
		return nil, domain.ErrFeedUnavailable
	}
	return f.payloads[feedKey], nil
}

type fakeIngestor struct {
	calls []string
}

func (f *fakeIngestor) IngestBatch(_ context.Context, venue string, payloads []domain.RawPayload) (service.IngestResult, error) {
	f.calls = append(f.calls, venue)
	return service.IngestResult{
		Venue:        venue,
		QuotesStored: len(payloads),
		Books: []service.EventQuotes{{
			Market: domain.Market{Venue: venue, Ticker: "M1"},
		}},
	}, nil
}

type fakeDetector struct {
	books int
	opps  []domain.Opportunity
}

func (f *fakeDetector) DetectAndRecord(_ context.Context, books []service.EventQuotes) ([]domain.Opportunity, error) {
	f.books = len(books)
	return f.opps, nil
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCollectsAllVenues(t *testing.T) {
	source := &fakeSource{payloads: map[string][]domain.RawPayload{
		"theodds": {{"id": "a"}, {"id": "b"}},
		"kalshi":  {{"ticker": "c"}},
	}}
	ingestor := &fakeIngestor{}
	detector := &fakeDetector{opps: []domain.Opportunity{{ID: "o1"}}}

	c := NewCollector(source, ingestor, detector, []string{"theodds", "kalshi"}, testLog())
	if err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(ingestor.calls) != 2 {
		t.Errorf("ingested venues = %v", ingestor.calls)
	}
	if detector.books != 2 {
		t.Errorf("detector saw %d books, want 2", detector.books)
	}

	status := c.LastStatus()
	if len(status.VenuesOK) != 2 || len(status.VenuesFailed) != 0 {
		t.Errorf("status = %+v", status)
	}
	if status.QuotesStored != 3 || status.Opportunities != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestRunContinuesPastFailedVenue(t *testing.T) {
	source := &fakeSource{
		payloads: map[string][]domain.RawPayload{"kalshi": {{"ticker": "c"}}},
		fail:     map[string]bool{"theodds": true},
	}
	ingestor := &fakeIngestor{}
	detector := &fakeDetector{}

	c := NewCollector(source, ingestor, detector, []string{"theodds", "kalshi"}, testLog())
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("one healthy venue should not fail the cycle: %v", err)
	}

	status := c.LastStatus()
	if len(status.VenuesOK) != 1 || len(status.VenuesFailed) != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestRunFailsWhenAllVenuesDown(t *testing.T) {
	source := &fakeSource{fail: map[string]bool{"theodds": true, "kalshi": true}}
	c := NewCollector(source, &fakeIngestor{}, &fakeDetector{}, []string{"theodds", "kalshi"}, testLog())

	err := c.Run(context.Background())
	if !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Errorf("err = %v, want ErrFeedUnavailable", err)
	}
}
