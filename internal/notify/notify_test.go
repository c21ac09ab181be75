package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		Kind:             domain.KindTrueArbitrage,
		Participants:     [2]string{"chiefs", "bills"},
		ProfitPercent:    7.0,
		TotalProbability: 0.93,
		StakePlan: []domain.StakeLeg{
			{Outcome: "chiefs", Venue: "theodds", Bookmaker: "draftkings", Stake: 50.54, Payout: 107.53},
			{Outcome: "bills", Venue: "kalshi", Stake: 49.46, Payout: 107.53},
		},
	}
}

func TestOpportunityDetectedDispatches(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, slog.Default())

	if err := n.OpportunityDetected(context.Background(), testOpportunity()); err != nil {
		t.Fatalf("OpportunityDetected() = %v", err)
	}
	if len(a.titles) != 1 || len(b.titles) != 1 {
		t.Fatalf("sends = %d/%d, want 1/1", len(a.titles), len(b.titles))
	}
	if !strings.Contains(a.titles[0], "arbitrage") || !strings.Contains(a.titles[0], "7.00%") {
		t.Errorf("title = %q", a.titles[0])
	}
}

func TestEventFilter(t *testing.T) {
	s := &recordingSender{name: "s"}
	n := NewNotifier([]Sender{s}, []string{EventFeedFailure}, slog.Default())

	if err := n.OpportunityDetected(context.Background(), testOpportunity()); err != nil {
		t.Fatalf("OpportunityDetected() = %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("filtered event was delivered: %v", s.titles)
	}

	if err := n.FeedFailure(context.Background(), "kalshi", errors.New("timeout")); err != nil {
		t.Fatalf("FeedFailure() = %v", err)
	}
	if len(s.titles) != 1 {
		t.Errorf("sends = %d, want 1", len(s.titles))
	}
}

func TestSenderFailureDoesNotBlockOthers(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.Default())

	err := n.OpportunityDetected(context.Background(), testOpportunity())
	if err == nil {
		t.Fatal("want combined error from failed sender")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("err = %v, want it to name the failed sender", err)
	}
	if len(good.titles) != 1 {
		t.Errorf("good sender sends = %d, want 1", len(good.titles))
	}
}

func TestFormatOpportunity(t *testing.T) {
	msg := FormatOpportunity(testOpportunity())

	for _, want := range []string{
		"chiefs vs bills",
		"profit: 7.00%",
		"probability sum 0.9300",
		"theodds/draftkings",
		"stake 50.54",
		"payout 107.53",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
