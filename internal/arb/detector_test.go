package arb

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
)

func testDetector(threshold float64) *Detector {
	return NewDetector(threshold, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func quote(outcome, venue, bookmaker string, prob float64) domain.Quote {
	return domain.Quote{
		Outcome: outcome, Venue: venue, Bookmaker: bookmaker,
		Bid: prob, Ask: prob, ImpliedProb: prob,
	}
}

func TestDetectTrueArbitrage(t *testing.T) {
	d := testDetector(0.02)
	book := EventBook{
		EventKey:     "theodds:evt-1",
		Participants: [2]string{"Chiefs", "Bills"},
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {quote("Chiefs", "theodds", "draftkings", 0.52), quote("Chiefs", "theodds", "fanduel", 0.48)},
			"Bills":  {quote("Bills", "theodds", "draftkings", 0.45), quote("Bills", "theodds", "fanduel", 0.50)},
		},
	}

	opp, ok := d.DetectTrueArbitrage(book)
	if !ok {
		t.Fatal("expected true arbitrage at 0.48 + 0.45 = 0.93")
	}
	if opp.Kind != domain.KindTrueArbitrage {
		t.Errorf("kind = %s", opp.Kind)
	}
	if math.Abs(opp.ProfitPercent-7.0) > 1e-9 {
		t.Errorf("profit = %v, want 7.0", opp.ProfitPercent)
	}
	if math.Abs(opp.TotalProbability-0.93) > 1e-9 {
		t.Errorf("total probability = %v, want 0.93", opp.TotalProbability)
	}
	if opp.ID == "" || opp.EventKey != "theodds:evt-1" {
		t.Errorf("identity = %q / %q", opp.ID, opp.EventKey)
	}
}

func TestStakePlanOddsProportional(t *testing.T) {
	d := testDetector(0.02)
	book := EventBook{
		EventKey: "theodds:evt-1",
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {quote("Chiefs", "theodds", "fanduel", 0.48)},
			"Bills":  {quote("Bills", "theodds", "draftkings", 0.45)},
		},
	}
	opp, ok := d.DetectTrueArbitrage(book)
	if !ok {
		t.Fatal("expected arbitrage")
	}
	if len(opp.StakePlan) != 2 {
		t.Fatalf("got %d legs", len(opp.StakePlan))
	}

	var totalStake float64
	wantPayout := 100 / 0.93
	for _, leg := range opp.StakePlan {
		totalStake += leg.Stake
		if math.Abs(leg.Payout-wantPayout) > 1e-9 {
			t.Errorf("leg %s payout = %v, want %v", leg.Outcome, leg.Payout, wantPayout)
		}
		if math.Abs(leg.Stake-100*leg.Probability/0.93) > 1e-9 {
			t.Errorf("leg %s stake = %v not proportional to %v", leg.Outcome, leg.Stake, leg.Probability)
		}
	}
	if math.Abs(totalStake-100) > 1e-9 {
		t.Errorf("stakes sum to %v, want 100", totalStake)
	}
	// Guaranteed profit equals payout minus total staked.
	if profit := wantPayout - 100; math.Abs(profit-7.5268817204) > 1e-6 {
		t.Errorf("guaranteed profit = %v", profit)
	}
}

func TestDetectTrueArbitrageNone(t *testing.T) {
	d := testDetector(0.02)

	tests := []struct {
		name string
		book EventBook
	}{
		{
			"efficient market",
			EventBook{Outcomes: map[string][]domain.Quote{
				"Chiefs": {quote("Chiefs", "theodds", "draftkings", 0.55)},
				"Bills":  {quote("Bills", "theodds", "draftkings", 0.50)},
			}},
		},
		{
			"inside threshold",
			EventBook{Outcomes: map[string][]domain.Quote{
				"Chiefs": {quote("Chiefs", "theodds", "draftkings", 0.50)},
				"Bills":  {quote("Bills", "theodds", "draftkings", 0.49)},
			}},
		},
		{
			"single outcome",
			EventBook{Outcomes: map[string][]domain.Quote{
				"yes": {quote("yes", "kalshi", "", 0.40)},
			}},
		},
		{
			"no quotes",
			EventBook{Outcomes: map[string][]domain.Quote{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := d.DetectTrueArbitrage(tt.book); ok {
				t.Error("unexpected arbitrage")
			}
		})
	}
}

func TestDetectCrossBookmaker(t *testing.T) {
	book := EventBook{
		EventKey: "theodds:evt-2",
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {
				quote("Chiefs", "theodds", "draftkings", 0.50),
				quote("Chiefs", "theodds", "fanduel", 0.62),
			},
			"Bills": {
				quote("Bills", "theodds", "draftkings", 0.48),
				quote("Bills", "theodds", "fanduel", 0.50),
			},
		},
	}

	// diff 0.12 clears a 0.10 threshold on one outcome only.
	opp, ok := testDetector(0.10).DetectCrossBookmaker(book)
	if !ok {
		t.Fatal("expected cross-bookmaker finding at diff 0.12")
	}
	if len(opp.Findings) != 1 {
		t.Fatalf("findings = %+v", opp.Findings)
	}
	f := opp.Findings[0]
	if f.Outcome != "Chiefs" || f.BestBookmaker != "draftkings" || f.WorstBookmaker != "fanduel" {
		t.Errorf("finding = %+v", f)
	}
	if math.Abs(f.Diff-0.12) > 1e-9 {
		t.Errorf("diff = %v, want 0.12", f.Diff)
	}
	if math.Abs(opp.ProfitPercent-12.0) > 1e-9 {
		t.Errorf("profit = %v, want 12.0", opp.ProfitPercent)
	}

	// Same book under a 0.15 threshold yields nothing.
	if _, ok := testDetector(0.15).DetectCrossBookmaker(book); ok {
		t.Error("diff 0.12 should not clear threshold 0.15")
	}
}

func TestDetectCrossBookmakerSingleQuoteOutcome(t *testing.T) {
	book := EventBook{
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {quote("Chiefs", "theodds", "draftkings", 0.30)},
			"Bills":  {quote("Bills", "theodds", "fanduel", 0.80)},
		},
	}
	if _, ok := testDetector(0.02).DetectCrossBookmaker(book); ok {
		t.Error("outcomes with one quote each cannot be compared")
	}
}

func TestDetectCrossPlatformBinary(t *testing.T) {
	d := testDetector(0.02)
	book := EventBook{
		EventKey:     "match:chiefs-bills",
		Participants: [2]string{"Chiefs", "Bills"},
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {
				quote("Chiefs", "theodds", "draftkings", 0.47),
				quote("Chiefs", "kalshi", "", 0.52),
			},
			"Bills": {
				quote("Bills", "theodds", "draftkings", 0.55),
				quote("Bills", "kalshi", "", 0.46),
			},
		},
	}

	opp, ok := d.DetectCrossPlatformBinary(book)
	if !ok {
		t.Fatal("expected cross-platform arbitrage at 0.47 + 0.46 = 0.93")
	}
	if opp.Kind != domain.KindCrossPlatformBinary {
		t.Errorf("kind = %s", opp.Kind)
	}
	if math.Abs(opp.TotalProbability-0.93) > 1e-9 {
		t.Errorf("total probability = %v", opp.TotalProbability)
	}
	if len(opp.StakePlan) != 2 {
		t.Fatalf("stake plan = %+v", opp.StakePlan)
	}
	if opp.StakePlan[0].Venue == opp.StakePlan[1].Venue {
		t.Errorf("legs on same venue: %+v", opp.StakePlan)
	}
}

func TestDetectCrossPlatformBinarySingleVenue(t *testing.T) {
	d := testDetector(0.02)
	book := EventBook{
		Outcomes: map[string][]domain.Quote{
			"Chiefs": {quote("Chiefs", "theodds", "draftkings", 0.40)},
			"Bills":  {quote("Bills", "theodds", "fanduel", 0.40)},
		},
	}
	if _, ok := d.DetectCrossPlatformBinary(book); ok {
		t.Error("both legs on one venue must not count as cross-platform")
	}
}
