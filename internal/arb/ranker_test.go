package arb

import (
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
)

func opps(profits ...float64) []domain.Opportunity {
	out := make([]domain.Opportunity, len(profits))
	for i, p := range profits {
		out[i] = domain.Opportunity{EventKey: "evt", ProfitPercent: p}
	}
	return out
}

func profits(in []domain.Opportunity) []float64 {
	out := make([]float64, len(in))
	for i, o := range in {
		out[i] = o.ProfitPercent
	}
	return out
}

func TestRank(t *testing.T) {
	tests := []struct {
		name         string
		in           []float64
		minThreshold float64
		topN         int
		want         []float64
	}{
		{"sorts descending", []float64{7, 2, 5}, 0.02, 0, []float64{7, 5, 2}},
		{"filters below threshold", []float64{7, 2, 5}, 0.06, 0, []float64{7}},
		{"threshold boundary kept", []float64{2.0, 1.9}, 0.02, 0, []float64{2.0}},
		{"truncates to topN", []float64{7, 2, 5, 9}, 0.02, 2, []float64{9, 7}},
		{"empty input", nil, 0.02, 0, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := profits(Rank(opps(tt.in...), tt.minThreshold, tt.topN))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRankStableForEqualProfit(t *testing.T) {
	in := []domain.Opportunity{
		{ID: "first", ProfitPercent: 5},
		{ID: "second", ProfitPercent: 5},
		{ID: "third", ProfitPercent: 8},
	}
	got := Rank(in, 0.02, 0)
	if got[0].ID != "third" || got[1].ID != "first" || got[2].ID != "second" {
		t.Errorf("order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}
