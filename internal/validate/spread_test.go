package validate

import (
	"strings"
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		quote     domain.Quote
		wantOK    bool
		wantIssue string // substring expected in issues; empty means no issues
	}{
		{"healthy", domain.Quote{Bid: 0.3, Ask: 0.32}, true, ""},
		{"zero width", domain.Quote{Bid: 0.5, Ask: 0.5}, true, ""},
		{"ask below bid", domain.Quote{Bid: 0.6, Ask: 0.55}, false, "below bid"},
		{"negative bid", domain.Quote{Bid: -0.1, Ask: 0.2}, false, "outside [0,1]"},
		{"ask above one", domain.Quote{Bid: 0.9, Ask: 1.2}, false, "outside [0,1]"},
		{"wide spread warning", domain.Quote{Bid: 0.2, Ask: 0.45}, true, "spread"},
		{"empty book", domain.Quote{Bid: 0, Ask: 0}, false, "outside (0,1)"},
		{"settled book", domain.Quote{Bid: 1, Ask: 1}, false, "outside (0,1)"},
		{"one-sided longshot", domain.Quote{Bid: 0, Ask: 0.03}, true, ""},
	}

	v := New(0.20, 0.10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.quote
			ok, issues := v.Validate(&q)
			if ok != tt.wantOK {
				t.Errorf("Validate(%+v) ok = %v, want %v (issues: %v)", tt.quote, ok, tt.wantOK, issues)
			}
			if tt.wantIssue == "" {
				if len(issues) != 0 {
					t.Errorf("unexpected issues: %v", issues)
				}
				return
			}
			found := false
			for _, is := range issues {
				if strings.Contains(is, tt.wantIssue) {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %v missing %q", issues, tt.wantIssue)
			}
		})
	}
}

func TestValidateSetsSpread(t *testing.T) {
	v := New(0.20, 0.10)
	q := domain.Quote{Bid: 0.40, Ask: 0.47}
	v.Validate(&q)
	if got := q.Spread; got < 0.0699 || got > 0.0701 {
		t.Errorf("Spread = %v, want 0.07", got)
	}
}

func TestCheckComplement(t *testing.T) {
	v := New(0.20, 0.10)

	yes := domain.Quote{Bid: 0.48, Ask: 0.52}
	no := domain.Quote{Bid: 0.46, Ask: 0.50}
	if ok, issue := v.CheckComplement(yes, no); !ok {
		t.Errorf("complement within tolerance flagged: %s", issue)
	}

	// Midpoints sum to 0.75, outside the 10% band.
	stale := domain.Quote{Bid: 0.23, Ask: 0.27}
	if ok, issue := v.CheckComplement(yes, stale); ok || issue == "" {
		t.Error("complement outside tolerance not flagged")
	}
}
