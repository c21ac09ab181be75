package odds

import (
	"errors"
	"math"
	"testing"

	"github.com/sharpagents/linesight/internal/domain"
)

func TestToProbabilityAmerican(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"plus 100", 100, 0.5},
		{"plus 150", 150, 0.4},
		{"plus 300", 300, 0.25},
		{"minus 110", -110, 0.5238},
		{"minus 150", -150, 0.6},
		{"minus 400", -400, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToProbability(tt.in, NotationAmerican)
			if err != nil {
				t.Fatalf("ToProbability(%v): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ToProbability(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if tt.in > 0 && (got <= 0 || got >= 0.5) {
				t.Errorf("positive odds %v gave probability %v, want (0, 0.5)", tt.in, got)
			}
			if tt.in < 0 && (got <= 0.5 || got >= 1) {
				t.Errorf("negative odds %v gave probability %v, want (0.5, 1)", tt.in, got)
			}
		})
	}
}

func TestToProbabilityInvalid(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		notation Notation
	}{
		{"american zero", 0, NotationAmerican},
		{"price zero", 0, NotationPrice},
		{"price one", 1, NotationPrice},
		{"price negative", -0.2, NotationPrice},
		{"price above one", 1.5, NotationPrice},
		{"unknown notation", 0.5, Notation("decimal")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToProbability(tt.in, tt.notation); !errors.Is(err, domain.ErrInvalidOdds) {
				t.Errorf("ToProbability(%v, %q) err = %v, want ErrInvalidOdds", tt.in, tt.notation, err)
			}
		})
	}
}

func TestToProbabilityPricePassthrough(t *testing.T) {
	got, err := ToProbability(0.12345, NotationPrice)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.1235 {
		t.Errorf("price passthrough = %v, want 0.1235 (rounded to 4 decimals)", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, p := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		american, err := ToAmericanOdds(p)
		if err != nil {
			t.Fatalf("ToAmericanOdds(%v): %v", p, err)
		}
		back, err := ToProbability(american, NotationAmerican)
		if err != nil {
			t.Fatalf("ToProbability(%v): %v", american, err)
		}
		if math.Abs(back-p) > 1e-3 {
			t.Errorf("round trip %v -> %v -> %v, want within 1e-3", p, american, back)
		}
	}
}

func TestToAmericanOddsInvalid(t *testing.T) {
	for _, p := range []float64{0, 1, -0.5, 1.2} {
		if _, err := ToAmericanOdds(p); !errors.Is(err, domain.ErrInvalidOdds) {
			t.Errorf("ToAmericanOdds(%v) err = %v, want ErrInvalidOdds", p, err)
		}
	}
}
