// Package odds converts between odds notations and implied probability.
package odds

import (
	"fmt"
	"math"

	"github.com/sharpagents/linesight/internal/domain"
)

// Notation identifies the encoding of an odds value.
type Notation string

const (
	// NotationAmerican is American odds: positive values express profit per
	// 100 staked, negative values express stake required to win 100.
	NotationAmerican Notation = "american"
	// NotationPrice is an already probability-like price in [0, 1].
	NotationPrice Notation = "price"
)

// ToProbability converts an odds value in the given notation to its implied
// probability, rounded to 4 decimal places. The result is always in (0, 1).
func ToProbability(v float64, notation Notation) (float64, error) {
	switch notation {
	case NotationAmerican:
		if v == 0 {
			return 0, fmt.Errorf("odds: american odds of 0: %w", domain.ErrInvalidOdds)
		}
		if v > 0 {
			return round4(100 / (v + 100)), nil
		}
		return round4(-v / (-v + 100)), nil
	case NotationPrice:
		if v <= 0 || v >= 1 {
			return 0, fmt.Errorf("odds: price %.4f outside (0,1): %w", v, domain.ErrInvalidOdds)
		}
		return round4(v), nil
	default:
		return 0, fmt.Errorf("odds: unknown notation %q: %w", notation, domain.ErrInvalidOdds)
	}
}

// ToAmericanOdds converts an implied probability back to American odds for
// display. It round-trips with ToProbability within floating tolerance for
// probabilities away from 0 and 1.
func ToAmericanOdds(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("odds: probability %.4f outside (0,1): %w", p, domain.ErrInvalidOdds)
	}
	if p >= 0.5 {
		// Favorite: negative odds.
		return -p * 100 / (1 - p), nil
	}
	// Underdog: positive odds.
	return 100 * (1 - p) / p, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
