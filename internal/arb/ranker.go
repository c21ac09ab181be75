package arb

import (
	"sort"

	"github.com/sharpagents/linesight/internal/domain"
)

// Rank filters out opportunities below the minimum profit threshold
// (probability units), orders the rest by profit descending, and truncates to
// topN when topN > 0. Ordering is stable for equal profit.
func Rank(opps []domain.Opportunity, minThreshold float64, topN int) []domain.Opportunity {
	ranked := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.ProfitPercent >= minThreshold*100 {
			ranked = append(ranked, o)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ProfitPercent > ranked[j].ProfitPercent
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
