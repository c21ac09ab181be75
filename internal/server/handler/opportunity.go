package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/service"
)

// OpportunityHandler serves detected opportunities.
type OpportunityHandler struct {
	arb    *service.ArbService
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler.
func NewOpportunityHandler(arb *service.ArbService, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{arb: arb, logger: logger}
}

type stakeLegView struct {
	Outcome     string  `json:"outcome"`
	Venue       string  `json:"venue"`
	Bookmaker   string  `json:"bookmaker,omitempty"`
	Probability float64 `json:"probability"`
	Stake       float64 `json:"stake"`
	Payout      float64 `json:"payout"`
}

type findingView struct {
	Outcome        string  `json:"outcome"`
	BestBookmaker  string  `json:"best_bookmaker"`
	WorstBookmaker string  `json:"worst_bookmaker"`
	BestProb       float64 `json:"best_prob"`
	WorstProb      float64 `json:"worst_prob"`
	Diff           float64 `json:"diff"`
}

type opportunityView struct {
	ID               string         `json:"id"`
	EventKey         string         `json:"event_key"`
	Kind             string         `json:"kind"`
	Participants     [2]string      `json:"participants"`
	ProfitPercent    float64        `json:"profit_percent"`
	TotalProbability float64        `json:"total_probability,omitempty"`
	StakePlan        []stakeLegView `json:"stake_plan,omitempty"`
	Findings         []findingView  `json:"findings,omitempty"`
	DetectedAt       time.Time      `json:"detected_at"`
}

func toOpportunityView(o domain.Opportunity) opportunityView {
	v := opportunityView{
		ID:               o.ID,
		EventKey:         o.EventKey,
		Kind:             string(o.Kind),
		Participants:     o.Participants,
		ProfitPercent:    o.ProfitPercent,
		TotalProbability: o.TotalProbability,
		DetectedAt:       o.DetectedAt,
	}
	for _, leg := range o.StakePlan {
		v.StakePlan = append(v.StakePlan, stakeLegView{
			Outcome:     leg.Outcome,
			Venue:       leg.Venue,
			Bookmaker:   leg.Bookmaker,
			Probability: leg.Probability,
			Stake:       leg.Stake,
			Payout:      leg.Payout,
		})
	}
	for _, f := range o.Findings {
		v.Findings = append(v.Findings, findingView{
			Outcome:        f.Outcome,
			BestBookmaker:  f.BestBookmaker,
			WorstBookmaker: f.WorstBookmaker,
			BestProb:       f.BestProb,
			WorstProb:      f.WorstProb,
			Diff:           f.Diff,
		})
	}
	return v
}

// ListRecent returns the most recently detected opportunities. An optional
// "since" query parameter (RFC3339) switches to a time-bounded, best-first
// listing.
// GET /api/opportunities
func (h *OpportunityHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := parseListOpts(r).Limit

	var (
		opps []domain.Opportunity
		err  error
	)
	if sinceRaw := r.URL.Query().Get("since"); sinceRaw != "" {
		since, parseErr := time.Parse(time.RFC3339, sinceRaw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid since parameter, want RFC3339")
			return
		}
		opps, err = h.arb.OpportunitiesSince(r.Context(), since, limit)
	} else {
		opps, err = h.arb.RecentOpportunities(r.Context(), limit)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list opportunities failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	views := make([]opportunityView, 0, len(opps))
	for _, o := range opps {
		views = append(views, toOpportunityView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"opportunities": views, "count": len(views)})
}
