package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/service"
)

// MarketHandler serves read-only market and quote endpoints.
type MarketHandler struct {
	markets *service.MarketService
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets *service.MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logger}
}

type marketView struct {
	ID           string     `json:"id"`
	Venue        string     `json:"venue"`
	Ticker       string     `json:"ticker"`
	MarketKey    string     `json:"market_key,omitempty"`
	Title        string     `json:"title"`
	EventTime    *time.Time `json:"event_time,omitempty"`
	ParticipantA string     `json:"participant_a,omitempty"`
	ParticipantB string     `json:"participant_b,omitempty"`
	Type         string     `json:"type"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type quoteView struct {
	Outcome     string    `json:"outcome"`
	Venue       string    `json:"venue"`
	Bookmaker   string    `json:"bookmaker,omitempty"`
	Bid         float64   `json:"bid"`
	Ask         float64   `json:"ask"`
	Spread      float64   `json:"spread"`
	ImpliedProb float64   `json:"implied_prob"`
	CapturedAt  time.Time `json:"captured_at"`
}

func toMarketView(m domain.Market) marketView {
	return marketView{
		ID:           m.ID,
		Venue:        m.Venue,
		Ticker:       m.Ticker,
		MarketKey:    m.MarketKey,
		Title:        m.Title,
		EventTime:    m.EventTime,
		ParticipantA: m.ParticipantA,
		ParticipantB: m.ParticipantB,
		Type:         string(m.Type),
		UpdatedAt:    m.UpdatedAt,
	}
}

func toQuoteView(q domain.Quote) quoteView {
	return quoteView{
		Outcome:     q.Outcome,
		Venue:       q.Venue,
		Bookmaker:   q.Bookmaker,
		Bid:         q.Bid,
		Ask:         q.Ask,
		Spread:      q.Spread,
		ImpliedProb: q.ImpliedProb,
		CapturedAt:  q.CapturedAt,
	}
}

// ListMarkets returns markets with pagination and optional venue filtering.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.markets.ListMarkets(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list markets failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}

	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, toMarketView(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": views, "count": len(views)})
}

// GetMarket returns a single market by its natural key.
// GET /api/markets/{venue}/{ticker}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	venue, ticker := r.PathValue("venue"), r.PathValue("ticker")

	m, err := h.markets.GetMarket(r.Context(), venue, ticker)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get market failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get market")
		return
	}
	writeJSON(w, http.StatusOK, toMarketView(m))
}

// GetQuotes returns the latest quote snapshots for a market.
// GET /api/markets/{venue}/{ticker}/quotes
func (h *MarketHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	venue, ticker := r.PathValue("venue"), r.PathValue("ticker")

	quotes, err := h.markets.LatestQuotes(r.Context(), venue, ticker, parseListOpts(r).Limit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "market not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get quotes failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get quotes")
		return
	}

	views := make([]quoteView, 0, len(quotes))
	for _, q := range quotes {
		views = append(views, toQuoteView(q))
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": views, "count": len(views)})
}
