// Package normalize maps venue-specific raw payloads to canonical markets and
// probability-unit quotes.
package normalize

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
	"github.com/sharpagents/linesight/internal/odds"
)

// Venue identifiers understood by the normalizer. The adapter Name() values
// must match these.
const (
	VenueTheOdds = "theodds"
	VenueKalshi  = "kalshi"
)

var identityAliases = []string{"id", "market_id", "ticker", "event_id"}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// Normalizer converts raw venue payloads into domain markets and quotes.
type Normalizer struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log.With(slog.String("component", "normalizer"))}
}

// BatchReport is the result of normalizing one venue batch. Quotes[i] belongs
// to Markets[i].
type BatchReport struct {
	Markets []domain.Market
	Quotes  [][]domain.Quote
	Skipped int
	Issues  []string
}

// Normalize maps one raw payload to a market and its quotes. A payload with no
// usable identity fails with a NormalizationError; quote-level problems are
// tolerated and reduce the quote set instead.
func (n *Normalizer) Normalize(venue string, p domain.RawPayload) (domain.Market, []domain.Quote, error) {
	switch venue {
	case VenueTheOdds:
		return n.normalizeAggregator(venue, p)
	case VenueKalshi:
		return n.normalizeExchange(venue, p)
	default:
		return domain.Market{}, nil, &domain.NormalizationError{
			Venue: venue, Field: "venue", Reason: "unknown venue",
		}
	}
}

func (n *Normalizer) normalizeAggregator(venue string, p domain.RawPayload) (domain.Market, []domain.Quote, error) {
	ticker, ok := identity(p)
	if !ok {
		return domain.Market{}, nil, &domain.NormalizationError{
			Venue: venue, Field: "id", Reason: "no identity field",
		}
	}

	m := domain.Market{
		Venue:     venue,
		Ticker:    ticker,
		MarketKey: stringField(p, "sport_key"),
		Type:      domain.MarketTypeBinary,
	}

	home := stringField(p, "home_team")
	away := stringField(p, "away_team")
	if home != "" && away != "" {
		m.Title = fmt.Sprintf("%s vs %s", home, away)
		m.ParticipantA, m.ParticipantB = home, away
	} else {
		m.Title = stringField(p, "title")
		n.resolveParticipants(&m)
	}
	n.resolveEventTime(&m, p, "commence_time")

	captured := time.Now().UTC()
	var quotes []domain.Quote
	for _, bv := range sliceField(p, "bookmakers") {
		bm, ok := bv.(map[string]any)
		if !ok {
			continue
		}
		bookmaker := stringField(bm, "key")
		for _, mv := range sliceField(bm, "markets") {
			bmMarket, ok := mv.(map[string]any)
			if !ok {
				continue
			}
			for _, ov := range sliceField(bmMarket, "outcomes") {
				outcome, ok := ov.(map[string]any)
				if !ok {
					continue
				}
				name := stringField(outcome, "name")
				price, ok := floatField(outcome, "price")
				if name == "" || !ok {
					continue
				}
				prob, err := odds.ToProbability(price, odds.NotationAmerican)
				if err != nil {
					n.log.Warn("dropping quote with bad odds",
						slog.String("venue", venue),
						slog.String("ticker", ticker),
						slog.String("bookmaker", bookmaker),
						slog.Float64("price", price))
					continue
				}
				quotes = append(quotes, domain.Quote{
					Outcome:     name,
					Venue:       venue,
					Bookmaker:   bookmaker,
					Bid:         prob,
					Ask:         prob,
					ImpliedProb: prob,
					CapturedAt:  captured,
				})
			}
		}
	}

	return m, quotes, nil
}

func (n *Normalizer) normalizeExchange(venue string, p domain.RawPayload) (domain.Market, []domain.Quote, error) {
	ticker, ok := identity(p)
	if !ok {
		return domain.Market{}, nil, &domain.NormalizationError{
			Venue: venue, Field: "ticker", Reason: "no identity field",
		}
	}

	m := domain.Market{
		Venue:     venue,
		Ticker:    ticker,
		MarketKey: stringField(p, "event_ticker"),
		Title:     stringField(p, "title"),
		Type:      domain.MarketTypeBinary,
	}
	n.resolveParticipants(&m)
	n.resolveEventTime(&m, p, "close_time", "expiration_time")

	captured := time.Now().UTC()
	volume, _ := floatField(p, "volume")
	openInterest, _ := floatField(p, "open_interest")
	last := centsPrice(p, "last_price")

	var quotes []domain.Quote
	_, hasYesBid := p["yes_bid"]
	_, hasYesAsk := p["yes_ask"]
	if hasYesBid && hasYesAsk {
		q := domain.Quote{
			Outcome:      "yes",
			Venue:        venue,
			Bid:          centsPrice(p, "yes_bid"),
			Ask:          centsPrice(p, "yes_ask"),
			LastPrice:    last,
			Volume:       volume,
			OpenInterest: openInterest,
			CapturedAt:   captured,
		}
		q.ImpliedProb = q.Mid()
		quotes = append(quotes, q)
	}
	if _, ok := p["no_bid"]; ok {
		q := domain.Quote{
			Outcome:      "no",
			Venue:        venue,
			Bid:          centsPrice(p, "no_bid"),
			Ask:          centsPrice(p, "no_ask"),
			Volume:       volume,
			OpenInterest: openInterest,
			CapturedAt:   captured,
		}
		q.ImpliedProb = q.Mid()
		quotes = append(quotes, q)
	}

	return m, quotes, nil
}

// NormalizeBatch runs Normalize over a whole venue batch. A payload that fails
// normalization is skipped and reported; the batch continues.
func (n *Normalizer) NormalizeBatch(venue string, payloads []domain.RawPayload) BatchReport {
	r := BatchReport{
		Markets: make([]domain.Market, 0, len(payloads)),
		Quotes:  make([][]domain.Quote, 0, len(payloads)),
	}
	for _, p := range payloads {
		m, qs, err := n.Normalize(venue, p)
		if err != nil {
			r.Skipped++
			r.Issues = append(r.Issues, err.Error())
			continue
		}
		r.Markets = append(r.Markets, m)
		r.Quotes = append(r.Quotes, qs)
	}
	return r
}

func (n *Normalizer) resolveParticipants(m *domain.Market) {
	a, b, count := extractParticipants(m.Title)
	if count == 2 {
		m.ParticipantA, m.ParticipantB = a, b
		return
	}
	if count > 2 {
		n.log.Warn("ambiguous participants in title",
			slog.String("venue", m.Venue),
			slog.String("ticker", m.Ticker),
			slog.Int("matches", count))
	}
}

func (n *Normalizer) resolveEventTime(m *domain.Market, p domain.RawPayload, keys ...string) {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		if t, ok := parseEventTime(v); ok {
			m.EventTime = &t
			return
		}
		n.log.Warn("unparsable event time",
			slog.String("venue", m.Venue),
			slog.String("ticker", m.Ticker),
			slog.String("field", k),
			slog.Any("value", v))
		return
	}
}

func parseEventTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range eventTimeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC(), true
			}
		}
		if secs, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return time.Unix(int64(secs), 0).UTC(), true
		}
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case int:
		return time.Unix(int64(t), 0).UTC(), true
	}
	return time.Time{}, false
}

func identity(p domain.RawPayload) (string, bool) {
	for _, k := range identityAliases {
		if s := stringField(p, k); s != "" {
			return s, true
		}
	}
	return "", false
}

func stringField(p map[string]any, key string) string {
	if v, ok := p[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func sliceField(p map[string]any, key string) []any {
	if v, ok := p[key].([]any); ok {
		return v
	}
	return nil
}

func floatField(p map[string]any, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// centsPrice reads an exchange price quoted in integer cents and scales it to
// probability units. The division is unconditional: a 1-cent price is 0.01,
// not a probability that happens to fit in [0,1].
func centsPrice(p domain.RawPayload, key string) float64 {
	v, ok := floatField(p, key)
	if !ok {
		return 0
	}
	return v / 100
}
