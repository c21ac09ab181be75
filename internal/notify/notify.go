// Package notify delivers opportunity alerts to external channels. Alerts are
// dispatched to all registered senders (Telegram, Discord) and filtered by
// event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sharpagents/linesight/internal/domain"
)

// Event types emitted by the engine.
const (
	EventOpportunity = "opportunity_detected"
	EventFeedFailure = "feed_failure"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches alerts to one or more Senders. It maintains a set of
// allowed event types; events outside the set are dropped. An empty set
// allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders. Only
// events whose type appears in the events slice are forwarded; an empty slice
// allows all event types.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// OpportunityDetected formats and dispatches an alert for a single detected
// opportunity.
func (n *Notifier) OpportunityDetected(ctx context.Context, o domain.Opportunity) error {
	title := fmt.Sprintf("%s %.2f%%", opportunityLabel(o.Kind), o.ProfitPercent)
	return n.notify(ctx, EventOpportunity, title, FormatOpportunity(o))
}

// FeedFailure dispatches an alert for a venue that failed an entire cycle.
func (n *Notifier) FeedFailure(ctx context.Context, venue string, err error) error {
	title := "feed failure: " + venue
	return n.notify(ctx, EventFeedFailure, title, err.Error())
}

func (n *Notifier) notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func opportunityLabel(kind domain.OpportunityKind) string {
	switch kind {
	case domain.KindTrueArbitrage:
		return "arbitrage"
	case domain.KindCrossBookmaker:
		return "cross-bookmaker value"
	case domain.KindCrossPlatformBinary:
		return "cross-platform arbitrage"
	default:
		return string(kind)
	}
}

// FormatOpportunity renders an opportunity as a short multi-line message
// suitable for chat channels.
func FormatOpportunity(o domain.Opportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s vs %s\n", o.Participants[0], o.Participants[1])
	fmt.Fprintf(&b, "profit: %.2f%%", o.ProfitPercent)
	if o.TotalProbability > 0 {
		fmt.Fprintf(&b, " (probability sum %.4f)", o.TotalProbability)
	}

	for _, leg := range o.StakePlan {
		venue := leg.Venue
		if leg.Bookmaker != "" {
			venue += "/" + leg.Bookmaker
		}
		fmt.Fprintf(&b, "\n  %s @ %s: stake %.2f -> payout %.2f",
			leg.Outcome, venue, leg.Stake, leg.Payout)
	}
	for _, f := range o.Findings {
		fmt.Fprintf(&b, "\n  %s: %s %.4f vs %s %.4f (diff %.4f)",
			f.Outcome, f.BestBookmaker, f.BestProb, f.WorstBookmaker, f.WorstProb, f.Diff)
	}

	return b.String()
}
