package domain

import "context"

// RawPayload is an opaque, venue-specific record as returned by a data feed.
// It is only interpreted by the normalizer.
type RawPayload map[string]any

// FeedMeta carries request-quota telemetry surfaced by a data feed, when the
// feed reports any.
type FeedMeta struct {
	RequestsRemaining int
	RequestsUsed      int
	HasQuota          bool
}

// VenueAdapter fetches raw market payloads from one venue. Implementations are
// selected by configuration.
type VenueAdapter interface {
	Name() string
	FetchRaw(ctx context.Context) ([]RawPayload, FeedMeta, error)
}
