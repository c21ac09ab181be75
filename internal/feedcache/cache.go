// Package feedcache caches raw feed payloads with a TTL, collapses concurrent
// fetches for the same feed, and paces outbound requests globally.
package feedcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sharpagents/linesight/internal/domain"
)

const (
	defaultTTL         = 300 * time.Second
	defaultMinInterval = time.Second
	defaultQuotaWarnAt = 50
	graceMultiplier    = 3
)

// Options tunes cache behavior. Zero values take the defaults above; Grace
// defaults to 3x the TTL.
type Options struct {
	TTL         time.Duration
	Grace       time.Duration
	MinInterval time.Duration
	QuotaWarnAt int
}

type entry struct {
	payloads  []domain.RawPayload
	fetchedAt time.Time
}

// Cache fronts a set of venue adapters keyed by adapter name. Get returns
// cached payloads while fresh, refetches once per key on expiry regardless of
// caller concurrency, and serves a stale entry within the grace window when
// the upstream fetch fails.
type Cache struct {
	ttl         time.Duration
	grace       time.Duration
	minInterval time.Duration
	quotaWarnAt int
	log         *slog.Logger

	adapters map[string]domain.VenueAdapter
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]entry

	paceMu   sync.Mutex
	nextCall time.Time
}

func New(adapters []domain.VenueAdapter, opts Options, log *slog.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Grace <= 0 {
		opts.Grace = graceMultiplier * opts.TTL
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = defaultMinInterval
	}
	if opts.QuotaWarnAt <= 0 {
		opts.QuotaWarnAt = defaultQuotaWarnAt
	}

	byName := make(map[string]domain.VenueAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Cache{
		ttl:         opts.TTL,
		grace:       opts.Grace,
		minInterval: opts.MinInterval,
		quotaWarnAt: opts.QuotaWarnAt,
		log:         log.With(slog.String("component", "feedcache")),
		adapters:    byName,
		entries:     make(map[string]entry),
	}
}

// Get returns the raw payloads for a feed key. The caller's context bounds
// only its own wait: the shared refresh runs detached so one caller's short
// deadline cannot fail every waiter on the same flight. The fetch itself is
// bounded by the adapter's HTTP timeout; there is no internal retry.
func (c *Cache) Get(ctx context.Context, feedKey string) ([]domain.RawPayload, error) {
	if payloads, ok := c.fresh(feedKey); ok {
		return payloads, nil
	}

	ch := c.group.DoChan(feedKey, func() (any, error) {
		// A concurrent caller may have refreshed the entry while this one
		// waited on the flight.
		if payloads, ok := c.fresh(feedKey); ok {
			return payloads, nil
		}
		return c.refresh(context.WithoutCancel(ctx), feedKey)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("feedcache: %s: %w", feedKey, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.RawPayload), nil
	}
}

func (c *Cache) fresh(feedKey string) ([]domain.RawPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[feedKey]
	if !ok || time.Since(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.payloads, true
}

func (c *Cache) refresh(ctx context.Context, feedKey string) ([]domain.RawPayload, error) {
	adapter, ok := c.adapters[feedKey]
	if !ok {
		return nil, fmt.Errorf("feedcache: unknown feed %q: %w", feedKey, domain.ErrFeedUnavailable)
	}

	if err := c.pace(ctx); err != nil {
		return nil, fmt.Errorf("feedcache: %s: %w", feedKey, err)
	}

	payloads, meta, err := adapter.FetchRaw(ctx)
	if err != nil {
		if stale, ok := c.staleWithinGrace(feedKey); ok {
			c.log.Warn("fetch failed, serving stale payloads",
				slog.String("feed", feedKey),
				slog.String("error", err.Error()))
			return stale, nil
		}
		return nil, fmt.Errorf("feedcache: %s: %v: %w", feedKey, err, domain.ErrFeedUnavailable)
	}

	c.logQuota(feedKey, meta)

	c.mu.Lock()
	c.entries[feedKey] = entry{payloads: payloads, fetchedAt: time.Now()}
	c.mu.Unlock()
	return payloads, nil
}

func (c *Cache) staleWithinGrace(feedKey string) ([]domain.RawPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[feedKey]
	if !ok || time.Since(e.fetchedAt) >= c.grace {
		return nil, false
	}
	return e.payloads, true
}

// pace enforces the minimum interval between upstream calls across all feed
// keys. Each caller reserves the next slot up front so concurrent refreshes
// queue instead of bursting.
func (c *Cache) pace(ctx context.Context) error {
	c.paceMu.Lock()
	now := time.Now()
	wait := time.Duration(0)
	if c.nextCall.After(now) {
		wait = c.nextCall.Sub(now)
	}
	c.nextCall = now.Add(wait + c.minInterval)
	c.paceMu.Unlock()

	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Cache) logQuota(feedKey string, meta domain.FeedMeta) {
	if !meta.HasQuota {
		return
	}
	if meta.RequestsRemaining < c.quotaWarnAt {
		c.log.Warn("feed quota running low",
			slog.String("feed", feedKey),
			slog.Int("remaining", meta.RequestsRemaining),
			slog.Int("used", meta.RequestsUsed))
		return
	}
	c.log.Info("feed quota",
		slog.String("feed", feedKey),
		slog.Int("remaining", meta.RequestsRemaining),
		slog.Int("used", meta.RequestsUsed))
}
