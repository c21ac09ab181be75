package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sharpagents/linesight/internal/domain"
)

// SummaryCache implements domain.SummaryCache using Redis string values.
// Each market's latest summary is stored as JSON at key
// "summary:{venue}:{ticker}" with a TTL so abandoned markets age out.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.SummaryCache = (*SummaryCache)(nil)

// NewSummaryCache creates a SummaryCache backed by the given Client. A
// non-positive ttl defaults to one hour.
func NewSummaryCache(c *Client, ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SummaryCache{rdb: c.Underlying(), ttl: ttl}
}

func summaryKey(venue, ticker string) string {
	return "summary:" + venue + ":" + ticker
}

// SetSummary stores the latest quote summary for a market.
func (sc *SummaryCache) SetSummary(ctx context.Context, s domain.QuoteSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal summary %s/%s: %w", s.Venue, s.Ticker, err)
	}
	if err := sc.rdb.Set(ctx, summaryKey(s.Venue, s.Ticker), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set summary %s/%s: %w", s.Venue, s.Ticker, err)
	}
	return nil
}

// GetSummary retrieves the latest quote summary for a market. It returns
// domain.ErrNotFound when no summary is cached.
func (sc *SummaryCache) GetSummary(ctx context.Context, venue, ticker string) (domain.QuoteSummary, error) {
	data, err := sc.rdb.Get(ctx, summaryKey(venue, ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.QuoteSummary{}, domain.ErrNotFound
		}
		return domain.QuoteSummary{}, fmt.Errorf("redis: get summary %s/%s: %w", venue, ticker, err)
	}

	var s domain.QuoteSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.QuoteSummary{}, fmt.Errorf("redis: unmarshal summary %s/%s: %w", venue, ticker, err)
	}
	return s, nil
}
