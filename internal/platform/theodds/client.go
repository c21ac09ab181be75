// Package theodds is the venue adapter for The Odds API sportsbook
// aggregator.
package theodds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
)

const AdapterName = "theodds"

// Client is the REST client for The Odds API. Quota usage reported in the
// x-requests-remaining / x-requests-used response headers is surfaced through
// domain.FeedMeta.
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	regions    string
	markets    string
	httpClient *http.Client
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates a new The Odds API client.
//
// baseURL is the API root, e.g. "https://api.the-odds-api.com/v4".
// sport is the sport key, e.g. "americanfootball_nfl".
func NewClient(baseURL, apiKey, sport, regions string) *Client {
	if regions == "" {
		regions = "us"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sport:   sport,
		regions: regions,
		markets: "h2h",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Name() string { return AdapterName }

// FetchRaw returns the current odds events for the configured sport, one raw
// payload per event, in American odds format.
func (c *Client) FetchRaw(ctx context.Context) ([]domain.RawPayload, domain.FeedMeta, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", c.regions)
	params.Set("markets", c.markets)
	params.Set("oddsFormat", "american")

	fullURL := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(c.sport), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, domain.FeedMeta{}, fmt.Errorf("theodds: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.FeedMeta{}, fmt.Errorf("theodds: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.FeedMeta{}, fmt.Errorf("theodds: read response: %w", err)
	}

	meta := quotaMeta(resp.Header)

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, meta, err
	}

	var events []domain.RawPayload
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, meta, fmt.Errorf("theodds: decode events: %w", err)
	}

	return events, meta, nil
}

func quotaMeta(h http.Header) domain.FeedMeta {
	remaining := h.Get("x-requests-remaining")
	used := h.Get("x-requests-used")
	if remaining == "" && used == "" {
		return domain.FeedMeta{}
	}

	meta := domain.FeedMeta{HasQuota: true}
	if n, err := strconv.Atoi(remaining); err == nil {
		meta.RequestsRemaining = n
	}
	if n, err := strconv.Atoi(used); err == nil {
		meta.RequestsUsed = n
	}
	return meta
}

func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("theodds: unauthorized: %s", apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("theodds: rate limited: %s", apiErr.Message)
	case http.StatusNotFound:
		return fmt.Errorf("theodds: not found: %s", apiErr.Message)
	default:
		return fmt.Errorf("theodds: HTTP %d: %s", statusCode, apiErr.Message)
	}
}
