// Package kalshi is the venue adapter for the Kalshi exchange. Market data
// endpoints are public; no request signing is required for reads.
package kalshi

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

const AdapterName = "kalshi"

const maxPages = 10

// Client is the REST client for the Kalshi market data API.
type Client struct {
	baseURL      string
	seriesTicker string
	pageLimit    int
	httpClient   *http.Client
}

var _ domain.VenueAdapter = (*Client)(nil)

// NewClient creates a new Kalshi market data client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// seriesTicker optionally restricts results to one series, e.g. "KXNFLGAME".
func NewClient(baseURL, seriesTicker string) *Client {
	return &Client{
		baseURL:      baseURL,
		seriesTicker: seriesTicker,
		pageLimit:    200,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Name() string { return AdapterName }

// FetchRaw returns all open markets (optionally within the configured series),
// one raw payload per market. Prices in the payloads are exchange cents.
func (c *Client) FetchRaw(ctx context.Context) ([]domain.RawPayload, domain.FeedMeta, error) {
	var all []domain.RawPayload
	cursor := ""

	for page := 0; page < maxPages; page++ {
		markets, next, err := c.getMarkets(ctx, cursor)
		if err != nil {
			return nil, domain.FeedMeta{}, err
		}
		all = append(all, markets...)
		if next == "" || len(markets) == 0 {
			break
		}
		cursor = next
	}

	return all, domain.FeedMeta{}, nil
}

func (c *Client) getMarkets(ctx context.Context, cursor string) ([]domain.RawPayload, string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("status", "open")
	if c.seriesTicker != "" {
		params.Set("series_ticker", c.seriesTicker)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	fullURL := c.baseURL + "/markets?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, "", err
	}

	var page struct {
		Markets []domain.RawPayload `json:"markets"`
		Cursor  string              `json:"cursor"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}

	return page.Markets, page.Cursor, nil
}

func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("kalshi: not found: %s (%s)", apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("kalshi: rate limited: %s (%s)", apiErr.Message, apiErr.Code)
	case http.StatusBadRequest:
		return fmt.Errorf("kalshi: bad request: %s (%s)", apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("kalshi: HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
