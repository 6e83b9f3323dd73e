// Package csmarket is the REST client for the CSMarketAPI aggregated
// market-data service. It maps wire responses onto domain values and provider
// errors onto domain sentinels; retry of transient failures is left to the
// caller since every endpoint is an idempotent GET.
package csmarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aleckhoury/skinwatch/internal/domain"
)

const dateFormat = "2006-01-02"

// Client is the REST client for the CSMarketAPI service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a CSMarketAPI client.
//
// baseURL is the API root, e.g. "https://api.csmarketapi.com/v1".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetListingsLatest returns the current cross-market listings for an item.
func (c *Client) GetListingsLatest(ctx context.Context, itemName string, markets []domain.Market, currency domain.Currency) (domain.AggregatedListingSnapshot, error) {
	params := url.Values{}
	params.Set("market_hash_name", itemName)
	params.Set("markets", joinMarkets(markets))
	params.Set("currency", string(currency))

	body, err := c.doRequest(ctx, "/listings/latest/aggregated", params)
	if err != nil {
		return domain.AggregatedListingSnapshot{}, fmt.Errorf("csmarket: latest listings %q: %w", itemName, err)
	}

	var resp listingsLatestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AggregatedListingSnapshot{}, fmt.Errorf("csmarket: decode latest listings: %w", err)
	}

	return resp.toDomain(time.Now().UTC()), nil
}

// GetSalesHistory returns per-day sales records for an item over the
// inclusive [start, end] range, in the provider's day order.
func (c *Client) GetSalesHistory(ctx context.Context, itemName string, markets []domain.Market, start, end time.Time, currency domain.Currency) ([]domain.DailySalesRecord, error) {
	params := url.Values{}
	params.Set("market_hash_name", itemName)
	params.Set("markets", joinMarkets(markets))
	params.Set("start", start.Format(dateFormat))
	params.Set("end", end.Format(dateFormat))
	params.Set("currency", string(currency))

	body, err := c.doRequest(ctx, "/sales/history/aggregated", params)
	if err != nil {
		return nil, fmt.Errorf("csmarket: sales history %q: %w", itemName, err)
	}

	var resp salesHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("csmarket: decode sales history: %w", err)
	}

	return resp.toDomain()
}

// GetListingsHistory returns timestamped historical listing snapshots for an
// item.
func (c *Client) GetListingsHistory(ctx context.Context, itemName string, markets []domain.Market, currency domain.Currency) ([]domain.ListingsHistoryPoint, error) {
	params := url.Values{}
	params.Set("market_hash_name", itemName)
	params.Set("markets", joinMarkets(markets))
	params.Set("currency", string(currency))

	body, err := c.doRequest(ctx, "/listings/history/aggregated", params)
	if err != nil {
		return nil, fmt.Errorf("csmarket: listings history %q: %w", itemName, err)
	}

	var resp listingsHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("csmarket: decode listings history: %w", err)
	}

	return resp.toDomain()
}

// GetPlayerCounts returns daily concurrent player counts over the inclusive
// [start, end] range.
func (c *Client) GetPlayerCounts(ctx context.Context, start, end time.Time) ([]domain.PlayerCountPoint, error) {
	params := url.Values{}
	params.Set("start", start.Format(dateFormat))
	params.Set("end", end.Format(dateFormat))

	body, err := c.doRequest(ctx, "/players/history", params)
	if err != nil {
		return nil, fmt.Errorf("csmarket: player counts: %w", err)
	}

	var resp playerCountsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("csmarket: decode player counts: %w", err)
	}

	return resp.toDomain()
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, sends, and reads a GET request against the API.
func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes onto domain sentinel errors so
// callers can branch with errors.Is.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, apiErr.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, apiErr.Message)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, apiErr.Message)
	}
}

func joinMarkets(markets []domain.Market) string {
	names := make([]string, len(markets))
	for i, m := range markets {
		names[i] = string(m)
	}
	return strings.Join(names, ",")
}

// Compile-time interface check.
var _ domain.MarketDataProvider = (*Client)(nil)
