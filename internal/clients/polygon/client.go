// Package polygon provides a client for the Polygon.io API
package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

const (
	DefaultBaseURL   = "https://api.polygon.io"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements DataProvider over the Polygon aggregates API. It is the
// failover provider behind Finnhub.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

var _ interfaces.DataProvider = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new Polygon client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the provider.
func (c *Client) Name() string { return "polygon" }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Polygon API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Polygon API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// rangeFor maps Horizon intervals onto Polygon multiplier/timespan pairs.
func rangeFor(interval string) (int, string) {
	switch interval {
	case "15m":
		return 15, "minute"
	case "1h":
		return 1, "hour"
	case "1wk":
		return 1, "week"
	default:
		return 1, "day"
	}
}

// FetchPriceHistory returns the bar series for the ticker.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (*models.BarSeries, error) {
	now := time.Now().UTC()
	lookback := 365 * 24 * time.Hour
	if period == "60d" {
		lookback = 60 * 24 * time.Hour
	}

	multiplier, timespan := rangeFor(interval)
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		ticker, multiplier, timespan,
		now.Add(-lookback).Format("2006-01-02"), now.Format("2006-01-02"))

	params := url.Values{}
	params.Set("adjusted", "true")
	params.Set("sort", "asc")
	params.Set("limit", "50000")

	var resp struct {
		Results []struct {
			Open   float64 `json:"o"`
			High   float64 `json:"h"`
			Low    float64 `json:"l"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
			Time   int64   `json:"t"` // unix ms
		} `json:"results"`
		ResultsCount int    `json:"resultsCount"`
		Status       string `json:"status"`
	}
	if err := c.get(ctx, path, params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", models.ErrProviderThrottled, ticker)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	if resp.ResultsCount == 0 || len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTickerNotFound, ticker)
	}
	if len(resp.Results) < models.MinBarsForHistory {
		return nil, fmt.Errorf("%w: %s has %d bars", models.ErrLiquidityHalt, ticker, len(resp.Results))
	}

	series := &models.BarSeries{
		Ticker:    ticker,
		Interval:  interval,
		Provider:  c.Name(),
		Bars:      make([]models.Bar, 0, len(resp.Results)),
		FetchedAt: now,
	}
	for _, r := range resp.Results {
		series.Bars = append(series.Bars, models.Bar{
			Timestamp: time.UnixMilli(r.Time).UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    int64(r.Volume),
		})
	}
	series.SortAscending()
	return series, nil
}

// FetchTickerInfo returns reference metadata for the ticker.
func (c *Client) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error) {
	path := fmt.Sprintf("/v3/reference/tickers/%s", ticker)

	var resp struct {
		Results map[string]any `json:"results"`
	}
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTickerNotFound, ticker)
	}
	return resp.Results, nil
}
