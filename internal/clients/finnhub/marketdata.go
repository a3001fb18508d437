package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

var _ interfaces.DataProvider = (*Client)(nil)

// candleResponse is the /stock/candle payload (parallel arrays).
type candleResponse struct {
	Close  []float64 `json:"c"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Open   []float64 `json:"o"`
	Time   []int64   `json:"t"`
	Volume []float64 `json:"v"`
	Status string    `json:"s"`
}

// resolutionFor maps Horizon intervals onto Finnhub candle resolutions.
func resolutionFor(interval string) string {
	switch interval {
	case "15m":
		return "15"
	case "1h":
		return "60"
	case "1wk":
		return "W"
	default:
		return "D"
	}
}

func lookbackFor(period string) time.Duration {
	if period == "60d" {
		return 60 * 24 * time.Hour
	}
	return 365 * 24 * time.Hour
}

// FetchPriceHistory returns the bar series for the ticker.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker, interval, period string) (*models.BarSeries, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("resolution", resolutionFor(interval))
	params.Set("from", strconv.FormatInt(now.Add(-lookbackFor(period)).Unix(), 10))
	params.Set("to", strconv.FormatInt(now.Unix(), 10))

	var resp candleResponse
	if err := c.get(ctx, "/stock/candle", params, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsThrottled() {
			return nil, fmt.Errorf("%w: %s", models.ErrProviderThrottled, ticker)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	if resp.Status == "no_data" || len(resp.Time) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTickerNotFound, ticker)
	}
	if len(resp.Time) < models.MinBarsForHistory {
		return nil, fmt.Errorf("%w: %s has %d bars", models.ErrLiquidityHalt, ticker, len(resp.Time))
	}

	series := &models.BarSeries{
		Ticker:    ticker,
		Interval:  interval,
		Provider:  c.Name(),
		Bars:      make([]models.Bar, 0, len(resp.Time)),
		FetchedAt: now,
	}
	for i := range resp.Time {
		series.Bars = append(series.Bars, models.Bar{
			Timestamp: time.Unix(resp.Time[i], 0).UTC(),
			Open:      resp.Open[i],
			High:      resp.High[i],
			Low:       resp.Low[i],
			Close:     resp.Close[i],
			Volume:    int64(resp.Volume[i]),
		})
	}
	series.SortAscending()
	return series, nil
}

// FetchTickerInfo returns company metadata. A junk profile (too few keys or
// no name) is reconstructed from the metric endpoint so downstream code
// always sees a usable map.
func (c *Client) FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var info map[string]any
	if err := c.get(ctx, "/stock/profile2", params, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}

	if isJunkInfo(info) {
		c.logger.Warn().Str("ticker", ticker).Int("keys", len(info)).Msg("junk ticker info, reconstructing from metrics")
		rebuilt, err := c.reconstructInfo(ctx, ticker, info)
		if err != nil {
			return nil, err
		}
		return rebuilt, nil
	}
	return info, nil
}

// isJunkInfo flags profiles that are unusable for analysis.
func isJunkInfo(info map[string]any) bool {
	if len(info) < 10 {
		return true
	}
	name, _ := info["name"].(string)
	return name == ""
}

// reconstructInfo rebuilds a minimal profile from the metric endpoint.
func (c *Client) reconstructInfo(ctx context.Context, ticker string, partial map[string]any) (map[string]any, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("metric", "all")

	var metrics struct {
		Metric map[string]any `json:"metric"`
	}
	if err := c.get(ctx, "/stock/metric", params, &metrics); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSensorFailure, err)
	}
	if len(metrics.Metric) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrTickerNotFound, ticker)
	}

	rebuilt := make(map[string]any, len(metrics.Metric)+len(partial)+2)
	for k, v := range metrics.Metric {
		rebuilt[k] = v
	}
	for k, v := range partial {
		rebuilt[k] = v
	}
	if _, ok := rebuilt["name"]; !ok {
		rebuilt["name"] = ticker
	}
	rebuilt["reconstructed"] = true
	return rebuilt, nil
}
