// Package sensors implements the cached data-acquisition layer feeding the
// orchestrator.
package sensors

import (
	"context"
	"fmt"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

// MarketDataSensor serves bar series through the cache and a provider
// failover chain.
type MarketDataSensor struct {
	providers []interfaces.DataProvider
	cache     interfaces.Cache
	logger    *common.Logger
}

var _ interfaces.MarketDataSensor = (*MarketDataSensor)(nil)

// NewMarketDataSensor wires the sensor. Providers are tried in order; the
// first to return without error wins.
func NewMarketDataSensor(providers []interfaces.DataProvider, c interfaces.Cache, logger *common.Logger) *MarketDataSensor {
	return &MarketDataSensor{providers: providers, cache: c, logger: logger}
}

// periodFor maps interval onto the lookback period: intraday resolutions
// get 60 days, daily and above a full year.
func periodFor(interval string) string {
	switch interval {
	case "15m", "1h":
		return "60d"
	default:
		return "1y"
	}
}

// GetPriceHistory returns the bar series for (ticker, interval), consulting
// the cache first. Cache writes happen only on a fully successful fetch.
func (s *MarketDataSensor) GetPriceHistory(ctx context.Context, ticker, interval string) (*models.BarSeries, error) {
	key := cache.Key("bars", ticker, interval)

	var cached models.BarSeries
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && len(cached.Bars) > 0 {
		s.logger.Debug().Str("ticker", ticker).Str("interval", interval).Msg("price history cache hit")
		return &cached, nil
	}

	period := periodFor(interval)
	var lastErr error
	for _, provider := range s.providers {
		series, err := provider.FetchPriceHistory(ctx, ticker, interval, period)
		if err != nil {
			lastErr = err
			s.logger.Warn().Err(err).
				Str("provider", provider.Name()).
				Str("ticker", ticker).
				Msg("price history fetch failed, trying next provider")
			continue
		}

		if err := s.cache.Set(ctx, key, series, common.SensorCacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("price history cache write failed")
		}
		return series, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no providers configured", models.ErrSensorFailure)
	}
	return nil, lastErr
}
