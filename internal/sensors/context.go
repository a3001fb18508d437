package sensors

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

const (
	ratingsWindowMonths = 24
	insiderMinValue     = 100_000
	insiderMinShares    = 5_000
	insiderKeepTop      = 5

	// Annualized IV beyond this gets the "High Compression" label; high
	// premium is information, not grounds for rejection.
	highIVLabelThreshold = 60.0
)

// ContextSensor assembles the MarketContext from the context provider's
// granular endpoints, fanned out in parallel.
type ContextSensor struct {
	provider interfaces.ContextProvider
	cache    interfaces.Cache
	logger   *common.Logger
	now      func() time.Time
}

var _ interfaces.ContextSensor = (*ContextSensor)(nil)

// NewContextSensor wires the sensor.
func NewContextSensor(provider interfaces.ContextProvider, c interfaces.Cache, logger *common.Logger) *ContextSensor {
	return &ContextSensor{provider: provider, cache: c, logger: logger, now: time.Now}
}

// GetContext returns the assembled context, cached for the sensor TTL.
// Individual endpoint failures leave their slice empty rather than failing
// the whole context.
func (s *ContextSensor) GetContext(ctx context.Context, ticker string) (*models.MarketContext, error) {
	key := cache.Key("context", ticker)

	var cached models.MarketContext
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	mc := &models.MarketContext{Ticker: ticker, FetchedAt: s.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ratings, err := s.provider.FetchAnalystRatings(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("analyst ratings fetch failed")
			return nil
		}
		mc.Ratings = s.filterRatings(ratings)
		return nil
	})
	g.Go(func() error {
		targets, err := s.provider.FetchPriceTargets(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("price targets fetch failed")
			return nil
		}
		mc.PriceTargets = sanitizeTargets(targets)
		return nil
	})
	g.Go(func() error {
		consensus, err := s.provider.FetchConsensus(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("consensus fetch failed")
			return nil
		}
		mc.Consensus = consensus
		return nil
	})
	g.Go(func() error {
		trades, err := s.provider.FetchInsiderTrades(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("insider trades fetch failed")
			return nil
		}
		mc.InsiderTrades = filterInsiderTrades(trades)
		return nil
	})
	g.Go(func() error {
		earnings, err := s.provider.FetchNextEarnings(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("earnings fetch failed")
			return nil
		}
		mc.NextEarnings = earnings
		return nil
	})
	g.Go(func() error {
		options, err := s.provider.FetchOptionsSentiment(gctx, ticker)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("options fetch failed")
			return nil
		}
		mc.Options = labelOptions(sanitizeOptions(options))
		return nil
	})

	// Branch errors are swallowed above; Wait only propagates ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, mc, common.SensorCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("context cache write failed")
	}
	return mc, nil
}

func (s *ContextSensor) filterRatings(ratings []models.AnalystRating) []models.AnalystRating {
	cutoff := s.now().AddDate(0, -ratingsWindowMonths, 0)
	kept := make([]models.AnalystRating, 0, len(ratings))
	for _, r := range ratings {
		if r.RatedAt.After(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

// filterInsiderTrades keeps material trades (value >= $100k or shares >=
// 5,000), top 5 by recency.
func filterInsiderTrades(trades []models.InsiderTrade) []models.InsiderTrade {
	material := make([]models.InsiderTrade, 0, len(trades))
	for _, t := range trades {
		if (t.Value != nil && *t.Value >= insiderMinValue) || t.Shares >= insiderMinShares {
			material = append(material, t)
		}
	}
	sort.Slice(material, func(i, j int) bool {
		return material[i].TradedAt.After(material[j].TradedAt)
	})
	if len(material) > insiderKeepTop {
		material = material[:insiderKeepTop]
	}
	return material
}

func labelOptions(o *models.OptionsSentiment) *models.OptionsSentiment {
	if o == nil {
		return nil
	}
	if o.ImpliedVol != nil && *o.ImpliedVol > highIVLabelThreshold {
		o.Label = "High Compression"
	}
	return o
}

func sanitizeOptions(o *models.OptionsSentiment) *models.OptionsSentiment {
	if o == nil {
		return nil
	}
	o.PutCallRatio = sanitizeFloat(o.PutCallRatio)
	o.ImpliedVol = sanitizeFloat(o.ImpliedVol)
	o.OIWallCall = sanitizeFloat(o.OIWallCall)
	o.OIWallPut = sanitizeFloat(o.OIWallPut)
	return o
}

func sanitizeTargets(t *models.PriceTargets) *models.PriceTargets {
	if t == nil {
		return nil
	}
	t.Mean = sanitizeFloat(t.Mean)
	t.High = sanitizeFloat(t.High)
	t.Low = sanitizeFloat(t.Low)
	t.Median = sanitizeFloat(t.Median)
	return t
}

// sanitizeFloat nulls NaN and Inf values coming off the wire.
func sanitizeFloat(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
