package sensors

import (
	"context"

	"github.com/bobmcallan/horizon/internal/cache"
	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/fundamentals"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
)

// FundamentalsSensor runs both fundamentals passes plus the valuation
// models over the provider's raw data.
type FundamentalsSensor struct {
	provider interfaces.FundamentalsProvider
	cache    interfaces.Cache
	logger   *common.Logger
}

var _ interfaces.FundamentalsSensor = (*FundamentalsSensor)(nil)

// NewFundamentalsSensor wires the sensor.
func NewFundamentalsSensor(provider interfaces.FundamentalsProvider, c interfaces.Cache, logger *common.Logger) *FundamentalsSensor {
	return &FundamentalsSensor{provider: provider, cache: c, logger: logger}
}

// GetReport returns the full fundamentals report for the ticker.
func (s *FundamentalsSensor) GetReport(ctx context.Context, ticker string) (*models.FundamentalsReport, error) {
	key := cache.Key("fundamentals", ticker)

	var cached models.FundamentalsReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached.Data != nil {
		return &cached, nil
	}

	data, err := s.provider.FetchFundamentals(ctx, ticker)
	if err != nil {
		return nil, err
	}

	quarterly, err := s.provider.FetchQuarterlyIncome(ctx, ticker)
	if err != nil {
		// Growth falls back to the vendor TTM field.
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("quarterly income fetch failed")
	}

	fundamentals.EnrichMetrics(data, quarterly)

	report := &models.FundamentalsReport{
		Data:                data,
		Inferences:          fundamentals.Infer(data),
		DCF:                 fundamentals.ComputeDCF(data),
		Graham:              fundamentals.ComputeGraham(data),
		IntegrityViolations: fundamentals.CheckIntegrity(data),
	}

	if err := s.cache.Set(ctx, key, report, common.SensorCacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("fundamentals cache write failed")
	}
	return report, nil
}
