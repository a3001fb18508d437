// Package interfaces defines the contracts between Horizon components.
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/horizon/internal/models"
)

// DataProvider is a price-history and metadata source. Providers are ordered
// in a failover chain; the first to return without error wins.
type DataProvider interface {
	// Name identifies the provider in logs and returned payloads.
	Name() string

	// FetchPriceHistory returns OHLCV bars for the ticker at the given
	// interval over the lookback period (e.g. "60d", "1y").
	FetchPriceHistory(ctx context.Context, ticker, interval, period string) (*models.BarSeries, error)

	// FetchTickerInfo returns best-effort metadata. Callers must treat a
	// junk map (fewer than 10 keys or missing name fields) as unusable.
	FetchTickerInfo(ctx context.Context, ticker string) (map[string]any, error)
}

// ContextProvider supplies the non-price context around a ticker.
type ContextProvider interface {
	Name() string
	FetchAnalystRatings(ctx context.Context, ticker string) ([]models.AnalystRating, error)
	FetchPriceTargets(ctx context.Context, ticker string) (*models.PriceTargets, error)
	FetchConsensus(ctx context.Context, ticker string) (*models.ConsensusBuckets, error)
	FetchInsiderTrades(ctx context.Context, ticker string) ([]models.InsiderTrade, error)
	FetchNextEarnings(ctx context.Context, ticker string) (*models.EarningsEvent, error)
	FetchOptionsSentiment(ctx context.Context, ticker string) (*models.OptionsSentiment, error)
}

// FundamentalsProvider supplies raw fundamentals and statements.
type FundamentalsProvider interface {
	Name() string
	FetchFundamentals(ctx context.Context, ticker string) (*models.FundamentalData, error)
	FetchQuarterlyIncome(ctx context.Context, ticker string) ([]models.IncomeStatementPeriod, error)
}

// NewsSource returns recent headlines for a ticker. At least two sources are
// fanned out in parallel by the aggregator.
type NewsSource interface {
	Name() string
	FetchHeadlines(ctx context.Context, ticker string, limit int) ([]models.Headline, error)
}

// NarrativeClient generates the structured AI narrative.
type NarrativeClient interface {
	// SynthesizeNarrative turns the compiled quantitative context into a
	// fixed-schema narrative. Implementations repair malformed output
	// before returning; callers may assume the schema is valid.
	SynthesizeNarrative(ctx context.Context, prompt string) (*models.Narrative, error)

	// GenerateWithURLContext produces a free-form research report grounded
	// on the given URLs.
	GenerateWithURLContext(ctx context.Context, prompt string, urls []string) (string, error)
}

// Cache is the distributed cache contract. Implementations never return
// backend errors to callers: Get misses on failure, Set is a no-op.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}
