package interfaces

import (
	"context"

	"github.com/bobmcallan/horizon/internal/models"
)

// MarketDataSensor returns cached, failover-backed price history.
type MarketDataSensor interface {
	GetPriceHistory(ctx context.Context, ticker, interval string) (*models.BarSeries, error)
}

// ContextSensor returns the assembled market context for a ticker.
type ContextSensor interface {
	GetContext(ctx context.Context, ticker string) (*models.MarketContext, error)
}

// NewsAggregator fans out to the configured news sources and scores the
// deduplicated headline set.
type NewsAggregator interface {
	GetDigest(ctx context.Context, ticker string) (*models.NewsDigest, error)
}

// FundamentalsSensor runs both fundamentals passes plus valuations.
type FundamentalsSensor interface {
	GetReport(ctx context.Context, ticker string) (*models.FundamentalsReport, error)
}
