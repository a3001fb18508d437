package models

import "errors"

// Sensor error taxonomy. Provider failures are classified into one of these
// kinds so the failover chain and the orchestrator can react uniformly.
var (
	// ErrTickerNotFound indicates the provider returned an empty result for the ticker.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrLiquidityHalt indicates fewer than 20 bars are available.
	ErrLiquidityHalt = errors.New("insufficient bars: liquidity halt")

	// ErrProviderThrottled indicates an upstream rate limit; callers may retry after cool-down.
	ErrProviderThrottled = errors.New("provider throttled")

	// ErrSensorFailure wraps any other provider-level failure.
	ErrSensorFailure = errors.New("sensor failure")

	// ErrDataIntegrity indicates a math-consistency violation in fundamentals.
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrBadTicker indicates ticker syntax validation failed.
	ErrBadTicker = errors.New("invalid ticker syntax")
)

// MinBarsForHistory is the floor below which a price-history fetch is
// treated as a liquidity halt rather than a usable series.
const MinBarsForHistory = 20
