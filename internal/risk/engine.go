// Package risk sizes positions under capital and liquidity constraints.
package risk

import "github.com/bobmcallan/horizon/internal/models"

// Default sizing limits as percent of notional capital.
const (
	DefaultMaxCapitalRiskPct = 1.0
	DefaultMaxPositionPct    = 10.0
)

// Liquidity thresholds in shares of 20-day average daily volume.
const (
	advFullLiquidity = 500_000
	advIlliquid      = 200_000
)

// degradedScale halves sizing when the setup inputs were degraded.
const degradedScale = 0.5

// Sizing is the RiskEngine output.
type Sizing struct {
	PositionSizePct  float64 `json:"position_size_pct"`
	MaxCapitalAtRisk float64 `json:"max_capital_at_risk"`
}

// Engine applies the sizing ladder. Stateless and safe for concurrent use.
type Engine struct {
	MaxCapitalRiskPct float64
	MaxPositionPct    float64
}

// NewEngine returns a risk engine with the default limits.
func NewEngine() *Engine {
	return &Engine{
		MaxCapitalRiskPct: DefaultMaxCapitalRiskPct,
		MaxPositionPct:    DefaultMaxPositionPct,
	}
}

// Size computes the position size for an accepted setup.
//
// The ladder: risk-based size capped by the position limit, scaled down for
// thin liquidity, halved past the hard volatility cap, then decayed linearly
// into earnings.
func (e *Engine) Size(price, riskPerShare, adv20d float64, daysToEarnings int, setupState models.SetupState) Sizing {
	if price <= 0 || riskPerShare <= 0 {
		return Sizing{}
	}

	size := (e.MaxCapitalRiskPct * price) / riskPerShare

	maxPosition := e.MaxPositionPct
	if setupState == models.SetupDegraded {
		maxPosition *= degradedScale
	}
	if size > maxPosition {
		size = maxPosition
	}

	if adv20d > 0 {
		liquidity := adv20d / advFullLiquidity
		if liquidity < 1 {
			size *= liquidity
		}
		if adv20d < advIlliquid && size > 1.0 {
			size = 1.0
		}
	}

	if riskPerShare/price > 0.05 {
		size *= 0.5
	}

	if daysToEarnings >= 0 && daysToEarnings <= 21 {
		size *= float64(daysToEarnings) / 21
	}

	return Sizing{
		PositionSizePct:  size,
		MaxCapitalAtRisk: size * (riskPerShare / price),
	}
}
