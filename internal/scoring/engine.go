// Package scoring turns a technical snapshot into a probabilistic signal.
package scoring

import (
	"math"

	"github.com/bobmcallan/horizon/internal/models"
)

// Posterior probability clamp bounds.
const (
	pWinFloor = 0.10
	pWinCeil  = 0.90
)

// adxTrendingThreshold splits the Trending and Range regimes.
const adxTrendingThreshold = 20.0

// Engine performs a Bayesian odds update over the indicator evidence.
// Stateless and safe for concurrent use.
type Engine struct{}

// NewEngine returns a scoring engine.
func NewEngine() *Engine { return &Engine{} }

// Evaluate produces the AlgoSignal for a technical snapshot. When the data
// gate fails (rsi, macd_histogram or ema_50 missing) it returns an
// "Insufficient Data" signal with zeroed scores.
func (e *Engine) Evaluate(t *models.Technicals) *models.AlgoSignal {
	if t == nil || t.RSI == nil || t.MACDHistogram == nil || t.EMA50 == nil {
		return insufficientSignal()
	}

	regime := models.RegimeUnknown
	if t.ADX != nil {
		if *t.ADX >= adxTrendingThreshold {
			regime = models.RegimeTrending
		} else {
			regime = models.RegimeRange
		}
	}

	odds := 1.0 // prior 0.5
	switch regime {
	case models.RegimeTrending:
		odds *= trendingRatios(t)
	case models.RegimeRange:
		odds *= rangeRatios(t)
	}

	// High realized volatility penalizes every setup.
	if t.ATRPercent != nil && *t.ATRPercent > 3.5 {
		odds *= 0.75
	}

	pWin := clamp(odds/(1+odds), pWinFloor, pWinCeil)

	opportunity := (pWin - 0.5) * 200
	stability := 0.0
	if t.ATRPercent != nil {
		stability = clamp((2.5-*t.ATRPercent)*40, -100, 100)
	}
	overall := opportunity*0.7 + stability*0.3

	volumeScore, volumeLabel := scoreVolume(t.VolumeRatio)

	return &models.AlgoSignal{
		Overall:    scoreDetail(overall, labelOverall(overall), "Opportunity 70% / Stability 30%"),
		Trend:      scoreDetail(opportunity, string(t.TrendStructure), "Posterior win probability, centered"),
		Momentum:   scoreDetail(opportunity, string(t.RSISignal), "Posterior win probability, centered"),
		Volatility: scoreDetail(stability, volatilityLabel(t.ATRPercent), "Inverse ATR% stability"),
		Volume:     scoreDetail(volumeScore, volumeLabel, "Volume vs 20-bar average"),

		ConfluenceScore: int(math.Floor(pWin * 10)),
		VolatilityRisk:  volatilityRisk(t.ATRPercent),
		Regime:          regime,

		PWin:          pWin,
		ExpectedValue: pWin*2 - (1 - pWin), // fixed 2:1 reward-to-risk target
	}
}

func trendingRatios(t *models.Technicals) float64 {
	odds := 1.0

	switch t.TrendStructure {
	case models.TrendBullish:
		odds *= 1.6
	case models.TrendBearish:
		odds *= 0.6
	}

	if t.EMA200 != nil {
		if *t.EMA50 > *t.EMA200 {
			odds *= 1.25
		} else {
			odds *= 0.8
		}
	}

	if *t.MACDHistogram > 0 {
		odds *= 1.15
	}

	switch {
	case *t.RSI > 80:
		odds *= 0.7
	case *t.RSI > 60:
		odds *= 1.2
	}

	return odds
}

func rangeRatios(t *models.Technicals) float64 {
	odds := 1.0

	switch {
	case *t.RSI < 30:
		odds *= 1.7
	case *t.RSI > 70:
		odds *= 0.6
	}

	if t.BBPosition != nil {
		switch {
		case *t.BBPosition < 0.1:
			odds *= 1.4
		case *t.BBPosition > 0.9:
			odds *= 0.7
		}
	}

	if *t.MACDHistogram < -2 {
		odds *= 0.8
	}

	return odds
}

func insufficientSignal() *models.AlgoSignal {
	zero := func(label string) models.ScoreDetail {
		return scoreDetail(0, label, "Insufficient Data")
	}
	return &models.AlgoSignal{
		Overall:         zero("Insufficient Data"),
		Trend:           zero("Insufficient Data"),
		Momentum:        zero("Insufficient Data"),
		Volatility:      zero("Insufficient Data"),
		Volume:          zero("Insufficient Data"),
		ConfluenceScore: 0,
		VolatilityRisk:  models.VolatilityUnknown,
		Regime:          models.RegimeUnknown,
		PWin:            0,
		ExpectedValue:   0,
	}
}

func scoreDetail(value float64, label, legend string) models.ScoreDetail {
	return models.ScoreDetail{Value: value, Min: -100, Max: 100, Label: label, Legend: legend}
}

// scoreVolume maps the volume ratio [0,1,2] onto [0,50,100] linearly and
// buckets the label.
func scoreVolume(ratio *float64) (float64, string) {
	if ratio == nil {
		return 0, "UNKNOWN"
	}
	r := *ratio
	score := clamp(r*50, 0, 100)

	switch {
	case r < 0.8:
		return score, "LOW"
	case r <= 1.2:
		return score, "NORMAL"
	case r <= 1.5:
		return score, "HIGH"
	default:
		return score, "VERY_HIGH"
	}
}

func volatilityRisk(atrPct *float64) models.VolatilityRisk {
	if atrPct == nil {
		return models.VolatilityUnknown
	}
	switch {
	case *atrPct < 1.5:
		return models.VolatilityLow
	case *atrPct < 3.0:
		return models.VolatilityModerate
	default:
		return models.VolatilityHigh
	}
}

func volatilityLabel(atrPct *float64) string {
	return string(volatilityRisk(atrPct))
}

func labelOverall(overall float64) string {
	switch {
	case overall >= 40:
		return "Strong Bullish"
	case overall >= 20:
		return "Bullish"
	case overall <= -40:
		return "Strong Bearish"
	case overall <= -20:
		return "Bearish"
	default:
		return "Neutral"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
