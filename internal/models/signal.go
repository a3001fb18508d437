package models

// VolatilityRisk buckets the ATR-relative volatility of a setup.
type VolatilityRisk string

const (
	VolatilityLow      VolatilityRisk = "LOW"
	VolatilityModerate VolatilityRisk = "MODERATE"
	VolatilityHigh     VolatilityRisk = "HIGH"
	VolatilityVeryHigh VolatilityRisk = "VERY_HIGH"
	VolatilityUnknown  VolatilityRisk = "UNKNOWN"
)

// Regime tags the scoring regime selected from trend strength.
type Regime string

const (
	RegimeTrending Regime = "Trending"
	RegimeRange    Regime = "Range"
	RegimeUnknown  Regime = "Unknown"
)

// ScoreDetail is one scored dimension with its bounds and a human label.
type ScoreDetail struct {
	Value  float64 `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Label  string  `json:"label"`
	Legend string  `json:"legend"`
}

// AlgoSignal is the output of the scoring engine: a Bayesian posterior win
// probability plus the derived score dimensions.
type AlgoSignal struct {
	Overall    ScoreDetail `json:"overall"`
	Trend      ScoreDetail `json:"trend"`
	Momentum   ScoreDetail `json:"momentum"`
	Volatility ScoreDetail `json:"volatility"`
	Volume     ScoreDetail `json:"volume"`

	ConfluenceScore int            `json:"confluence_score"` // 0..10
	VolatilityRisk  VolatilityRisk `json:"volatility_risk"`
	Regime          Regime         `json:"regime"`

	PWin          float64 `json:"p_win"`          // clamped [0.10, 0.90]
	ExpectedValue float64 `json:"expected_value"` // under a fixed 2:1 target
}
