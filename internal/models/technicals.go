package models

// RSISignal classifies the RSI reading against trend context.
type RSISignal string

const (
	RSIBullish RSISignal = "BULLISH"
	RSIBearish RSISignal = "BEARISH"
	RSINeutral RSISignal = "NEUTRAL"
)

// TrendStructure classifies the EMA stack alignment.
type TrendStructure string

const (
	TrendBullish    TrendStructure = "BULLISH"
	TrendBearish    TrendStructure = "BEARISH"
	TrendNeutral    TrendStructure = "NEUTRAL"
	TrendTransition TrendStructure = "Neutral/Transition"
)

// Technicals holds the indicator snapshot for one ticker/interval.
// Every numeric field is either finite or explicitly null; poisoned values
// (implausible CCI or volume ratio) are nulled rather than clamped.
type Technicals struct {
	Close *float64 `json:"close"`

	RSI           *float64 `json:"rsi"`
	MACDLine      *float64 `json:"macd_line"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	ADX           *float64 `json:"adx"`
	ATR           *float64 `json:"atr"`
	ATRPercent    *float64 `json:"atr_percent"`
	CCI           *float64 `json:"cci"`

	BBUpper    *float64 `json:"bb_upper"`
	BBMiddle   *float64 `json:"bb_middle"`
	BBLower    *float64 `json:"bb_lower"`
	BBPosition *float64 `json:"bb_position"`

	PivotS1 *float64 `json:"s1"`
	PivotS2 *float64 `json:"s2"`
	PivotR1 *float64 `json:"r1"`
	PivotR2 *float64 `json:"r2"`

	EMA20  *float64 `json:"ema_20"`
	EMA50  *float64 `json:"ema_50"`
	EMA200 *float64 `json:"ema_200"`

	VolumeAvg20D  *float64 `json:"volume_avg_20d"`
	VolumeCurrent *float64 `json:"volume_current"`
	VolumeRatio   *float64 `json:"volume_ratio"`

	RSISignal      RSISignal      `json:"rsi_signal"`
	TrendStructure TrendStructure `json:"trend_structure"`
}

// NewEmptyTechnicals returns a Technicals with every numeric field null and
// the enums set to NEUTRAL. Used when the series is too short to compute on.
func NewEmptyTechnicals() *Technicals {
	return &Technicals{
		RSISignal:      RSINeutral,
		TrendStructure: TrendNeutral,
	}
}
