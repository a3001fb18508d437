// Package indicators computes the technical snapshot for a bar series.
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"

	"github.com/bobmcallan/horizon/internal/models"
)

// minBars is the hard gate: shorter series return an all-null snapshot.
const minBars = 50

const (
	rsiPeriod       = 14
	adxPeriod       = 14
	atrPeriod       = 14
	cciPeriod       = 20
	bbPeriod        = 20
	volumeMAPeriod  = 20
	macdFastPeriod  = 12
	macdSlowPeriod  = 26
	macdSignalPeriod = 9
)

// Engine computes Technicals from a bar series. Stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine returns an indicator engine.
func NewEngine() *Engine { return &Engine{} }

// Compute produces the Technicals snapshot for the series. Series shorter
// than 50 bars yield an all-null snapshot with NEUTRAL enums.
func (e *Engine) Compute(series *models.BarSeries) *models.Technicals {
	if series == nil || len(series.Bars) < minBars {
		return models.NewEmptyTechnicals()
	}

	bars := series.Bars
	n := len(bars)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = float64(b.Volume)
	}

	t := models.NewEmptyTechnicals()

	closePrice := lastFinite(closes)
	if math.IsNaN(closePrice) {
		return t
	}
	t.Close = models.Float(closePrice)

	// Library-backed indicators over the close series.
	rsiInd := momentum.NewRsiWithPeriod[float64](rsiPeriod)
	rsiValues := collect(rsiInd.Compute(sliceToChan(closes)))
	t.RSI = finitePtr(lastFinite(rsiValues))

	macdInd := trend.NewMacdWithPeriod[float64](macdFastPeriod, macdSlowPeriod, macdSignalPeriod)
	macdChan, signalChan := macdInd.Compute(sliceToChan(closes))
	var macdValues, signalValues []float64
	for {
		m, mok := <-macdChan
		s, sok := <-signalChan
		if !mok || !sok {
			break
		}
		macdValues = append(macdValues, m)
		signalValues = append(signalValues, s)
	}
	macdLine := lastFinite(macdValues)
	macdSignal := lastFinite(signalValues)
	t.MACDLine = finitePtr(macdLine)
	t.MACDSignal = finitePtr(macdSignal)
	if t.MACDLine != nil && t.MACDSignal != nil {
		t.MACDHistogram = models.Float(macdLine - macdSignal)
	}

	bbInd := volatility.NewBollingerBandsWithPeriod[float64](bbPeriod)
	lowerChan, middleChan, upperChan := bbInd.Compute(sliceToChan(closes))
	var bbLower, bbMiddle, bbUpper []float64
	for {
		l, lok := <-lowerChan
		m, mok := <-middleChan
		u, uok := <-upperChan
		if !lok || !mok || !uok {
			break
		}
		bbLower = append(bbLower, l)
		bbMiddle = append(bbMiddle, m)
		bbUpper = append(bbUpper, u)
	}
	lower := lastFinite(bbLower)
	middle := lastFinite(bbMiddle)
	upper := lastFinite(bbUpper)
	t.BBLower = finitePtr(lower)
	t.BBMiddle = finitePtr(middle)
	t.BBUpper = finitePtr(upper)
	if t.BBLower != nil && t.BBUpper != nil && upper != lower {
		t.BBPosition = models.Float((closePrice - lower) / (upper - lower))
	}

	t.EMA20 = e.lastEMA(closes, 20)
	t.EMA50 = e.lastEMA(closes, 50)
	t.EMA200 = e.lastEMA(closes, 200)

	// Hand-computed indicators over the full OHLC series.
	t.ADX = finitePtr(computeADX(high, low, closes, adxPeriod))

	atr := computeATR(high, low, closes, atrPeriod)
	t.ATR = finitePtr(atr)
	if t.ATR != nil && closePrice != 0 {
		t.ATRPercent = models.Float(atr / closePrice * 100)
	}

	cci := computeCCI(high, low, closes, cciPeriod)
	if math.IsNaN(cci) {
		cci = 0
	}
	if math.Abs(cci) > cciPoisonBound {
		t.CCI = nil
	} else {
		t.CCI = models.Float(cci)
	}

	// Volume ratio against the 20-bar simple average.
	if n >= volumeMAPeriod {
		sum := 0.0
		for _, v := range volume[n-volumeMAPeriod:] {
			sum += v
		}
		avg := sum / volumeMAPeriod
		t.VolumeAvg20D = models.Float(avg)
		t.VolumeCurrent = models.Float(volume[n-1])
		if avg > 0 {
			ratio := volume[n-1] / avg
			if ratio < 0 || ratio > 100 {
				t.VolumeRatio = nil
			} else {
				t.VolumeRatio = models.Float(ratio)
			}
		}
	}

	last := bars[n-1]
	pv := computePivots(last.High, last.Low, last.Close)
	t.PivotR1 = models.Float(pv.R1)
	t.PivotR2 = models.Float(pv.R2)
	t.PivotS1 = models.Float(pv.S1)
	t.PivotS2 = models.Float(pv.S2)

	t.RSISignal = classifyRSI(t.RSI, t.Close, t.EMA50)
	t.TrendStructure = classifyTrend(t.ADX, t.Close, t.EMA20, t.EMA50, t.EMA200)

	return t
}

func (e *Engine) lastEMA(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	ind := trend.NewEmaWithPeriod[float64](period)
	values := collect(ind.Compute(sliceToChan(closes)))
	return finitePtr(lastFinite(values))
}

// classifyRSI applies the falling-knife veto: an oversold reading only
// counts as bullish when price holds above the 50 EMA.
func classifyRSI(rsi, close, ema50 *float64) models.RSISignal {
	if rsi == nil {
		return models.RSINeutral
	}
	switch {
	case *rsi < 30:
		if close != nil && ema50 != nil && *close >= *ema50 {
			return models.RSIBullish
		}
		return models.RSINeutral
	case *rsi > 70:
		return models.RSIBearish
	default:
		return models.RSINeutral
	}
}

func classifyTrend(adx, close, ema20, ema50, ema200 *float64) models.TrendStructure {
	if adx == nil || close == nil || ema20 == nil || ema50 == nil || ema200 == nil {
		return models.TrendNeutral
	}
	if *adx < 20 {
		return models.TrendTransition
	}

	c, e20, e50, e200 := *close, *ema20, *ema50, *ema200
	switch {
	case c > e20 && e20 > e50 && e50 > e200:
		return models.TrendBullish
	case c < e20 && e20 < e50 && e50 < e200:
		return models.TrendBearish
	case c > e200 && e50 > e200:
		return models.TrendBullish
	case c < e200 && e50 < e200:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}
