package indicators

import "math"

// computeATR returns the final ATR(period) value using Wilder smoothing, or
// NaN when the series is too short.
func computeATR(high, low, close []float64, period int) float64 {
	n := len(high)
	if n != len(low) || n != len(close) || n < period+1 {
		return math.NaN()
	}

	tr := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr = append(tr, math.Max(hl, math.Max(hc, lc)))
	}

	smoothed := wilderSmooth(tr, period)
	if len(smoothed) == 0 {
		return math.NaN()
	}
	return smoothed[len(smoothed)-1]
}
