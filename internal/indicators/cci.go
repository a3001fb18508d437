package indicators

import "math"

// cciPoisonBound is the plausibility limit; beyond it the value is nulled.
const cciPoisonBound = 5000

// computeCCI returns the final CCI(period) over typical price using mean
// absolute deviation. A zero MAD is replaced by a tiny epsilon so flat
// series yield 0 rather than a division blow-up.
func computeCCI(high, low, close []float64, period int) float64 {
	n := len(high)
	if n != len(low) || n != len(close) || n < period {
		return math.NaN()
	}

	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}

	window := tp[n-period:]
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	sma := sum / float64(period)

	mad := 0.0
	for _, v := range window {
		mad += math.Abs(v - sma)
	}
	mad /= float64(period)
	if mad == 0 {
		mad = 1e-9
	}

	return (tp[n-1] - sma) / (0.015 * mad)
}
