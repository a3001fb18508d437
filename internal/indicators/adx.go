package indicators

import "math"

// wilderSmooth applies Wilder's smoothing: seed with the mean of the first
// period values, then smoothed = (prev*(period-1) + value) / period.
func wilderSmooth(data []float64, period int) []float64 {
	if len(data) < period {
		return nil
	}

	smoothed := make([]float64, 0, len(data)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	prev := sum / float64(period)
	smoothed = append(smoothed, prev)

	for i := period; i < len(data); i++ {
		prev = (prev*float64(period-1) + data[i]) / float64(period)
		smoothed = append(smoothed, prev)
	}
	return smoothed
}

// computeADX returns the final ADX(period) value over the series, or NaN
// when the series is too short.
func computeADX(high, low, close []float64, period int) float64 {
	n := len(high)
	if n != len(low) || n != len(close) || n < 2*period+1 {
		return math.NaN()
	}

	tr := make([]float64, 0, n-1)
	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)

	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr = append(tr, math.Max(hl, math.Max(hc, lc)))

		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM = append(plusDM, upMove)
		} else {
			plusDM = append(plusDM, 0)
		}
		if downMove > upMove && downMove > 0 {
			minusDM = append(minusDM, downMove)
		} else {
			minusDM = append(minusDM, 0)
		}
	}

	smoothTR := wilderSmooth(tr, period)
	smoothPlusDM := wilderSmooth(plusDM, period)
	smoothMinusDM := wilderSmooth(minusDM, period)
	if smoothTR == nil {
		return math.NaN()
	}

	dx := make([]float64, 0, len(smoothTR))
	for i := range smoothTR {
		if smoothTR[i] == 0 {
			dx = append(dx, 0)
			continue
		}
		plusDI := 100 * smoothPlusDM[i] / smoothTR[i]
		minusDI := 100 * smoothMinusDM[i] / smoothTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			dx = append(dx, 0)
			continue
		}
		dx = append(dx, 100*math.Abs(plusDI-minusDI)/sum)
	}

	adx := wilderSmooth(dx, period)
	if len(adx) == 0 {
		return math.NaN()
	}
	return adx[len(adx)-1]
}
