package indicators

// pivotLevels are classical floor-trader pivots off the latest bar.
type pivotLevels struct {
	Pivot, R1, R2, S1, S2 float64
}

func computePivots(high, low, close float64) pivotLevels {
	p := (high + low + close) / 3
	return pivotLevels{
		Pivot: p,
		R1:    2*p - low,
		R2:    p + (high - low),
		S1:    2*p - high,
		S2:    p - (high - low),
	}
}
