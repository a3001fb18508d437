package scoring

import (
	"math"
	"testing"

	"github.com/bobmcallan/horizon/internal/models"
)

func baseTechnicals() *models.Technicals {
	t := models.NewEmptyTechnicals()
	t.Close = models.Float(100)
	t.RSI = models.Float(62)
	t.MACDHistogram = models.Float(0.8)
	t.ADX = models.Float(28)
	t.ATRPercent = models.Float(1.2)
	t.EMA50 = models.Float(98)
	t.EMA200 = models.Float(92)
	t.BBPosition = models.Float(0.6)
	t.VolumeRatio = models.Float(1.1)
	t.TrendStructure = models.TrendBullish
	t.RSISignal = models.RSINeutral
	return t
}

func TestEvaluateDataGate(t *testing.T) {
	engine := NewEngine()

	for _, null := range []func(*models.Technicals){
		func(x *models.Technicals) { x.RSI = nil },
		func(x *models.Technicals) { x.MACDHistogram = nil },
		func(x *models.Technicals) { x.EMA50 = nil },
	} {
		tech := baseTechnicals()
		null(tech)

		sig := engine.Evaluate(tech)
		if sig.PWin != 0 || sig.Overall.Value != 0 {
			t.Errorf("expected zeroed signal on gate failure, got p_win=%v overall=%v", sig.PWin, sig.Overall.Value)
		}
		if sig.VolatilityRisk != models.VolatilityUnknown {
			t.Errorf("expected UNKNOWN volatility risk, got %s", sig.VolatilityRisk)
		}
	}

	if sig := engine.Evaluate(nil); sig.Overall.Label != "Insufficient Data" {
		t.Errorf("nil technicals should yield insufficient-data signal")
	}
}

func TestEvaluateTrendingBullish(t *testing.T) {
	engine := NewEngine()
	sig := engine.Evaluate(baseTechnicals())

	if sig.Regime != models.RegimeTrending {
		t.Fatalf("regime = %s, want Trending", sig.Regime)
	}

	// odds = 1.6 * 1.25 * 1.15 * 1.2 = 2.76, p = 0.7340
	wantP := 2.76 / 3.76
	if math.Abs(sig.PWin-wantP) > 1e-9 {
		t.Errorf("p_win = %v, want %v", sig.PWin, wantP)
	}
	if sig.Overall.Value <= 0 {
		t.Errorf("expected positive overall for bullish trending setup, got %v", sig.Overall.Value)
	}
	if sig.ConfluenceScore != int(math.Floor(wantP*10)) {
		t.Errorf("confluence = %d, want %d", sig.ConfluenceScore, int(math.Floor(wantP*10)))
	}
}

func TestEvaluateClampBounds(t *testing.T) {
	engine := NewEngine()

	// Stack every bearish ratio in the Range regime plus the ATR penalty.
	tech := baseTechnicals()
	tech.ADX = models.Float(12)
	tech.RSI = models.Float(85)
	tech.BBPosition = models.Float(0.95)
	tech.MACDHistogram = models.Float(-3)
	tech.ATRPercent = models.Float(4.0)

	sig := engine.Evaluate(tech)
	if sig.Regime != models.RegimeRange {
		t.Fatalf("regime = %s, want Range", sig.Regime)
	}
	if sig.PWin < 0.10 || sig.PWin > 0.90 {
		t.Errorf("p_win = %v outside [0.10, 0.90]", sig.PWin)
	}
}

func TestEvaluateATRPenalty(t *testing.T) {
	engine := NewEngine()

	calm := baseTechnicals()
	calm.ATRPercent = models.Float(1.0)

	wild := baseTechnicals()
	wild.ATRPercent = models.Float(4.0)

	if engine.Evaluate(wild).PWin >= engine.Evaluate(calm).PWin {
		t.Errorf("high atr_percent should lower p_win")
	}
}

func TestStabilityMonotoneInATR(t *testing.T) {
	engine := NewEngine()

	prev := math.Inf(1)
	for _, atr := range []float64{0.5, 1.5, 2.5, 3.5, 5.0} {
		tech := baseTechnicals()
		tech.ATRPercent = models.Float(atr)

		stability := engine.Evaluate(tech).Volatility.Value
		if stability > prev {
			t.Errorf("stability not weakly decreasing at atr=%v: %v > %v", atr, stability, prev)
		}
		if stability < -100 || stability > 100 {
			t.Errorf("stability %v outside [-100,100]", stability)
		}
		prev = stability
	}
}

func TestScoreVolumeBuckets(t *testing.T) {
	tests := []struct {
		ratio *float64
		score float64
		label string
	}{
		{models.Float(0), 0, "LOW"},
		{models.Float(0.5), 25, "LOW"},
		{models.Float(1.0), 50, "NORMAL"},
		{models.Float(1.2), 60, "NORMAL"},
		{models.Float(1.4), 70, "HIGH"},
		{models.Float(2.0), 100, "VERY_HIGH"},
		{models.Float(3.0), 100, "VERY_HIGH"},
		{nil, 0, "UNKNOWN"},
	}

	for _, tt := range tests {
		score, label := scoreVolume(tt.ratio)
		if math.Abs(score-tt.score) > 1e-9 || label != tt.label {
			t.Errorf("scoreVolume(%v) = (%v, %s), want (%v, %s)", tt.ratio, score, label, tt.score, tt.label)
		}
	}
}

func TestVolatilityRiskBuckets(t *testing.T) {
	tests := []struct {
		atr  *float64
		want models.VolatilityRisk
	}{
		{models.Float(1.0), models.VolatilityLow},
		{models.Float(2.0), models.VolatilityModerate},
		{models.Float(3.5), models.VolatilityHigh},
		{nil, models.VolatilityUnknown},
	}

	for _, tt := range tests {
		if got := volatilityRisk(tt.atr); got != tt.want {
			t.Errorf("volatilityRisk(%v) = %s, want %s", tt.atr, got, tt.want)
		}
	}
}
