package trading

import (
	"reflect"
	"testing"
	"time"

	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/models"
	"github.com/bobmcallan/horizon/internal/risk"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func testSystem() *System {
	gov := governor.NewWithClock(func() time.Time { return testNow })
	return NewSystem(gov, risk.NewEngine())
}

func healthyTechnicals() *models.Technicals {
	t := models.NewEmptyTechnicals()
	t.Close = models.Float(100)
	t.RSI = models.Float(60)
	t.MACDHistogram = models.Float(0.8)
	t.ADX = models.Float(28)
	t.ATR = models.Float(1.5)
	t.ATRPercent = models.Float(1.5)
	t.CCI = models.Float(90)
	t.VolumeRatio = models.Float(1.1)
	t.VolumeAvg20D = models.Float(2_000_000)
	return t
}

func strongSignal() *models.AlgoSignal {
	return &models.AlgoSignal{
		Overall:         models.ScoreDetail{Value: 45},
		ConfluenceScore: 8,
		VolatilityRisk:  models.VolatilityLow,
		Regime:          models.RegimeTrending,
		PWin:            0.8,
	}
}

func TestDecideAccept(t *testing.T) {
	d := testSystem().Decide("swing", healthyTechnicals(), strongSignal(), nil, nil)

	if d.DecisionState != models.DecisionAccept {
		t.Fatalf("state = %s (%s), want ACCEPT", d.DecisionState, d.PrimaryReason)
	}
	if d.SetupState != models.SetupValid {
		t.Errorf("setup = %s, want VALID", d.SetupState)
	}
	if d.Confidence < 70 {
		t.Errorf("confidence = %v, want >= 70", d.Confidence)
	}
	if d.StopLoss == nil || *d.StopLoss != 97 {
		t.Errorf("stop = %v, want 97 (price - 2*ATR)", d.StopLoss)
	}
	if len(d.TPTargets) != 2 || d.TPTargets[0] != 103 || d.TPTargets[1] != 106 {
		t.Errorf("tp_targets = %v, want [103 106]", d.TPTargets)
	}
	if d.RiskRewardRatio < 1.0 {
		t.Errorf("rr = %v, want >= 1.0", d.RiskRewardRatio)
	}
	if d.SetupQuality != models.QualityHigh {
		t.Errorf("quality = %s, want HIGH", d.SetupQuality)
	}
	if d.PositionSizePct <= 0 {
		t.Errorf("position size = %v, want positive", d.PositionSizePct)
	}
}

func TestDecideShortSide(t *testing.T) {
	sig := strongSignal()
	sig.Overall.Value = -45

	d := testSystem().Decide("swing", healthyTechnicals(), sig, nil, nil)
	if d.DecisionState != models.DecisionAccept {
		t.Fatalf("state = %s, want ACCEPT", d.DecisionState)
	}
	if d.StopLoss == nil || *d.StopLoss != 103 {
		t.Errorf("short stop = %v, want 103", d.StopLoss)
	}
	if d.TPTargets[1] != 94 {
		t.Errorf("short final target = %v, want 94", d.TPTargets[1])
	}
}

func TestDecideWaitOnWeakSignal(t *testing.T) {
	sig := strongSignal()
	sig.Overall.Value = 12
	sig.ConfluenceScore = 3

	d := testSystem().Decide("swing", healthyTechnicals(), sig, nil, nil)
	if d.DecisionState != models.DecisionWait {
		t.Fatalf("state = %s, want WAIT", d.DecisionState)
	}
	if d.Confidence >= 70 {
		t.Errorf("confidence = %v, want < 70", d.Confidence)
	}
	if d.StopLoss != nil || d.TakeProfit != nil {
		t.Errorf("WAIT must carry null levels")
	}
	if d.PositionSizePct != 0 || d.MaxCapitalAtRisk != 0 {
		t.Errorf("WAIT must carry zero sizing")
	}
}

func TestDecideWaitOnLowConfidence(t *testing.T) {
	sig := strongSignal()
	sig.ConfluenceScore = 3 // -30 => confidence 50

	d := testSystem().Decide("swing", healthyTechnicals(), sig, nil, nil)
	if d.DecisionState != models.DecisionWait {
		t.Fatalf("state = %s, want WAIT", d.DecisionState)
	}
}

func TestDecideRejectOnIntegrity(t *testing.T) {
	tech := healthyTechnicals()
	tech.RSI = nil

	d := testSystem().Decide("swing", tech, strongSignal(), nil, nil)
	if d.DecisionState != models.DecisionReject {
		t.Fatalf("state = %s, want REJECT", d.DecisionState)
	}
	if d.Confidence != 0 {
		t.Errorf("REJECT confidence = %v, want 0", d.Confidence)
	}
	if len(d.ViolationRules) == 0 || d.ViolationRules[0] != governor.RuleDataIntegrity {
		t.Errorf("rules = %v, want [%s]", d.ViolationRules, governor.RuleDataIntegrity)
	}
}

func TestDecideRejectOnShredder(t *testing.T) {
	tech := healthyTechnicals()
	tech.ATRPercent = models.Float(3.8)
	tech.ADX = models.Float(17)

	d := testSystem().Decide("swing", tech, strongSignal(), nil, nil)
	if d.DecisionState != models.DecisionReject {
		t.Fatalf("state = %s, want REJECT", d.DecisionState)
	}
	if d.SetupState != models.SetupInvalid {
		t.Errorf("setup = %s, want INVALID", d.SetupState)
	}
	if d.StopLoss != nil || d.PositionSizePct != 0 {
		t.Errorf("REJECT must carry null levels and zero sizing")
	}
}

func TestDecideDegradedHalvesSizing(t *testing.T) {
	sys := testSystem()

	full := sys.Decide("swing", healthyTechnicals(), strongSignal(), nil, nil)

	degradedTech := healthyTechnicals()
	degradedTech.CCI = nil // poisoned indicator degrades the setup
	degraded := sys.Decide("swing", degradedTech, strongSignal(), nil, nil)

	if degraded.DecisionState != models.DecisionAccept {
		t.Fatalf("state = %s, want ACCEPT", degraded.DecisionState)
	}
	if degraded.SetupState != models.SetupDegraded {
		t.Errorf("setup = %s, want DEGRADED", degraded.SetupState)
	}
	if degraded.PositionSizePct >= full.PositionSizePct {
		t.Errorf("degraded sizing %v should be below valid sizing %v", degraded.PositionSizePct, full.PositionSizePct)
	}
}

func TestDecideConsensusWithoutRatingsPenalty(t *testing.T) {
	mc := &models.MarketContext{
		Ticker:    "AAPL",
		Consensus: &models.ConsensusBuckets{Buy: 10},
	}

	sig := strongSignal()
	sig.ConfluenceScore = 6 // -10 => 70 base, then -15 => 55

	d := testSystem().Decide("swing", healthyTechnicals(), sig, mc, nil)
	if d.DecisionState != models.DecisionWait {
		t.Fatalf("state = %s, want WAIT after coverage penalty", d.DecisionState)
	}
	if d.Confidence != 55 {
		t.Errorf("confidence = %v, want 55", d.Confidence)
	}
}

func TestDecideIdempotent(t *testing.T) {
	sys := testSystem()
	tech := healthyTechnicals()
	sig := strongSignal()

	first := sys.Decide("swing", tech, sig, nil, nil)
	second := sys.Decide("swing", tech, sig, nil, nil)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated decisions on identical inputs must match")
	}
}
