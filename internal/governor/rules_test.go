package governor

import (
	"reflect"
	"testing"
	"time"

	"github.com/bobmcallan/horizon/internal/models"
)

var testNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func testGovernor() *Governor {
	return NewWithClock(func() time.Time { return testNow })
}

func contextWithSells(n int, daysAgo int) *models.MarketContext {
	mc := &models.MarketContext{Ticker: "TEST"}
	for i := 0; i < n; i++ {
		mc.InsiderTrades = append(mc.InsiderTrades, models.InsiderTrade{
			Name:     "Insider",
			Type:     "Sell",
			Shares:   10_000,
			TradedAt: testNow.AddDate(0, 0, -daysAgo),
		})
	}
	return mc
}

func TestInsiderSellsRule(t *testing.T) {
	g := testGovernor()

	tracker := g.PreScreen(contextWithSells(5, 60))
	if !tracker.Rejected() {
		t.Fatal("expected rejection for 5 sells in 60 days")
	}
	if tracker.Rules()[0] != RuleInsiderSells {
		t.Errorf("rule = %s, want %s", tracker.Rules()[0], RuleInsiderSells)
	}

	if g.PreScreen(contextWithSells(2, 60)).Rejected() {
		t.Error("2 sells should pass")
	}
	if g.PreScreen(contextWithSells(5, 120)).Rejected() {
		t.Error("sells outside the 90-day window should pass")
	}
}

func TestEarningsProximityRule(t *testing.T) {
	g := testGovernor()

	tests := []struct {
		days     int
		rejected bool
	}{
		{0, true},
		{7, true},
		{14, true},
		{15, false},
		{-3, false},
	}

	for _, tt := range tests {
		mc := &models.MarketContext{
			Ticker:       "TEST",
			NextEarnings: &models.EarningsEvent{DaysUntil: tt.days},
		}
		if got := g.PreScreen(mc).Rejected(); got != tt.rejected {
			t.Errorf("days=%d rejected=%v, want %v", tt.days, got, tt.rejected)
		}
	}
}

func TestADXAndShredderRules(t *testing.T) {
	g := testGovernor()

	weak := models.NewEmptyTechnicals()
	weak.ADX = models.Float(12)
	weak.ATRPercent = models.Float(1.0)

	tracker := g.Evaluate(weak, nil, nil)
	if !tracker.Rejected() || tracker.Rules()[0] != RuleADXTrend {
		t.Errorf("adx 12 should trip %s, got %v", RuleADXTrend, tracker.Rules())
	}

	shredder := models.NewEmptyTechnicals()
	shredder.ADX = models.Float(17)
	shredder.ATRPercent = models.Float(3.8)

	tracker = g.Evaluate(shredder, nil, nil)
	rules := tracker.Rules()
	found := false
	for _, r := range rules {
		if r == RuleCapitalShredder {
			found = true
		}
	}
	if !found {
		t.Errorf("atr%%=3.8 adx=17 should trip %s, got %v", RuleCapitalShredder, rules)
	}

	healthy := models.NewEmptyTechnicals()
	healthy.ADX = models.Float(28)
	healthy.ATRPercent = models.Float(1.2)
	if g.Evaluate(healthy, nil, nil).Rejected() {
		t.Error("healthy trend should pass")
	}
}

func TestAccrualQualityRule(t *testing.T) {
	g := testGovernor()
	tech := models.NewEmptyTechnicals()
	tech.ADX = models.Float(28)

	accrualHeavy := &models.FundamentalData{
		NetIncome:         models.Float(2e8),
		OperatingCashFlow: models.Float(5e7),
		TotalAssets:       models.Float(1e9),
	}
	if !g.Evaluate(tech, nil, accrualHeavy).Rejected() {
		t.Error("sloan 0.15 should trip accrual rule")
	}

	clean := &models.FundamentalData{
		NetIncome:         models.Float(1e8),
		OperatingCashFlow: models.Float(1.2e8),
		TotalAssets:       models.Float(1e9),
	}
	if g.Evaluate(tech, nil, clean).Rejected() {
		t.Error("negative accruals should pass")
	}

	if g.Evaluate(tech, nil, &models.FundamentalData{}).Rejected() {
		t.Error("unknown inputs must not trip the accrual rule")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	g := testGovernor()
	tech := models.NewEmptyTechnicals()
	tech.ADX = models.Float(12)
	tech.ATRPercent = models.Float(3.5)
	mc := contextWithSells(4, 30)

	first := g.Evaluate(tech, mc, nil)
	second := g.Evaluate(tech, mc, nil)
	if !reflect.DeepEqual(first.Violations(), second.Violations()) {
		t.Error("repeated evaluation must yield identical violations")
	}
}

func TestAssessDataIntegrity(t *testing.T) {
	full := models.NewEmptyTechnicals()
	full.RSI = models.Float(55)
	full.MACDHistogram = models.Float(0.5)
	full.CCI = models.Float(80)
	full.VolumeRatio = models.Float(1.1)

	if got := AssessDataIntegrity(full, nil, "AAPL"); got.State != models.IntegrityValid {
		t.Errorf("state = %s, want VALID", got.State)
	}

	missing := models.NewEmptyTechnicals()
	missing.MACDHistogram = models.Float(0.5)
	if got := AssessDataIntegrity(missing, nil, "AAPL"); got.State != models.IntegrityInvalid {
		t.Errorf("missing rsi: state = %s, want INVALID", got.State)
	}

	poisoned := models.NewEmptyTechnicals()
	poisoned.RSI = models.Float(55)
	poisoned.MACDHistogram = models.Float(0.5)
	poisoned.CCI = nil
	poisoned.VolumeRatio = models.Float(1.1)
	if got := AssessDataIntegrity(poisoned, nil, "AAPL"); got.State != models.IntegrityDegraded {
		t.Errorf("poisoned cci: state = %s, want DEGRADED", got.State)
	}

	highIV := &models.MarketContext{
		Ticker:  "AAPL",
		Options: &models.OptionsSentiment{ImpliedVol: models.Float(250)},
	}
	okTech := models.NewEmptyTechnicals()
	okTech.RSI = models.Float(55)
	okTech.MACDHistogram = models.Float(0.5)
	okTech.CCI = models.Float(80)
	okTech.VolumeRatio = models.Float(1.1)
	if got := AssessDataIntegrity(okTech, highIV, "AAPL"); got.State != models.IntegrityDegraded {
		t.Errorf("iv 250: state = %s, want DEGRADED", got.State)
	}

	// International tickers are exempt from the options check.
	if got := AssessDataIntegrity(okTech, highIV, "RELIANCE.NS"); got.State != models.IntegrityValid {
		t.Errorf("international ticker: state = %s, want VALID", got.State)
	}
}
