package governor

import (
	"fmt"
	"time"

	"github.com/bobmcallan/horizon/internal/models"
)

// Rule identifiers surfaced in violation lists and blocking issues.
const (
	RuleDataIntegrity     = "RULE_0_DATA_INTEGRITY"
	RuleInsiderSells      = "RULE_1_INSIDER_SELLS"
	RuleADXTrend          = "RULE_2_ADX_TREND"
	RuleEarningsProximity = "RULE_4_EARNINGS_PROXIMITY"
	RuleAccrualQuality    = "RULE_5_ACCRUAL_QUALITY"
	RuleCapitalShredder   = "REGIME_CAPITAL_SHREDDER"
)

const (
	insiderSellLimit      = 3
	insiderSellWindowDays = 90
	adxTrendFloor         = 15.0
	earningsWindowDays    = 14
	sloanRatioLimit       = 0.10
	shredderATRPct        = 3.0
	shredderADX           = 20.0
)

// Violation is one tripped rule with its human-readable reason.
type Violation struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// RejectionTracker accumulates rule violations for one evaluation.
type RejectionTracker struct {
	violations []Violation
}

// Add records a violation.
func (r *RejectionTracker) Add(rule, reason string) {
	r.violations = append(r.violations, Violation{Rule: rule, Reason: reason})
}

// Rejected reports whether any rule tripped.
func (r *RejectionTracker) Rejected() bool { return len(r.violations) > 0 }

// Violations returns the accumulated violations.
func (r *RejectionTracker) Violations() []Violation { return r.violations }

// Rules lists the tripped rule identifiers.
func (r *RejectionTracker) Rules() []string {
	rules := make([]string, 0, len(r.violations))
	for _, v := range r.violations {
		rules = append(rules, v.Rule)
	}
	return rules
}

// PrimaryReason returns the first violation's reason, or empty.
func (r *RejectionTracker) PrimaryReason() string {
	if len(r.violations) == 0 {
		return ""
	}
	return r.violations[0].Reason
}

// Governor evaluates the trading rules. Stateless and safe for concurrent
// use.
type Governor struct {
	now func() time.Time
}

// New returns a Governor using wall-clock time.
func New() *Governor { return &Governor{now: time.Now} }

// NewWithClock returns a Governor with an injected clock.
func NewWithClock(now func() time.Time) *Governor { return &Governor{now: now} }

// PreScreen applies the context-only rules (insider selling and earnings
// proximity) so rejected tickers short-circuit before any pricing work.
func (g *Governor) PreScreen(mc *models.MarketContext) *RejectionTracker {
	tracker := &RejectionTracker{}
	g.checkInsiderSells(tracker, mc)
	g.checkEarningsProximity(tracker, mc)
	return tracker
}

// Evaluate runs the full rule set over one horizon's inputs.
func (g *Governor) Evaluate(t *models.Technicals, mc *models.MarketContext, fd *models.FundamentalData) *RejectionTracker {
	tracker := &RejectionTracker{}

	g.checkInsiderSells(tracker, mc)

	if t != nil && t.ADX != nil && *t.ADX < adxTrendFloor {
		tracker.Add(RuleADXTrend, fmt.Sprintf("No tradeable trend: ADX %.1f below %.0f", *t.ADX, adxTrendFloor))
	}

	g.checkEarningsProximity(tracker, mc)

	if sloan := sloanRatio(fd); sloan != nil && *sloan > sloanRatioLimit {
		tracker.Add(RuleAccrualQuality, fmt.Sprintf("Accrual-heavy earnings: Sloan ratio %.2f exceeds %.2f", *sloan, sloanRatioLimit))
	}

	// Capital shredder: violent chop with no trend direction.
	if t != nil && t.ATRPercent != nil && t.ADX != nil && *t.ATRPercent > shredderATRPct && *t.ADX < shredderADX {
		tracker.Add(RuleCapitalShredder, fmt.Sprintf(
			"Capital shredder regime: volatility %.1f%% with no trend (ADX %.1f)", *t.ATRPercent, *t.ADX))
	}

	return tracker
}

func (g *Governor) checkInsiderSells(tracker *RejectionTracker, mc *models.MarketContext) {
	if mc == nil {
		return
	}
	sells := mc.InsiderSellsWithin(insiderSellWindowDays*24*time.Hour, g.now())
	if sells >= insiderSellLimit {
		tracker.Add(RuleInsiderSells, fmt.Sprintf("%d insider sells in the last %d days", sells, insiderSellWindowDays))
	}
}

func (g *Governor) checkEarningsProximity(tracker *RejectionTracker, mc *models.MarketContext) {
	if mc == nil || mc.NextEarnings == nil {
		return
	}
	days := mc.NextEarnings.DaysUntil
	if days >= 0 && days <= earningsWindowDays {
		tracker.Add(RuleEarningsProximity, fmt.Sprintf("Earnings in %d days: binary event risk", days))
	}
}

// sloanRatio = (net_income - operating_cash_flow) / total_assets. Nil when
// any input is unknown.
func sloanRatio(fd *models.FundamentalData) *float64 {
	if fd == nil || fd.NetIncome == nil || fd.OperatingCashFlow == nil || fd.TotalAssets == nil || *fd.TotalAssets == 0 {
		return nil
	}
	return models.Float((*fd.NetIncome - *fd.OperatingCashFlow) / *fd.TotalAssets)
}
