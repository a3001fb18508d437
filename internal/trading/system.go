// Package trading composes per-horizon decisions from the governor verdict,
// the algorithmic signal and the risk sizing ladder.
package trading

import (
	"fmt"
	"math"

	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/models"
	"github.com/bobmcallan/horizon/internal/risk"
)

const (
	minActionableOverall = 20.0
	minAcceptConfidence  = 70.0
	stopATRMultiple      = 2.0
	entryZoneATRMultiple = 0.5
)

// System builds TradingDecisions. Stateless and safe for concurrent use.
type System struct {
	governor *governor.Governor
	risk     *risk.Engine
}

// NewSystem wires a trading system from its engines.
func NewSystem(gov *governor.Governor, riskEngine *risk.Engine) *System {
	return &System{governor: gov, risk: riskEngine}
}

// Decide produces the decision for one horizon.
func (s *System) Decide(horizon string, t *models.Technicals, sig *models.AlgoSignal, mc *models.MarketContext, fd *models.FundamentalData) *models.TradingDecision {
	integrity := governor.AssessDataIntegrity(t, mc, tickerOf(mc))

	if integrity.State == models.IntegrityInvalid {
		return rejectDecision(horizon, "Data integrity failure: core indicators missing",
			[]string{governor.RuleDataIntegrity})
	}

	tracker := s.governor.Evaluate(t, mc, fd)
	if tracker.Rejected() {
		d := rejectDecision(horizon, tracker.PrimaryReason(), tracker.Rules())
		return d
	}

	setupState := models.SetupValid
	if integrity.State == models.IntegrityDegraded {
		setupState = models.SetupDegraded
	}

	confidence := s.baseConfidence(sig, mc)

	if sig == nil || math.Abs(sig.Overall.Value) < minActionableOverall || confidence < minAcceptConfidence {
		return &models.TradingDecision{
			Horizon:        horizon,
			DecisionState:  models.DecisionWait,
			SetupState:     setupState,
			Confidence:     confidence,
			PrimaryReason:  waitReason(sig, confidence),
			ViolationRules: []string{},
		}
	}

	return s.acceptDecision(horizon, t, sig, mc, setupState, confidence)
}

// baseConfidence starts at 80 and adjusts for confluence, volatility and
// analyst coverage gaps.
func (s *System) baseConfidence(sig *models.AlgoSignal, mc *models.MarketContext) float64 {
	confidence := 80.0
	if sig == nil {
		return 0
	}

	switch {
	case sig.ConfluenceScore < 4:
		confidence -= 30
	case sig.ConfluenceScore < 6:
		confidence -= 10
	case sig.ConfluenceScore >= 8:
		confidence += 10
	}

	if sig.VolatilityRisk == models.VolatilityHigh {
		confidence -= 10
	}

	// A published consensus with no underlying ratings is a coverage smell.
	if mc != nil && mc.Consensus != nil && len(mc.Ratings) == 0 {
		confidence -= 15
	}

	return clamp(confidence, 0, 100)
}

func (s *System) acceptDecision(horizon string, t *models.Technicals, sig *models.AlgoSignal, mc *models.MarketContext, setupState models.SetupState, confidence float64) *models.TradingDecision {
	if t == nil || t.Close == nil || t.ATR == nil || *t.ATR <= 0 {
		return &models.TradingDecision{
			Horizon:        horizon,
			DecisionState:  models.DecisionWait,
			SetupState:     setupState,
			Confidence:     confidence,
			PrimaryReason:  "No volatility estimate for level construction",
			ViolationRules: []string{},
		}
	}

	price := *t.Close
	atr := *t.ATR
	long := sig.Overall.Value > 0

	direction := 1.0
	if !long {
		direction = -1.0
	}

	stop := price - direction*stopATRMultiple*atr
	targets := []float64{
		price + direction*2*atr,
		price + direction*4*atr,
	}
	takeProfit := targets[len(targets)-1]

	riskPerShare := math.Abs(price - stop)
	reward := math.Abs(takeProfit - price)
	rr := 0.0
	if riskPerShare > 0 {
		rr = reward / riskPerShare
	}
	if rr < 1.0 {
		return rejectDecision(horizon, "Mathematically Invalid: reward does not cover risk",
			[]string{"RISK_REWARD_FLOOR"})
	}

	adv := 0.0
	if t.VolumeAvg20D != nil {
		adv = *t.VolumeAvg20D
	}
	daysToEarnings := -1
	if mc != nil && mc.NextEarnings != nil {
		daysToEarnings = mc.NextEarnings.DaysUntil
	}
	sizing := s.risk.Size(price, riskPerShare, adv, daysToEarnings, setupState)

	return &models.TradingDecision{
		Horizon:          horizon,
		DecisionState:    models.DecisionAccept,
		SetupState:       setupState,
		Confidence:       confidence,
		PrimaryReason:    acceptReason(long, sig),
		ViolationRules:   []string{},
		PositionSizePct:  sizing.PositionSizePct,
		MaxCapitalAtRisk: sizing.MaxCapitalAtRisk,
		RiskRewardRatio:  rr,
		StopLoss:         models.Float(stop),
		TakeProfit:       models.Float(takeProfit),
		TPTargets:        targets,
		EntryZone: &models.EntryZone{
			Low:  price - entryZoneATRMultiple*atr,
			High: price + entryZoneATRMultiple*atr,
		},
		SetupQuality: setupQuality(sig.ConfluenceScore),
	}
}

func rejectDecision(horizon, reason string, rules []string) *models.TradingDecision {
	return &models.TradingDecision{
		Horizon:        horizon,
		DecisionState:  models.DecisionReject,
		SetupState:     models.SetupInvalid,
		Confidence:     0,
		PrimaryReason:  reason,
		ViolationRules: rules,
	}
}

func setupQuality(confluence int) models.SetupQuality {
	switch {
	case confluence >= 8:
		return models.QualityHigh
	case confluence >= 6:
		return models.QualityMedium
	default:
		return models.QualityLow
	}
}

func waitReason(sig *models.AlgoSignal, confidence float64) string {
	if sig == nil {
		return "Insufficient signal data"
	}
	if math.Abs(sig.Overall.Value) < minActionableOverall {
		return fmt.Sprintf("Signal too weak to act on (overall %.0f)", sig.Overall.Value)
	}
	return fmt.Sprintf("Confidence %.0f below the execution floor", confidence)
}

func acceptReason(long bool, sig *models.AlgoSignal) string {
	side := "Long"
	if !long {
		side = "Short"
	}
	return fmt.Sprintf("%s setup: %s regime with %d/10 confluence", side, sig.Regime, sig.ConfluenceScore)
}

func tickerOf(mc *models.MarketContext) string {
	if mc == nil {
		return ""
	}
	return mc.Ticker
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
