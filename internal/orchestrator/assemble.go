package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/models"
)

// assemble builds the response after all horizons are decided. Everything
// derived here flows from state already computed upstream.
func (o *Orchestrator) assemble(ctx context.Context, st *analysisState) *models.Response {
	primary := primaryHorizon(st.mode, st.decisions)
	primaryTech := st.technicals[primary]
	primarySig := st.signals[primary]
	primaryDecision := st.decisions[primary]
	if primaryDecision == nil {
		primaryDecision = &models.TradingDecision{
			Horizon:        primary,
			DecisionState:  models.DecisionWait,
			SetupState:     models.SetupSkipped,
			PrimaryReason:  "No decision available for primary horizon",
			ViolationRules: []string{},
		}
	}

	integrity := governor.AssessDataIntegrity(primaryTech, st.marketContext, st.ticker)
	conflicted := o.detectConflicts(st)
	o.applyVetoes(st, primaryTech)

	confidence := o.globalConfidence(st, primaryDecision, integrity, conflicted)
	strength := o.signalStrength(st, primarySig)
	authorized := confidence >= authorizeFloor &&
		integrity.State == models.IntegrityValid &&
		len(st.vetoes) == 0 &&
		primaryDecision.DecisionState == models.DecisionAccept

	action := mapAction(primaryDecision, primarySig, confidence, st.vetoes)
	if !authorized && action != "REJECT" && action != "HOLD" {
		action = "WAIT"
	}

	narrative := o.synthesize(ctx, st, strength, confidence, action)
	applyAuthority(narrative, st, action, confidence, authorized)

	return o.buildResponse(st, responseInputs{
		primary:       primary,
		primaryTech:   primaryTech,
		primarySig:    primarySig,
		decision:      primaryDecision,
		integrity:     integrity,
		confidence:    confidence,
		strength:      strength,
		authorized:    authorized,
		action:        action,
		narrative:     narrative,
	})
}

// finishPreScreenReject assembles a rejection without running the pricing
// pipeline. Every horizon is rejected and all actionable fields stay null.
func (o *Orchestrator) finishPreScreenReject(ctx context.Context, st *analysisState, tracker *governor.RejectionTracker) (*models.Response, error) {
	st.taxonomy["TECHNICALS"] = "SKIPPED_PRESCREEN"
	st.taxonomy["FUNDAMENTALS"] = "SKIPPED_PRESCREEN"
	st.taxonomy["NEWS"] = "SKIPPED_PRESCREEN"

	for _, horizon := range horizonsFor(st.mode) {
		st.decisions[horizon] = &models.TradingDecision{
			Horizon:        horizon,
			DecisionState:  models.DecisionReject,
			SetupState:     models.SetupInvalid,
			PrimaryReason:  tracker.PrimaryReason(),
			ViolationRules: tracker.Rules(),
		}
	}
	st.vetoes = append(st.vetoes, tracker.Rules()...)

	narrative := o.synthesize(ctx, st, -1.0, 0, "REJECT")
	applyAuthority(narrative, st, "REJECT", 0, false)

	decision := st.decisions[primaryHorizon(st.mode, st.decisions)]
	return o.buildResponse(st, responseInputs{
		primary:    decision.Horizon,
		decision:   decision,
		integrity:  models.IntegrityReport{State: models.IntegrityInvalid},
		confidence: 0,
		strength:   -1.0,
		authorized: false,
		action:     "REJECT",
		narrative:  narrative,
	}), nil
}

type responseInputs struct {
	primary     string
	primaryTech *models.Technicals
	primarySig  *models.AlgoSignal
	decision    *models.TradingDecision
	integrity   models.IntegrityReport
	confidence  float64
	strength    float64
	authorized  bool
	action      string
	narrative   *models.Narrative
}

func (o *Orchestrator) buildResponse(st *analysisState, in responseInputs) *models.Response {
	now := o.now()
	latency := now.Sub(st.started).Milliseconds()

	resp := &models.Response{
		Meta: models.Meta{
			Ticker:     st.ticker,
			Timestamp:  now.UTC(),
			Version:    common.Version,
			AnalysisID: uuidString(),
		},
		Execution:    o.buildExecution(st, in, now),
		Signals:      o.buildSignals(st, in),
		Levels:       buildLevels(in.primaryTech, st.fundamentals, now),
		Context:      buildRegimeContext(in.primaryTech, in.primarySig),
		HumanInsight: o.buildHumanInsight(st, in),
		System: models.SystemBlock{
			Confidence:         in.confidence,
			DataQuality:        in.integrity.State,
			BlockingIssues:     blockingIssues(in.decision, st.vetoes),
			DataStateTaxonomy:  st.taxonomy,
			LatencyMS:          latency,
			LayerTimings:       st.layerTimings,
			NextUpdate:         now.Add(common.SensorCacheTTL).UTC(),
			LatencySLAViolated: latency > models.SLAThresholdMS,
			SLAThresholdMS:     models.SLAThresholdMS,
			FallbackUsed:       st.fallbackUsed,
			EngineLogic:        st.engineLogic,
		},
		MarketContext: st.marketContext,
		AIAnalysis:    in.narrative,
		Fundamentals:  st.fundamentals,
		News:          st.news,
	}
	if len(st.technicals) > 0 {
		resp.Technicals = st.technicals
	}
	if len(st.decisions) > 0 {
		resp.Decisions = st.decisions
	}
	return resp
}

func (o *Orchestrator) buildExecution(st *analysisState, in responseInputs, now time.Time) models.Execution {
	exec := models.Execution{
		Action:     in.action,
		Authorized: in.authorized,
		Urgency:    urgencyFor(in.action, in.confidence),
		ValidUntil: now.Add(common.SensorCacheTTL).UTC(),
		Vetoes:     append([]string{}, st.vetoes...),
	}
	if in.authorized {
		exec.RiskLimits = models.RiskLimits{
			MaxPositionPct:   10.0,
			PositionSizePct:  in.decision.PositionSizePct,
			MaxCapitalAtRisk: in.decision.MaxCapitalAtRisk,
			StopLoss:         in.decision.StopLoss,
			TakeProfit:       in.decision.TakeProfit,
		}
	}
	return exec
}

// signalStrength is the weighted component sum on [-1, 1]. A hard veto
// forces -1.0 regardless of components.
func (o *Orchestrator) signalStrength(st *analysisState, sig *models.AlgoSignal) float64 {
	if len(st.vetoes) > 0 {
		return -1.0
	}
	c := components(st, sig)
	sum := models.ExpectancyWeighting * (c.Trend + c.Momentum + c.Expectancy + c.Valuation)
	return clamp(sum, -1, 1)
}

func components(st *analysisState, sig *models.AlgoSignal) models.SignalComponents {
	var c models.SignalComponents
	if sig != nil {
		c.Trend = clamp(sig.Trend.Value/100, -1, 1)
		c.Momentum = clamp(sig.Momentum.Value/100, -1, 1)
		c.Expectancy = clamp(sig.ExpectedValue, -1, 1)
	}
	c.Valuation = valuationComponent(st)
	return c
}

// valuationComponent compares intrinsic value to price: positive when the
// DCF says the stock is cheap. Zero when either side is unknown.
func valuationComponent(st *analysisState) float64 {
	if st.fundamentals == nil || st.fundamentals.DCF == nil || st.fundamentals.DCF.PerShare == nil {
		return 0
	}
	tech := st.technicals["positional"]
	if tech == nil {
		for _, t := range st.technicals {
			tech = t
			break
		}
	}
	if tech == nil || tech.Close == nil || *tech.Close <= 0 {
		return 0
	}
	return clamp(*st.fundamentals.DCF.PerShare / *tech.Close-1, -1, 1)
}

func (o *Orchestrator) buildSignals(st *analysisState, in responseInputs) models.SignalBlock {
	return models.SignalBlock{
		Actionable:            in.authorized && math.Abs(in.strength) >= requiredStrength,
		PrimarySignalStrength: in.strength,
		RequiredStrength:      requiredStrength,
		Components:            components(st, in.primarySig),
		NormalizationMethod:   models.NormalizationMethod,
		ExpectancyWeighting:   models.ExpectancyWeighting,
	}
}

// buildLevels places pivots around the current quote. Supports sit at or
// below current, resistances at or above; misordered pivots are dropped.
func buildLevels(t *models.Technicals, fr *models.FundamentalsReport, now time.Time) models.Levels {
	levels := models.Levels{
		Timestamp:  now.UTC(),
		Support:    []float64{},
		Resistance: []float64{},
		ValueZones: []models.ValueZone{},
	}
	if t == nil || t.Close == nil {
		return levels
	}
	current := *t.Close
	levels.Current = models.Float(current)

	for _, s := range []*float64{t.PivotS1, t.PivotS2} {
		if s != nil && *s <= current {
			levels.Support = append(levels.Support, *s)
		}
	}
	for _, r := range []*float64{t.PivotR1, t.PivotR2} {
		if r != nil && *r >= current {
			levels.Resistance = append(levels.Resistance, *r)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(levels.Support)))
	sort.Float64s(levels.Resistance)

	if fr != nil {
		if fr.DCF != nil && fr.DCF.PerShare != nil && *fr.DCF.PerShare < current {
			levels.ValueZones = append(levels.ValueZones, models.ValueZone{
				Low: *fr.DCF.PerShare * 0.9, High: *fr.DCF.PerShare, Label: "DCF intrinsic value",
			})
		}
		if fr.Graham != nil && fr.Graham.Value != nil && *fr.Graham.Value < current {
			levels.ValueZones = append(levels.ValueZones, models.ValueZone{
				Low: *fr.Graham.Value * 0.9, High: *fr.Graham.Value, Label: "Graham number",
			})
		}
	}
	return levels
}

func buildRegimeContext(t *models.Technicals, sig *models.AlgoSignal) models.RegimeContext {
	rc := models.RegimeContext{Regime: models.RegimeUnknown}
	if sig != nil {
		rc.Regime = sig.Regime
		rc.RegimeConfidence = regimeConfidence(t)
	}
	if t != nil {
		rc.TrendStrengthADX = t.ADX
		rc.VolatilityATRPct = t.ATRPercent
		rc.VolumeRatio = t.VolumeRatio
	}
	return rc
}

// regimeConfidence scales ADX distance from the 20 threshold into 0..100.
func regimeConfidence(t *models.Technicals) float64 {
	if t == nil || t.ADX == nil {
		return 0
	}
	return clamp(math.Abs(*t.ADX-20)*5, 0, 100)
}

func (o *Orchestrator) buildHumanInsight(st *analysisState, in responseInputs) models.HumanInsight {
	insight := models.HumanInsight{
		Summary:          in.decision.PrimaryReason,
		KeyConflicts:     append([]string{}, st.conflicts...),
		Scenarios:        buildScenarios(in),
		MonitorTriggers:  buildMonitorTriggers(st, in),
		ProbabilityBasis: models.ProbabilityBasis,
	}
	if in.narrative != nil && in.narrative.ExecutiveSummary != "" {
		insight.Summary = in.narrative.ExecutiveSummary
	}
	return insight
}

func buildScenarios(in responseInputs) models.Scenarios {
	if in.decision.DecisionState != models.DecisionAccept || in.primaryTech == nil || in.primaryTech.Close == nil {
		return models.Scenarios{
			Bullish: "Re-evaluate if signal strength exceeds the actionable floor",
			Bearish: "No position: downside scenarios carry no capital",
			Neutral: "Stand aside until the setup resolves",
		}
	}
	s := models.Scenarios{
		Neutral: "Price holds the entry zone: position thesis unchanged",
	}
	if in.decision.TakeProfit != nil {
		s.Bullish = scenarioLine("Target", *in.decision.TakeProfit)
	}
	if in.decision.StopLoss != nil {
		s.Bearish = scenarioLine("Stop", *in.decision.StopLoss)
	}
	return s
}

func scenarioLine(label string, price float64) string {
	return fmt.Sprintf("%s at %.2f", label, price)
}

func buildMonitorTriggers(st *analysisState, in responseInputs) []string {
	var triggers []string
	if st.marketContext != nil && st.marketContext.NextEarnings != nil && st.marketContext.NextEarnings.DaysUntil >= 0 {
		triggers = append(triggers, "Earnings release approaching")
	}
	if in.primaryTech != nil && in.primaryTech.ADX != nil && *in.primaryTech.ADX < 25 {
		triggers = append(triggers, "ADX crossing 25 would confirm trend")
	}
	if st.news != nil && st.news.NarrativeTrapWarning {
		triggers = append(triggers, "News flow dominated by low-diversity hype")
	}
	if in.decision.SetupState == models.SetupDegraded {
		triggers = append(triggers, "Degraded data inputs: re-run when sensors recover")
	}
	if triggers == nil {
		triggers = []string{}
	}
	return triggers
}

// mapAction translates the primary decision into the execution verb.
func mapAction(d *models.TradingDecision, sig *models.AlgoSignal, confidence float64, vetoes []string) string {
	if len(vetoes) > 0 || d.DecisionState == models.DecisionReject {
		return "REJECT"
	}
	if d.DecisionState == models.DecisionWait {
		// A weak signal at execution-grade confidence is a hold, not a
		// wait: nothing blocks the setup, the market just isn't moving.
		if sig != nil && math.Abs(sig.Overall.Value) < 20 && confidence >= 70 {
			return "HOLD"
		}
		return "WAIT"
	}
	if confidence < 70 {
		return "WAIT"
	}
	return directionalAction(sig)
}

func urgencyFor(action string, confidence float64) models.Urgency {
	switch action {
	case "BUY", "SELL":
		if confidence >= 85 {
			return models.UrgencyHigh
		}
		return models.UrgencyMedium
	case "HOLD":
		return models.UrgencyLow
	default:
		return models.UrgencyLow
	}
}

func blockingIssues(d *models.TradingDecision, vetoes []string) []string {
	issues := append([]string{}, d.ViolationRules...)
	issues = append(issues, vetoes...)
	if issues == nil {
		return []string{}
	}
	return issues
}
