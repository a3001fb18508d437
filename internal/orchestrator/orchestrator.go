// Package orchestrator runs the full analysis pipeline: sensor fan-out,
// per-horizon decisions, conflict resolution and response assembly.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/horizon/internal/common"
	"github.com/bobmcallan/horizon/internal/governor"
	"github.com/bobmcallan/horizon/internal/indicators"
	"github.com/bobmcallan/horizon/internal/interfaces"
	"github.com/bobmcallan/horizon/internal/models"
	"github.com/bobmcallan/horizon/internal/scoring"
	"github.com/bobmcallan/horizon/internal/trading"
)

const (
	sensorDeadline    = 30 * time.Second
	narrativeDeadline = 30 * time.Second
	fastPathElapsed   = 6 * time.Second

	requiredStrength = 0.15
	authorizeFloor   = 40.0
	blindnessCap     = 40.0
	blindnessDecay   = 0.85

	// Hard veto raised when a weak trend meets a price stretched past the
	// analyst consensus.
	VetoRegimeValuation = "REGIME_VALUATION_CONFLICT"
)

// horizonIntervals maps trading horizons onto bar intervals.
var horizonIntervals = map[string]string{
	"intraday":   "15m",
	"swing":      "1h",
	"positional": "1d",
	"longterm":   "1wk",
}

// Orchestrator owns the analysis pipeline. All engines are stateless; the
// orchestrator itself is safe for concurrent requests.
type Orchestrator struct {
	market       interfaces.MarketDataSensor
	marketCtx    interfaces.ContextSensor
	news         interfaces.NewsAggregator
	fundamentals interfaces.FundamentalsSensor
	narrative    interfaces.NarrativeClient

	indicators *indicators.Engine
	scoring    *scoring.Engine
	trading    *trading.System
	governor   *governor.Governor

	logger *common.Logger
	now    func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithNarrativeClient wires the LLM narrative client; without it every
// narrative comes from the deterministic template.
func WithNarrativeClient(client interfaces.NarrativeClient) Option {
	return func(o *Orchestrator) { o.narrative = client }
}

// WithClock injects a clock for tests. Callers who need the governor on the
// same clock construct it with governor.NewWithClock and pass it to New.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New wires an orchestrator from its sensors and engines.
func New(
	market interfaces.MarketDataSensor,
	marketCtx interfaces.ContextSensor,
	news interfaces.NewsAggregator,
	fundamentalsSensor interfaces.FundamentalsSensor,
	tradingSystem *trading.System,
	gov *governor.Governor,
	logger *common.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		market:       market,
		marketCtx:    marketCtx,
		news:         news,
		fundamentals: fundamentalsSensor,
		indicators:   indicators.NewEngine(),
		scoring:      scoring.NewEngine(),
		trading:      tradingSystem,
		governor:     gov,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// analysisState carries everything gathered during one request.
type analysisState struct {
	ticker  string
	mode    string
	forceAI bool
	started time.Time

	marketContext *models.MarketContext
	technicals    map[string]*models.Technicals
	signals       map[string]*models.AlgoSignal
	decisions     map[string]*models.TradingDecision
	fundamentals  *models.FundamentalsReport
	news          *models.NewsDigest

	taxonomy     map[string]string
	layerTimings map[string]int64
	vetoes       []string
	conflicts    []string
	fallbackUsed bool
	engineLogic  string
	aiNarrative  *models.Narrative
}

// horizonsFor returns the horizons a mode analyzes, in canonical order.
func horizonsFor(mode string) []string {
	if _, ok := horizonIntervals[mode]; ok {
		return []string{mode}
	}
	return models.HorizonNames
}

// Analyze runs the pipeline for one ticker and returns the assembled
// response. Only a fully missing technical pipeline is a terminal error.
func (o *Orchestrator) Analyze(ctx context.Context, ticker, mode string, forceAI bool) (*models.Response, error) {
	st := &analysisState{
		ticker:  ticker,
		mode:    mode,
		forceAI: forceAI,
		started: o.now(),

		technicals:   make(map[string]*models.Technicals),
		signals:      make(map[string]*models.AlgoSignal),
		decisions:    make(map[string]*models.TradingDecision),
		taxonomy:     make(map[string]string),
		layerTimings: make(map[string]int64),
		engineLogic:  models.EngineDeterministic,
	}

	contextStart := o.now()
	mc, err := o.marketCtx.GetContext(ctx, ticker)
	if err != nil {
		o.logger.Warn().Err(err).Str("ticker", ticker).Msg("context sensor failed")
		st.taxonomy["CONTEXT"] = "MISSING"
	} else {
		st.marketContext = mc
		st.taxonomy["CONTEXT"] = "OK"
	}
	st.layerTimings["context"] = o.now().Sub(contextStart).Milliseconds()

	// Pre-screen short-circuits rejected tickers before any pricing work.
	if tracker := o.governor.PreScreen(st.marketContext); tracker.Rejected() {
		return o.finishPreScreenReject(ctx, st, tracker)
	}

	if err := o.fanOut(ctx, st); err != nil {
		return nil, err
	}

	o.decideHorizons(st)
	return o.assemble(ctx, st), nil
}

// fanOut runs the sensor fetches in parallel under the global deadline.
// Per-branch failures degrade the taxonomy; only a fully missing technical
// pipeline aborts.
func (o *Orchestrator) fanOut(ctx context.Context, st *analysisState) error {
	fanCtx, cancel := context.WithTimeout(ctx, sensorDeadline)
	defer cancel()

	horizons := horizonsFor(st.mode)
	var mu sync.Mutex
	fanStart := o.now()

	g, gctx := errgroup.WithContext(fanCtx)

	for _, horizon := range horizons {
		interval := horizonIntervals[horizon]
		g.Go(func() error {
			series, err := o.market.GetPriceHistory(gctx, st.ticker, interval)
			if err != nil {
				o.logger.Warn().Err(err).Str("ticker", st.ticker).Str("horizon", horizon).Msg("price history failed")
				return nil
			}
			tech := o.indicators.Compute(series)
			mu.Lock()
			st.technicals[horizon] = tech
			mu.Unlock()
			return nil
		})
	}

	if st.mode != "intraday" && st.mode != "execution" {
		g.Go(func() error {
			report, err := o.fundamentals.GetReport(gctx, st.ticker)
			if err != nil {
				o.logger.Warn().Err(err).Str("ticker", st.ticker).Msg("fundamentals failed")
				return nil
			}
			mu.Lock()
			st.fundamentals = report
			mu.Unlock()
			return nil
		})
	} else {
		st.taxonomy["FUNDAMENTALS"] = "SKIPPED_MODE"
	}

	g.Go(func() error {
		digest, err := o.news.GetDigest(gctx, st.ticker)
		if err != nil {
			o.logger.Warn().Err(err).Str("ticker", st.ticker).Msg("news failed")
			return nil
		}
		mu.Lock()
		st.news = digest
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	st.layerTimings["sensors"] = o.now().Sub(fanStart).Milliseconds()

	if len(st.technicals) == 0 {
		st.taxonomy["TECHNICALS"] = "MISSING"
		return fmt.Errorf("%w: technical pipeline unavailable for %s", models.ErrSensorFailure, st.ticker)
	}
	st.taxonomy["TECHNICALS"] = "OK"

	if _, skipped := st.taxonomy["FUNDAMENTALS"]; !skipped {
		if st.fundamentals == nil {
			st.taxonomy["FUNDAMENTALS"] = "MISSING"
		} else {
			st.taxonomy["FUNDAMENTALS"] = "OK"
		}
	}
	if st.news == nil {
		st.taxonomy["NEWS"] = "MISSING"
	} else {
		st.taxonomy["NEWS"] = "OK"
	}
	return nil
}

// decideHorizons runs scoring and the trading system per horizon, joined
// deterministically by canonical horizon order.
func (o *Orchestrator) decideHorizons(st *analysisState) {
	decideStart := o.now()
	var fd *models.FundamentalData
	if st.fundamentals != nil {
		fd = st.fundamentals.Data
	}

	for _, horizon := range horizonsFor(st.mode) {
		tech, ok := st.technicals[horizon]
		if !ok {
			st.decisions[horizon] = &models.TradingDecision{
				Horizon:        horizon,
				DecisionState:  models.DecisionWait,
				SetupState:     models.SetupSkipped,
				PrimaryReason:  "Price history unavailable for this horizon",
				ViolationRules: []string{},
			}
			continue
		}
		sig := o.scoring.Evaluate(tech)
		st.signals[horizon] = sig
		st.decisions[horizon] = o.trading.Decide(horizon, tech, sig, st.marketContext, fd)
	}
	st.layerTimings["decision"] = o.now().Sub(decideStart).Milliseconds()
}

// primaryHorizon picks the horizon whose decision anchors the response.
func primaryHorizon(mode string, decisions map[string]*models.TradingDecision) string {
	if _, ok := horizonIntervals[mode]; ok {
		return mode
	}
	for _, h := range []string{"swing", "positional", "intraday", "longterm"} {
		if d, ok := decisions[h]; ok && d.SetupState != models.SetupSkipped {
			return h
		}
	}
	return "swing"
}

// directionOf reduces a horizon to -1, 0 or +1.
func directionOf(sig *models.AlgoSignal, d *models.TradingDecision) int {
	if sig == nil || d == nil || d.DecisionState != models.DecisionAccept {
		return 0
	}
	if sig.Overall.Value > 0 {
		return 1
	}
	if sig.Overall.Value < 0 {
		return -1
	}
	return 0
}

// detectConflicts finds directional disagreement across the short horizons.
func (o *Orchestrator) detectConflicts(st *analysisState) bool {
	var positive, negative bool
	for _, h := range []string{"intraday", "swing", "positional"} {
		switch directionOf(st.signals[h], st.decisions[h]) {
		case 1:
			positive = true
		case -1:
			negative = true
		}
	}
	if positive && negative {
		st.conflicts = append(st.conflicts, "Directional disagreement across intraday/swing/positional horizons")
		return true
	}
	return false
}

// applyVetoes raises hard vetoes from cross-record invariants.
func (o *Orchestrator) applyVetoes(st *analysisState, primary *models.Technicals) {
	if primary == nil || primary.ADX == nil || primary.Close == nil {
		return
	}
	if st.marketContext == nil || st.marketContext.PriceTargets == nil || st.marketContext.PriceTargets.Mean == nil {
		return
	}
	target := *st.marketContext.PriceTargets.Mean
	if *primary.ADX < 20 && *primary.Close > 1.04*target {
		st.vetoes = append(st.vetoes, VetoRegimeValuation)
		st.conflicts = append(st.conflicts,
			fmt.Sprintf("Price %.2f stretched %.0f%% past consensus target %.2f with no trend (ADX %.1f)",
				*primary.Close, (*primary.Close/target-1)*100, target, *primary.ADX))
	}
}

// globalConfidence folds conflicts and blindness into the primary decision
// confidence. The result is the single source of truth for the response.
func (o *Orchestrator) globalConfidence(st *analysisState, primary *models.TradingDecision, integrity models.IntegrityReport, conflicted bool) float64 {
	confidence := primary.Confidence

	if conflicted {
		confidence *= 0.5
	}

	if integrity.State == models.IntegrityDegraded {
		confidence = math.Min(confidence, blindnessCap)
	}

	// Each missing critical datum narrows the field of view further.
	for _, key := range []string{"CONTEXT", "FUNDAMENTALS", "NEWS"} {
		if st.taxonomy[key] == "MISSING" {
			confidence *= blindnessDecay
		}
	}

	if len(st.vetoes) > 0 && primary.DecisionState == models.DecisionAccept {
		confidence = math.Min(confidence, authorizeFloor-1)
	}

	return clamp(confidence, 0, 100)
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

// uuidString is split out so tests can assert the id is well-formed.
func uuidString() string { return uuid.NewString() }
