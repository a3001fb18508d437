package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/bobmcallan/horizon/internal/models"
)

// bypassConfidenceFloor routes WAIT decisions below this confidence to the
// deterministic template instead of the LLM.
const bypassConfidenceFloor = 30.0

// shouldCallLLM applies the narrative gate. forceAI overrides every skip.
func (o *Orchestrator) shouldCallLLM(st *analysisState, strength, confidence float64, action string) bool {
	if o.narrative == nil {
		return false
	}
	if st.forceAI {
		return true
	}
	if st.mode == "execution" {
		return false
	}
	if o.now().Sub(st.started) > fastPathElapsed {
		return false
	}
	if math.Abs(strength) < requiredStrength && len(st.conflicts) == 0 {
		return false
	}
	if action == "REJECT" {
		return false
	}
	if action == "WAIT" && confidence < bypassConfidenceFloor {
		return false
	}
	return true
}

// synthesize picks the narrative path: LLM with deterministic fallback, or
// straight to the template.
func (o *Orchestrator) synthesize(ctx context.Context, st *analysisState, strength, confidence float64, action string) *models.Narrative {
	if o.shouldCallLLM(st, strength, confidence, action) {
		llmCtx, cancel := context.WithTimeout(ctx, narrativeDeadline)
		defer cancel()

		narrative, err := o.narrative.SynthesizeNarrative(llmCtx, o.buildPrompt(st, action, confidence))
		if err == nil && narrative != nil {
			st.engineLogic = models.EngineHybrid
			st.aiNarrative = narrative
			return narrative
		}
		// Silent fallback: the caller still gets a complete narrative.
		o.logger.Warn().Err(err).Str("ticker", st.ticker).Msg("narrative synthesis failed, using deterministic template")
		st.fallbackUsed = true
	}

	narrative := o.deterministicNarrative(st, action, confidence)
	st.aiNarrative = narrative
	return narrative
}

// buildPrompt compiles the quantitative record into the synthesis prompt.
// Only already-computed values go in; the model interprets, it never computes.
func (o *Orchestrator) buildPrompt(st *analysisState, action string, confidence float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the narrative layer of an equity decision engine analyzing %s.\n", st.ticker)
	b.WriteString("Interpret the pre-computed record below. Do not invent numbers; cite only values present in the record.\n")
	fmt.Fprintf(&b, "The system decision is %s with confidence %.0f/100. Your horizon actions must be consistent with it.\n\n", action, confidence)

	write := func(label string, v any) {
		if v == nil {
			return
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", label, raw)
	}

	write("technicals_by_horizon", st.technicals)
	write("algorithmic_signals", st.signals)
	write("trading_decisions", st.decisions)
	if st.marketContext != nil {
		write("market_context", st.marketContext)
	}
	if st.fundamentals != nil {
		write("fundamentals", st.fundamentals)
	}
	if st.news != nil {
		write("news_digest", st.news)
	}
	if len(st.conflicts) > 0 {
		write("conflicts", st.conflicts)
	}

	b.WriteString(`Respond with a single JSON object:
{
  "executive_summary": "...",
  "horizons": {
    "intraday":   {"action": "BUY|SELL|HOLD|WAIT|REJECT", "confidence": 0-100, "entry": 0.0, "target": 0.0, "stop_loss": 0.0, "signals": [{"name": "...", "value_at_analysis": 0.0, "interpretation": "..."}], "rationale": "..."},
    "swing":      {...},
    "positional": {...},
    "longterm":   {...}
  },
  "options_fno": "...",
  "market_sentiment": {"overall": "BULLISH|BEARISH|NEUTRAL", "score": -100 to 100, "news_score": -100 to 100, "summary": "..."}
}
Return only the JSON object.`)

	return b.String()
}

// deterministicNarrative renders the bypass template straight from the
// decision records. No model involved.
func (o *Orchestrator) deterministicNarrative(st *analysisState, action string, confidence float64) *models.Narrative {
	narrative := &models.Narrative{
		ExecutiveSummary: deterministicSummary(st.ticker, action, confidence, st.decisions),
		Horizons:         make(map[string]*models.HorizonPerspective),
		Source:           "deterministic",
	}

	for _, horizon := range models.HorizonNames {
		d, ok := st.decisions[horizon]
		if !ok {
			continue
		}
		p := &models.HorizonPerspective{
			Action:     string(d.DecisionState),
			Confidence: d.Confidence,
			Rationale:  d.PrimaryReason,
		}
		if d.DecisionState == models.DecisionAccept {
			p.Action = directionalAction(st.signals[horizon])
			if d.EntryZone != nil {
				p.Entry = (d.EntryZone.Low + d.EntryZone.High) / 2
			}
			if d.TakeProfit != nil {
				p.Target = *d.TakeProfit
			}
			if d.StopLoss != nil {
				p.StopLoss = *d.StopLoss
			}
		}
		if tech := st.technicals[horizon]; tech != nil {
			p.Signals = evidenceSignals(tech)
		}
		narrative.Horizons[horizon] = p
	}

	if st.news != nil {
		narrative.Sentiment = &models.MarketSentiment{
			Overall:   sentimentLabel(st.news.SignalScore),
			Score:     st.news.SignalScore,
			NewsScore: st.news.SignalScore,
		}
	}
	if st.marketContext != nil && st.marketContext.Options != nil && st.marketContext.Options.Label != "" {
		narrative.OptionsFNO = fmt.Sprintf("Options chain flagged: %s", st.marketContext.Options.Label)
	}
	return narrative
}

func deterministicSummary(ticker, action string, confidence float64, decisions map[string]*models.TradingDecision) string {
	for _, horizon := range models.HorizonNames {
		if d, ok := decisions[horizon]; ok && d.PrimaryReason != "" {
			return fmt.Sprintf("%s: %s (confidence %.0f). %s", ticker, action, confidence, d.PrimaryReason)
		}
	}
	return fmt.Sprintf("%s: %s (confidence %.0f).", ticker, action, confidence)
}

func directionalAction(sig *models.AlgoSignal) string {
	if sig == nil {
		return "WAIT"
	}
	if sig.Overall.Value > 0 {
		return "BUY"
	}
	return "SELL"
}

func sentimentLabel(score float64) string {
	switch {
	case score > 10:
		return "BULLISH"
	case score < -10:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// evidenceSignals lists the non-null headline indicators as citable evidence.
func evidenceSignals(t *models.Technicals) []models.NarrativeSignal {
	var signals []models.NarrativeSignal
	add := func(name string, v *float64) {
		if v != nil {
			signals = append(signals, models.NarrativeSignal{Name: name, ValueAtAnalysis: v})
		}
	}
	add("rsi", t.RSI)
	add("macd_histogram", t.MACDHistogram)
	add("adx", t.ADX)
	add("atr_percent", t.ATRPercent)
	return signals
}

// applyAuthority enforces the system decision over the narrative: horizon
// confidences are clamped to the system ceiling, unauthorized runs lose all
// actionable levels, and horizon actions may not contradict the system
// decision. Signals citing indicators that are null in the record are
// dropped.
func applyAuthority(narrative *models.Narrative, st *analysisState, action string, systemConfidence float64, authorized bool) {
	if narrative == nil {
		return
	}
	for horizon, p := range narrative.Horizons {
		if p == nil {
			continue
		}
		if p.Confidence > systemConfidence {
			p.Confidence = systemConfidence
		}
		if !authorized {
			p.Entry, p.Target, p.StopLoss = 0, 0, 0
			if action == "REJECT" || action == "WAIT" {
				p.Action = action
			}
		} else if action == "WAIT" && (p.Action == "BUY" || p.Action == "SELL") {
			p.Action = "WAIT"
		}
		p.Signals = filterCitedSignals(p.Signals, st.technicals[horizon])
	}
}

// filterCitedSignals drops citations whose underlying indicator is null. A
// narrative may not reference evidence the record does not hold.
func filterCitedSignals(signals []models.NarrativeSignal, t *models.Technicals) []models.NarrativeSignal {
	if len(signals) == 0 {
		return signals
	}
	kept := signals[:0]
	for _, s := range signals {
		if s.ValueAtAnalysis == nil {
			continue
		}
		if t != nil && indicatorIsNull(t, s.Name) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func indicatorIsNull(t *models.Technicals, name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rsi":
		return t.RSI == nil
	case "macd", "macd_histogram", "macd_hist":
		return t.MACDHistogram == nil
	case "adx":
		return t.ADX == nil
	case "atr", "atr_percent":
		return t.ATRPercent == nil
	case "cci":
		return t.CCI == nil
	case "volume_ratio":
		return t.VolumeRatio == nil
	case "bb_position":
		return t.BBPosition == nil
	default:
		return false
	}
}
