package models

import "time"

// Urgency grades how quickly an authorized action should be taken.
type Urgency string

const (
	UrgencyLow       Urgency = "LOW"
	UrgencyMedium    Urgency = "MEDIUM"
	UrgencyHigh      Urgency = "HIGH"
	UrgencyImmediate Urgency = "IMMEDIATE"
)

// EngineLogic names the path that produced the response narrative.
const (
	EngineHybrid        = "HYBRID"
	EngineDeterministic = "DETERMINISTIC"
)

// Normalization constants surfaced verbatim in the signals block.
const (
	NormalizationMethod = "Z-SCORE_CLAMPED"
	ExpectancyWeighting = 0.25
	ProbabilityBasis    = "HEURISTIC"
	SLAThresholdMS      = 5000
)

// Meta identifies one analysis run.
type Meta struct {
	Ticker     string    `json:"ticker"`
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version"`
	AnalysisID string    `json:"analysis_id"`
}

// RiskLimits is the sizing envelope attached to the execution block.
type RiskLimits struct {
	MaxPositionPct   float64 `json:"max_position_pct"`
	PositionSizePct  float64 `json:"position_size_pct"`
	MaxCapitalAtRisk float64 `json:"max_capital_at_risk"`
	StopLoss         *float64 `json:"stop_loss"`
	TakeProfit       *float64 `json:"take_profit"`
}

// Execution is the actionable verdict of the run.
type Execution struct {
	Action     string     `json:"action"` // BUY | SELL | HOLD | WAIT | REJECT
	Authorized bool       `json:"authorized"`
	Urgency    Urgency    `json:"urgency"`
	ValidUntil time.Time  `json:"valid_until"`
	RiskLimits RiskLimits `json:"risk_limits"`
	Vetoes     []string   `json:"vetoes"`
}

// SignalComponents breaks the primary signal into its weighted parts.
type SignalComponents struct {
	Trend      float64 `json:"trend"`
	Momentum   float64 `json:"momentum"`
	Expectancy float64 `json:"expectancy"`
	Valuation  float64 `json:"valuation"`
}

// SignalBlock summarizes directional signal strength. When a hard veto is
// present PrimarySignalStrength is forced to -1.0 regardless of components.
type SignalBlock struct {
	Actionable            bool             `json:"actionable"`
	PrimarySignalStrength float64          `json:"primary_signal_strength"` // [-1,1]
	RequiredStrength      float64          `json:"required_strength"`
	Components            SignalComponents `json:"components"`
	NormalizationMethod   string           `json:"normalization_method"`
	ExpectancyWeighting   float64          `json:"expectancy_weighting"`
}

// ValueZone is a price band flagged as attractive by valuation.
type ValueZone struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Label string  `json:"label,omitempty"`
}

// Levels carries price levels around the current quote. Every support is at
// or below current, every resistance at or above.
type Levels struct {
	Current    *float64    `json:"current"`
	Timestamp  time.Time   `json:"timestamp"`
	Support    []float64   `json:"support"`
	Resistance []float64   `json:"resistance"`
	ValueZones []ValueZone `json:"value_zones"`
}

// RegimeContext is the regime snapshot accompanying the decision.
type RegimeContext struct {
	Regime           Regime   `json:"regime"`
	RegimeConfidence float64  `json:"regime_confidence"`
	TrendStrengthADX *float64 `json:"trend_strength_adx"`
	VolatilityATRPct *float64 `json:"volatility_atr_pct"`
	VolumeRatio      *float64 `json:"volume_ratio"`
}

// Scenarios are the three-way forward view in the human insight block.
type Scenarios struct {
	Bullish string `json:"bullish"`
	Bearish string `json:"bearish"`
	Neutral string `json:"neutral"`
}

// HumanInsight is the plain-language layer of the response.
type HumanInsight struct {
	Summary          string    `json:"summary"`
	KeyConflicts     []string  `json:"key_conflicts"`
	Scenarios        Scenarios `json:"scenarios"`
	MonitorTriggers  []string  `json:"monitor_triggers"`
	ProbabilityBasis string    `json:"probability_basis"`
}

// SystemBlock is the single source of truth for confidence and run health.
// Every per-horizon confidence in the AI analysis must not exceed Confidence.
type SystemBlock struct {
	Confidence         float64            `json:"confidence"` // 0..100
	DataQuality        DataIntegrity      `json:"data_quality"`
	BlockingIssues     []string           `json:"blocking_issues"`
	DataStateTaxonomy  map[string]string  `json:"data_state_taxonomy"`
	LatencyMS          int64              `json:"latency_ms"`
	LayerTimings       map[string]int64   `json:"layer_timings"`
	NextUpdate         time.Time          `json:"next_update"`
	LatencySLAViolated bool               `json:"latency_sla_violated"`
	SLAThresholdMS     int64              `json:"sla_threshold_ms"`
	FallbackUsed       bool               `json:"fallback_used"`
	EngineLogic        string             `json:"engine_logic"`
}

// Response is the external contract returned by the analysis endpoint.
type Response struct {
	Meta          Meta           `json:"meta"`
	Execution     Execution      `json:"execution"`
	Signals       SignalBlock    `json:"signals"`
	Levels        Levels         `json:"levels"`
	Context       RegimeContext  `json:"context"`
	HumanInsight  HumanInsight   `json:"human_insight"`
	System        SystemBlock    `json:"system"`
	MarketContext *MarketContext `json:"market_context,omitempty"`
	AIAnalysis    *Narrative     `json:"ai_analysis,omitempty"`
	Fundamentals  *FundamentalsReport `json:"fundamentals,omitempty"`
	Technicals    map[string]*Technicals `json:"technicals,omitempty"`
	Decisions     map[string]*TradingDecision `json:"decisions,omitempty"`
	News          *NewsDigest    `json:"news,omitempty"`
}
