package models

// NarrativeSignal is one evidence item cited by a horizon perspective.
// Signals whose ValueAtAnalysis is null are dropped during repair.
type NarrativeSignal struct {
	Name            string   `json:"name"`
	ValueAtAnalysis *float64 `json:"value_at_analysis"`
	Interpretation  string   `json:"interpretation,omitempty"`
}

// HorizonPerspective is the narrative view for one trading horizon.
type HorizonPerspective struct {
	Action     string            `json:"action"`
	Confidence float64           `json:"confidence"`
	Entry      float64           `json:"entry"`
	Target     float64           `json:"target"`
	StopLoss   float64           `json:"stop_loss"`
	Signals    []NarrativeSignal `json:"signals,omitempty"`
	Rationale  string            `json:"rationale"`
}

// MarketSentiment is the narrative's qualitative sentiment read.
type MarketSentiment struct {
	Overall   string  `json:"overall"`
	Score     float64 `json:"score"`
	NewsScore float64 `json:"news_score"`
	Summary   string  `json:"summary,omitempty"`
}

// Narrative is the fixed-schema output of the narrative synthesizer,
// whether produced by the LLM or by the deterministic bypass template.
type Narrative struct {
	ExecutiveSummary string                         `json:"executive_summary"`
	Horizons         map[string]*HorizonPerspective `json:"horizons"` // intraday/swing/positional/longterm
	OptionsFNO       string                         `json:"options_fno,omitempty"`
	Sentiment        *MarketSentiment               `json:"market_sentiment,omitempty"`
	Source           string                         `json:"source"` // "llm" | "deterministic"
}

// HorizonNames is the fixed ordering used when joining horizon results.
var HorizonNames = []string{"intraday", "swing", "positional", "longterm"}
