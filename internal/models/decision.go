package models

// DecisionState is the authorized state of a TradingDecision.
type DecisionState string

const (
	DecisionAccept DecisionState = "ACCEPT"
	DecisionWait   DecisionState = "WAIT"
	DecisionReject DecisionState = "REJECT"
)

// SetupState tracks how much the decision inputs were degraded.
type SetupState string

const (
	SetupValid    SetupState = "VALID"
	SetupDegraded SetupState = "DEGRADED"
	SetupInvalid  SetupState = "INVALID"
	SetupSkipped  SetupState = "SKIPPED"
)

// SetupQuality grades an accepted setup.
type SetupQuality string

const (
	QualityLow    SetupQuality = "LOW"
	QualityMedium SetupQuality = "MEDIUM"
	QualityHigh   SetupQuality = "HIGH"
)

// EntryZone is the price band for entering an accepted setup.
type EntryZone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// TradingDecision is the canonical per-horizon decision record.
//
// Invariants enforced by the trading system:
//   - WAIT/REJECT: entry/stop/tp null, position and risk zero.
//   - REJECT: confidence zero, quality empty, violation rules non-empty.
//   - ACCEPT: stop loss and tp targets present, risk/reward >= 1.0.
type TradingDecision struct {
	Horizon          string        `json:"horizon"`
	DecisionState    DecisionState `json:"decision_state"`
	SetupState       SetupState    `json:"setup_state"`
	Confidence       float64       `json:"confidence"` // 0..100
	PrimaryReason    string        `json:"primary_reason"`
	ViolationRules   []string      `json:"violation_rules"`
	PositionSizePct  float64       `json:"position_size_pct"`
	MaxCapitalAtRisk float64       `json:"max_capital_at_risk"`
	RiskRewardRatio  float64       `json:"risk_reward_ratio"`
	StopLoss         *float64      `json:"stop_loss"`
	TakeProfit       *float64      `json:"take_profit"`
	TPTargets        []float64     `json:"tp_targets,omitempty"`
	EntryZone        *EntryZone    `json:"entry_zone,omitempty"`
	SetupQuality     SetupQuality  `json:"setup_quality,omitempty"`
}

// DataIntegrity is the three-state verdict over a horizon's inputs.
type DataIntegrity string

const (
	IntegrityValid    DataIntegrity = "VALID"
	IntegrityDegraded DataIntegrity = "DEGRADED"
	IntegrityInvalid  DataIntegrity = "INVALID"
)

// IntegrityReport carries the integrity verdict with the indicators that
// caused it.
type IntegrityReport struct {
	State    DataIntegrity `json:"state"`
	Poisoned []string      `json:"poisoned,omitempty"`
	Missing  []string      `json:"missing,omitempty"`
}
