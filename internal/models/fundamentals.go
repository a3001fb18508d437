package models

import "time"

// FundamentalData is the wide nullable metric record produced by pass A of
// the fundamentals engine. Missing is a first-class state for every field;
// downstream rules must never substitute zero for null.
type FundamentalData struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
	Sector string `json:"sector,omitempty"`

	// Valuation
	Price               *float64 `json:"price"`
	MarketCap           *float64 `json:"market_cap"`
	TrailingPE          *float64 `json:"trailing_pe"`
	ForwardPE           *float64 `json:"forward_pe"`
	EPS                 *float64 `json:"eps"`
	EarningsYield       *float64 `json:"earnings_yield"`
	EnterpriseValue     *float64 `json:"enterprise_value"`
	EnterpriseToRevenue *float64 `json:"enterprise_to_revenue"`
	PriceToBook         *float64 `json:"price_to_book"`
	BookValuePerShare   *float64 `json:"book_value_per_share"`

	// Profitability
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	NetMargin       *float64 `json:"net_margin"`
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`

	// Cash flow
	FreeCashFlow       *float64 `json:"free_cash_flow"`
	OperatingCashFlow  *float64 `json:"operating_cash_flow"`
	FreeCashFlowMargin *float64 `json:"free_cash_flow_margin"`
	FCFToNIRatio       *float64 `json:"fcf_to_ni_ratio"`

	// Growth
	RevenueGrowth  *float64 `json:"revenue_growth"`  // YoY fraction, e.g. 0.12
	EarningsGrowth *float64 `json:"earnings_growth"` // YoY fraction

	// Health
	TotalRevenue       *float64 `json:"total_revenue"`
	NetIncome          *float64 `json:"net_income"`
	NetIncomeToCommon  *float64 `json:"net_income_to_common"`
	TotalCash          *float64 `json:"total_cash"`
	TotalDebt          *float64 `json:"total_debt"`
	NetCash            *float64 `json:"net_cash"`
	NetCashStatus      string   `json:"net_cash_status,omitempty"` // "Net Cash" | "Net Debt"
	DebtToEquity       *float64 `json:"debt_to_equity"`            // normalized to a ratio
	TotalAssets        *float64 `json:"total_assets"`
	StockholdersEquity *float64 `json:"stockholders_equity"`
	CurrentRatio       *float64 `json:"current_ratio"`

	// Ownership & analyst estimates
	InsiderOwnership     *float64 `json:"insider_ownership"`
	InstitutionOwnership *float64 `json:"institution_ownership"`
	SharesOutstanding    *float64 `json:"shares_outstanding"`
	AnalystTargetMean    *float64 `json:"analyst_target_mean"`
	DividendYield        *float64 `json:"dividend_yield"`
	Beta                 *float64 `json:"beta"`

	Provider  string    `json:"provider,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IncomeStatementPeriod is one reported period from quarterly statements,
// ordered most recent first by the provider.
type IncomeStatementPeriod struct {
	EndDate   time.Time `json:"end_date"`
	Revenue   *float64  `json:"revenue"`
	NetIncome *float64  `json:"net_income"`
}

// FundamentalInferences is the qualitative output of pass B.
type FundamentalInferences struct {
	Valuation       string          `json:"valuation"`
	Growth          string          `json:"growth"`
	Health          string          `json:"health"`
	Efficiency      string          `json:"efficiency"`
	EarningsQuality string          `json:"earnings_quality"`
	Risk            RiskAssessment  `json:"risk"`
	Quality         QualityGrade    `json:"quality"`
	PillarScores    map[string]float64 `json:"pillar_scores"`
}

// RiskAssessment summarizes fundamental risk.
type RiskAssessment struct {
	Level   string   `json:"level"` // LOW | MODERATE | HIGH | SEVERE
	Score   float64  `json:"score"` // 0..100, higher is riskier
	Factors []string `json:"factors"`
}

// QualityGrade is the weighted pillar grade with any applied caps.
type QualityGrade struct {
	Score             float64 `json:"score"` // 0..100
	Grade             string  `json:"grade"` // A..F
	GovernancePenalty float64 `json:"governance_penalty"`
	MarginFragilityCap bool   `json:"margin_fragility_cap"` // capped at 65
}

// DCF statuses.
const (
	DCFStatusOK              = "OK"
	DCFStatusTerminalWarning = "TERMINAL_VALUE_DOMINANT_WARNING"
	DCFStatusUndefined       = "UNDEFINED"
)

// DCFValuation is the three-stage DCF output. PerShare stays populated even
// when the terminal-dominance kill-switch fires; Status carries the warning.
type DCFValuation struct {
	PerShare          *float64              `json:"per_share"`
	Status            string                `json:"status"`
	DiscountRate      float64               `json:"discount_rate"`
	TerminalGrowth    float64               `json:"terminal_growth"`
	Stage1PV          float64               `json:"stage1_pv"`
	Stage2PV          float64               `json:"stage2_pv"`
	TerminalPV        float64               `json:"terminal_pv"`
	TerminalDominance float64               `json:"terminal_dominance"` // pv_tv / total_pv
	Sensitivity       []DCFSensitivityPoint `json:"sensitivity"`
}

// DCFSensitivityPoint is one cell of the terminal-growth sensitivity grid.
type DCFSensitivityPoint struct {
	TerminalGrowth float64  `json:"terminal_growth"`
	PerShare       *float64 `json:"per_share"`
}

// GrahamValuation is the Graham-number intrinsic value; UNDEFINED for
// non-positive EPS or book value.
type GrahamValuation struct {
	Value  *float64 `json:"value"`
	Status string   `json:"status"` // "OK" | "UNDEFINED"
}

// FundamentalsReport bundles both passes plus valuations and any detected
// integrity violations.
type FundamentalsReport struct {
	Data                *FundamentalData       `json:"data"`
	Inferences          *FundamentalInferences `json:"inferences"`
	DCF                 *DCFValuation          `json:"dcf,omitempty"`
	Graham              *GrahamValuation       `json:"graham,omitempty"`
	IntegrityViolations []string               `json:"integrity_violations,omitempty"`
}
