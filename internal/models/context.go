package models

import "time"

// AnalystRating is one analyst action, e.g. an upgrade or initiation.
type AnalystRating struct {
	Firm       string    `json:"firm"`
	Action     string    `json:"action,omitempty"` // upgrade | downgrade | initiate | maintain
	FromGrade  string    `json:"from_grade,omitempty"`
	ToGrade    string    `json:"to_grade,omitempty"`
	RatedAt    time.Time `json:"rated_at"`
	PriceTarget *float64 `json:"price_target,omitempty"`
}

// ConsensusBuckets counts analyst recommendations by bucket.
type ConsensusBuckets struct {
	StrongBuy  int `json:"strong_buy"`
	Buy        int `json:"buy"`
	Hold       int `json:"hold"`
	Sell       int `json:"sell"`
	StrongSell int `json:"strong_sell"`
}

// Total returns the total number of recommendations across buckets.
func (c ConsensusBuckets) Total() int {
	return c.StrongBuy + c.Buy + c.Hold + c.Sell + c.StrongSell
}

// EarningsEvent is the next scheduled earnings release.
type EarningsEvent struct {
	Date       time.Time `json:"date"`
	DaysUntil  int       `json:"days_until"`
	EPSEstimate *float64 `json:"eps_estimate,omitempty"`
}

// InsiderTrade is a single reported insider transaction. Only material
// trades (value >= $100k or shares >= 5,000) survive the context filter.
type InsiderTrade struct {
	Name     string    `json:"name"`
	Title    string    `json:"title,omitempty"`
	Type     string    `json:"type"` // Sell | Buy
	Shares   float64   `json:"shares"`
	Value    *float64  `json:"value"`
	TradedAt time.Time `json:"traded_at"`
}

// IsSell reports whether the trade is a disposal.
func (t InsiderTrade) IsSell() bool { return t.Type == "Sell" }

// OptionsSentiment summarizes the options chain. A very high IV is labeled
// "High Compression" rather than treated as invalid data.
type OptionsSentiment struct {
	PutCallRatio   *float64 `json:"put_call_ratio"`
	ImpliedVol     *float64 `json:"implied_volatility"` // percent
	OIWallCall     *float64 `json:"oi_wall_call,omitempty"`
	OIWallPut      *float64 `json:"oi_wall_put,omitempty"`
	Label          string   `json:"label,omitempty"` // e.g. "High Compression"
}

// PriceTargets aggregates analyst price targets.
type PriceTargets struct {
	Mean   *float64 `json:"mean"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Median *float64 `json:"median"`
}

// MarketContext is the ContextSensor output: everything about the ticker
// that is not price history or fundamentals.
type MarketContext struct {
	Ticker        string            `json:"ticker"`
	Ratings       []AnalystRating   `json:"analyst_ratings"`
	Consensus     *ConsensusBuckets `json:"consensus,omitempty"`
	PriceTargets  *PriceTargets     `json:"price_targets,omitempty"`
	NextEarnings  *EarningsEvent    `json:"next_earnings,omitempty"`
	InsiderTrades []InsiderTrade    `json:"insider_trades"`
	Options       *OptionsSentiment `json:"options,omitempty"`
	FetchedAt     time.Time         `json:"fetched_at"`
}

// IsInternational reports whether the ticker carries an exchange suffix.
// For these tickers, missing options or insider data alone does not
// degrade data integrity.
func (c *MarketContext) IsInternational() bool {
	for _, r := range c.Ticker {
		if r == '.' {
			return true
		}
	}
	return false
}

// InsiderSellsWithin counts insider sells in the trailing window ending now.
func (c *MarketContext) InsiderSellsWithin(window time.Duration, now time.Time) int {
	cutoff := now.Add(-window)
	n := 0
	for _, t := range c.InsiderTrades {
		if t.IsSell() && t.TradedAt.After(cutoff) {
			n++
		}
	}
	return n
}
