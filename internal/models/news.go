package models

import "time"

// Headline is one deduplicated news item with its classification score.
type Headline struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Source      string    `json:"source"` // aggregator that returned it
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Score       float64   `json:"score"` // -50 noise .. +80 signal
	Class       string    `json:"class"` // NOISE | SIGNAL | DIRECTIONAL | NEUTRAL
}

// NewsDigest is the aggregate over the deduplicated, capped headline set.
type NewsDigest struct {
	Ticker              string     `json:"ticker"`
	Headlines           []Headline `json:"headlines"`
	SignalScore         float64    `json:"signal_score"` // mean of headline scores
	NoiseRatio          float64    `json:"noise_ratio"`  // percent of NOISE headlines
	SourceDiversity     float64    `json:"source_diversity"`
	NarrativeTrapWarning bool      `json:"narrative_trap_warning"`
	FetchedAt           time.Time  `json:"fetched_at"`
}
