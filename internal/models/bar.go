// Package models defines data structures for Horizon
package models

import (
	"sort"
	"time"
)

// Bar represents a single OHLCV bar.
type Bar struct {
	Timestamp time.Time `json:"ts"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Valid reports whether the bar satisfies the OHLCV shape invariants:
// high >= max(open, close), low <= min(open, close), volume >= 0.
func (b Bar) Valid() bool {
	hi := b.Open
	if b.Close > hi {
		hi = b.Close
	}
	lo := b.Open
	if b.Close < lo {
		lo = b.Close
	}
	return b.High >= hi && b.Low <= lo && b.Volume >= 0
}

// BarSeries holds an ordered (ascending by timestamp) series of bars for a
// ticker at a single interval, tagged with the provider that produced it.
type BarSeries struct {
	Ticker    string    `json:"ticker"`
	Interval  string    `json:"interval"`
	Provider  string    `json:"provider"`
	Bars      []Bar     `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SortAscending orders the bars by timestamp, oldest first.
func (s *BarSeries) SortAscending() {
	sort.Slice(s.Bars, func(i, j int) bool {
		return s.Bars[i].Timestamp.Before(s.Bars[j].Timestamp)
	})
}

// Last returns the most recent bar, or a zero Bar when the series is empty.
func (s *BarSeries) Last() Bar {
	if len(s.Bars) == 0 {
		return Bar{}
	}
	return s.Bars[len(s.Bars)-1]
}

// Float returns a pointer to v. Used to populate nullable numeric fields.
func Float(v float64) *float64 { return &v }
