package model

import "time"

// Timeframe is the bar granularity requested from the market-data provider.
type Timeframe string

const (
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe1d  Timeframe = "1d"
)

// RunMode selects which timeframes a run acquires and how bars are classified.
type RunMode string

const (
	ModeIntraday RunMode = "intraday"
	ModeDaily    RunMode = "daily"
)

// Timeframes returns the timeframes the mode requires per symbol.
func (m RunMode) Timeframes() []Timeframe {
	if m == ModeIntraday {
		return []Timeframe{Timeframe15m, Timeframe1h}
	}
	return []Timeframe{Timeframe1d}
}

// LookbackDays returns the history depth requested for a timeframe.
func (tf Timeframe) LookbackDays() int {
	if tf == Timeframe1d {
		return 365
	}
	return 10
}

// Bar represents a single candlestick bar. Immutable once received.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Position is one held instrument as reported by the provider's
// position snapshot. Never mutated after the snapshot completes.
type Position struct {
	Symbol  string
	AvgCost float64
	Shares  float64
}
