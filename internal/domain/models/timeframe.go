package models

import "time"

// Timeframe is a kline interval as named by the exchange.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF3m  Timeframe = "3m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF4h  Timeframe = "4h"
	TF6h  Timeframe = "6h"
	TF12h Timeframe = "12h"
	TF1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TF1m:  time.Minute,
	TF3m:  3 * time.Minute,
	TF5m:  5 * time.Minute,
	TF15m: 15 * time.Minute,
	TF30m: 30 * time.Minute,
	TF1h:  time.Hour,
	TF2h:  2 * time.Hour,
	TF4h:  4 * time.Hour,
	TF6h:  6 * time.Hour,
	TF12h: 12 * time.Hour,
	TF1d:  24 * time.Hour,
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	_, ok := timeframeDurations[tf]
	return ok
}

// Duration returns the bar length, or zero for unknown timeframes.
func (tf Timeframe) Duration() time.Duration {
	return timeframeDurations[tf]
}

// staleGrace covers the delay between a bar closing and its final event arriving.
const staleGrace = 2 * time.Minute

// StaleLimit is how long a series of tf may go without a closed candle before
// it counts as a gap: floor, or one bar plus staleGrace when bars are longer.
// A non-positive floor disables staleness and yields zero.
func (tf Timeframe) StaleLimit(floor time.Duration) time.Duration {
	if floor <= 0 {
		return 0
	}
	return max(floor, tf.Duration()+staleGrace)
}

// AtLeast reports whether tf is the same length as or longer than other.
// An empty other is treated as no minimum.
func (tf Timeframe) AtLeast(other Timeframe) bool {
	if other == "" {
		return true
	}
	return tf.Duration() >= other.Duration()
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Horizon is a named group of timeframes aggregated into one prediction.
type Horizon string

const (
	HorizonShort Horizon = "short"
	HorizonMid   Horizon = "mid"
	HorizonLong  Horizon = "long"
)

// Horizons lists horizon groups in evaluation order.
var Horizons = []Horizon{HorizonShort, HorizonMid, HorizonLong}

// HorizonGroups maps each horizon to its timeframes. Fixed at startup.
type HorizonGroups map[Horizon][]Timeframe

// DefaultHorizonGroups returns short=[1m 5m], mid=[30m 1h], long=[4h 1d].
func DefaultHorizonGroups() HorizonGroups {
	return HorizonGroups{
		HorizonShort: {TF1m, TF5m},
		HorizonMid:   {TF30m, TF1h},
		HorizonLong:  {TF4h, TF1d},
	}
}

// Timeframes returns every timeframe across horizons, in horizon order.
func (g HorizonGroups) Timeframes() []Timeframe {
	var out []Timeframe
	for _, h := range Horizons {
		out = append(out, g[h]...)
	}
	return out
}
