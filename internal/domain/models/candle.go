package models

import (
	"fmt"
	"strings"
	"time"
)

// Candle is one closed OHLCV bar.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// SeriesKey identifies one rolling candle series.
type SeriesKey struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
}

// NewSeriesKey normalizes the symbol to the exchange's upper-case form.
func NewSeriesKey(symbol string, tf Timeframe) SeriesKey {
	return SeriesKey{Symbol: strings.ToUpper(symbol), Timeframe: tf}
}

func (k SeriesKey) String() string {
	return fmt.Sprintf("%s@%s", k.Symbol, k.Timeframe)
}

// StreamName returns the combined-stream subscription name, e.g. "btcusdt@kline_1m".
func (k SeriesKey) StreamName() string {
	return fmt.Sprintf("%s@kline_%s", strings.ToLower(k.Symbol), k.Timeframe)
}

// KlineEvent is a candle update delivered by the market stream.
// Only events with Final set describe a closed candle.
type KlineEvent struct {
	Symbol    string
	Timeframe Timeframe
	Candle    Candle
	Final     bool
	EventTime time.Time
}

// Key returns the series the event belongs to.
func (e *KlineEvent) Key() SeriesKey {
	return NewSeriesKey(e.Symbol, e.Timeframe)
}

// SymbolTicker is a 24h summary used for universe selection.
type SymbolTicker struct {
	Symbol      string  `json:"symbol"`
	LastPrice   float64 `json:"last_price"`
	QuoteVolume float64 `json:"quote_volume"`
}

// SeriesStats describes the state of one rolling buffer.
type SeriesStats struct {
	Key          SeriesKey `json:"key"`
	Len          int       `json:"len"`
	Capacity     int       `json:"capacity"`
	LastOpenTime time.Time `json:"last_open_time"`
	LastClose    float64   `json:"last_close"`
	LastUpdate   time.Time `json:"last_update"`
	Stale        bool      `json:"stale"`
}
