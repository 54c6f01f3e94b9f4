// Package patterns holds the pattern evaluator contract, the immutable profile
// catalog, the parameterized templates instantiated from it and the runner that
// applies every evaluator to one series snapshot.
package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

const defaultATRPeriod = 14

// Frame is a columnar, read-only view of one series snapshot.
// A Frame is owned by a single goroutine; derived series are memoized per Frame.
// Evaluators must treat every slice reachable from a Frame as read-only.
type Frame struct {
	Symbol    string
	Timeframe models.Timeframe
	Price     float64

	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64

	atr    map[int][]float64
	pivots map[kernel.PivotConfig][]kernel.Pivot
	rsi    map[int][]float64
}

// NewFrame splits candles into columns. A non-positive price falls back to the
// last close.
func NewFrame(key models.SeriesKey, candles []models.Candle, price float64) *Frame {
	n := len(candles)
	f := &Frame{
		Symbol:    key.Symbol,
		Timeframe: key.Timeframe,
		Price:     price,
		Open:      make([]float64, n),
		High:      make([]float64, n),
		Low:       make([]float64, n),
		Close:     make([]float64, n),
		Volume:    make([]float64, n),
		atr:       make(map[int][]float64),
		pivots:    make(map[kernel.PivotConfig][]kernel.Pivot),
		rsi:       make(map[int][]float64),
	}
	for i, c := range candles {
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
		f.Volume[i] = c.Volume
	}
	if !(f.Price > 0) && n > 0 {
		f.Price = f.Close[n-1]
	}
	return f
}

// Len returns the number of bars.
func (f *Frame) Len() int { return len(f.Close) }

// ATR returns the Wilder ATR series for period.
func (f *Frame) ATR(period int) []float64 {
	if v, ok := f.atr[period]; ok {
		return v
	}
	v := kernel.ATR(f.High, f.Low, f.Close, period)
	f.atr[period] = v
	return v
}

// LastATR returns the latest ATR(14), or NaN when history is too short.
func (f *Frame) LastATR() float64 {
	return kernel.Last(f.ATR(defaultATRPeriod))
}

// RSI returns the Wilder RSI series for period.
func (f *Frame) RSI(period int) []float64 {
	if v, ok := f.rsi[period]; ok {
		return v
	}
	v := kernel.RSI(f.Close, period)
	f.rsi[period] = v
	return v
}

// Pivots returns the swing points for cfg.
func (f *Frame) Pivots(cfg kernel.PivotConfig) []kernel.Pivot {
	if v, ok := f.pivots[cfg]; ok {
		return v
	}
	v := kernel.Pivots(f.High, f.Low, cfg)
	f.pivots[cfg] = v
	return v
}

// LastClose returns the final close, or NaN for an empty frame.
func (f *Frame) LastClose() float64 { return kernel.Last(f.Close) }

// degenerate reports whether the last bars carry no usable prices.
func (f *Frame) degenerate(bars int) bool {
	n := f.Len()
	if n == 0 {
		return true
	}
	if bars > n {
		bars = n
	}
	for i := n - bars; i < n; i++ {
		if !(f.Close[i] > 0) || !(f.High[i] >= f.Low[i]) || math.IsInf(f.Close[i], 0) {
			return true
		}
	}
	return false
}
