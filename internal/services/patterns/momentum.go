package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// OscillatorMode selects the oscillator heuristic.
type OscillatorMode int

const (
	// RSIReversal fires when RSI leaves the oversold/overbought zone.
	RSIReversal OscillatorMode = iota
	// RSIDivergence fires when price and RSI disagree on the last two swings.
	RSIDivergence
	// MACDCross fires on a signal-line cross on the far side of zero.
	MACDCross
)

// OscillatorParams configures the oscillator family.
type OscillatorParams struct {
	Mode       OscillatorMode
	Period     int
	Low, High  float64 // RSI zone bounds
	Fast, Slow int     // MACD periods
	Signal     int
	TargetATRs float64
	ATRMult    float64
	MinBars    int
	Pivots     kernel.PivotConfig
}

func defaultOscillator(mode OscillatorMode) OscillatorParams {
	return OscillatorParams{
		Mode:       mode,
		Period:     14,
		Low:        30,
		High:       70,
		Fast:       12,
		Slow:       26,
		Signal:     9,
		TargetATRs: 3,
		ATRMult:    1.5,
		MinBars:    60,
		Pivots:     kernel.DefaultPivotConfig(),
	}
}

type oscillator struct {
	base
	p OscillatorParams
}

// Oscillator builds RSI and MACD based templates.
func Oscillator(params OscillatorParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &oscillator{base: base{profile: p}, p: params}
	}
}

func (o *oscillator) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < o.p.MinBars || f.degenerate(2) {
		return nil, nil
	}
	atr := f.LastATR()
	if math.IsNaN(atr) || atr <= 0 {
		return nil, nil
	}
	bull := o.bullish()
	lookback := 10

	var q float64
	switch o.p.Mode {
	case RSIReversal:
		rsi := f.RSI(o.p.Period)
		prev, last := rsi[n-2], rsi[n-1]
		if bull && !(prev < o.p.Low && last >= o.p.Low) || !bull && !(prev > o.p.High && last <= o.p.High) {
			return nil, nil
		}
		if bull {
			q = clamp01((o.p.Low - prev) / o.p.Low * 3)
		} else {
			q = clamp01((prev - o.p.High) / (100 - o.p.High) * 3)
		}

	case RSIDivergence:
		ok, strength := o.divergence(f)
		if !ok {
			return nil, nil
		}
		q = strength

	case MACDCross:
		line, signal := kernel.MACD(f.Close, o.p.Fast, o.p.Slow, o.p.Signal)
		last := line[n-1]
		if bull && !(kernel.CrossedAbove(line, signal) && last < 0) || !bull && !(kernel.CrossedBelow(line, signal) && last > 0) {
			return nil, nil
		}
		q = clamp01(math.Abs(last) / atr)
	}

	stop, _ := kernel.Lowest(f.Low, n-lookback, n)
	target := f.Price + o.p.TargetATRs*atr
	if !bull {
		stop, _ = kernel.Highest(f.High, n-lookback, n)
		target = f.Price - o.p.TargetATRs*atr
	}
	return o.single(f, setup{
		target:  target,
		stop:    stop,
		atrMult: o.p.ATRMult,
		quality: q,
	}), nil
}

func (o *oscillator) divergence(f *Frame) (bool, float64) {
	kind := kernel.PivotHigh
	if o.bullish() {
		kind = kernel.PivotLow
	}
	pair := kernel.TailPivots(kernel.FilterPivots(f.Pivots(o.p.Pivots), kind), 2)
	if pair == nil {
		return false, 0
	}
	rsi := f.RSI(o.p.Period)
	a, b := pair[0], pair[1]
	ra, rb := rsi[a.Index], rsi[b.Index]
	if math.IsNaN(ra) || math.IsNaN(rb) {
		return false, 0
	}
	if o.bullish() {
		if !(b.Price < a.Price && rb > ra && ra < 40) {
			return false, 0
		}
		return true, clamp01((rb - ra) / 20)
	}
	if !(b.Price > a.Price && rb < ra && ra > 60) {
		return false, 0
	}
	return true, clamp01((ra - rb) / 20)
}

// CrossParams configures moving-average crossovers.
type CrossParams struct {
	Fast, Slow  int
	Exponential bool
	TargetATRs  float64
	ATRMult     float64
}

type crossover struct {
	base
	p CrossParams
}

// Crossover fires when the fast average crosses the slow one on the last bar.
func Crossover(params CrossParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &crossover{base: base{profile: p}, p: params}
	}
}

func (c *crossover) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < c.p.Slow+6 || f.degenerate(2) {
		return nil, nil
	}
	avg := kernel.SMA
	if c.p.Exponential {
		avg = kernel.EMA
	}
	fast, slow := avg(f.Close, c.p.Fast), avg(f.Close, c.p.Slow)
	bull := c.bullish()
	if bull && !kernel.CrossedAbove(fast, slow) || !bull && !kernel.CrossedBelow(fast, slow) {
		return nil, nil
	}
	atr := f.LastATR()
	if math.IsNaN(atr) || atr <= 0 {
		return nil, nil
	}
	target := f.Price + c.p.TargetATRs*atr
	if !bull {
		target = f.Price - c.p.TargetATRs*atr
	}
	// Slope of the slow average measures how established the new trend is.
	slope := (slow[n-1] - slow[n-6]) / slow[n-1] * 100
	if !bull {
		slope = -slope
	}
	return c.single(f, setup{
		target:  target,
		stop:    slow[n-1],
		atrMult: c.p.ATRMult,
		quality: clamp01(0.5 + slope),
	}), nil
}

// BandMode selects the Bollinger heuristic.
type BandMode int

const (
	// BandSqueeze is a breakout after band width contracted to a local minimum.
	BandSqueeze BandMode = iota
	// BandReversal is a close back inside the band after closing outside it.
	BandReversal
)

// BandParams configures the volatility-band family.
type BandParams struct {
	Mode        BandMode
	Period      int
	Width       float64 // standard deviations
	SqueezeBars int     // width history inspected for the squeeze
	SqueezeTol  float64 // recent width must be within this factor of the minimum
	ATRMult     float64
}

func defaultBands(mode BandMode) BandParams {
	return BandParams{Mode: mode, Period: 20, Width: 2, SqueezeBars: 100, SqueezeTol: 1.2, ATRMult: 1.5}
}

type bands struct {
	base
	p BandParams
}

// Bands builds Bollinger squeeze and reversal templates.
func Bands(params BandParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &bands{base: base{profile: p}, p: params}
	}
}

func (b *bands) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < b.p.Period+b.p.SqueezeBars || f.degenerate(2) {
		return nil, nil
	}
	bb := kernel.Bollinger(f.Close, b.p.Period, b.p.Width)
	up, mid, lo := bb.Upper, bb.Middle, bb.Lower
	bull := b.bullish()
	last, prev := f.Close[n-1], f.Close[n-2]

	if b.p.Mode == BandReversal {
		if bull && !(prev < lo[n-2] && last > lo[n-1]) || !bull && !(prev > up[n-2] && last < up[n-1]) {
			return nil, nil
		}
		stop, _ := kernel.Lowest(f.Low, n-3, n)
		if !bull {
			stop, _ = kernel.Highest(f.High, n-3, n)
		}
		return b.single(f, setup{
			target:  mid[n-1],
			stop:    stop,
			atrMult: b.p.ATRMult,
			quality: clamp01(math.Abs(last-prev) / (up[n-1] - lo[n-1])),
		}), nil
	}

	width := bb.Width()
	minW, _ := kernel.Lowest(width, n-b.p.SqueezeBars, n-1)
	if !(minW > 0) || width[n-2] > minW*b.p.SqueezeTol {
		return nil, nil
	}
	if bull && !(last > up[n-1]) || !bull && !(last < lo[n-1]) {
		return nil, nil
	}
	band := up[n-1] - lo[n-1]
	target := last + 2*band
	if !bull {
		target = last - 2*band
	}
	ratio := kernel.VolumeRatio(f.Volume, 20)
	return b.single(f, setup{
		target:  target,
		stop:    mid[n-1],
		atrMult: b.p.ATRMult,
		quality: closeness(width[n-2]/minW-1, b.p.SqueezeTol-1),
		volume:  ratio > 1.2,
		flow:    ratio,
	}), nil
}
