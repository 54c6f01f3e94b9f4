package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// CandleShape names a candlestick formation ending on the last bar.
type CandleShape int

const (
	ShapeHammer CandleShape = iota
	ShapeShootingStar
	ShapeBullishEngulfing
	ShapeBearishEngulfing
	ShapeMorningStar
	ShapeEveningStar
	ShapeThreeWhiteSoldiers
	ShapeThreeBlackCrows
)

// CandleParams configures the candlestick family.
type CandleParams struct {
	Shape      CandleShape
	WickRatio  float64 // hammer wick to body
	TrendBars  int     // bars inspected for the prior trend
	TrendShare float64 // share of bars that must move against the signal
	TargetATRs float64
	ATRMult    float64
	MinBars    int
}

func defaultCandle(shape CandleShape) CandleParams {
	return CandleParams{
		Shape:      shape,
		WickRatio:  2.0,
		TrendBars:  5,
		TrendShare: 0.6,
		TargetATRs: 3,
		ATRMult:    1.0,
		MinBars:    30,
	}
}

type candle struct {
	base
	p CandleParams
}

// Candlestick detects classic one to three bar reversal formations that follow
// a prior move against the signal direction.
func Candlestick(params CandleParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &candle{base: base{profile: p}, p: params}
	}
}

type bar struct{ o, h, l, c float64 }

func (b bar) body() float64      { return math.Abs(b.c - b.o) }
func (b bar) span() float64      { return b.h - b.l }
func (b bar) upperWick() float64 { return b.h - math.Max(b.o, b.c) }
func (b bar) lowerWick() float64 { return math.Min(b.o, b.c) - b.l }
func (b bar) green() bool        { return b.c > b.o }
func (b bar) red() bool          { return b.c < b.o }

func (f *Frame) bar(i int) bar {
	return bar{o: f.Open[i], h: f.High[i], l: f.Low[i], c: f.Close[i]}
}

func (c *candle) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < c.p.MinBars || f.degenerate(3) {
		return nil, nil
	}
	ok, q, width := c.detect(f)
	if !ok {
		return nil, nil
	}
	if !c.priorTrend(f, width) {
		return nil, nil
	}
	atr := f.LastATR()
	if math.IsNaN(atr) || atr <= 0 {
		return nil, nil
	}

	entry := f.Price
	var target, stop float64
	if c.bullish() {
		stop, _ = kernel.Lowest(f.Low, n-width, n)
		target = entry + c.p.TargetATRs*atr
	} else {
		stop, _ = kernel.Highest(f.High, n-width, n)
		target = entry - c.p.TargetATRs*atr
	}
	ratio := kernel.VolumeRatio(f.Volume, 20)
	return c.single(f, setup{
		target:  target,
		stop:    stop,
		atrMult: c.p.ATRMult,
		quality: q,
		volume:  ratio > 1.2,
		flow:    ratio,
	}), nil
}

// detect returns whether the shape is present, its quality and how many bars it spans.
func (c *candle) detect(f *Frame) (bool, float64, int) {
	n := f.Len()
	last, prev, first := f.bar(n-1), f.bar(n-2), f.bar(n-3)

	switch c.p.Shape {
	case ShapeHammer, ShapeShootingStar:
		r := last.span()
		if r <= 0 || last.body()/r >= 0.35 {
			return false, 0, 0
		}
		wick, other := last.lowerWick(), last.upperWick()
		if c.p.Shape == ShapeShootingStar {
			wick, other = other, wick
		}
		if wick < last.body()*c.p.WickRatio || other >= r*0.2 {
			return false, 0, 0
		}
		return true, clamp01(wick / r), 1

	case ShapeBullishEngulfing, ShapeBearishEngulfing:
		bull := c.p.Shape == ShapeBullishEngulfing
		if bull && !(prev.red() && last.green()) || !bull && !(prev.green() && last.red()) {
			return false, 0, 0
		}
		hiBody, loBody := math.Max(prev.o, prev.c), math.Min(prev.o, prev.c)
		if math.Max(last.o, last.c) <= hiBody || math.Min(last.o, last.c) >= loBody {
			return false, 0, 0
		}
		if prev.body() == 0 {
			return false, 0, 0
		}
		return true, clamp01(last.body()/prev.body() - 1), 2

	case ShapeMorningStar, ShapeEveningStar:
		mr := prev.span()
		if mr <= 0 || prev.body()/mr > 0.3 {
			return false, 0, 0
		}
		morning := c.p.Shape == ShapeMorningStar
		if morning && !(first.red() && last.green()) || !morning && !(first.green() && last.red()) {
			return false, 0, 0
		}
		if first.body() <= prev.body()*2 || last.body() <= prev.body()*2 {
			return false, 0, 0
		}
		mid := (first.o + first.c) / 2
		q := 0.5
		if morning && last.c > mid || !morning && last.c < mid {
			q = 0.9
		}
		return true, q, 3

	case ShapeThreeWhiteSoldiers:
		if !(first.green() && prev.green() && last.green()) {
			return false, 0, 0
		}
		if prev.o < first.o || prev.c <= first.c || last.o < prev.o || last.c <= prev.c {
			return false, 0, 0
		}
		return true, clamp01((last.c - first.o) / (3 * math.Max(first.span(), 1e-12))), 3

	case ShapeThreeBlackCrows:
		if !(first.red() && prev.red() && last.red()) {
			return false, 0, 0
		}
		if prev.o > first.o || prev.c >= first.c || last.o > prev.o || last.c >= prev.c {
			return false, 0, 0
		}
		return true, clamp01((first.o - last.c) / (3 * math.Max(first.span(), 1e-12))), 3
	}
	return false, 0, 0
}

// priorTrend checks the bars before the formation moved against the signal.
func (c *candle) priorTrend(f *Frame, width int) bool {
	end := f.Len() - width
	start := end - c.p.TrendBars
	if start < 0 {
		return false
	}
	against := 0
	for i := start; i < end; i++ {
		b := f.bar(i)
		if c.bullish() && b.red() || !c.bullish() && b.green() {
			against++
		}
	}
	return float64(against)/float64(c.p.TrendBars) >= c.p.TrendShare
}
