package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// Shape names a converging trendline formation.
type Shape int

const (
	ShapeAscending Shape = iota
	ShapeDescending
	ShapeSymmetrical
	ShapeRisingWedge
	ShapeFallingWedge
)

// TriangleParams configures the triangle and wedge family.
type TriangleParams struct {
	Shape        Shape
	Lookback     int     // bars searched for touches
	MinTouches   int     // per trendline
	FlatPct      float64 // |slope| per bar below this percent of price counts as flat
	BreakoutBars int
	MarginPct    float64
	ATRMult      float64
	Pivots       kernel.PivotConfig
}

func defaultTriangle(shape Shape) TriangleParams {
	return TriangleParams{
		Shape:        shape,
		Lookback:     80,
		MinTouches:   2,
		FlatPct:      0.02,
		BreakoutBars: 1,
		MarginPct:    0.1,
		ATRMult:      1.5,
		Pivots:       kernel.PivotConfig{Left: 2, Right: 2, MinProminencePct: 0.3, MinDistance: 3},
	}
}

type triangle struct {
	base
	p TriangleParams
}

// Triangle fits trendlines through recent swing highs and lows, classifies
// their slopes and reports a breakout in the profile's direction.
func Triangle(params TriangleParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &triangle{base: base{profile: p}, p: params}
	}
}

func (t *triangle) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < t.p.Lookback+t.p.Pivots.Right || f.degenerate(t.p.BreakoutBars) {
		return nil, nil
	}
	start := n - t.p.Lookback
	var highs, lows []kernel.Pivot
	for _, p := range f.Pivots(t.p.Pivots) {
		if p.Index < start {
			continue
		}
		if p.Kind == kernel.PivotHigh {
			highs = append(highs, p)
		} else {
			lows = append(lows, p)
		}
	}
	if len(highs) < t.p.MinTouches || len(lows) < t.p.MinTouches {
		return nil, nil
	}

	upper, lower := kernel.FitLine(highs), kernel.FitLine(lows)
	first := min(highs[0].Index, lows[0].Index)
	widthStart := upper.At(first) - lower.At(first)
	widthEnd := upper.At(n-1) - lower.At(n-1)
	if !(widthStart > 0) || !(widthEnd > 0) || widthEnd >= widthStart {
		return nil, nil
	}

	ref := f.Close[n-1]
	us := slopeClass(upper.Slope, ref, t.p.FlatPct)
	ls := slopeClass(lower.Slope, ref, t.p.FlatPct)
	if !t.shapeMatches(us, ls, upper.Slope, lower.Slope) {
		return nil, nil
	}

	bull := t.bullish()
	var levels []float64
	side := kernel.Down
	if bull {
		levels, side = upper.Series(n), kernel.Up
	} else {
		levels = lower.Series(n)
	}
	// Price must have been inside the formation just before the breakout.
	prev := n - 1 - t.p.BreakoutBars
	if prev < 0 || f.Close[prev] > upper.At(prev) || f.Close[prev] < lower.At(prev) {
		return nil, nil
	}
	if !kernel.BreakoutConfirmedSeries(f.Close, levels, side, t.p.BreakoutBars, t.p.MarginPct) {
		return nil, nil
	}

	target := levels[n-1] + widthStart
	stop := lower.At(n - 1)
	if !bull {
		target = levels[n-1] - widthStart
		stop = upper.At(n - 1)
	}
	convergence := 1 - widthEnd/widthStart
	touches := float64(len(highs)+len(lows)) / float64(4*t.p.MinTouches)
	ratio := kernel.VolumeRatio(f.Volume, 20)
	return t.single(f, setup{
		target:  target,
		stop:    stop,
		atrMult: t.p.ATRMult,
		quality: 0.5*clamp01(convergence) + 0.5*clamp01(touches),
		volume:  ratio > 1.2,
		flow:    ratio,
	}), nil
}

const (
	slopeFalling = -1
	slopeFlat    = 0
	slopeRising  = 1
)

func slopeClass(slope, ref, flatPct float64) int {
	if ref <= 0 {
		return slopeFlat
	}
	rel := slope / ref * 100
	switch {
	case math.Abs(rel) < flatPct:
		return slopeFlat
	case rel > 0:
		return slopeRising
	default:
		return slopeFalling
	}
}

func (t *triangle) shapeMatches(upper, lower int, us, ls float64) bool {
	switch t.p.Shape {
	case ShapeAscending:
		return upper == slopeFlat && lower == slopeRising
	case ShapeDescending:
		return upper == slopeFalling && lower == slopeFlat
	case ShapeSymmetrical:
		return upper == slopeFalling && lower == slopeRising
	case ShapeRisingWedge:
		return upper == slopeRising && lower == slopeRising && ls > us
	case ShapeFallingWedge:
		return upper == slopeFalling && lower == slopeFalling && us < ls
	}
	return false
}
