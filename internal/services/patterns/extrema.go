package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// ExtremaParams configures the double/triple top and bottom family.
type ExtremaParams struct {
	Touches       int     // 2 for double, 3 for triple
	TolerancePct  float64 // max spread between the extremes
	MinSeparation int     // bars between first and last extreme
	BreakoutBars  int
	MarginPct     float64
	FreshBars     int // the neckline must have been crossed within this many bars
	VolumePeriod  int
	VolumeMult    float64
	RequireVolume bool
	ATRMult       float64
	MinBars       int
	Pivots        kernel.PivotConfig
}

func defaultExtrema(touches int) ExtremaParams {
	return ExtremaParams{
		Touches:       touches,
		TolerancePct:  2.0,
		MinSeparation: 10,
		BreakoutBars:  1,
		MarginPct:     0.2,
		FreshBars:     5,
		VolumePeriod:  20,
		VolumeMult:    1.2,
		ATRMult:       1.5,
		MinBars:       60,
		Pivots:        kernel.DefaultPivotConfig(),
	}
}

type extrema struct {
	base
	p ExtremaParams
}

// Extrema detects repeated tests of a support (bottoms) or resistance (tops)
// followed by a neckline breakout. Direction comes from the profile.
func Extrema(params ExtremaParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &extrema{base: base{profile: p}, p: params}
	}
}

func (e *extrema) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < e.p.MinBars || f.degenerate(e.p.BreakoutBars) {
		return nil, nil
	}
	bull := e.bullish()
	kind, side := kernel.PivotHigh, kernel.Down
	if bull {
		kind, side = kernel.PivotLow, kernel.Up
	}

	touches := kernel.TailPivots(kernel.FilterPivots(f.Pivots(e.p.Pivots), kind), e.p.Touches)
	if touches == nil {
		return nil, nil
	}
	first, last := touches[0], touches[len(touches)-1]
	if last.Index-first.Index < e.p.MinSeparation {
		return nil, nil
	}

	lo, hi := touches[0].Price, touches[0].Price
	for _, t := range touches[1:] {
		if t.Price < lo {
			lo = t.Price
		}
		if t.Price > hi {
			hi = t.Price
		}
	}
	spread := kernel.PctDiff(lo, hi)
	if spread > e.p.TolerancePct {
		return nil, nil
	}

	var neck, extreme float64
	if bull {
		neck, _ = kernel.Highest(f.High, first.Index+1, last.Index)
		extreme = lo
	} else {
		neck, _ = kernel.Lowest(f.Low, first.Index+1, last.Index)
		extreme = hi
	}
	if !(neck > 0) {
		return nil, nil
	}

	if !kernel.BreakoutConfirmed(f.Close, neck, side, e.p.BreakoutBars, e.p.MarginPct) {
		return nil, nil
	}
	// Reject setups where price already ran through the neckline long ago.
	freshEnd := n - e.p.FreshBars
	if freshEnd > last.Index {
		if bull {
			if h, _ := kernel.Highest(f.Close, last.Index, freshEnd); h > neck {
				return nil, nil
			}
		} else {
			if l, _ := kernel.Lowest(f.Close, last.Index, freshEnd); l < neck {
				return nil, nil
			}
		}
	}

	ratio := kernel.VolumeRatio(f.Volume, e.p.VolumePeriod)
	volOK := ratio > e.p.VolumeMult
	if e.p.RequireVolume && !volOK {
		return nil, nil
	}

	height := neck - extreme
	target := neck + height
	if !bull {
		height = extreme - neck
		target = neck - height
	}

	q := 0.6*closeness(spread, e.p.TolerancePct) + 0.4*clamp01((ratio-1)/(e.p.VolumeMult))
	return e.single(f, setup{
		target:  target,
		stop:    extreme,
		atrMult: e.p.ATRMult,
		quality: q,
		volume:  volOK,
		smart:   volOK && ratio > 2*e.p.VolumeMult,
		flow:    ratio,
	}), nil
}
