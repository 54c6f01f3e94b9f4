package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// ShouldersParams configures head-and-shoulders and its inverse.
type ShouldersParams struct {
	ShoulderTolPct float64 // max spread between the shoulders
	MinHeadPct     float64 // head beyond the higher shoulder, percent
	BreakoutBars   int
	MarginPct      float64
	ATRMult        float64
	MinBars        int
	Pivots         kernel.PivotConfig
}

func defaultShoulders() ShouldersParams {
	return ShouldersParams{
		ShoulderTolPct: 3.0,
		MinHeadPct:     1.0,
		BreakoutBars:   1,
		MarginPct:      0.1,
		ATRMult:        1.5,
		MinBars:        80,
		Pivots:         kernel.DefaultPivotConfig(),
	}
}

type shoulders struct {
	base
	p ShouldersParams
}

// HeadAndShoulders detects three swings with a dominant middle one and a
// breakout through the sloped neckline joining the two reactions.
// A bearish profile looks for tops, a bullish profile for the inverse form.
func HeadAndShoulders(params ShouldersParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &shoulders{base: base{profile: p}, p: params}
	}
}

func (s *shoulders) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < s.p.MinBars || f.degenerate(s.p.BreakoutBars) {
		return nil, nil
	}
	bull := s.bullish()
	outer, side := kernel.PivotHigh, kernel.Down
	if bull {
		outer, side = kernel.PivotLow, kernel.Up
	}

	pv := f.Pivots(s.p.Pivots)
	end := len(pv)
	for end > 0 && pv[end-1].Kind != outer {
		end--
	}
	seq := kernel.TailPivots(pv[:end], 5)
	if seq == nil {
		return nil, nil
	}
	ls, r1, head, r2, rs := seq[0], seq[1], seq[2], seq[3], seq[4]
	if ls.Kind != outer {
		return nil, nil
	}

	spread := kernel.PctDiff(ls.Price, rs.Price)
	if spread > s.p.ShoulderTolPct {
		return nil, nil
	}
	var headPct float64
	if bull {
		headPct = (min(ls.Price, rs.Price) - head.Price) / head.Price * 100
	} else {
		headPct = (head.Price - max(ls.Price, rs.Price)) / max(ls.Price, rs.Price) * 100
	}
	if headPct < s.p.MinHeadPct {
		return nil, nil
	}

	neck := kernel.LineThrough(r1, r2)
	levels := neck.Series(n)
	if !kernel.BreakoutConfirmedSeries(f.Close, levels, side, s.p.BreakoutBars, s.p.MarginPct) {
		return nil, nil
	}

	depth := head.Price - neck.At(head.Index)
	if depth < 0 {
		depth = -depth
	}
	breakLevel := levels[n-1]
	target := breakLevel - depth
	if bull {
		target = breakLevel + depth
	}

	q := 0.5*closeness(spread, s.p.ShoulderTolPct) + 0.5*clamp01(headPct/(4*s.p.MinHeadPct))
	ratio := kernel.VolumeRatio(f.Volume, 20)
	return s.single(f, setup{
		target:  target,
		stop:    rs.Price,
		atrMult: s.p.ATRMult,
		quality: q,
		volume:  ratio > 1.2,
		flow:    ratio,
	}), nil
}
