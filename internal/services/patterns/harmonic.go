package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// Span is an inclusive ratio range.
type Span struct{ Lo, Hi float64 }

func (s Span) contains(v, tol float64) bool { return v >= s.Lo-tol && v <= s.Hi+tol }

func (s Span) mid() float64 { return (s.Lo + s.Hi) / 2 }

// HarmonicParams holds the Fibonacci ratios of one XABCD pattern.
type HarmonicParams struct {
	AB         Span // AB / XA
	BC         Span // BC / AB
	CD         Span // CD / BC
	AD         Span // AD / XA
	Tolerance  float64
	RecentBars int     // D must be at most this many bars old
	TargetRet  float64 // target as a retracement of AD
	ATRMult    float64
	MinBars    int
	Pivots     kernel.PivotConfig
}

func harmonicParams(ab, bc, cd, ad Span) HarmonicParams {
	return HarmonicParams{
		AB: ab, BC: bc, CD: cd, AD: ad,
		Tolerance:  0.05,
		RecentBars: 12,
		TargetRet:  0.618,
		ATRMult:    2.0,
		MinBars:    80,
		Pivots:     kernel.DefaultPivotConfig(),
	}
}

type harmonic struct {
	base
	p HarmonicParams
}

// Harmonic matches the last five alternating swings against XABCD ratios.
// A bullish profile expects D to be a swing low.
func Harmonic(params HarmonicParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &harmonic{base: base{profile: p}, p: params}
	}
}

func (h *harmonic) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < h.p.MinBars || f.degenerate(1) {
		return nil, nil
	}
	bull := h.bullish()
	seq := kernel.TailPivots(f.Pivots(h.p.Pivots), 5)
	if seq == nil {
		return nil, nil
	}
	x, a, b, c, d := seq[0], seq[1], seq[2], seq[3], seq[4]
	wantD := kernel.PivotHigh
	if bull {
		wantD = kernel.PivotLow
	}
	if d.Kind != wantD || n-1-d.Index > h.p.RecentBars {
		return nil, nil
	}

	xa := math.Abs(a.Price - x.Price)
	ab := math.Abs(b.Price - a.Price)
	bc := math.Abs(c.Price - b.Price)
	if xa == 0 || ab == 0 || bc == 0 {
		return nil, nil
	}
	rAB := ab / xa
	rBC := bc / ab
	rCD := math.Abs(d.Price-c.Price) / bc
	rAD := math.Abs(a.Price-d.Price) / xa

	tol := h.p.Tolerance
	if !h.p.AB.contains(rAB, tol) || !h.p.BC.contains(rBC, tol) ||
		!h.p.CD.contains(rCD, tol) || !h.p.AD.contains(rAD, tol) {
		return nil, nil
	}

	// Price must still be near the completion zone, not past the target already.
	target := kernel.Retracement(a.Price, d.Price, h.p.TargetRet)
	if bull && f.Price >= target || !bull && f.Price <= target {
		return nil, nil
	}

	dev := math.Abs(rAB-h.p.AB.mid()) + math.Abs(rAD-h.p.AD.mid())
	stop := d.Price - 0.1*xa
	if !bull {
		stop = d.Price + 0.1*xa
	}
	return h.single(f, setup{
		target:  target,
		stop:    stop,
		atrMult: h.p.ATRMult,
		quality: closeness(dev, 4*tol),
		fib:     rAD,
		smart:   kernel.VolumeRatio(f.Volume, 20) > 1.5,
	}), nil
}
