package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// FibParams configures retracement-zone entries.
type FibParams struct {
	Zone      Span    // retracement band price must sit in
	StopRatio float64 // retracement level used as the structural stop
	TargetExt float64 // target as an extension of the leg beyond its end; 0 means the leg end
	ATRMult   float64
	MinLegPct float64
	MinBars   int
	Pivots    kernel.PivotConfig
}

func defaultFib(zone Span, stop, ext float64) FibParams {
	return FibParams{
		Zone:      zone,
		StopRatio: stop,
		TargetExt: ext,
		ATRMult:   1.5,
		MinLegPct: 3,
		MinBars:   60,
		Pivots:    kernel.DefaultPivotConfig(),
	}
}

type fibonacci struct {
	base
	p FibParams
}

// Fibonacci trades a pullback into a retracement band of the last swing leg,
// requiring the last bar to turn back in the leg's direction.
func Fibonacci(params FibParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &fibonacci{base: base{profile: p}, p: params}
	}
}

func (fb *fibonacci) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < fb.p.MinBars || f.degenerate(1) {
		return nil, nil
	}
	leg := kernel.TailPivots(f.Pivots(fb.p.Pivots), 2)
	if leg == nil {
		return nil, nil
	}
	from, to := leg[0], leg[1]
	bull := fb.bullish()
	// Bullish wants an up leg (low then high) being retraced.
	if bull && from.Kind != kernel.PivotLow || !bull && from.Kind != kernel.PivotHigh {
		return nil, nil
	}
	if kernel.PctDiff(from.Price, to.Price) < fb.p.MinLegPct {
		return nil, nil
	}

	span := to.Price - from.Price
	ret := (to.Price - f.Price) / span
	if !fb.p.Zone.contains(ret, 0) {
		return nil, nil
	}
	turning := f.Close[n-1] > f.Open[n-1]
	if !bull {
		turning = f.Close[n-1] < f.Open[n-1]
	}
	if !turning {
		return nil, nil
	}

	target := to.Price + span*fb.p.TargetExt
	return fb.single(f, setup{
		target:  target,
		stop:    kernel.Retracement(from.Price, to.Price, fb.p.StopRatio),
		atrMult: fb.p.ATRMult,
		quality: closeness(ret-fb.p.Zone.mid(), fb.p.Zone.Hi-fb.p.Zone.Lo),
		fib:     ret,
	}), nil
}
