package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// WyckoffParams configures spring (bullish) and upthrust (bearish) detection.
type WyckoffParams struct {
	RangeBars   int     // bars forming the trading range
	ProbeBars   int     // recent bars in which the false break must occur
	MaxRangePct float64 // range height in percent of its floor
	MaxProbePct float64 // how far the false break may extend
	ATRMult     float64
}

func defaultWyckoff() WyckoffParams {
	return WyckoffParams{RangeBars: 40, ProbeBars: 5, MaxRangePct: 15, MaxProbePct: 3, ATRMult: 1.0}
}

type wyckoff struct {
	base
	p WyckoffParams
}

// Wyckoff detects a false break of a trading range that closes back inside.
func Wyckoff(params WyckoffParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &wyckoff{base: base{profile: p}, p: params}
	}
}

func (w *wyckoff) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	n := f.Len()
	if n < w.p.RangeBars+w.p.ProbeBars+1 || f.degenerate(w.p.ProbeBars) {
		return nil, nil
	}
	from, to := n-w.p.ProbeBars-w.p.RangeBars, n-w.p.ProbeBars
	support, _ := kernel.Lowest(f.Low, from, to)
	resistance, _ := kernel.Highest(f.High, from, to)
	if !(support > 0) || (resistance-support)/support*100 > w.p.MaxRangePct {
		return nil, nil
	}

	last := f.Close[n-1]
	ratio := kernel.VolumeRatio(f.Volume, 20)
	if w.bullish() {
		sweep, _ := kernel.Lowest(f.Low, to, n)
		depth := (support - sweep) / support * 100
		if depth <= 0 || depth > w.p.MaxProbePct || last <= support {
			return nil, nil
		}
		return w.single(f, setup{
			target:  resistance,
			stop:    sweep,
			atrMult: w.p.ATRMult,
			quality: closeness(depth, w.p.MaxProbePct),
			volume:  ratio > 1.2,
			smart:   true,
			flow:    ratio,
		}), nil
	}

	sweep, _ := kernel.Highest(f.High, to, n)
	depth := (sweep - resistance) / resistance * 100
	if depth <= 0 || depth > w.p.MaxProbePct || last >= resistance {
		return nil, nil
	}
	return w.single(f, setup{
		target:  support,
		stop:    sweep,
		atrMult: w.p.ATRMult,
		quality: closeness(depth, w.p.MaxProbePct),
		volume:  ratio > 1.2,
		smart:   true,
		flow:    -ratio,
	}), nil
}
