package patterns

import (
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// VolumeMode selects the volume heuristic.
type VolumeMode int

const (
	// VolumeBreakout is a range break on a volume surge with rising OBV.
	VolumeBreakout VolumeMode = iota
	// VolumeDivergence is a new price extreme that OBV refuses to confirm.
	VolumeDivergence
)

// VolumeParams configures the volume family.
type VolumeParams struct {
	Mode       VolumeMode
	RangeBars  int
	Period     int
	Multiple   float64
	ATRMult    float64
	TargetATRs float64
	MinBars    int
	Pivots     kernel.PivotConfig
}

func defaultVolume(mode VolumeMode) VolumeParams {
	return VolumeParams{
		Mode:       mode,
		RangeBars:  20,
		Period:     20,
		Multiple:   2.0,
		ATRMult:    1.5,
		TargetATRs: 3,
		MinBars:    50,
		Pivots:     kernel.DefaultPivotConfig(),
	}
}

type volumeTemplate struct {
	base
	p VolumeParams
}

// Volume builds the volume-driven templates.
func Volume(params VolumeParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &volumeTemplate{base: base{profile: p}, p: params}
	}
}

func (v *volumeTemplate) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	if f.Len() < v.p.MinBars || f.degenerate(1) {
		return nil, nil
	}
	if v.p.Mode == VolumeDivergence {
		return v.divergence(f), nil
	}
	return v.breakout(f), nil
}

func (v *volumeTemplate) breakout(f *Frame) []models.PatternMatch {
	n := f.Len()
	ratio := kernel.VolumeRatio(f.Volume, v.p.Period)
	if ratio <= v.p.Multiple {
		return nil
	}
	obv := kernel.OBV(f.Close, f.Volume)
	obvAvg := kernel.SMA(obv, v.p.Period)
	rising := obv[n-1] > obvAvg[n-1]

	hi, _ := kernel.Highest(f.High, n-1-v.p.RangeBars, n-1)
	lo, _ := kernel.Lowest(f.Low, n-1-v.p.RangeBars, n-1)
	atr := f.LastATR()
	if math.IsNaN(atr) || atr <= 0 {
		return nil
	}
	last := f.Close[n-1]
	q := clamp01((ratio - v.p.Multiple) / v.p.Multiple)

	if v.bullish() {
		if !rising || !kernel.BreakoutConfirmed(f.Close, hi, kernel.Up, 1, 0) {
			return nil
		}
		return v.single(f, setup{
			target:  last + max(hi-lo, v.p.TargetATRs*atr),
			stop:    hi,
			atrMult: v.p.ATRMult,
			quality: q,
			volume:  true,
			smart:   ratio > 2*v.p.Multiple,
			flow:    ratio,
		})
	}
	if rising || !kernel.BreakoutConfirmed(f.Close, lo, kernel.Down, 1, 0) {
		return nil
	}
	return v.single(f, setup{
		target:  last - max(hi-lo, v.p.TargetATRs*atr),
		stop:    lo,
		atrMult: v.p.ATRMult,
		quality: q,
		volume:  true,
		smart:   ratio > 2*v.p.Multiple,
		flow:    -ratio,
	})
}

func (v *volumeTemplate) divergence(f *Frame) []models.PatternMatch {
	kind := kernel.PivotHigh
	if v.bullish() {
		kind = kernel.PivotLow
	}
	pair := kernel.TailPivots(kernel.FilterPivots(f.Pivots(v.p.Pivots), kind), 2)
	if pair == nil {
		return nil
	}
	a, b := pair[0], pair[1]
	obv := kernel.OBV(f.Close, f.Volume)
	oa, ob := obv[a.Index], obv[b.Index]
	if math.IsNaN(oa) || math.IsNaN(ob) {
		return nil
	}

	pv := f.Pivots(v.p.Pivots)
	if v.bullish() {
		// Lower low in price, higher low in OBV.
		if !(b.Price < a.Price && ob > oa) {
			return nil
		}
		target, ok := lastPivotPrice(pv, kernel.PivotHigh)
		if !ok {
			return nil
		}
		return v.single(f, setup{
			target:  target,
			stop:    b.Price,
			atrMult: v.p.ATRMult,
			quality: clamp01(kernel.PctDiff(a.Price, b.Price) / 5),
			smart:   true,
			flow:    ob - oa,
		})
	}
	if !(b.Price > a.Price && ob < oa) {
		return nil
	}
	target, ok := lastPivotPrice(pv, kernel.PivotLow)
	if !ok {
		return nil
	}
	return v.single(f, setup{
		target:  target,
		stop:    b.Price,
		atrMult: v.p.ATRMult,
		quality: clamp01(kernel.PctDiff(a.Price, b.Price) / 5),
		smart:   true,
		flow:    ob - oa,
	})
}

func lastPivotPrice(pv []kernel.Pivot, kind kernel.PivotKind) (float64, bool) {
	for i := len(pv) - 1; i >= 0; i-- {
		if pv[i].Kind == kind {
			return pv[i].Price, true
		}
	}
	return 0, false
}
