package patterns

import (
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/kernel"
)

// WaveStage selects which part of an impulse the template trades.
type WaveStage int

const (
	// WaveThree enters after wave 2 holds and price clears the wave 1 extreme.
	WaveThree WaveStage = iota
	// WaveFiveExhaustion fades a completed five-wave impulse.
	WaveFiveExhaustion
)

// ElliottParams configures the impulse templates.
type ElliottParams struct {
	Stage      WaveStage
	MinRetrace float64 // wave 2 retracement of wave 1
	MaxRetrace float64
	Extension  float64 // wave 3 projection of wave 1
	ATRMult    float64
	MinBars    int
	Pivots     kernel.PivotConfig
}

func defaultElliott(stage WaveStage) ElliottParams {
	return ElliottParams{
		Stage:      stage,
		MinRetrace: 0.382,
		MaxRetrace: 0.786,
		Extension:  1.618,
		ATRMult:    2.0,
		MinBars:    100,
		Pivots:     kernel.PivotConfig{Left: 4, Right: 4, MinProminencePct: 1.0, MinDistance: 4},
	}
}

type elliott struct {
	base
	p ElliottParams
}

// Elliott detects wave-3 continuation entries and wave-5 exhaustion.
// For WaveThree the profile direction is the impulse direction; for
// WaveFiveExhaustion it is the direction of the expected correction.
func Elliott(params ElliottParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &elliott{base: base{profile: p}, p: params}
	}
}

func (e *elliott) Evaluate(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
	if f.Len() < e.p.MinBars || f.degenerate(1) {
		return nil, nil
	}
	pv := f.Pivots(e.p.Pivots)
	if e.p.Stage == WaveThree {
		return e.waveThree(f, pv), nil
	}
	return e.waveFive(f, pv), nil
}

// waveThree needs the last three swings to be the start, wave 1 end and wave 2 end.
func (e *elliott) waveThree(f *Frame, pv []kernel.Pivot) []models.PatternMatch {
	seq := kernel.TailPivots(pv, 3)
	if seq == nil {
		return nil
	}
	p0, p1, p2 := seq[0], seq[1], seq[2]
	sign := 1.0
	if !e.bullish() {
		sign = -1
	}
	if sign > 0 && p0.Kind != kernel.PivotLow || sign < 0 && p0.Kind != kernel.PivotHigh {
		return nil
	}
	w1 := (p1.Price - p0.Price) * sign
	w2 := (p1.Price - p2.Price) * sign
	if w1 <= 0 || w2 <= 0 {
		return nil
	}
	r := w2 / w1
	if r < e.p.MinRetrace || r > e.p.MaxRetrace {
		return nil
	}
	// Wave 3 under way: price beyond the end of wave 1.
	if (f.Price-p1.Price)*sign <= 0 {
		return nil
	}
	target := p2.Price + sign*e.p.Extension*w1
	golden := 0.618
	return e.single(f, setup{
		target:  target,
		stop:    p2.Price,
		atrMult: e.p.ATRMult,
		quality: closeness(r-golden, e.p.MaxRetrace-e.p.MinRetrace),
		fib:     r,
	})
}

func (e *elliott) waveFive(f *Frame, pv []kernel.Pivot) []models.PatternMatch {
	seq := kernel.TailPivots(pv, 6)
	if seq == nil {
		return nil
	}
	// The impulse runs opposite to the expected correction.
	sign := -1.0
	if !e.bullish() {
		sign = 1
	}
	if sign > 0 && seq[0].Kind != kernel.PivotLow || sign < 0 && seq[0].Kind != kernel.PivotHigh {
		return nil
	}
	p := func(i int) float64 { return seq[i].Price * sign }
	w1, w3, w5 := p(1)-p(0), p(3)-p(2), p(5)-p(4)
	if w1 <= 0 || w3 <= 0 || w5 <= 0 {
		return nil
	}
	// Wave 2 never retraces past the start, wave 4 never enters wave 1,
	// wave 3 is never the shortest.
	if p(2) <= p(0) || p(4) <= p(1) || (w3 < w1 && w3 < w5) {
		return nil
	}
	// The exhaustion is only tradeable while price sits below the wave 5 extreme.
	if (f.Price-seq[5].Price)*sign >= 0 {
		return nil
	}
	q := clamp01(w3 / (w1 + w5))
	return e.single(f, setup{
		target:  seq[4].Price,
		stop:    seq[5].Price,
		atrMult: e.p.ATRMult,
		quality: q,
	})
}
