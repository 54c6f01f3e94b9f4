package patterns

import (
	"errors"
	"math"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// ErrEvaluatorPanic wraps a panic recovered at the evaluator boundary.
var ErrEvaluatorPanic = errors.New("evaluator panicked")

// Evaluator detects one named pattern on a frame.
// prior holds matches already produced for the same series in this cycle; only
// combination evaluators look at it. Implementations must not modify the frame
// or prior, and return an empty result when history is insufficient.
type Evaluator interface {
	Profile() models.PatternProfile
	Evaluate(f *Frame, prior []models.PatternMatch) ([]models.PatternMatch, error)
}

// Builder instantiates a template for one profile.
type Builder func(p models.PatternProfile) Evaluator

// Rule binds a static profile to the template that detects it.
type Rule struct {
	Profile models.PatternProfile
	Build   Builder
}

// base is embedded by every template.
type base struct {
	profile models.PatternProfile
}

func (b base) Profile() models.PatternProfile { return b.profile }

func (b base) bullish() bool { return b.profile.Direction == models.Bullish }

// setup is what a template found; match turns it into a PatternMatch.
type setup struct {
	entry     float64
	target    float64
	stop      float64 // structural level, zero when the template has none
	atrMult   float64
	quality   float64 // 0..1
	volume    bool
	smart     bool
	structure float64
	fib       float64
	flow      float64
}

func (b base) match(f *Frame, s setup) (models.PatternMatch, bool) {
	p := b.profile
	if s.entry == 0 {
		s.entry = f.Price
	}
	stop, ok := conservativeStop(p.Direction, s.entry, s.stop, f.LastATR(), s.atrMult)
	if !ok {
		return models.PatternMatch{}, false
	}
	q := clamp01(s.quality)
	if s.volume {
		q = clamp01(q + 0.1)
	}
	structure := s.structure
	if structure == 0 {
		structure = q * 100
	}
	m := models.PatternMatch{
		Name:                   p.Name,
		Category:               p.Category,
		Direction:              p.Direction,
		Timeframe:              f.Timeframe,
		SuccessRate:            p.SuccessRate,
		Confidence:             confidence(p, q),
		SignalStrength:         q * 100,
		EntryPrice:             s.entry,
		TargetPrice:            s.target,
		StopLoss:               stop,
		VolumeConfirmed:        s.volume,
		InstitutionalConfirmed: s.smart,
		PatternGrade:           p.Grade,
		MarketStructureScore:   structure,
		FibonacciConfluence:    s.fib,
		SmartMoneyFlow:         s.flow,
		Reliability:            p.Reliability,
		AverageGain:            p.AverageGainPct,
	}
	if !m.Consistent() {
		return models.PatternMatch{}, false
	}
	return m, true
}

func (b base) single(f *Frame, s setup) []models.PatternMatch {
	if m, ok := b.match(f, s); ok {
		return []models.PatternMatch{m}
	}
	return nil
}

// confidence scales the profile's historical figures by detection quality.
func confidence(p models.PatternProfile, q float64) float64 {
	return math.Min(100, p.SuccessRate*p.Reliability*(0.6+0.4*q))
}

// conservativeStop picks the tighter of the structural stop and entry ∓ ATR×mult.
// Only candidates on the losing side of entry qualify.
func conservativeStop(dir models.Direction, entry, structural, atr, mult float64) (float64, bool) {
	var candidates []float64
	if structural > 0 && !math.IsNaN(structural) {
		candidates = append(candidates, structural)
	}
	if atr > 0 && mult > 0 {
		if dir == models.Bullish {
			candidates = append(candidates, entry-atr*mult)
		} else {
			candidates = append(candidates, entry+atr*mult)
		}
	}

	best, found := 0.0, false
	for _, c := range candidates {
		switch dir {
		case models.Bullish:
			if c > 0 && c < entry && (!found || c > best) {
				best, found = c, true
			}
		case models.Bearish:
			if c > entry && (!found || c < best) {
				best, found = c, true
			}
		}
	}
	return best, found
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// closeness maps a relative deviation to 1 at zero and 0 at tol.
func closeness(deviation, tol float64) float64 {
	if tol <= 0 {
		return 0
	}
	return clamp01(1 - math.Abs(deviation)/tol)
}
