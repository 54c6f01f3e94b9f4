package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domsvc "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/service"
)

const (
	// DominanceRatio is how much one side's score must exceed the other's.
	DominanceRatio = 1.2
	// MaxConfidence caps directional predictions.
	MaxConfidence = 95.0
	// NeutralDamping scales the average confidence of an undecided horizon.
	NeutralDamping = 0.7
	// TopPatterns is the number of contributing matches kept per prediction.
	TopPatterns = 5
)

// Confluence folds one horizon's matches into a single directional call.
type Confluence struct{}

func NewConfluence() *Confluence { return &Confluence{} }

// Aggregate sums match confidence per side. A side wins when its score is
// more than DominanceRatio times the other; otherwise the horizon is NEUTRAL.
func (Confluence) Aggregate(symbol string, horizon models.Horizon, price float64, matches []models.PatternMatch, now time.Time) models.Prediction {
	p := models.Prediction{
		Symbol:       symbol,
		Horizon:      horizon,
		Direction:    models.Neutral,
		CurrentPrice: price,
		ComputedAt:   now,
	}
	if len(matches) == 0 {
		return p
	}

	var total, bull, bear float64
	var bullish, bearish []models.PatternMatch
	for _, m := range matches {
		total += m.Confidence
		switch m.Direction {
		case models.Bullish:
			bull += m.Confidence
			bullish = append(bullish, m)
		case models.Bearish:
			bear += m.Confidence
			bearish = append(bearish, m)
		}
	}
	avg := total / float64(len(matches))

	switch {
	case bull > bear*DominanceRatio:
		p.Direction = models.Bullish
		p.Confidence = math.Min(MaxConfidence, avg*bull/(bull+bear+1))
		p.Patterns = topByConfidence(bullish, TopPatterns)
	case bear > bull*DominanceRatio:
		p.Direction = models.Bearish
		p.Confidence = math.Min(MaxConfidence, avg*bear/(bull+bear+1))
		p.Patterns = topByConfidence(bearish, TopPatterns)
	default:
		p.Confidence = avg * NeutralDamping
		p.Patterns = topByConfidence(matches, TopPatterns)
	}
	return p
}

// topByConfidence returns a sorted copy; ties keep input order.
func topByConfidence(ms []models.PatternMatch, n int) []models.PatternMatch {
	out := make([]models.PatternMatch, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

var _ domsvc.ConfluenceAggregator = Confluence{}
