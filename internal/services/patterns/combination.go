package patterns

import (
	"sort"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// ConfluenceParams configures a combination evaluator.
type ConfluenceParams struct {
	// Requires lists categories that must all be present among prior matches.
	// When empty, any MinCategories distinct base categories qualify.
	Requires      []models.Category
	MinCategories int
	MinConfidence float64 // prior matches below this are ignored
	ATRMult       float64
}

type confluence struct {
	base
	p ConfluenceParams
}

// Confluence fires when prior matches of the profile's direction agree across
// enough categories. The target is the median of their targets and the
// structural stop the tightest of their stops.
func Confluence(params ConfluenceParams) Builder {
	return func(p models.PatternProfile) Evaluator {
		return &confluence{base: base{profile: p}, p: params}
	}
}

func (c *confluence) Evaluate(f *Frame, prior []models.PatternMatch) ([]models.PatternMatch, error) {
	if len(prior) == 0 || f.degenerate(1) {
		return nil, nil
	}
	dir := c.profile.Direction
	cats := make(map[models.Category]bool)
	var agree []models.PatternMatch
	for _, m := range prior {
		if m.Direction != dir || m.Category.IsCombination() || m.Confidence < c.p.MinConfidence {
			continue
		}
		cats[m.Category] = true
		agree = append(agree, m)
	}
	for _, req := range c.p.Requires {
		if !cats[req] {
			return nil, nil
		}
	}
	if len(cats) < c.p.MinCategories || len(agree) == 0 {
		return nil, nil
	}

	targets := make([]float64, len(agree))
	stop := agree[0].StopLoss
	var conf float64
	volume, smart := false, false
	for i, m := range agree {
		targets[i] = m.TargetPrice
		conf += m.Confidence
		volume = volume || m.VolumeConfirmed
		smart = smart || m.InstitutionalConfirmed
		if dir == models.Bullish && m.StopLoss > stop || dir == models.Bearish && m.StopLoss < stop {
			stop = m.StopLoss
		}
	}
	sort.Float64s(targets)
	target := targets[len(targets)/2]
	if len(targets)%2 == 0 {
		target = (targets[len(targets)/2-1] + targets[len(targets)/2]) / 2
	}

	breadth := float64(len(cats)) / float64(max(c.p.MinCategories, 1)+2)
	avg := conf / float64(len(agree))
	return c.single(f, setup{
		target:    target,
		stop:      stop,
		atrMult:   c.p.ATRMult,
		quality:   0.5*clamp01(avg/100) + 0.5*clamp01(breadth),
		volume:    volume,
		smart:     smart,
		structure: float64(len(cats)) * 10,
	}), nil
}
