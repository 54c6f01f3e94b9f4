package patterns

import (
	"fmt"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

// Catalog is the immutable registry of tiers, profiles and their templates.
// It is built once at startup and shared by reference.
type Catalog struct {
	tiers    []models.Tier
	tierIdx  map[string]models.Tier
	rules    []Rule
	profiles map[string]models.PatternProfile
}

// NewCatalog validates the rule table against the tiers.
func NewCatalog(tiers []models.Tier, rules []Rule) (*Catalog, error) {
	c := &Catalog{
		tiers:    append([]models.Tier(nil), tiers...),
		tierIdx:  make(map[string]models.Tier, len(tiers)),
		rules:    append([]Rule(nil), rules...),
		profiles: make(map[string]models.PatternProfile, len(rules)),
	}
	for _, t := range tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("tier without name")
		}
		if _, dup := c.tierIdx[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tier %q", t.Name)
		}
		c.tierIdx[t.Name] = t
	}
	for _, r := range rules {
		if err := c.validate(r); err != nil {
			return nil, err
		}
		c.profiles[r.Profile.Name] = r.Profile
	}
	return c, nil
}

func (c *Catalog) validate(r Rule) error {
	p := r.Profile
	switch {
	case p.Name == "":
		return fmt.Errorf("profile without name")
	case r.Build == nil:
		return fmt.Errorf("profile %s: no template", p.Name)
	case p.Category == "":
		return fmt.Errorf("profile %s: no category", p.Name)
	case p.Direction != models.Bullish && p.Direction != models.Bearish:
		return fmt.Errorf("profile %s: direction %q", p.Name, p.Direction)
	case p.SuccessRate <= 0 || p.SuccessRate > 100:
		return fmt.Errorf("profile %s: success rate %.2f out of range", p.Name, p.SuccessRate)
	case p.Reliability <= 0 || p.Reliability > 1:
		return fmt.Errorf("profile %s: reliability %.2f out of range", p.Name, p.Reliability)
	case p.MinTimeframe != "" && !models.IsValidTimeframe(p.MinTimeframe):
		return fmt.Errorf("profile %s: unknown timeframe %q", p.Name, p.MinTimeframe)
	}
	if _, ok := c.tierIdx[p.Tier]; !ok {
		return fmt.Errorf("profile %s: unknown tier %q", p.Name, p.Tier)
	}
	if _, dup := c.profiles[p.Name]; dup {
		return fmt.Errorf("duplicate profile %s", p.Name)
	}
	return nil
}

// Tiers returns the tiers in table order.
func (c *Catalog) Tiers() []models.Tier {
	return append([]models.Tier(nil), c.tiers...)
}

// Tier looks up a tier by name.
func (c *Catalog) Tier(name string) (models.Tier, bool) {
	t, ok := c.tierIdx[name]
	return t, ok
}

// Profile looks up a profile by pattern name.
func (c *Catalog) Profile(name string) (models.PatternProfile, bool) {
	p, ok := c.profiles[name]
	return p, ok
}

// Profiles returns profiles in table order, optionally filtered.
// Empty filter values match everything.
func (c *Catalog) Profiles(category models.Category, tier string) []models.PatternProfile {
	out := make([]models.PatternProfile, 0, len(c.rules))
	for _, r := range c.rules {
		if category != "" && r.Profile.Category != category {
			continue
		}
		if tier != "" && r.Profile.Tier != tier {
			continue
		}
		out = append(out, r.Profile)
	}
	return out
}

// Len returns the number of profiles.
func (c *Catalog) Len() int { return len(c.rules) }

// Evaluators instantiates every template, split into base and combination sets.
func (c *Catalog) Evaluators() (baseSet, combos []Evaluator) {
	for _, r := range c.rules {
		e := r.Build(r.Profile)
		if r.Profile.Category.IsCombination() {
			combos = append(combos, e)
		} else {
			baseSet = append(baseSet, e)
		}
	}
	return baseSet, combos
}
