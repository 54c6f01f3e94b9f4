package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := NewCatalog(DefaultTiers(), DefaultRules())
	require.NoError(t, err)
	require.Equal(t, len(DefaultRules()), c.Len())

	seen := make(map[models.Category]bool)
	for _, p := range c.Profiles("", "") {
		seen[p.Category] = true
		assert.NotEqual(t, models.Neutral, p.Direction, p.Name)
	}
	for _, cat := range []models.Category{
		models.CategoryStructural, models.CategoryHarmonic, models.CategoryElliott,
		models.CategoryWyckoff, models.CategoryVolume, models.CategoryFibonacci,
		models.CategoryCandlestick, models.CategoryOscillator, models.CategoryMoving,
		models.CategoryVolatility, models.CategoryCombination,
	} {
		assert.True(t, seen[cat], "no profile in category %s", cat)
	}

	baseSet, combos := c.Evaluators()
	assert.Len(t, combos, len(c.Profiles(models.CategoryCombination, "")))
	assert.Len(t, baseSet, c.Len()-len(combos))
}

func TestCatalog_ProfilesSurfacedUnchanged(t *testing.T) {
	c := DefaultCatalog()

	p, ok := c.Profile("DOUBLE_BOTTOM")
	require.True(t, ok)
	assert.Equal(t, 72.0, p.SuccessRate)
	assert.Equal(t, 0.82, p.Reliability)
	assert.Equal(t, "A", p.Grade)
	assert.Equal(t, models.Bullish, p.Direction)

	tier, ok := c.Tier(TierLegendary)
	require.True(t, ok)
	assert.Equal(t, 2.5, tier.Weight)

	harmonic := c.Profiles(models.CategoryHarmonic, "")
	require.NotEmpty(t, harmonic)
	for _, h := range harmonic {
		assert.Equal(t, models.TF5m, h.MinTimeframe, h.Name)
	}
	assert.Empty(t, c.Profiles(models.CategoryHarmonic, TierClassic))

	_, ok = c.Profile("NOT_A_PATTERN")
	assert.False(t, ok)
}

func TestNewCatalog_Rejects(t *testing.T) {
	good := profile("X", models.CategoryStructural, TierClassic, models.Bullish, 70, 0.8, 5, "A", "")
	build := Extrema(defaultExtrema(2))

	mutate := func(fn func(p *models.PatternProfile)) models.PatternProfile {
		p := good
		fn(&p)
		return p
	}

	tests := []struct {
		name  string
		rules []Rule
	}{
		{"duplicate", []Rule{{good, build}, {good, build}}},
		{"no template", []Rule{{good, nil}}},
		{"no name", []Rule{{mutate(func(p *models.PatternProfile) { p.Name = "" }), build}}},
		{"no category", []Rule{{mutate(func(p *models.PatternProfile) { p.Category = "" }), build}}},
		{"neutral", []Rule{{mutate(func(p *models.PatternProfile) { p.Direction = models.Neutral }), build}}},
		{"zero success", []Rule{{mutate(func(p *models.PatternProfile) { p.SuccessRate = 0 }), build}}},
		{"success over 100", []Rule{{mutate(func(p *models.PatternProfile) { p.SuccessRate = 101 }), build}}},
		{"reliability over 1", []Rule{{mutate(func(p *models.PatternProfile) { p.Reliability = 1.5 }), build}}},
		{"unknown tier", []Rule{{mutate(func(p *models.PatternProfile) { p.Tier = "mythic" }), build}}},
		{"bad timeframe", []Rule{{mutate(func(p *models.PatternProfile) { p.MinTimeframe = "7m" }), build}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(DefaultTiers(), tt.rules)
			assert.Error(t, err)
		})
	}

	_, err := NewCatalog([]models.Tier{{Name: "a"}, {Name: "a"}}, nil)
	assert.Error(t, err)
}
