package patterns

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

type stubEvaluator struct {
	profile models.PatternProfile
	fn      func(f *Frame, prior []models.PatternMatch) ([]models.PatternMatch, error)
}

func (s *stubEvaluator) Profile() models.PatternProfile { return s.profile }

func (s *stubEvaluator) Evaluate(f *Frame, prior []models.PatternMatch) ([]models.PatternMatch, error) {
	return s.fn(f, prior)
}

type fakeMetrics struct {
	mu       sync.Mutex
	failures map[string]int
}

func (m *fakeMetrics) RecordCandle(models.Timeframe, string) {}
func (m *fakeMetrics) RecordError(string) {}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordAlert(models.Horizon, string) {}
func (m *fakeMetrics) RecordReconnect() {}
func (m *fakeMetrics) SetConnectedGroups(int) {}
func (m *fakeMetrics) RecordEvaluatorFailure(pattern string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = make(map[string]int)
	}
	m.failures[pattern]++
}

func stubProfile(name string, cat models.Category, dir models.Direction) models.PatternProfile {
	return profile(name, cat, TierClassic, dir, 70, 0.8, 5, "A", "")
}

func fixed(p models.PatternProfile, entry, target, stop, conf float64) *stubEvaluator {
	return &stubEvaluator{profile: p, fn: func(*Frame, []models.PatternMatch) ([]models.PatternMatch, error) {
		return []models.PatternMatch{{
			Name:        p.Name,
			Category:    p.Category,
			Direction:   p.Direction,
			EntryPrice:  entry,
			TargetPrice: target,
			StopLoss:    stop,
			Confidence:  conf,
		}}, nil
	}}
}

// interpolate draws a close series through the given (index, price) anchors.
func interpolate(n int, anchors [][2]float64) []float64 {
	out := make([]float64, n)
	for a := 0; a < len(anchors)-1; a++ {
		i0, p0 := int(anchors[a][0]), anchors[a][1]
		i1, p1 := int(anchors[a+1][0]), anchors[a+1][1]
		for i := i0; i <= i1 && i < n; i++ {
			out[i] = p0 + (p1-p0)*float64(i-i0)/float64(i1-i0)
		}
	}
	return out
}

func candlesFrom(closes, volumes []float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		out[i] = models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     c + 0.5,
			Low:      c - 0.5,
			Close:    c,
			Volume:   volumes[i],
		}
	}
	return out
}

// doubleBottom returns 120 hourly bars: two lows near 90 separated by a peak at
// 100, then a close above the neckline on 1.4x the average volume.
func doubleBottom() []models.Candle {
	closes := interpolate(120, [][2]float64{
		{0, 110}, {29, 92}, {35, 90}, {50, 100}, {65, 90.3}, {117, 100}, {118, 101.5}, {119, 102.5},
	})
	volumes := make([]float64, 120)
	for i := range volumes {
		volumes[i] = 100
	}
	volumes[119] = 140
	return candlesFrom(closes, volumes)
}

var btc1h = models.NewSeriesKey("BTCUSDT", models.TF1h)

func byName(ms []models.PatternMatch) map[string]models.PatternMatch {
	out := make(map[string]models.PatternMatch, len(ms))
	for _, m := range ms {
		out[m.Name] = m
	}
	return out
}

func TestRunner_DoubleBottomEndToEnd(t *testing.T) {
	r := NewRunner(DefaultCatalog())
	matches := r.Detect(context.Background(), btc1h, doubleBottom(), 0)

	found := byName(matches)
	m, ok := found["DOUBLE_BOTTOM"]
	require.True(t, ok, "got %v", matchNames(matches))

	assert.Equal(t, models.Bullish, m.Direction)
	assert.Equal(t, models.CategoryStructural, m.Category)
	assert.Equal(t, models.TF1h, m.Timeframe)
	assert.InDelta(t, 102.5, m.EntryPrice, 1e-9)
	assert.InDelta(t, 111.5, m.TargetPrice, 1e-9)
	assert.Greater(t, m.TargetPrice, m.EntryPrice)
	assert.Greater(t, m.EntryPrice, m.StopLoss)
	assert.Greater(t, m.StopLoss, 89.5, "ATR stop is tighter than the structural low")
	assert.GreaterOrEqual(t, m.TargetPct(), DefaultMinTargetPct)
	assert.True(t, m.VolumeConfirmed)
	assert.InDelta(t, 1.4, m.SmartMoneyFlow, 1e-9)

	_, ok = found["PERFECT_DOUBLE_BOTTOM"]
	assert.True(t, ok)
	_, ok = found["DOUBLE_TOP"]
	assert.False(t, ok)

	for _, x := range matches {
		assert.True(t, x.Consistent(), x.Name)
		assert.GreaterOrEqual(t, x.Confidence, DefaultConfidenceFloor, x.Name)
	}
}

func matchNames(ms []models.PatternMatch) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func TestRunner_DoesNotMutateInput(t *testing.T) {
	candles := doubleBottom()
	before := append([]models.Candle(nil), candles...)

	NewRunner(DefaultCatalog()).Detect(context.Background(), btc1h, candles, 0)
	assert.Equal(t, before, candles)
}

func TestRunner_TargetFilter(t *testing.T) {
	p := stubProfile("TINY_MOVE", models.CategoryStructural, models.Bullish)
	e := fixed(p, 100, 100.5, 99, 50)
	candles := doubleBottom()

	r := NewRunner(nil, WithEvaluators([]Evaluator{e}, nil))
	assert.Empty(t, r.Detect(context.Background(), btc1h, candles, 0))

	r = NewRunner(nil, WithEvaluators([]Evaluator{e}, nil), WithMinTargetPct(0.25))
	assert.Len(t, r.Detect(context.Background(), btc1h, candles, 0), 1)
}

func TestRunner_DropsInconsistentAndLowConfidence(t *testing.T) {
	wrongSide := fixed(stubProfile("WRONG_SIDE", models.CategoryStructural, models.Bullish), 100, 90, 95, 50)
	weak := fixed(stubProfile("WEAK", models.CategoryStructural, models.Bullish), 100, 110, 95, 5)
	good := fixed(stubProfile("GOOD", models.CategoryStructural, models.Bullish), 100, 110, 95, 50)

	r := NewRunner(nil, WithEvaluators([]Evaluator{wrongSide, weak, good}, nil))
	got := r.Detect(context.Background(), btc1h, doubleBottom(), 0)
	assert.Equal(t, []string{"GOOD"}, matchNames(got))

	r = NewRunner(nil, WithEvaluators([]Evaluator{weak}, nil), WithConfidenceFloor(0))
	assert.Len(t, r.Detect(context.Background(), btc1h, doubleBottom(), 0), 1)
}

func TestRunner_IsolatesFailures(t *testing.T) {
	candles := doubleBottom()
	catalog := DefaultCatalog()
	dbProfile, _ := catalog.Profile("DOUBLE_BOTTOM")
	db := Extrema(defaultExtrema(2))(dbProfile)

	alone := NewRunner(nil, WithEvaluators([]Evaluator{db}, nil)).
		Detect(context.Background(), btc1h, candles, 0)
	require.Len(t, alone, 1)

	panics := &stubEvaluator{
		profile: stubProfile("PANICS", models.CategoryStructural, models.Bullish),
		fn: func(f *Frame, _ []models.PatternMatch) ([]models.PatternMatch, error) {
			_ = f.Close[len(f.Close)+1]
			return nil, nil
		},
	}
	fails := &stubEvaluator{
		profile: stubProfile("FAILS", models.CategoryVolume, models.Bearish),
		fn: func(*Frame, []models.PatternMatch) ([]models.PatternMatch, error) {
			return nil, errors.New("boom")
		},
	}
	metrics := &fakeMetrics{}

	r := NewRunner(nil, WithEvaluators([]Evaluator{panics, db, fails}, nil), WithMetrics(metrics))
	got := r.Detect(context.Background(), btc1h, candles, 0)

	assert.Equal(t, alone, got)
	assert.Equal(t, 1, metrics.failures["PANICS"])
	assert.Equal(t, 1, metrics.failures["FAILS"])
}

func TestRunner_ZeroVolume(t *testing.T) {
	candles := doubleBottom()
	for i := range candles {
		candles[i].Volume = 0
	}
	catalog := DefaultCatalog()

	for _, name := range []string{"VOLUME_BREAKOUT_BULLISH", "OBV_BULLISH_DIVERGENCE", "PERFECT_DOUBLE_BOTTOM"} {
		p, ok := catalog.Profile(name)
		require.True(t, ok)
		var e Evaluator
		for _, rule := range DefaultRules() {
			if rule.Profile.Name == name {
				e = rule.Build(p)
			}
		}
		require.NotNil(t, e)

		got, err := e.Evaluate(NewFrame(btc1h, candles, 0), nil)
		assert.NoError(t, err, name)
		assert.Empty(t, got, name)
	}

	// The whole catalog still runs without panicking and siblings keep working.
	metrics := &fakeMetrics{}
	got := NewRunner(catalog, WithMetrics(metrics)).Detect(context.Background(), btc1h, candles, 0)
	assert.Empty(t, metrics.failures)
	for _, m := range got {
		assert.False(t, m.VolumeConfirmed, m.Name)
	}
}

func TestRunner_CombinationsSeeBaseMatchesOnly(t *testing.T) {
	bull := fixed(stubProfile("BASE_BULL", models.CategoryStructural, models.Bullish), 100, 110, 95, 60)
	bear := fixed(stubProfile("BASE_BEAR", models.CategoryVolume, models.Bearish), 100, 90, 105, 40)

	var seen [][]string
	record := func(name string) *stubEvaluator {
		p := stubProfile(name, models.CategoryCombination, models.Bullish)
		return &stubEvaluator{profile: p, fn: func(_ *Frame, prior []models.PatternMatch) ([]models.PatternMatch, error) {
			seen = append(seen, matchNames(prior))
			if len(prior) > 0 {
				prior[0].Name = "CLOBBERED"
			}
			return []models.PatternMatch{{
				Name: name, Category: models.CategoryCombination, Direction: models.Bullish,
				EntryPrice: 100, TargetPrice: 120, StopLoss: 96, Confidence: 80,
			}}, nil
		}}
	}

	r := NewRunner(nil, WithEvaluators([]Evaluator{bull, bear}, []Evaluator{record("COMBO_A"), record("COMBO_B")}))
	got := r.Detect(context.Background(), btc1h, doubleBottom(), 0)

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"BASE_BULL", "BASE_BEAR"}, seen[0])
	assert.Equal(t, []string{"BASE_BULL", "BASE_BEAR"}, seen[1])
	assert.Equal(t, []string{"BASE_BULL", "BASE_BEAR", "COMBO_A", "COMBO_B"}, matchNames(got))
}

func TestConfluence(t *testing.T) {
	p := profile("STACK", models.CategoryCombination, TierCombination, models.Bullish, 85, 0.9, 10, "A+", "")
	e := Confluence(ConfluenceParams{Requires: []models.Category{models.CategoryStructural, models.CategoryVolume}, MinCategories: 2, MinConfidence: 20, ATRMult: 2})(p)
	f := NewFrame(btc1h, doubleBottom(), 0)

	prior := []models.PatternMatch{
		{Name: "A", Category: models.CategoryStructural, Direction: models.Bullish, TargetPrice: 110, StopLoss: 99, Confidence: 50},
		{Name: "B", Category: models.CategoryVolume, Direction: models.Bullish, TargetPrice: 112, StopLoss: 101, Confidence: 40, VolumeConfirmed: true},
		{Name: "C", Category: models.CategoryVolume, Direction: models.Bearish, TargetPrice: 90, StopLoss: 105, Confidence: 90},
	}
	got, err := e.Evaluate(f, prior)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 111, got[0].TargetPrice, 1e-9)
	assert.True(t, got[0].VolumeConfirmed)
	assert.Less(t, got[0].StopLoss, got[0].EntryPrice)

	got, err = e.Evaluate(f, prior[:1])
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunner_MinTimeframeAndCancel(t *testing.T) {
	called := false
	p := stubProfile("SLOW", models.CategoryElliott, models.Bullish)
	p.MinTimeframe = models.TF4h
	e := &stubEvaluator{profile: p, fn: func(*Frame, []models.PatternMatch) ([]models.PatternMatch, error) {
		called = true
		return nil, nil
	}}

	r := NewRunner(nil, WithEvaluators([]Evaluator{e}, nil))
	r.Detect(context.Background(), btc1h, doubleBottom(), 0)
	assert.False(t, called)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, NewRunner(DefaultCatalog()).Detect(ctx, btc1h, doubleBottom(), 0))
	assert.Nil(t, NewRunner(DefaultCatalog()).Detect(context.Background(), btc1h, nil, 0))
}

func TestRunner_ConcurrentUse(t *testing.T) {
	r := NewRunner(DefaultCatalog())
	candles := doubleBottom()
	want := r.Detect(context.Background(), btc1h, candles, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := r.Detect(context.Background(), btc1h, candles, 0)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
