package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/cache"
)

type stubDetector struct {
	mu       sync.Mutex
	keys     []models.SeriesKey
	delay    time.Duration
	panicOn  string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (d *stubDetector) Detect(_ context.Context, key models.SeriesKey, _ []models.Candle, _ float64) []models.PatternMatch {
	if key.Symbol == d.panicOn {
		panic("evaluator bug")
	}
	n := d.inflight.Add(1)
	defer d.inflight.Add(-1)
	for {
		p := d.peak.Load()
		if n <= p || d.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(d.delay)

	d.mu.Lock()
	d.keys = append(d.keys, key)
	d.mu.Unlock()
	return []models.PatternMatch{match("HAMMER", models.Bullish, 60)}
}

type recDispatcher struct {
	mu    sync.Mutex
	calls [][]models.Prediction
}

func (d *recDispatcher) Dispatch(_ context.Context, ps []models.Prediction) []*models.Alert {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, ps)
	return nil
}

type analysisFixture struct {
	clock    time.Time
	store    *repository.BufferStore
	detector *stubDetector
	disp     *recDispatcher
	metrics  *recMetrics
	analyzer *Analyzer
}

func newAnalysisFixture(cfg AnalysisConfig) *analysisFixture {
	f := &analysisFixture{clock: t0, detector: &stubDetector{}, disp: &recDispatcher{}, metrics: newRecMetrics()}
	now := func() time.Time { return f.clock }
	f.store = repository.NewBufferStore(1000, repository.WithClock(now))
	results := cache.NewTTLCache[models.SymbolAnalysis]().WithClock(now)
	f.analyzer = NewAnalyzer(f.store, f.detector, NewConfluence(), f.disp, results, f.metrics, nil, cfg)
	f.analyzer.now = now
	return f
}

func (f *analysisFixture) load(symbol string, tf models.Timeframe, n int) {
	_ = f.store.Backfill(models.NewSeriesKey(symbol, tf), candlesFrom(t0.Add(-24*time.Hour), tf.Duration(), n))
}

func TestAnalyzer_SkipsShortAndStaleSeries(t *testing.T) {
	f := newAnalysisFixture(AnalysisConfig{MinBars: 100, StaleAfter: 5 * time.Minute})
	f.load("BTCUSDT", models.TF30m, 150)
	f.clock = t0.Add(40 * time.Minute)
	f.load("BTCUSDT", models.TF1m, 120)
	f.load("BTCUSDT", models.TF5m, 50)

	res, ok := f.analyzer.AnalyzeSymbol(context.Background(), "BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, []models.SeriesKey{models.NewSeriesKey("BTCUSDT", models.TF1m)}, f.detector.keys)
	assert.Equal(t, 219.5, res.CurrentPrice)

	require.Len(t, f.disp.calls, 1)
	require.Len(t, f.disp.calls[0], 3)
	assert.Equal(t, models.Bullish, res.Predictions[models.HorizonShort].Direction)
	assert.Equal(t, models.Neutral, res.Predictions[models.HorizonMid].Direction)
	assert.Zero(t, res.Predictions[models.HorizonLong].Confidence)
	assert.Len(t, res.Matches[models.HorizonShort][models.TF1m], 1)

	latest, ok := f.analyzer.Latest("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, f.clock, latest.AnalyzedAt)
}

func TestAnalyzer_LongTimeframesStayFreshBetweenCloses(t *testing.T) {
	f := newAnalysisFixture(AnalysisConfig{MinBars: 100, StaleAfter: 5 * time.Minute})
	f.load("ETHUSDT", models.TF1m, 150)
	f.load("ETHUSDT", models.TF4h, 150)
	f.load("ETHUSDT", models.TF1d, 150)
	f.clock = t0.Add(6 * time.Minute)

	res, ok := f.analyzer.AnalyzeSymbol(context.Background(), "ETHUSDT")
	require.True(t, ok)
	assert.ElementsMatch(t, []models.SeriesKey{
		models.NewSeriesKey("ETHUSDT", models.TF4h),
		models.NewSeriesKey("ETHUSDT", models.TF1d),
	}, f.detector.keys, "1m is stale after 6 minutes, 4h and 1d are not")
	assert.Equal(t, models.Bullish, res.Predictions[models.HorizonLong].Direction)
	assert.Len(t, res.Matches[models.HorizonLong], 2)

	f.detector.keys = nil
	f.clock = t0.Add(4*time.Hour + 3*time.Minute)
	_, ok = f.analyzer.AnalyzeSymbol(context.Background(), "ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, []models.SeriesKey{models.NewSeriesKey("ETHUSDT", models.TF1d)}, f.detector.keys,
		"4h without a close for a bar and grace is a gap")
}

func TestAnalyzer_NoPriceNoResult(t *testing.T) {
	f := newAnalysisFixture(AnalysisConfig{})
	_, ok := f.analyzer.AnalyzeSymbol(context.Background(), "NOPEUSDT")
	assert.False(t, ok)
	assert.Empty(t, f.disp.calls)
}

func TestAnalyzer_RunCycleBatches(t *testing.T) {
	f := newAnalysisFixture(AnalysisConfig{
		Groups:    models.HorizonGroups{models.HorizonShort: {models.TF1m}},
		BatchSize: 2,
		MinBars:   10,
	})
	f.detector.delay = 20 * time.Millisecond
	symbols := []string{"AUSDT", "BUSDT", "CUSDT", "DUSDT", "EUSDT"}
	for _, s := range symbols {
		f.load(s, models.TF1m, 20)
	}

	assert.Equal(t, 5, f.analyzer.RunCycle(context.Background(), symbols))
	assert.LessOrEqual(t, int(f.detector.peak.Load()), 2)
	assert.Equal(t, int64(1), f.analyzer.Cycles())
	assert.Equal(t, 5, f.analyzer.FreshCount(time.Minute))

	f.clock = f.clock.Add(2 * time.Minute)
	assert.Zero(t, f.analyzer.FreshCount(time.Minute))
}

func TestAnalyzer_PanicIsContained(t *testing.T) {
	f := newAnalysisFixture(AnalysisConfig{
		Groups:  models.HorizonGroups{models.HorizonShort: {models.TF1m}},
		MinBars: 10,
	})
	f.detector.panicOn = "BADUSDT"
	f.load("BADUSDT", models.TF1m, 20)
	f.load("ETHUSDT", models.TF1m, 20)

	assert.Equal(t, 1, f.analyzer.RunCycle(context.Background(), []string{"BADUSDT", "ETHUSDT"}))
	assert.Equal(t, 1, f.metrics.errorCount("analysis_panic"))
	_, ok := f.analyzer.Latest("ETHUSDT")
	assert.True(t, ok)
}
