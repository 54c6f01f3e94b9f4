package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	domsvc "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/service"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/cache"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultBatchSize  = 20
	DefaultBatchPause = time.Second
	DefaultMinBars    = 100
	DefaultStaleAfter = 5 * time.Minute
	DefaultResultTTL  = 10 * time.Minute
)

// AlertDispatcher receives each symbol's predictions. *Alerter implements it.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, ps []models.Prediction) []*models.Alert
}

type AnalysisConfig struct {
	Groups     models.HorizonGroups
	BatchSize  int
	BatchPause time.Duration
	MinBars    int
	StaleAfter time.Duration
	ResultTTL  time.Duration
}

func (c *AnalysisConfig) applyDefaults() {
	if len(c.Groups) == 0 {
		c.Groups = models.DefaultHorizonGroups()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	if c.MinBars <= 0 {
		c.MinBars = DefaultMinBars
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = DefaultResultTTL
	}
}

// Analyzer runs pattern detection over buffer snapshots and turns the
// matches into per-horizon predictions.
type Analyzer struct {
	reader     domrepo.SeriesReader
	detector   domsvc.PatternDetector
	aggregator domsvc.ConfluenceAggregator
	dispatcher AlertDispatcher
	results    *cache.TTLCache[models.SymbolAnalysis]
	metrics    domrepo.Metrics
	logger     *logger.Logger
	cfg        AnalysisConfig
	now        func() time.Time

	cycles atomic.Int64
}

func NewAnalyzer(
	reader domrepo.SeriesReader,
	detector domsvc.PatternDetector,
	aggregator domsvc.ConfluenceAggregator,
	dispatcher AlertDispatcher,
	results *cache.TTLCache[models.SymbolAnalysis],
	metrics domrepo.Metrics,
	l *logger.Logger,
	cfg AnalysisConfig,
) *Analyzer {
	cfg.applyDefaults()
	if results == nil {
		results = cache.NewTTLCache[models.SymbolAnalysis]()
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Analyzer{
		reader:     reader,
		detector:   detector,
		aggregator: aggregator,
		dispatcher: dispatcher,
		results:    results,
		metrics:    metrics,
		logger:     l.With(logger.String("component", "analysis")),
		cfg:        cfg,
		now:        time.Now,
	}
}

// RunCycle analyses symbols in batches of BatchSize, waiting for each batch
// and pausing between batches. It returns how many symbols produced a result.
func (a *Analyzer) RunCycle(ctx context.Context, symbols []string) int {
	start := time.Now()
	var analyzed atomic.Int64

	for i := 0; i < len(symbols); i += a.cfg.BatchSize {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && !sleepCtx(ctx, a.cfg.BatchPause) {
			break
		}

		batch := symbols[i:min(i+a.cfg.BatchSize, len(symbols))]
		var wg sync.WaitGroup
		for _, sym := range batch {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						a.metrics.RecordError("analysis_panic")
						a.logger.Error("symbol analysis panicked",
							logger.String("symbol", symbol), logger.Any("panic", r))
					}
				}()
				if _, ok := a.AnalyzeSymbol(ctx, symbol); ok {
					analyzed.Add(1)
				}
			}(sym)
		}
		wg.Wait()
	}

	a.cycles.Add(1)
	a.metrics.RecordLatency("analysis_cycle", time.Since(start).Seconds())
	a.logger.Debug("analysis cycle done",
		logger.Int("symbols", len(symbols)),
		logger.Int64("analyzed", analyzed.Load()),
		logger.Duration("took", time.Since(start)))
	return int(analyzed.Load())
}

// AnalyzeSymbol evaluates every fresh series of symbol that has at least
// MinBars candles, stores the result and hands predictions to the dispatcher.
// It returns false when the symbol has no price yet.
func (a *Analyzer) AnalyzeSymbol(ctx context.Context, symbol string) (models.SymbolAnalysis, bool) {
	now := a.now()
	price, ok := a.currentPrice(symbol)
	if !ok {
		return models.SymbolAnalysis{}, false
	}

	res := models.SymbolAnalysis{
		Symbol:       symbol,
		CurrentPrice: price,
		Matches:      make(map[models.Horizon]map[models.Timeframe][]models.PatternMatch, len(models.Horizons)),
		Predictions:  make(map[models.Horizon]models.Prediction, len(models.Horizons)),
		AnalyzedAt:   now,
	}
	preds := make([]models.Prediction, 0, len(models.Horizons))
	for _, h := range models.Horizons {
		byTF := make(map[models.Timeframe][]models.PatternMatch)
		var all []models.PatternMatch
		for _, tf := range a.cfg.Groups[h] {
			key := models.NewSeriesKey(symbol, tf)
			candles, lastUpdate, ok := a.reader.Snapshot(key)
			if !ok || len(candles) < a.cfg.MinBars {
				continue
			}
			if now.Sub(lastUpdate) > tf.StaleLimit(a.cfg.StaleAfter) {
				a.logger.Debug("stale series skipped", logger.String("series", key.String()))
				continue
			}
			if ms := a.detector.Detect(ctx, key, candles, price); len(ms) > 0 {
				byTF[tf] = ms
				all = append(all, ms...)
			}
		}
		res.Matches[h] = byTF
		p := a.aggregator.Aggregate(symbol, h, price, all, now)
		res.Predictions[h] = p
		preds = append(preds, p)
	}

	a.results.Set(symbol, res, a.cfg.ResultTTL)
	if a.dispatcher != nil {
		a.dispatcher.Dispatch(ctx, preds)
	}
	return res, true
}

// currentPrice is the last close of the first timeframe with data, shortest horizon first.
func (a *Analyzer) currentPrice(symbol string) (float64, bool) {
	for _, h := range models.Horizons {
		for _, tf := range a.cfg.Groups[h] {
			st, ok := a.reader.Stats(models.NewSeriesKey(symbol, tf), a.cfg.StaleAfter)
			if ok && st.Len > 0 && st.LastClose > 0 {
				return st.LastClose, true
			}
		}
	}
	return 0, false
}

// Latest returns the most recent unexpired analysis of symbol.
func (a *Analyzer) Latest(symbol string) (models.SymbolAnalysis, bool) {
	return a.results.Get(symbol)
}

// FreshCount counts symbols analysed within maxAge.
func (a *Analyzer) FreshCount(maxAge time.Duration) int {
	now := a.now()
	n := 0
	for _, r := range a.results.Values() {
		if now.Sub(r.AnalyzedAt) < maxAge {
			n++
		}
	}
	return n
}

// Cycles counts completed analysis cycles.
func (a *Analyzer) Cycles() int64 { return a.cycles.Load() }
