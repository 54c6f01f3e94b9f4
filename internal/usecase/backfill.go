package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/ratelimit"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultBackfillLimit  = 500
	DefaultBackfillPacing = 100 * time.Millisecond

	restLimiterKey = "rest"
)

// gapGrace tolerates a closed candle whose final event is still in flight.
const gapGrace = 30 * time.Second

// Backfiller loads the recent history of every series before streaming starts
// and later repairs series that failed to load or missed bars.
type Backfiller struct {
	market  domrepo.MarketData
	store   domrepo.SeriesStore
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	logger  *logger.Logger
	limit   int
	pacing  time.Duration
	now     func() time.Time

	mu         sync.Mutex
	unfillable map[models.SeriesKey]time.Time
}

func NewBackfiller(market domrepo.MarketData, store domrepo.SeriesStore, limiter *ratelimit.Limiter, metrics domrepo.Metrics, l *logger.Logger, limit int, pacing time.Duration) *Backfiller {
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}
	if pacing <= 0 {
		pacing = DefaultBackfillPacing
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Backfiller{
		market:     market,
		store:      store,
		limiter:    limiter,
		metrics:    metrics,
		logger:     l,
		limit:      limit,
		pacing:     pacing,
		now:        time.Now,
		unfillable: make(map[models.SeriesKey]time.Time),
	}
}

// Run backfills keys one request at a time, at most one per pacing interval.
// A series whose fetch fails stays uninitialized, so live candles for it are
// dropped until Refill loads it. It returns the number of series loaded, or
// ctx's error.
func (b *Backfiller) Run(ctx context.Context, keys []models.SeriesKey) (int, error) {
	start := time.Now()
	loaded := 0
	for _, key := range keys {
		candles, err := b.fetch(ctx, key, b.limit)
		if err != nil {
			if ctx.Err() != nil {
				return loaded, ctx.Err()
			}
			continue
		}
		if err := b.store.Backfill(key, candles); err != nil {
			b.logger.Error("backfill store failed", logger.String("series", key.String()), logger.Error(err))
			continue
		}
		loaded++
	}
	b.metrics.RecordLatency("backfill", time.Since(start).Seconds())
	b.logger.Info("backfill complete",
		logger.Int("series", len(keys)),
		logger.Int("loaded", loaded),
		logger.Duration("took", time.Since(start)))
	return loaded, nil
}

// Refill initializes keys that never loaded and refetches the bars missing
// from loaded series, either inside the buffer or after its last candle.
// A gap the exchange cannot fill is remembered and not refetched again.
// It returns the number of series repaired.
func (b *Backfiller) Refill(ctx context.Context, keys []models.SeriesKey) (int, error) {
	repaired := 0
	for _, key := range keys {
		candles, _, initialized := b.store.Snapshot(key)
		limit := b.limit
		var from time.Time
		if initialized {
			var gap bool
			from, gap = b.firstGap(key, candles)
			if !gap {
				continue
			}
			limit = min(b.limit, int(b.now().Sub(from)/key.Timeframe.Duration())+2)
		}

		fetched, err := b.fetch(ctx, key, limit)
		if err != nil {
			if ctx.Err() != nil {
				return repaired, ctx.Err()
			}
			continue
		}
		if initialized {
			err = b.store.Merge(key, fetched)
		} else {
			err = b.store.Backfill(key, fetched)
		}
		if err != nil {
			b.logger.Error("refill store failed", logger.String("series", key.String()), logger.Error(err))
			continue
		}
		repaired++

		if initialized {
			after, _, _ := b.store.Snapshot(key)
			if still, gap := b.firstGap(key, after); gap && still.Equal(from) {
				b.mu.Lock()
				b.unfillable[key] = from
				b.mu.Unlock()
			}
		}
	}
	if repaired > 0 {
		b.logger.Info("refill complete", logger.Int("repaired", repaired))
	}
	return repaired, nil
}

// firstGap returns the open time of the last candle before the first missing
// bar within the backfill window, skipping a gap already known to be unfillable.
func (b *Backfiller) firstGap(key models.SeriesKey, candles []models.Candle) (time.Time, bool) {
	step := key.Timeframe.Duration()
	if step <= 0 {
		return time.Time{}, false
	}
	now := b.now()
	horizon := now.Add(-time.Duration(b.limit) * step)
	if len(candles) == 0 {
		return horizon, true
	}

	b.mu.Lock()
	known, hasKnown := b.unfillable[key]
	b.mu.Unlock()
	skip := func(t time.Time) bool { return hasKnown && t.Equal(known) }

	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].OpenTime
		if candles[i].OpenTime.Before(horizon) || skip(prev) {
			continue
		}
		if candles[i].OpenTime.Sub(prev) > step {
			return prev, true
		}
	}
	if last := candles[len(candles)-1].OpenTime; now.Sub(last) >= 2*step+gapGrace && !skip(last) {
		return last, true
	}
	return time.Time{}, false
}

func (b *Backfiller) fetch(ctx context.Context, key models.SeriesKey, limit int) ([]models.Candle, error) {
	if err := b.limiter.Wait(ctx, restLimiterKey, 1, 1/b.pacing.Seconds()); err != nil {
		return nil, err
	}
	candles, err := b.market.Klines(ctx, key.Symbol, key.Timeframe, limit)
	if err != nil && ctx.Err() == nil {
		b.metrics.RecordError("backfill")
		b.logger.Error("backfill failed", logger.String("series", key.String()), logger.Error(err))
	}
	return candles, err
}
