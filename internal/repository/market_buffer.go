package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
)

// DefaultBufferCapacity is the number of closed candles kept per series.
const DefaultBufferCapacity = 1000

// RollingBuffer is a bounded, time-ordered candle series.
// Writes come only from the ingestion path; readers get copies.
type RollingBuffer struct {
	mu         sync.RWMutex
	candles    []models.Candle
	capacity   int
	lastUpdate time.Time
}

func NewRollingBuffer(capacity int) *RollingBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &RollingBuffer{capacity: capacity}
}

// Backfill replaces the contents with candles sorted by open time,
// deduplicated (the later entry wins) and trimmed to capacity.
func (b *RollingBuffer) Backfill(candles []models.Candle, now time.Time) {
	out := normalize(append([]models.Candle(nil), candles...))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.candles = out
	b.trim()
	b.lastUpdate = now
}

// Merge folds candles into the series: equal open times are overwritten,
// missing ones inserted, and the result trimmed to capacity.
func (b *RollingBuffer) Merge(candles []models.Candle, now time.Time) {
	if len(candles) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := make([]models.Candle, 0, len(b.candles)+len(candles))
	merged = append(merged, b.candles...)
	b.candles = normalize(append(merged, candles...))
	b.trim()
	b.lastUpdate = now
}

// normalize sorts in place by open time and keeps the last of equal entries.
func normalize(candles []models.Candle) []models.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].OpenTime.Equal(c.OpenTime) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// AppendClosed overwrites the last candle when the open time matches,
// appends when it is newer and rejects older candles.
func (b *RollingBuffer) AppendClosed(c models.Candle, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.candles); n > 0 {
		last := b.candles[n-1].OpenTime
		switch {
		case c.OpenTime.Equal(last):
			b.candles[n-1] = c
			b.lastUpdate = now
			return nil
		case c.OpenTime.Before(last):
			return repository.ErrOutOfOrder
		}
	}
	b.candles = append(b.candles, c)
	b.trim()
	b.lastUpdate = now
	return nil
}

// trim drops the oldest candles beyond capacity. The backing array is
// reallocated so trimmed candles can be collected.
func (b *RollingBuffer) trim() {
	if over := len(b.candles) - b.capacity; over > 0 {
		kept := make([]models.Candle, b.capacity, b.capacity+b.capacity/4)
		copy(kept, b.candles[over:])
		b.candles = kept
	}
}

// Snapshot returns a copy of the series and the last write time.
func (b *RollingBuffer) Snapshot() ([]models.Candle, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Candle(nil), b.candles...), b.lastUpdate
}

func (b *RollingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.candles)
}

// Stats summarizes the buffer. A buffer is stale when it was last written
// more than staleAfter before now; zero disables the check.
func (b *RollingBuffer) Stats(now time.Time, staleAfter time.Duration) models.SeriesStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := models.SeriesStats{
		Len:        len(b.candles),
		Capacity:   b.capacity,
		LastUpdate: b.lastUpdate,
		Stale:      staleAfter > 0 && now.Sub(b.lastUpdate) > staleAfter,
	}
	if n := len(b.candles); n > 0 {
		st.LastOpenTime = b.candles[n-1].OpenTime
		st.LastClose = b.candles[n-1].Close
	}
	return st
}

// BufferStore owns one RollingBuffer per series. A series exists only after
// it was backfilled.
type BufferStore struct {
	mu       sync.RWMutex
	buffers  map[models.SeriesKey]*RollingBuffer
	capacity int
	now      func() time.Time
}

type BufferOption func(*BufferStore)

// WithClock overrides the wall clock used for freshness tracking.
func WithClock(now func() time.Time) BufferOption {
	return func(s *BufferStore) { s.now = now }
}

func NewBufferStore(capacity int, opts ...BufferOption) *BufferStore {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	s := &BufferStore{
		buffers:  make(map[models.SeriesKey]*RollingBuffer),
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BufferStore) Backfill(key models.SeriesKey, candles []models.Candle) error {
	s.mu.Lock()
	b, ok := s.buffers[key]
	if !ok {
		b = NewRollingBuffer(s.capacity)
		s.buffers[key] = b
	}
	s.mu.Unlock()

	b.Backfill(candles, s.now())
	return nil
}

// Merge repairs an initialized series with refetched candles.
func (s *BufferStore) Merge(key models.SeriesKey, candles []models.Candle) error {
	b, ok := s.buffer(key)
	if !ok {
		return repository.ErrUnknownSeries
	}
	b.Merge(candles, s.now())
	return nil
}

func (s *BufferStore) AppendClosed(key models.SeriesKey, c models.Candle) error {
	b, ok := s.buffer(key)
	if !ok {
		return repository.ErrUnknownSeries
	}
	return b.AppendClosed(c, s.now())
}

func (s *BufferStore) Snapshot(key models.SeriesKey) ([]models.Candle, time.Time, bool) {
	b, ok := s.buffer(key)
	if !ok {
		return nil, time.Time{}, false
	}
	candles, updated := b.Snapshot()
	return candles, updated, true
}

func (s *BufferStore) Stats(key models.SeriesKey, staleAfter time.Duration) (models.SeriesStats, bool) {
	b, ok := s.buffer(key)
	if !ok {
		return models.SeriesStats{}, false
	}
	st := b.Stats(s.now(), key.Timeframe.StaleLimit(staleAfter))
	st.Key = key
	return st, true
}

// Keys returns every initialized series, ordered by symbol then timeframe length.
func (s *BufferStore) Keys() []models.SeriesKey {
	s.mu.RLock()
	keys := make([]models.SeriesKey, 0, len(s.buffers))
	for k := range s.buffers {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Symbol != keys[j].Symbol {
			return keys[i].Symbol < keys[j].Symbol
		}
		return keys[i].Timeframe.Duration() < keys[j].Timeframe.Duration()
	})
	return keys
}

func (s *BufferStore) buffer(key models.SeriesKey) (*RollingBuffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buffers[key]
	return b, ok
}

var _ repository.SeriesStore = (*BufferStore)(nil)
