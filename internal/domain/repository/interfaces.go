package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

var (
	// ErrUnknownSeries is returned for updates to a series that was never backfilled.
	ErrUnknownSeries = errors.New("series not initialized")
	// ErrOutOfOrder is returned when a candle is older than the last stored one.
	ErrOutOfOrder = errors.New("candle out of order")
)

// MarketData is the exchange REST surface used at startup and for backfill.
type MarketData interface {
	TopSymbols(ctx context.Context, quote string, minQuoteVolume float64, limit int) ([]models.SymbolTicker, error)
	Klines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error)
}

// MarketStream is one multiplexed kline connection covering a fixed set of streams.
type MarketStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.KlineEvent, <-chan error)
	Close() error
	IsConnected() bool
}

// StreamDialer creates a MarketStream for a chunk of stream names.
type StreamDialer interface {
	NewStream(streams []string) MarketStream
	MaxStreamsPerConnection() int
}

// SeriesWriter is the write side of the rolling buffers. Only ingestion uses it.
// Backfill initializes a series; Merge and AppendClosed require one.
type SeriesWriter interface {
	Backfill(key models.SeriesKey, candles []models.Candle) error
	Merge(key models.SeriesKey, candles []models.Candle) error
	AppendClosed(key models.SeriesKey, c models.Candle) error
}

// SeriesReader exposes snapshot copies of the rolling buffers.
type SeriesReader interface {
	Snapshot(key models.SeriesKey) ([]models.Candle, time.Time, bool)
	Stats(key models.SeriesKey, staleAfter time.Duration) (models.SeriesStats, bool)
	Keys() []models.SeriesKey
}

// SeriesStore is both sides of the rolling buffers, used by backfill to find gaps.
type SeriesStore interface {
	SeriesWriter
	SeriesReader
}

// Notifier delivers a preformatted alert text to the configured channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// AlertPublisher fans emitted alerts out to downstream consumers.
type AlertPublisher interface {
	Publish(ctx context.Context, a *models.Alert) error
	Close() error
}

// CooldownStore records the last emission per alert key.
// Acquire atomically checks the cooldown and, when it has elapsed, records now.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, now time.Time, cooldown time.Duration) (bool, error)
	Last(ctx context.Context, key string) (time.Time, bool, error)
}

// Metrics is the observability sink shared by ingestion, analysis and alerting.
type Metrics interface {
	RecordCandle(tf models.Timeframe, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordAlert(horizon models.Horizon, outcome string)
	RecordEvaluatorFailure(pattern string)
	RecordReconnect()
	SetConnectedGroups(n int)
}
