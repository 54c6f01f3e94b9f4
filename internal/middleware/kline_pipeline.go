package middleware

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// Candle outcomes reported to metrics.
const (
	OutcomeApplied    = "applied"
	OutcomePartial    = "partial"
	OutcomeInvalid    = "invalid"
	OutcomeUnknown    = "unknown_series"
	OutcomeOutOfOrder = "out_of_order"
)

// KlinePipeline sits between the market stream and the rolling buffers.
// It validates events, drops in-progress candles and appends closed ones.
type KlinePipeline struct {
	writer  domrepo.SeriesWriter
	metrics domrepo.Metrics
	logger  *logger.Logger

	lastEvent atomic.Int64
	applied   atomic.Int64
}

func NewKlinePipeline(writer domrepo.SeriesWriter, metrics domrepo.Metrics, l *logger.Logger) *KlinePipeline {
	if l == nil {
		l = logger.Nop()
	}
	return &KlinePipeline{writer: writer, metrics: metrics, logger: l}
}

// Process handles one stream event and returns the outcome label.
// Only an invalid event produces an error; the rest are routine drops.
func (p *KlinePipeline) Process(ev *models.KlineEvent) (string, error) {
	if err := validateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return OutcomeInvalid, err
	}
	p.lastEvent.Store(time.Now().UnixMilli())
	p.metrics.RecordLastPrice(ev.Symbol, ev.Candle.Close)

	if !ev.Final {
		return OutcomePartial, nil
	}

	outcome := OutcomeApplied
	switch err := p.writer.AppendClosed(ev.Key(), ev.Candle); {
	case err == nil:
		p.applied.Add(1)
	case errors.Is(err, domrepo.ErrUnknownSeries):
		outcome = OutcomeUnknown
	case errors.Is(err, domrepo.ErrOutOfOrder):
		outcome = OutcomeOutOfOrder
		p.logger.Debug("late candle dropped",
			logger.String("series", ev.Key().String()),
			logger.Int64("open_time", ev.Candle.OpenTime.UnixMilli()))
	default:
		p.metrics.RecordError("pipeline_append")
		return outcome, fmt.Errorf("append %s: %w", ev.Key(), err)
	}
	p.metrics.RecordCandle(ev.Timeframe, outcome)
	return outcome, nil
}

// LastEvent is when the most recent valid event arrived, zero if none has.
func (p *KlinePipeline) LastEvent() time.Time {
	ms := p.lastEvent.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Applied counts closed candles written to the buffers.
func (p *KlinePipeline) Applied() int64 { return p.applied.Load() }

func validateEvent(ev *models.KlineEvent) error {
	if ev == nil {
		return fmt.Errorf("kline event nil")
	}
	if ev.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if !models.IsValidTimeframe(ev.Timeframe) {
		return fmt.Errorf("timeframe %q unsupported", ev.Timeframe)
	}
	c := ev.Candle
	if c.OpenTime.IsZero() || c.OpenTime.Unix() <= 0 {
		return fmt.Errorf("open time invalid")
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("non-finite or negative value")
		}
	}
	if c.High < c.Low || c.Close <= 0 {
		return fmt.Errorf("inconsistent candle")
	}
	return nil
}
