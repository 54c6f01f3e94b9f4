package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/middleware"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultRestartDelay = 5 * time.Second
	DefaultErrorDelay   = 10 * time.Second
)

var (
	errGroupEnded = errors.New("stream ended")
	errNoStreams  = errors.New("no streams to subscribe")
)

// EventProcessor consumes stream events. *middleware.KlinePipeline implements it.
type EventProcessor interface {
	Process(ev *models.KlineEvent) (string, error)
}

var _ EventProcessor = (*middleware.KlinePipeline)(nil)

// IngestionSupervisor keeps every series subscribed. Streams are split into
// connection groups; when any group ends, all groups are torn down and the
// whole set is reconnected after a delay.
type IngestionSupervisor struct {
	dialer       domrepo.StreamDialer
	proc         EventProcessor
	metrics      domrepo.Metrics
	logger       *logger.Logger
	restartDelay time.Duration
	errorDelay   time.Duration

	connected atomic.Int32
	rounds    atomic.Int64
}

func NewIngestionSupervisor(dialer domrepo.StreamDialer, proc EventProcessor, metrics domrepo.Metrics, l *logger.Logger, restartDelay, errorDelay time.Duration) *IngestionSupervisor {
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	if errorDelay <= 0 {
		errorDelay = DefaultErrorDelay
	}
	if l == nil {
		l = logger.Nop()
	}
	return &IngestionSupervisor{
		dialer:       dialer,
		proc:         proc,
		metrics:      metrics,
		logger:       l.With(logger.String("component", "ingestion")),
		restartDelay: restartDelay,
		errorDelay:   errorDelay,
	}
}

// Run blocks until ctx is cancelled.
func (s *IngestionSupervisor) Run(ctx context.Context, keys []models.SeriesKey) error {
	chunks := ChunkStreams(keys, s.dialer.MaxStreamsPerConnection())
	s.logger.Info("ingestion starting", logger.Int("streams", len(keys)), logger.Int("groups", len(chunks)))

	for {
		streamed, err := s.runRound(ctx, chunks)
		if ctx.Err() != nil {
			return nil
		}
		s.rounds.Add(1)
		s.metrics.RecordReconnect()

		delay := s.restartDelay
		if !streamed {
			delay = s.errorDelay
			s.metrics.RecordError("ingestion")
			s.logger.Error("ingestion round failed", logger.Error(err), logger.Duration("retry_in", delay))
		} else {
			s.logger.Warn("stream group ended, restarting all groups", logger.Error(err), logger.Duration("retry_in", delay))
		}
		if !sleepCtx(ctx, delay) {
			return nil
		}
	}
}

// runRound starts every group and returns when the first one ends.
// streamed reports whether any group reached the streaming state.
func (s *IngestionSupervisor) runRound(ctx context.Context, chunks [][]string) (streamed bool, err error) {
	if len(chunks) == 0 {
		return false, errNoStreams
	}

	roundCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		once    sync.Once
		first   error
		reached atomic.Bool
	)
	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, streams []string) {
			defer wg.Done()
			err := s.runGroup(roundCtx, idx, streams, &reached)
			once.Do(func() {
				first = err
				cancel()
			})
		}(i, chunk)
	}
	wg.Wait()
	return reached.Load(), first
}

func (s *IngestionSupervisor) runGroup(ctx context.Context, idx int, streams []string, reached *atomic.Bool) error {
	st := s.dialer.NewStream(streams)
	defer func() { _ = st.Close() }()

	if err := st.Connect(ctx); err != nil {
		return fmt.Errorf("group %d connect: %w", idx, err)
	}
	reached.Store(true)
	s.metrics.SetConnectedGroups(int(s.connected.Add(1)))
	defer func() { s.metrics.SetConnectedGroups(int(s.connected.Add(-1))) }()

	events, errs := st.Read(ctx)
	for ev := range events {
		if _, err := s.proc.Process(ev); err != nil {
			s.logger.Debug("event rejected", logger.Int("group", idx), logger.Error(err))
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return fmt.Errorf("group %d: %w", idx, err)
	}
	return fmt.Errorf("group %d: %w", idx, errGroupEnded)
}

// Connected reports whether at least one group is streaming.
func (s *IngestionSupervisor) Connected() bool { return s.connected.Load() > 0 }

// ConnectedGroups is the number of groups currently streaming.
func (s *IngestionSupervisor) ConnectedGroups() int { return int(s.connected.Load()) }

// Restarts counts completed supervision rounds.
func (s *IngestionSupervisor) Restarts() int64 { return s.rounds.Load() }

// ChunkStreams maps keys to stream names in chunks of at most size.
func ChunkStreams(keys []models.SeriesKey, size int) [][]string {
	if size <= 0 {
		size = len(keys)
	}
	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		chunk := make([]string, 0, end-start)
		for _, k := range keys[start:end] {
			chunk = append(chunk, k.StreamName())
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// sleepCtx waits d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
