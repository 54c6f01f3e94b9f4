package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultAnalysisInterval = 60 * time.Second
	DefaultAnalysisBackoff  = 30 * time.Second
	DefaultMonitorInterval  = 5 * time.Minute
	DefaultMonitorBackoff   = 60 * time.Second
	DefaultRefillInterval   = 5 * time.Minute
	DefaultFreshWindow      = 10 * time.Minute
)

type (
	SymbolSelector interface {
		Select(ctx context.Context) []string
	}
	HistoryLoader interface {
		Run(ctx context.Context, keys []models.SeriesKey) (int, error)
		Refill(ctx context.Context, keys []models.SeriesKey) (int, error)
	}
	StreamRunner interface {
		Run(ctx context.Context, keys []models.SeriesKey) error
	}
	CycleRunner interface {
		RunCycle(ctx context.Context, symbols []string) int
		FreshCount(maxAge time.Duration) int
	}
)

type OrchestratorConfig struct {
	Groups           models.HorizonGroups
	AnalysisInterval time.Duration
	AnalysisBackoff  time.Duration
	MonitorInterval  time.Duration
	MonitorBackoff   time.Duration
	RefillInterval   time.Duration
	FreshWindow      time.Duration
}

func (c *OrchestratorConfig) applyDefaults() {
	if len(c.Groups) == 0 {
		c.Groups = models.DefaultHorizonGroups()
	}
	if c.AnalysisInterval <= 0 {
		c.AnalysisInterval = DefaultAnalysisInterval
	}
	if c.AnalysisBackoff <= 0 {
		c.AnalysisBackoff = DefaultAnalysisBackoff
	}
	if c.MonitorInterval <= 0 {
		c.MonitorInterval = DefaultMonitorInterval
	}
	if c.MonitorBackoff <= 0 {
		c.MonitorBackoff = DefaultMonitorBackoff
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = DefaultRefillInterval
	}
	if c.FreshWindow <= 0 {
		c.FreshWindow = DefaultFreshWindow
	}
}

// Orchestrator wires the long-running activities: universe selection and
// backfill once, then ingestion, the analysis cycle, periodic refill and
// housekeeping until the context ends.
type Orchestrator struct {
	universe SymbolSelector
	history  HistoryLoader
	stream   StreamRunner
	analysis CycleRunner
	logger   *logger.Logger
	cfg      OrchestratorConfig
	now      func() time.Time

	mu      sync.RWMutex
	symbols []string
	ready   bool
}

func NewOrchestrator(universe SymbolSelector, history HistoryLoader, stream StreamRunner, analysis CycleRunner, l *logger.Logger, cfg OrchestratorConfig) *Orchestrator {
	cfg.applyDefaults()
	if l == nil {
		l = logger.Nop()
	}
	return &Orchestrator{
		universe: universe,
		history:  history,
		stream:   stream,
		analysis: analysis,
		logger:   l.With(logger.String("component", "orchestrator")),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled and every activity has stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	symbols := o.universe.Select(ctx)
	keys := SeriesKeys(symbols, o.cfg.Groups)
	o.mu.Lock()
	o.symbols = symbols
	o.mu.Unlock()

	if _, err := o.history.Run(ctx, keys); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("backfill: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := o.stream.Run(ctx, keys); err != nil {
			o.logger.Error("ingestion stopped", logger.Error(err))
		}
	}()

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			cron.Recover(logger.NewCronLogger(o.logger)),
			cron.SkipIfStillRunning(logger.NewCronLogger(o.logger)),
		),
	)
	analysis := newBackoffJob(o.now, o.cfg.AnalysisBackoff, func() { o.analyze(ctx, symbols) }, o.onPanic("analysis"))
	monitor := newBackoffJob(o.now, o.cfg.MonitorBackoff, o.monitor, o.onPanic("monitor"))
	refill := newBackoffJob(o.now, o.cfg.MonitorBackoff, func() { o.refill(ctx, keys) }, o.onPanic("refill"))

	analysisID, err := c.AddJob(every(o.cfg.AnalysisInterval), analysis)
	if err != nil {
		return fmt.Errorf("schedule analysis: %w", err)
	}
	if _, err := c.AddJob(every(o.cfg.MonitorInterval), monitor); err != nil {
		return fmt.Errorf("schedule monitor: %w", err)
	}
	if _, err := c.AddJob(every(o.cfg.RefillInterval), refill); err != nil {
		return fmt.Errorf("schedule refill: %w", err)
	}
	c.Start()

	o.mu.Lock()
	o.ready = true
	o.mu.Unlock()
	o.logger.Info("orchestrator started",
		logger.Int("symbols", len(symbols)),
		logger.Int("series", len(keys)),
		logger.Duration("analysis_every", o.cfg.AnalysisInterval))

	// First cycle right away, through the same skip-if-running chain.
	go c.Entry(analysisID).WrappedJob.Run()

	<-ctx.Done()
	<-c.Stop().Done()
	wg.Wait()
	o.logger.Info("orchestrator stopped")
	return nil
}

func (o *Orchestrator) analyze(ctx context.Context, symbols []string) {
	if ctx.Err() != nil {
		return
	}
	o.analysis.RunCycle(ctx, symbols)
}

// refill retries series that failed to load and fills bars missed while
// streams were reconnecting.
func (o *Orchestrator) refill(ctx context.Context, keys []models.SeriesKey) {
	if ctx.Err() != nil {
		return
	}
	if _, err := o.history.Refill(ctx, keys); err != nil && ctx.Err() == nil {
		o.logger.Warn("refill stopped", logger.Error(err))
	}
}

// monitor logs how many symbols have a recent result.
func (o *Orchestrator) monitor() {
	if n := o.analysis.FreshCount(o.cfg.FreshWindow); n > 0 {
		o.logger.Info("monitoring active symbols", logger.Int("active", n))
	}
}

func (o *Orchestrator) onPanic(job string) func(error) {
	return func(err error) {
		o.logger.Error("scheduled job failed, backing off", logger.String("job", job), logger.Error(err))
	}
}

// Symbols is the tracked universe; empty until Run has selected it.
func (o *Orchestrator) Symbols() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.symbols...)
}

// Ready reports whether backfill finished and the schedules are running.
func (o *Orchestrator) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ready
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// backoffJob skips runs until its backoff elapses after a panic.
type backoffJob struct {
	now     func() time.Time
	backoff time.Duration
	run     func()
	onErr   func(error)

	mu    sync.Mutex
	until time.Time
}

func newBackoffJob(now func() time.Time, backoff time.Duration, run func(), onErr func(error)) *backoffJob {
	return &backoffJob{now: now, backoff: backoff, run: run, onErr: onErr}
}

func (j *backoffJob) Run() {
	j.mu.Lock()
	if j.now().Before(j.until) {
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			j.mu.Lock()
			j.until = j.now().Add(j.backoff)
			j.mu.Unlock()
			j.onErr(fmt.Errorf("panic: %v", r))
		}
	}()
	j.run()
}
