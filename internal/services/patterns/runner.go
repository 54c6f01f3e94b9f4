package patterns

import (
	"context"
	"fmt"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	domsvc "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/service"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultMinTargetPct    = 1.0
	DefaultConfidenceFloor = 10.0
)

// Runner applies every evaluator of a catalog to one series snapshot.
// It is safe for concurrent use: all per-call state lives in the Frame.
type Runner struct {
	base          []Evaluator
	combos        []Evaluator
	minTargetPct  float64
	minConfidence float64
	logger        *logger.Logger
	metrics       repository.Metrics
}

type Option func(*Runner)

// WithMinTargetPct sets the minimum entry-to-target distance in percent.
func WithMinTargetPct(pct float64) Option {
	return func(r *Runner) { r.minTargetPct = pct }
}

// WithConfidenceFloor drops matches below the given confidence.
func WithConfidenceFloor(c float64) Option {
	return func(r *Runner) { r.minConfidence = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithMetrics(m repository.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithEvaluators replaces the catalog's evaluators.
func WithEvaluators(baseSet, combos []Evaluator) Option {
	return func(r *Runner) {
		r.base = baseSet
		r.combos = combos
	}
}

func NewRunner(catalog *Catalog, opts ...Option) *Runner {
	r := &Runner{
		minTargetPct:  DefaultMinTargetPct,
		minConfidence: DefaultConfidenceFloor,
		logger:        logger.Nop(),
	}
	if catalog != nil {
		r.base, r.combos = catalog.Evaluators()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect runs base evaluators, then combination evaluators over the base
// matches. Failures are isolated per evaluator and never reach the caller.
func (r *Runner) Detect(ctx context.Context, key models.SeriesKey, candles []models.Candle, price float64) []models.PatternMatch {
	start := time.Now()
	f := NewFrame(key, candles, price)
	if f.Len() == 0 {
		return nil
	}

	var found []models.PatternMatch
	for _, e := range r.base {
		if ctx.Err() != nil {
			return nil
		}
		found = append(found, r.evaluate(e, f, nil)...)
	}

	baseCount := len(found)
	for _, e := range r.combos {
		if ctx.Err() != nil {
			return nil
		}
		prior := append([]models.PatternMatch(nil), found[:baseCount]...)
		found = append(found, r.evaluate(e, f, prior)...)
	}

	out := found[:0]
	for _, m := range found {
		if m.Confidence >= r.minConfidence {
			out = append(out, m)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordLatency("detect", time.Since(start).Seconds())
	}
	return out
}

// evaluate is the evaluator boundary: it recovers panics, turns errors into
// "no match" and enforces the shared output contract.
func (r *Runner) evaluate(e Evaluator, f *Frame, prior []models.PatternMatch) (out []models.PatternMatch) {
	p := e.Profile()
	if !f.Timeframe.AtLeast(p.MinTimeframe) {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.fail(p.Name, f, fmt.Errorf("%w: %v", ErrEvaluatorPanic, rec))
			out = nil
		}
	}()

	matches, err := e.Evaluate(f, prior)
	if err != nil {
		r.fail(p.Name, f, err)
		return nil
	}

	for _, m := range matches {
		if !m.Consistent() || m.TargetPct() < r.minTargetPct {
			continue
		}
		m.Timeframe = f.Timeframe
		out = append(out, m)
	}
	return out
}

func (r *Runner) fail(name string, f *Frame, err error) {
	r.logger.Debug("evaluator failed",
		logger.String("pattern", name),
		logger.String("symbol", f.Symbol),
		logger.String("timeframe", string(f.Timeframe)),
		logger.Error(err),
	)
	if r.metrics != nil {
		r.metrics.RecordEvaluatorFailure(name)
	}
}

var _ domsvc.PatternDetector = (*Runner)(nil)
