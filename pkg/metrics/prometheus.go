package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
)

const namespace = "cryptopattern"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candles         *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	alerts          *prometheus.CounterVec
	evaluatorErrors *prometheus.CounterVec
	reconnects      prometheus.Counter
	connectedGroups prometheus.Gauge
}

// New creates a recorder registered with the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		candles: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candles_total",
				Help:      "Closed candles received from the stream by outcome",
			},
			[]string{"timeframe", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last close applied for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 15, 30, 60},
			},
			[]string{"operation"},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Qualified predictions by horizon and gate outcome",
			},
			[]string{"horizon", "outcome"},
		),
		evaluatorErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluator_failures_total",
				Help:      "Pattern evaluators that failed or panicked",
			},
			[]string{"pattern"},
		),
		reconnects: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_reconnects_total",
				Help:      "Restarts of the stream connection groups",
			},
		),
		connectedGroups: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stream_connected_groups",
				Help:      "Connection groups currently streaming",
			},
		),
	}
}

func (r *Recorder) RecordCandle(tf models.Timeframe, outcome string) {
	r.candles.WithLabelValues(string(tf), outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordAlert(horizon models.Horizon, outcome string) {
	r.alerts.WithLabelValues(string(horizon), outcome).Inc()
}

func (r *Recorder) RecordEvaluatorFailure(pattern string) {
	r.evaluatorErrors.WithLabelValues(pattern).Inc()
}

func (r *Recorder) RecordReconnect() {
	r.reconnects.Inc()
}

func (r *Recorder) SetConnectedGroups(n int) {
	r.connectedGroups.Set(float64(n))
}

var _ repository.Metrics = (*Recorder)(nil)
