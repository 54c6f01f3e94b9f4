package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	domrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	domsvc "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/service"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

const (
	DefaultAlertThreshold = 19.0
	DefaultAlertCooldown  = time.Hour
)

// Alert outcomes reported to metrics.
const (
	AlertEmitted = "emitted"
	AlertGated   = "gated"
	AlertFailed  = "notify_failed"
)

// AlertKey identifies one cooldown slot.
func AlertKey(symbol string, horizon models.Horizon, dir models.Direction) string {
	return fmt.Sprintf("%s_%s_%s", symbol, horizon, dir)
}

// Qualifies reports whether p is strong enough to alert on, ignoring cooldown.
func Qualifies(p models.Prediction, threshold float64) bool {
	return p.Direction != models.Neutral && p.Confidence > threshold && len(p.Patterns) > 0
}

// CooldownGate admits a qualifying prediction at most once per cooldown for
// each (symbol, horizon, direction).
type CooldownGate struct {
	store     domrepo.CooldownStore
	threshold float64
	cooldown  time.Duration
}

func NewCooldownGate(store domrepo.CooldownStore, threshold float64, cooldown time.Duration) *CooldownGate {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &CooldownGate{store: store, threshold: threshold, cooldown: cooldown}
}

// Admit records the emission when it returns true. The record is kept even
// if delivery later fails.
func (g *CooldownGate) Admit(ctx context.Context, p models.Prediction, now time.Time) (bool, error) {
	if !Qualifies(p, g.threshold) {
		return false, nil
	}
	return g.store.Acquire(ctx, AlertKey(p.Symbol, p.Horizon, p.Direction), now, g.cooldown)
}

var _ domsvc.AlertGate = (*CooldownGate)(nil)

// Alerter turns admitted predictions into notifications and published alerts.
type Alerter struct {
	gate      domsvc.AlertGate
	notifier  domrepo.Notifier
	publisher domrepo.AlertPublisher
	metrics   domrepo.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

func NewAlerter(gate domsvc.AlertGate, notifier domrepo.Notifier, publisher domrepo.AlertPublisher, metrics domrepo.Metrics, l *logger.Logger) *Alerter {
	if l == nil {
		l = logger.Nop()
	}
	return &Alerter{
		gate:      gate,
		notifier:  notifier,
		publisher: publisher,
		metrics:   metrics,
		logger:    l.With(logger.String("component", "alerter")),
		now:       time.Now,
	}
}

// Dispatch sends every admitted prediction in ps. Failures are logged; the
// returned alerts are the ones that passed the gate.
func (a *Alerter) Dispatch(ctx context.Context, ps []models.Prediction) []*models.Alert {
	var sent []*models.Alert
	for _, p := range ps {
		now := a.now()
		ok, err := a.gate.Admit(ctx, p, now)
		if err != nil {
			a.metrics.RecordError("alert_gate")
			a.logger.Error("alert gate failed", logger.String("symbol", p.Symbol), logger.Error(err))
			continue
		}
		if !ok {
			if p.Direction != models.Neutral && len(p.Patterns) > 0 {
				a.metrics.RecordAlert(p.Horizon, AlertGated)
			}
			continue
		}

		alert, err := NewAlert(p, now)
		if err != nil {
			a.logger.Warn("alert skipped", logger.String("symbol", p.Symbol), logger.Error(err))
			continue
		}
		sent = append(sent, alert)
		a.deliver(ctx, alert)
	}
	return sent
}

func (a *Alerter) deliver(ctx context.Context, alert *models.Alert) {
	published := false
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, alert); err != nil {
			a.metrics.RecordError("alert_publish")
			a.logger.Warn("alert publish failed", logger.String("id", alert.ID), logger.Error(err))
		} else {
			published = true
		}
	}

	if err := a.notifier.Notify(ctx, FormatAlert(alert)); err != nil {
		a.metrics.RecordError("notify")
		a.metrics.RecordAlert(alert.Horizon, AlertFailed)
		a.logger.Error("notify failed",
			logger.String("symbol", alert.Symbol),
			logger.String("horizon", string(alert.Horizon)),
			logger.Error(err))
		return
	}
	a.metrics.RecordAlert(alert.Horizon, AlertEmitted)
	a.logger.Info("alert sent",
		logger.String("symbol", alert.Symbol),
		logger.String("horizon", string(alert.Horizon)),
		logger.String("direction", string(alert.Direction)),
		logger.Float64("confidence", alert.Confidence),
		logger.String("pattern", alert.Pattern),
		logger.Bool("published", published))
}
