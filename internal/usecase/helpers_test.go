package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

var t0 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

type recMetrics struct {
	mu         sync.Mutex
	alerts     map[string]int
	errors     map[string]int
	reconnects int
	groups     []int
}

func newRecMetrics() *recMetrics {
	return &recMetrics{alerts: map[string]int{}, errors: map[string]int{}}
}

func (m *recMetrics) RecordCandle(models.Timeframe, string) {}
func (m *recMetrics) RecordLastPrice(string, float64) {}
func (m *recMetrics) RecordLatency(string, float64) {}
func (m *recMetrics) RecordEvaluatorFailure(string) {}

func (m *recMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recMetrics) RecordAlert(h models.Horizon, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[outcome]++
}

func (m *recMetrics) RecordReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnects++
}

func (m *recMetrics) SetConnectedGroups(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append(m.groups, n)
}

func (m *recMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type recNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *recNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func (n *recNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts...)
}

type recPublisher struct {
	mu     sync.Mutex
	alerts []*models.Alert
}

func (p *recPublisher) Publish(_ context.Context, a *models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *recPublisher) Close() error { return nil }

func match(name string, dir models.Direction, conf float64) models.PatternMatch {
	m := models.PatternMatch{
		Name:         name,
		Direction:    dir,
		Confidence:   conf,
		EntryPrice:   100,
		PatternGrade: "A",
	}
	if dir == models.Bearish {
		m.TargetPrice, m.StopLoss = 90, 104
	} else {
		m.TargetPrice, m.StopLoss = 110, 96
	}
	return m
}

func prediction(symbol string, h models.Horizon, dir models.Direction, conf float64, ms ...models.PatternMatch) models.Prediction {
	return models.Prediction{
		Symbol:       symbol,
		Horizon:      h,
		Direction:    dir,
		Confidence:   conf,
		Patterns:     ms,
		CurrentPrice: 100,
		ComputedAt:   t0,
	}
}
