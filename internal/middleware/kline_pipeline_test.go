package middleware

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/repository"
)

type countingMetrics struct {
	mu       sync.Mutex
	candles  map[string]int
	errors   map[string]int
	lastSeen map[string]float64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{candles: map[string]int{}, errors: map[string]int{}, lastSeen: map[string]float64{}}
}

func (m *countingMetrics) RecordCandle(tf models.Timeframe, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candles[outcome]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen[symbol] = price
}

func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordAlert(models.Horizon, string) {}
func (m *countingMetrics) RecordEvaluatorFailure(string) {}
func (m *countingMetrics) RecordReconnect() {}
func (m *countingMetrics) SetConnectedGroups(int) {}

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func event(symbol string, i int, close float64, final bool) *models.KlineEvent {
	return &models.KlineEvent{
		Symbol:    symbol,
		Timeframe: models.TF1m,
		Candle: models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     close, High: close + 1, Low: close - 1, Close: close, Volume: 5,
		},
		Final: final,
	}
}

func TestKlinePipeline_Process(t *testing.T) {
	store := repository.NewBufferStore(10)
	key := models.NewSeriesKey("BTCUSDT", models.TF1m)
	require.NoError(t, store.Backfill(key, nil))

	m := newCountingMetrics()
	p := NewKlinePipeline(store, m, nil)
	assert.True(t, p.LastEvent().IsZero())

	tests := []struct {
		name    string
		ev      *models.KlineEvent
		outcome string
		wantErr bool
	}{
		{"partial ignored", event("BTCUSDT", 0, 100, false), OutcomePartial, false},
		{"closed applied", event("BTCUSDT", 0, 101, true), OutcomeApplied, false},
		{"next applied", event("BTCUSDT", 1, 102, true), OutcomeApplied, false},
		{"late dropped", event("BTCUSDT", 0, 99, true), OutcomeOutOfOrder, false},
		{"untracked series", event("DOGEUSDT", 0, 1, true), OutcomeUnknown, false},
		{"nil", nil, OutcomeInvalid, true},
		{"negative close", event("BTCUSDT", 2, -1, true), OutcomeInvalid, true},
		{"bad timeframe", &models.KlineEvent{Symbol: "BTCUSDT", Timeframe: "7m", Candle: event("X", 2, 1, true).Candle, Final: true}, OutcomeInvalid, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Process(tt.ev)
			assert.Equal(t, tt.outcome, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	nan := event("BTCUSDT", 3, 100, true)
	nan.Candle.High = math.NaN()
	_, err := p.Process(nan)
	assert.Error(t, err)

	snap, _, _ := store.Snapshot(key)
	require.Len(t, snap, 2)
	assert.Equal(t, 101.0, snap[0].Close)
	assert.Equal(t, 102.0, snap[1].Close)

	assert.EqualValues(t, 2, p.Applied())
	assert.False(t, p.LastEvent().IsZero())
	assert.Equal(t, 2, m.candles[OutcomeApplied])
	assert.Equal(t, 1, m.candles[OutcomeOutOfOrder])
	assert.Equal(t, 1, m.candles[OutcomeUnknown])
	assert.Equal(t, 4, m.errors["pipeline_validate"])
	assert.Equal(t, 99.0, m.lastSeen["BTCUSDT"])
}
