package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/repository"
)

func TestQualifies(t *testing.T) {
	m := match("DOUBLE_BOTTOM", models.Bullish, 70)
	tests := []struct {
		name string
		p    models.Prediction
		want bool
	}{
		{"above threshold", prediction("BTCUSDT", models.HorizonShort, models.Bullish, 19.01, m), true},
		{"at threshold", prediction("BTCUSDT", models.HorizonShort, models.Bullish, 19, m), false},
		{"neutral", prediction("BTCUSDT", models.HorizonShort, models.Neutral, 80, m), false},
		{"no patterns", prediction("BTCUSDT", models.HorizonShort, models.Bearish, 80), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(tt.p, DefaultAlertThreshold))
		})
	}
}

func TestCooldownGate_OneVersusTwo(t *testing.T) {
	ctx := context.Background()
	gate := NewCooldownGate(repository.NewMemoryCooldownStore(), DefaultAlertThreshold, time.Hour)
	p := prediction("BTCUSDT", models.HorizonShort, models.Bullish, 40, match("DOUBLE_BOTTOM", models.Bullish, 70))

	ok, err := gate.Admit(ctx, p, t0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = gate.Admit(ctx, p, t0.Add(30*time.Minute))
	assert.False(t, ok, "same key within cooldown")

	ok, _ = gate.Admit(ctx, p, t0.Add(time.Hour))
	assert.False(t, ok, "cooldown must strictly elapse")

	other := p
	other.Direction = models.Bearish
	ok, _ = gate.Admit(ctx, other, t0.Add(time.Minute))
	assert.True(t, ok, "direction is part of the key")

	ok, _ = gate.Admit(ctx, p, t0.Add(time.Hour+time.Second))
	assert.True(t, ok)
}

func TestAlertKey(t *testing.T) {
	assert.Equal(t, "ETHUSDT_mid_BEARISH", AlertKey("ETHUSDT", models.HorizonMid, models.Bearish))
}

func TestAlerter_Dispatch(t *testing.T) {
	ctx := context.Background()
	notifier := &recNotifier{}
	pub := &recPublisher{}
	metrics := newRecMetrics()
	gate := NewCooldownGate(repository.NewMemoryCooldownStore(), DefaultAlertThreshold, time.Hour)
	a := NewAlerter(gate, notifier, pub, metrics, nil)
	now := t0
	a.now = func() time.Time { return now }

	preds := []models.Prediction{
		prediction("BTCUSDT", models.HorizonShort, models.Bullish, 42.5, match("DOUBLE_BOTTOM", models.Bullish, 70)),
		prediction("BTCUSDT", models.HorizonMid, models.Neutral, 30, match("X", models.Bullish, 30)),
		prediction("BTCUSDT", models.HorizonLong, models.Bearish, 12, match("Y", models.Bearish, 12)),
	}

	sent := a.Dispatch(ctx, preds)
	require.Len(t, sent, 1)
	assert.Equal(t, models.HorizonShort, sent[0].Horizon)
	require.Len(t, notifier.sent(), 1)
	assert.Len(t, pub.alerts, 1)
	assert.Equal(t, 1, metrics.alerts[AlertEmitted])
	assert.Equal(t, 1, metrics.alerts[AlertGated])

	now = now.Add(10 * time.Minute)
	assert.Empty(t, a.Dispatch(ctx, preds))
	assert.Len(t, notifier.sent(), 1)
}

func TestAlerter_NotifyFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	notifier := &recNotifier{err: errors.New("telegram down")}
	metrics := newRecMetrics()
	gate := NewCooldownGate(repository.NewMemoryCooldownStore(), DefaultAlertThreshold, time.Hour)
	a := NewAlerter(gate, notifier, nil, metrics, nil)
	a.now = func() time.Time { return t0 }

	p := prediction("SOLUSDT", models.HorizonLong, models.Bearish, 55, match("HEAD_AND_SHOULDERS", models.Bearish, 60))
	assert.Len(t, a.Dispatch(ctx, []models.Prediction{p}), 1)
	assert.Equal(t, 1, metrics.alerts[AlertFailed])
	assert.Equal(t, 1, metrics.errorCount("notify"))

	notifier.err = nil
	assert.Empty(t, a.Dispatch(ctx, []models.Prediction{p}), "failed delivery still consumes the cooldown")
	assert.Len(t, notifier.sent(), 1)
}

func TestNewAlert_TakeProfits(t *testing.T) {
	bull, err := NewAlert(prediction("BTCUSDT", models.HorizonShort, models.Bullish, 42.5, match("DOUBLE_BOTTOM", models.Bullish, 70)), t0)
	require.NoError(t, err)
	assert.NotEmpty(t, bull.ID)
	assert.Equal(t, 100.0, bull.Entry)
	assert.Equal(t, 96.0, bull.StopLoss)
	assert.InDelta(t, 103.0, bull.TP1, 1e-9)
	assert.InDelta(t, 106.0, bull.TP2, 1e-9)
	assert.Equal(t, 110.0, bull.TP3)
	assert.Equal(t, "DOUBLE_BOTTOM", bull.Pattern)
	assert.Equal(t, "A", bull.Grade)

	bear, err := NewAlert(prediction("BTCUSDT", models.HorizonMid, models.Bearish, 30, match("DOUBLE_TOP", models.Bearish, 70)), t0)
	require.NoError(t, err)
	assert.InDelta(t, 97.0, bear.TP1, 1e-9)
	assert.InDelta(t, 94.0, bear.TP2, 1e-9)
	assert.Equal(t, 90.0, bear.TP3)
	assert.NotEqual(t, bull.ID, bear.ID)
}

func TestNewAlert_Fallbacks(t *testing.T) {
	m := models.PatternMatch{Name: "VOLUME_CLIMAX", Direction: models.Bearish, Confidence: 50}
	p := prediction("XRPUSDT", models.HorizonShort, models.Bearish, 30, m)
	p.CurrentPrice = 2

	a, err := NewAlert(p, t0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, a.Entry)
	assert.InDelta(t, 2.1, a.StopLoss, 1e-9)
	assert.InDelta(t, 1.8, a.TP3, 1e-9)
	assert.Equal(t, "N/A", a.Grade)

	_, err = NewAlert(prediction("XRPUSDT", models.HorizonShort, models.Bearish, 30), t0)
	assert.Error(t, err)
	_, err = NewAlert(prediction("XRPUSDT", models.HorizonShort, models.Neutral, 30, m), t0)
	assert.Error(t, err)
}

func TestFormatAlert(t *testing.T) {
	a, err := NewAlert(prediction("BTCUSDT", models.HorizonShort, models.Bullish, 42.46, match("DOUBLE_BOTTOM", models.Bullish, 70)), t0)
	require.NoError(t, err)
	text := FormatAlert(a)

	lines := strings.Split(text, "\n")
	assert.Equal(t, "🚀 *BTCUSDT* ⚡ SHORT TERM SIGNAL", lines[0])
	for _, want := range []string{
		"💰 *CURRENT PRICE:* $100.000000",
		"🛡️ *STOP LOSS:* $96.000000",
		"🎯 *TP 1:* $103.000000",
		"🎯 *TP 3:* $110.000000",
		"📊 *PATTERN:* DOUBLE\\_BOTTOM",
		"📈 *CONFIDENCE:* 42.5%",
		"⭐ *GRADE:* A",
	} {
		assert.Contains(t, lines, want)
	}
	assert.Equal(t, "#BTCUSDT #SHORTTERM #BULLISH", lines[len(lines)-1])
}
