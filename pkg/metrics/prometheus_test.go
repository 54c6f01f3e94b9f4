package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordCandle(models.TF1m, "applied")
	r.RecordCandle(models.TF1m, "applied")
	r.RecordCandle(models.TF5m, "dropped")
	r.RecordAlert(models.HorizonShort, "emitted")
	r.RecordEvaluatorFailure("GARTLEY_BULLISH")
	r.RecordReconnect()
	r.SetConnectedGroups(3)
	r.RecordLastPrice("BTCUSDT", 64000.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.candles.WithLabelValues("1m", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.candles.WithLabelValues("5m", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.alerts.WithLabelValues("short", "emitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.evaluatorErrors.WithLabelValues("GARTLEY_BULLISH")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reconnects))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.connectedGroups))
	assert.Equal(t, 64000.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTCUSDT")))

	n, err := testutil.GatherAndCount(reg, "cryptopattern_candles_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}
