package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FieldsRender(t *testing.T) {
	var buf bytes.Buffer
	l := (&Logger{zl: zerolog.New(&buf)}).With(String("component", "analysis"))

	l.Warn("cycle slow",
		Int("symbols", 3),
		Int64("bars", 500),
		Float64("confidence", 61.5),
		Bool("published", true),
		Duration("took", 1500*time.Millisecond),
		Strings("tfs", []string{"4h", "1d"}),
		Error(errors.New("timeout")))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "cycle slow", line["message"])
	assert.Equal(t, "analysis", line["component"])
	assert.Equal(t, float64(3), line["symbols"])
	assert.Equal(t, float64(500), line["bars"])
	assert.Equal(t, 61.5, line["confidence"])
	assert.Equal(t, true, line["published"])
	assert.Equal(t, float64(1500), line["took"])
	assert.Equal(t, "4h, 1d", line["tfs"])
	assert.Equal(t, "timeout", line["error"])
}

func TestLogger_ErrorFieldNil(t *testing.T) {
	f := Error(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}
