package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "USDT", c.Universe.Quote)
	assert.Equal(t, 1_000_000.0, c.Universe.MinQuoteVolume)
	assert.Equal(t, 100, c.Universe.Size)
	assert.Equal(t, 1000, c.Ingestion.BufferCapacity)
	assert.Equal(t, 500, c.Ingestion.BackfillLimit)
	assert.Equal(t, 100*time.Millisecond, c.Ingestion.BackfillPacing)
	assert.Equal(t, 60*time.Second, c.Analysis.Interval)
	assert.Equal(t, 20, c.Analysis.BatchSize)
	assert.Equal(t, 5*time.Minute, c.Analysis.StaleAfter)
	assert.Equal(t, 19.0, c.Alert.Threshold)
	assert.Equal(t, time.Hour, c.Alert.Cooldown)
	assert.Equal(t, "memory", c.Alert.Store)
	assert.Equal(t, 10, c.Redis.PoolSize)
	assert.Equal(t, "cryptopattern", c.Kafka.Namespace)
	assert.False(t, c.Server.CORS)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: production
universe:
  size: 25
timeframes:
  short: [1m, 3m]
alert:
  cooldown: 30m
  store: redis
`))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, 25, c.Universe.Size)
	assert.Equal(t, []string{"1m", "3m"}, c.Timeframes.Short)
	assert.Equal(t, 30*time.Minute, c.Alert.Cooldown)
	assert.Equal(t, "redis", c.Alert.Store)
	assert.Equal(t, 20, c.Analysis.BatchSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad timeframe", "timeframes:\n  mid: [7m]\n"},
		{"bad store", "alert:\n  store: disk\n"},
		{"telegram without token", "telegram:\n  enabled: true\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"bad log level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, tt.body))
			require.NoError(t, err)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL", "@signals")
	t.Setenv("SYMBOLS", "BTCUSDT,ETHUSDT")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv(writeConfig(t, "telegram:\n  enabled: true\nkafka:\n  enabled: true\n"))
	require.NoError(t, err)
	assert.Equal(t, "123:abc", c.Telegram.Token)
	assert.Equal(t, "@signals", c.Telegram.Channel)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, c.Universe.Symbols)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
