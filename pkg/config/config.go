package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		Digest struct {
			Enabled  bool          `yaml:"enabled"`
			Topic    string        `yaml:"topic" default:"cryptopattern.logs"`
			Interval time.Duration `yaml:"interval" default:"1m"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Server struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Binance struct {
		RESTURL      string        `yaml:"rest_url" default:"https://api.binance.com" validate:"url"`
		StreamURL    string        `yaml:"stream_url" default:"wss://stream.binance.com:9443" validate:"url"`
		Timeout      time.Duration `yaml:"timeout" default:"15s"`
		PingInterval time.Duration `yaml:"ping_interval" default:"3m"`
		MaxStreams   int           `yaml:"max_streams" default:"200" validate:"gte=1,lte=1024"`
	} `yaml:"binance"`
	Universe struct {
		Quote          string   `yaml:"quote" default:"USDT" validate:"required"`
		MinQuoteVolume float64  `yaml:"min_quote_volume" default:"1000000" validate:"gte=0"`
		Size           int      `yaml:"size" default:"100" validate:"gte=1"`
		Symbols        []string `yaml:"symbols"`
	} `yaml:"universe"`
	Timeframes struct {
		Short []string `yaml:"short" validate:"dive,timeframe"`
		Mid   []string `yaml:"mid" validate:"dive,timeframe"`
		Long  []string `yaml:"long" validate:"dive,timeframe"`
	} `yaml:"timeframes"`
	Ingestion struct {
		BufferCapacity int           `yaml:"buffer_capacity" default:"1000" validate:"gte=1"`
		BackfillLimit  int           `yaml:"backfill_limit" default:"500" validate:"gte=1,lte=1000"`
		BackfillPacing time.Duration `yaml:"backfill_pacing" default:"100ms"`
		RestartDelay   time.Duration `yaml:"restart_delay" default:"5s"`
		ErrorDelay     time.Duration `yaml:"error_delay" default:"10s"`
		RefillInterval time.Duration `yaml:"refill_interval" default:"5m"`
	} `yaml:"ingestion"`
	Analysis struct {
		Interval       time.Duration `yaml:"interval" default:"60s"`
		BatchSize      int           `yaml:"batch_size" default:"20" validate:"gte=1"`
		BatchPause     time.Duration `yaml:"batch_pause" default:"1s"`
		ErrorBackoff   time.Duration `yaml:"error_backoff" default:"30s"`
		MinBars        int           `yaml:"min_bars" default:"100" validate:"gte=1"`
		StaleAfter     time.Duration `yaml:"stale_after" default:"5m"`
		MinTargetPct   float64       `yaml:"min_target_pct" default:"1.0" validate:"gte=0"`
		ConfidenceMin  float64       `yaml:"confidence_floor" default:"10" validate:"gte=0,lte=100"`
		ResultTTL      time.Duration `yaml:"result_ttl" default:"10m"`
		MonitorEvery   time.Duration `yaml:"monitor_interval" default:"5m"`
		MonitorBackoff time.Duration `yaml:"monitor_backoff" default:"60s"`
	} `yaml:"analysis"`
	Alert struct {
		Threshold float64       `yaml:"threshold" default:"19" validate:"gte=0,lte=100"`
		Cooldown  time.Duration `yaml:"cooldown" default:"1h"`
		Store     string        `yaml:"store" default:"memory" validate:"oneof=memory redis"`
	} `yaml:"alert"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		Channel string `yaml:"channel"`
	} `yaml:"telegram"`
	Redis struct {
		Addr         string        `yaml:"addr" default:"localhost:6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"cryptopattern"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Namespace    string        `yaml:"namespace" default:"cryptopattern"`
		Async        bool          `yaml:"async"`
		Topic        string        `yaml:"topic" default:"cryptopattern.alerts"`
		RequiredAcks int           `yaml:"required_acks" default:"1" validate:"oneof=-1 0 1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// envOverrides are the values that may come from the environment or a .env file.
type envOverrides struct {
	TelegramToken   string   `envconfig:"TELEGRAM_TOKEN"`
	TelegramChannel string   `envconfig:"TELEGRAM_CHANNEL"`
	Symbols         []string `envconfig:"SYMBOLS"`
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	RedisAddr       string   `envconfig:"REDIS_ADDR"`
	LogLevel        string   `envconfig:"LOG_LEVEL"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
		_, ok := timeframes[fl.Field().String()]
		return ok
	})
	return v
}

var timeframes = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "12h": {}, "1d": {},
}

// Load reads a YAML file and applies defaults. An empty path yields defaults only.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then a .env file if present, then
// overrides secrets and lists from the environment, and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	c.applyEnv(env)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.TelegramToken != "" {
		c.Telegram.Token = env.TelegramToken
	}
	if env.TelegramChannel != "" {
		c.Telegram.Channel = env.TelegramChannel
	}
	if len(env.Symbols) > 0 {
		c.Universe.Symbols = env.Symbols
	}
	if len(env.KafkaBrokers) > 0 {
		c.Kafka.Brokers = env.KafkaBrokers
	}
	if env.RedisAddr != "" {
		c.Redis.Addr = env.RedisAddr
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
}

// Validate checks tag rules, then the cross-field ones.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.Channel == "") {
		return fmt.Errorf("telegram.token and telegram.channel are required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Alert.Cooldown <= 0 {
		return fmt.Errorf("alert.cooldown must be positive")
	}
	if c.Analysis.Interval <= 0 || c.Analysis.MonitorEvery <= 0 {
		return fmt.Errorf("analysis.interval and analysis.monitor_interval must be positive")
	}
	return nil
}
