package di

import (
	"fmt"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/handler/api"
	mid "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/middleware"
	internalrepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/binance"
	icache "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/cache"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/ratelimit"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/service/telegram"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/services/patterns"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/usecase"
	pkgcache "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/cache"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/config"
	xhttp "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/http"
	pkgkafka "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/kafka"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/metrics"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/server"
)

// ProvideLogger creates the root logger. When the error digest is enabled
// and Kafka is available, the digest is attached before any component
// logger is derived so they all share it.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.Digest.Enabled && producer != nil {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval: cfg.Log.Digest.Interval,
			Topic:        cfg.Log.Digest.Topic,
			Source:       "cryptopattern",
			Publisher:    producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHorizonGroups overrides the default timeframe groups with any
// non-empty list from the config.
func ProvideHorizonGroups(cfg *config.Config) models.HorizonGroups {
	groups := models.DefaultHorizonGroups()
	for h, tfs := range map[models.Horizon][]string{
		models.HorizonShort: cfg.Timeframes.Short,
		models.HorizonMid:   cfg.Timeframes.Mid,
		models.HorizonLong:  cfg.Timeframes.Long,
	} {
		if len(tfs) == 0 {
			continue
		}
		out := make([]models.Timeframe, len(tfs))
		for i, tf := range tfs {
			out[i] = models.Timeframe(tf)
		}
		groups[h] = out
	}
	return groups
}

// ProvideMarketData creates the Binance REST client.
func ProvideMarketData(cfg *config.Config) *binance.REST {
	return binance.NewREST(cfg.Binance.RESTURL, cfg.Binance.Timeout)
}

// ProvideStreamDialer creates the Binance combined-stream dialer.
func ProvideStreamDialer(cfg *config.Config, l *logger.Logger) *binance.Dialer {
	return binance.NewDialer(cfg.Binance.StreamURL, cfg.Binance.MaxStreams, cfg.Binance.PingInterval,
		l.With(logger.String("component", "binance")))
}

// ProvideBufferStore creates the rolling candle buffers.
func ProvideBufferStore(cfg *config.Config) *internalrepo.BufferStore {
	return internalrepo.NewBufferStore(cfg.Ingestion.BufferCapacity)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithNamespace(cfg.Kafka.Namespace),
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAlertPublisher publishes alerts to Kafka when a producer exists.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	if producer == nil {
		return internalrepo.NopAlertPublisher{}
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache connects to Redis when the alert store needs it.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if cfg.Alert.Store != "redis" {
		return nil, nil
	}
	c, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideCooldownStore picks the cooldown backend.
func ProvideCooldownStore(c pkgcache.Service) repository.CooldownStore {
	if c == nil {
		return internalrepo.NewMemoryCooldownStore()
	}
	return internalrepo.NewCacheCooldownStore(c)
}

// ProvideNotifier sends to Telegram when enabled and logs alerts otherwise.
func ProvideNotifier(cfg *config.Config, l *logger.Logger) (repository.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return telegram.NewLogNotifier(l), nil
	}
	n, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.Channel)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func ProvideCatalog() *patterns.Catalog {
	return patterns.DefaultCatalog()
}

// ProvideDetector creates the pattern runner over the catalog.
func ProvideDetector(cfg *config.Config, catalog *patterns.Catalog, m repository.Metrics, l *logger.Logger) *patterns.Runner {
	return patterns.NewRunner(catalog,
		patterns.WithMinTargetPct(cfg.Analysis.MinTargetPct),
		patterns.WithConfidenceFloor(cfg.Analysis.ConfidenceMin),
		patterns.WithMetrics(m),
		patterns.WithLogger(l.With(logger.String("component", "patterns"))),
	)
}

// ProvideAlerter creates the cooldown gate and the alert dispatcher.
func ProvideAlerter(
	cfg *config.Config,
	store repository.CooldownStore,
	notifier repository.Notifier,
	publisher repository.AlertPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Alerter {
	gate := usecase.NewCooldownGate(store, cfg.Alert.Threshold, cfg.Alert.Cooldown)
	return usecase.NewAlerter(gate, notifier, publisher, m, l)
}

// ProvideAnalyzer creates the analysis use case.
func ProvideAnalyzer(
	cfg *config.Config,
	groups models.HorizonGroups,
	buffers *internalrepo.BufferStore,
	detector *patterns.Runner,
	alerter *usecase.Alerter,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(buffers, detector, usecase.NewConfluence(), alerter,
		icache.NewTTLCache[models.SymbolAnalysis](), m, l, usecase.AnalysisConfig{
			Groups:     groups,
			BatchSize:  cfg.Analysis.BatchSize,
			BatchPause: cfg.Analysis.BatchPause,
			MinBars:    cfg.Analysis.MinBars,
			StaleAfter: cfg.Analysis.StaleAfter,
			ResultTTL:  cfg.Analysis.ResultTTL,
		})
}

func ProvideUniverse(cfg *config.Config, market *binance.REST, l *logger.Logger) *usecase.Universe {
	return usecase.NewUniverse(market, usecase.UniverseConfig{
		Quote:          cfg.Universe.Quote,
		MinQuoteVolume: cfg.Universe.MinQuoteVolume,
		Size:           cfg.Universe.Size,
		Symbols:        cfg.Universe.Symbols,
	}, l)
}

func ProvideBackfiller(cfg *config.Config, market *binance.REST, buffers *internalrepo.BufferStore, m repository.Metrics, l *logger.Logger) *usecase.Backfiller {
	return usecase.NewBackfiller(market, buffers, ratelimit.New(), m, l,
		cfg.Ingestion.BackfillLimit, cfg.Ingestion.BackfillPacing)
}

// ProvideSupervisor builds the kline pipeline and the stream supervisor feeding it.
func ProvideSupervisor(cfg *config.Config, dialer *binance.Dialer, buffers *internalrepo.BufferStore, m repository.Metrics, l *logger.Logger) *usecase.IngestionSupervisor {
	pipe := mid.NewKlinePipeline(buffers, m, l.With(logger.String("component", "pipeline")))
	return usecase.NewIngestionSupervisor(dialer, pipe, m, l, cfg.Ingestion.RestartDelay, cfg.Ingestion.ErrorDelay)
}

func ProvideOrchestrator(
	cfg *config.Config,
	groups models.HorizonGroups,
	universe *usecase.Universe,
	backfiller *usecase.Backfiller,
	supervisor *usecase.IngestionSupervisor,
	analyzer *usecase.Analyzer,
	l *logger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(universe, backfiller, supervisor, analyzer, l, usecase.OrchestratorConfig{
		Groups:           groups,
		AnalysisInterval: cfg.Analysis.Interval,
		AnalysisBackoff:  cfg.Analysis.ErrorBackoff,
		MonitorInterval:  cfg.Analysis.MonitorEvery,
		MonitorBackoff:   cfg.Analysis.MonitorBackoff,
		RefillInterval:   cfg.Ingestion.RefillInterval,
		FreshWindow:      cfg.Analysis.ResultTTL,
	})
}

// ProvideHTTPServer registers the API handlers on the Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *logger.Logger,
	analyzer *usecase.Analyzer,
	buffers *internalrepo.BufferStore,
	catalog *patterns.Catalog,
	supervisor *usecase.IngestionSupervisor,
	orchestrator *usecase.Orchestrator,
) *xhttp.Server {
	handlers := []xhttp.Handler{
		api.NewPredictionsHandler(l, analyzer),
		api.NewMarketHandler(l, buffers, catalog, cfg.Analysis.StaleAfter),
		api.NewHealthHandler(supervisor, orchestrator, analyzer, cfg.Analysis.ResultTTL),
	}
	return xhttp.NewServer(l.With(logger.String("component", "http")), handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	orchestrator *usecase.Orchestrator,
	httpServer *xhttp.Server,
	publisher repository.AlertPublisher,
	c pkgcache.Service,
) *server.App {
	app := server.New(cfg, l, orchestrator, httpServer)
	// The publisher owns the Kafka producer and closes it.
	app.OnShutdown("alert publisher", publisher)
	app.OnShutdown("redis", c)
	return app
}
