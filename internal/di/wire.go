//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/config"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideCache,
		ProvideLogger,
		ProvideMetrics,

		// Market data and storage
		ProvideMarketData,
		ProvideStreamDialer,
		ProvideBufferStore,
		ProvideHorizonGroups,

		// Alerting
		ProvideAlertPublisher,
		ProvideCooldownStore,
		ProvideNotifier,
		ProvideAlerter,

		// Detection and use cases
		ProvideCatalog,
		ProvideDetector,
		ProvideAnalyzer,
		ProvideUniverse,
		ProvideBackfiller,
		ProvideSupervisor,
		ProvideOrchestrator,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
