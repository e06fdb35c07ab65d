//go:build wireinject
// +build wireinject

package di

import (
	"LureScan/pkg/config"
	"LureScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideBarStore,
		ProvideMarketData,
		ProvideReferenceSource,
		ProvideResultStore,
		ProvideResultPublisher,
		ProvideTickStream,

		// Use cases
		ProvideResultWriter,
		ProvideSerialExecutor,
		ProvidePooledExecutor,
		ProvideScanner,
		ProvideScanRequestHandler,
		ProvideBarCollector,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
