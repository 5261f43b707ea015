//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"HydroFlow/pkg/config"
	"HydroFlow/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideTimeframe,
		ProvideParams,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideClickHouseJournal,
		ProvideJournal,
		ProvideSnapshotStore,
		ProvideCommandPublisher,
		ProvideBarSource,

		// Engines and quote path
		ProvidePaperBroker,
		ProvideEngines,
		ProvideTickRouter,
		ProvidePipeline,
		ProvideFeedCollector,
		ProvideKafkaQuotesHandler,

		// HTTP
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
