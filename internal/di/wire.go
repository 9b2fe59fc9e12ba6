//go:build wireinject
// +build wireinject

package di

import (
	"StockSignal/internal/domain/repository"
	"StockSignal/internal/service/yahoo"
	"StockSignal/pkg/config"
	"StockSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation in wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideLogShipping,

		// Market data
		ProvideYahooClient,
		wire.Bind(new(repository.HistorySource), new(*yahoo.Client)),
		wire.Bind(new(repository.SymbolSearcher), new(*yahoo.Client)),
		ProvideBarSource,
		ProvideCache,

		// Signal pipeline
		ProvideSelector,

		// Use cases
		ProvidePredictUseCase,
		ProvideHistoryUseCase,
		ProvideSearchUseCase,
		ProvideCacheWarmer,

		// HTTP
		ProvideRateLimiter,
		ProvidePredictionHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
