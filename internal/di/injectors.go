//go:build wireinject
// +build wireinject

package di

import (
	"followtrack/internal"
	"followtrack/internal/controllers"
	"followtrack/internal/github"
	"followtrack/internal/providers"
	"followtrack/internal/services"
	"followtrack/internal/storage"
	"followtrack/internal/storage/interfaces"
	"followtrack/internal/structures"

	wire "github.com/google/wire"
)

var storeSet = wire.NewSet(
	storage.NewZstdCompressor,
	storage.NewStore,
	wire.Bind(new(interfaces.HistoryStoreInterface), new(*storage.Store)),
	wire.Bind(new(interfaces.SessionStoreInterface), new(*storage.Store)),
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storeSet,
		github.NewClient,
		services.NewFollowerService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}

func InitCli(cfg *structures.CliFlags) (*internal.Cli, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,

		storeSet,
		storage.NewBackupManager,
		github.NewClient,
		services.NewFollowerService,
		internal.NewCli,
	)

	return nil, nil
}
