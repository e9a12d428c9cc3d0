package internal

import (
	"followtrack/internal/providers"
	"followtrack/internal/services"
	"followtrack/internal/storage"
	"followtrack/internal/storage/interfaces"
	"followtrack/internal/structures"
)

// Cli bundles what the one-shot commands need. Close must be called when the
// command is done.
type Cli struct {
	Config     *structures.Config
	Logger     providers.Logger
	Service    services.FollowerServiceInterface
	Backup     *storage.BackupManager
	store      *storage.Store
	compressor interfaces.CompressorInterface
}

func NewCli(conf *structures.Config, logger providers.Logger, service services.FollowerServiceInterface, backup *storage.BackupManager, store *storage.Store, compressor interfaces.CompressorInterface) *Cli {
	return &Cli{
		Config:     conf,
		Logger:     logger,
		Service:    service,
		Backup:     backup,
		store:      store,
		compressor: compressor,
	}
}

func (c *Cli) Close() {
	if err := c.store.Close(); err != nil {
		c.Logger.Errorf(providers.TypeApp, "Error while closing store: %s", err)
	}
	c.compressor.Close()
	c.Logger.Close()
}
