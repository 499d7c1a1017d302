package commands

import (
	"context"
	"fmt"

	"github.com/stockmanager/core/internal/adapters/repository"
	"github.com/stockmanager/core/internal/application/services"
	"github.com/stockmanager/core/internal/infrastructure/config"
	"github.com/stockmanager/core/internal/infrastructure/database"
	"github.com/stockmanager/core/internal/infrastructure/logger"
	"github.com/stockmanager/core/internal/ports"
)

// inventory bundles the pieces every command needs to work on items
type inventory struct {
	docs    ports.DocumentStore
	store   *repository.ItemStore
	service *services.ItemService
	close   func() error
}

// openStorage connects the document store selected by cfg.Storage.Driver
func openStorage(cfg *config.Config, appLogger *logger.Logger) (ports.DocumentStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverFile:
		return repository.NewOSFileDocumentStore(""), func() error { return nil }, nil

	case config.DriverRedis:
		client, err := repository.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		appLogger.Infow("Connected to redis", "address", cfg.Redis.GetAddr())
		return repository.NewRedisDocumentStore(client), client.Close, nil

	case config.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		applied, err := db.MigrateUp()
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		appLogger.Infow("Connected to database",
			"host", cfg.Database.Host,
			"database", cfg.Database.Name,
			"migrations_applied", applied,
		)
		return repository.NewPostgresDocumentStore(db.DB), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// openInventory loads the item document and builds the service on top of it
func openInventory(ctx context.Context, cfg *config.Config, appLogger *logger.Logger, opts ...repository.StoreOption) (*inventory, error) {
	docs, closeFn, err := openStorage(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	base := []repository.StoreOption{repository.WithLogger(appLogger)}
	if cfg.Storage.LegacyHTMLNames {
		base = append(base, repository.WithLegacyHTMLNames())
	}
	opts = append(base, opts...)
	store, err := repository.NewItemStore(ctx, docs, cfg.Storage.Document, opts...)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &inventory{
		docs:    docs,
		store:   store,
		service: services.NewItemService(store, appLogger),
		close:   closeFn,
	}, nil
}
