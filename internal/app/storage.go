package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/csvfile"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/memory"
	"github.com/vladislavdragonenkov/ordermgmt/internal/storage/postgres"
)

// storageBackend — открытое хранилище вместе с проверкой и закрытием.
type storageBackend struct {
	driver  StorageDriver
	storage domain.Storage
	ping    func(ctx context.Context) error
	close   func() error
}

func openStorage(ctx context.Context, cfg Config, logger *log.Entry) (*storageBackend, error) {
	logger = logger.WithField("storage", cfg.StorageDriver)

	switch cfg.StorageDriver {
	case StorageDriverFile:
		store, err := csvfile.Open(cfg.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.WithField("dir", store.Dir()).Info("file storage ready")
		return &storageBackend{
			driver:  cfg.StorageDriver,
			storage: store.Storage(),
			ping:    func(context.Context) error { return store.Ping() },
			close:   store.Close,
		}, nil

	case StorageDriverMemory:
		logger.Warn("memory storage ready, data will be lost on restart")
		return &storageBackend{
			driver:  cfg.StorageDriver,
			storage: memory.New().Storage(),
			ping:    func(context.Context) error { return nil },
			close:   func() error { return nil },
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.Options{
			MaxConns: cfg.PostgresMaxConns,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("migrate postgres schema: %w", err)
			}
		}
		logger.WithField("max_conns", cfg.PostgresMaxConns).Info("postgres storage ready")
		return &storageBackend{
			driver:  cfg.StorageDriver,
			storage: store.Storage(),
			ping:    store.Ping,
			close:   store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
