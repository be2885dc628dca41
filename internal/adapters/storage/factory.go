package storage

import (
	"context"
	"fmt"

	"github.com/taskmaster/planner/internal/infrastructure/cache"
	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/database"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// Open builds the key/value store selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return NewMemoryStore(), nil

	case config.StorageFile:
		return NewFileStore(cfg.Storage.FilePath)

	case config.StorageRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, cfg.Storage.KeyPrefix), nil

	case config.StoragePostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db, cfg.Storage.KeyPrefix), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
