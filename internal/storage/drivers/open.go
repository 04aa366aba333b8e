package drivers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skybi/metaview/internal/config"
	"github.com/skybi/metaview/internal/storage"
	"github.com/skybi/metaview/internal/storage/cache"
	"github.com/skybi/metaview/internal/storage/file"
	"github.com/skybi/metaview/internal/storage/inmem"
	"github.com/skybi/metaview/internal/storage/postgres"
	"github.com/skybi/metaview/internal/storage/redis"
)

// New creates the storage driver selected by the configuration without initializing it
func New(cfg *config.Config) (storage.Driver, error) {
	var driver storage.Driver
	switch cfg.StorageDriver {
	case config.StorageDriverFile:
		location := cfg.FilePath
		if location == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolving default session file location: %w", err)
			}
			location = filepath.Join(dir, "metaview", "session.json")
		}
		driver = file.New(location)
	case config.StorageDriverPostgres:
		driver = postgres.New(cfg.PostgresDSN)
	case config.StorageDriverRedis:
		driver = redis.New(redis.Options{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	case config.StorageDriverInmem:
		driver = inmem.New()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if cfg.StorageCache {
		driver = cache.New(driver)
	}
	return driver, nil
}

// Open creates and initializes the storage driver selected by the configuration
func Open(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	driver, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := driver.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing %s storage driver: %w", cfg.StorageDriver, err)
	}
	return driver, nil
}
