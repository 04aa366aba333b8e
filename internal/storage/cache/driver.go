package cache

import (
	"context"
	"time"

	"github.com/skybi/metaview/internal/cell"
	"github.com/skybi/metaview/internal/hashmap"
	"github.com/skybi/metaview/internal/storage"
)

var (
	cacheLifetime        = 5 * time.Minute
	cacheCleanupInterval = 10 * time.Second
)

// Driver represents a storage driver implementation that wraps another one in order to implement in-memory caching
type Driver struct {
	underlying storage.Driver
	cells      *CellRepository
}

var _ storage.Driver = (*Driver)(nil)

// New returns a new caching storage driver
func New(underlying storage.Driver) *Driver {
	return &Driver{
		underlying: underlying,
	}
}

// Initialize initializes the underlying driver and the caching repositories
func (driver *Driver) Initialize(ctx context.Context) error {
	if err := driver.underlying.Initialize(ctx); err != nil {
		return err
	}
	cellCache := hashmap.NewExpiring[string, string](cacheLifetime)
	cellCache.ScheduleCleanupTask(cacheCleanupInterval)
	driver.cells = &CellRepository{
		repo:  driver.underlying.Cells(),
		cache: cellCache,
	}
	return nil
}

// Cells provides the caching cell repository implementation
func (driver *Driver) Cells() cell.Repository {
	return driver.cells
}

// Close closes the caching repositories and the underlying driver
func (driver *Driver) Close() {
	if driver.cells != nil {
		driver.cells.cache.StopCleanupTask()
		driver.cells = nil
	}
	driver.underlying.Close()
}

// CellRepository implements the cell.Repository interface in order to implement caching
type CellRepository struct {
	repo  cell.Repository
	cache *hashmap.ExpiringMap[string, string]
}

var _ cell.Repository = (*CellRepository)(nil)

// Get retrieves the value of a cell, preferring the cached one
func (repo *CellRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if cached, ok := repo.cache.Lookup(key); ok {
		return cached, true, nil
	}
	value, ok, err := repo.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if ok {
		repo.cache.Set(key, value)
	}
	return value, ok, nil
}

// Set writes the value through to the underlying repository and caches it afterwards
func (repo *CellRepository) Set(ctx context.Context, key, value string) error {
	if err := repo.repo.Set(ctx, key, value); err != nil {
		repo.cache.Unset(key)
		return err
	}
	repo.cache.Set(key, value)
	return nil
}
