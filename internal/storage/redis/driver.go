package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/skybi/metaview/internal/cell"
	"github.com/skybi/metaview/internal/storage"
)

// Options configures the Redis storage driver
type Options struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// Driver represents the Redis storage driver implementation
type Driver struct {
	options Options
	client  *goredis.Client
	cells   *CellRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new Redis storage driver.
// Use Initialize to open the connection and initialize the repository implementation.
func New(options Options) *Driver {
	return &Driver{
		options: options,
	}
}

// Initialize opens the Redis connection and verifies it is reachable
func (driver *Driver) Initialize(ctx context.Context) error {
	client := goredis.NewClient(&goredis.Options{
		Addr:     driver.options.Address,
		Password: driver.options.Password,
		DB:       driver.options.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	driver.client = client
	driver.cells = &CellRepository{
		client: client,
		prefix: driver.options.KeyPrefix,
	}
	return nil
}

// Cells provides the Redis cell repository implementation
func (driver *Driver) Cells() cell.Repository {
	return driver.cells
}

// Close discards the repository implementation and closes the connection
func (driver *Driver) Close() {
	driver.cells = nil
	if driver.client != nil {
		_ = driver.client.Close()
		driver.client = nil
	}
}

// CellRepository implements the cell.Repository interface using Redis strings
type CellRepository struct {
	client goredis.UniversalClient
	prefix string
}

var _ cell.Repository = (*CellRepository)(nil)

// Get retrieves the value of a cell
func (repo *CellRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := repo.client.Get(ctx, repo.prefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set creates or overwrites the value of a cell without expiration
func (repo *CellRepository) Set(ctx context.Context, key, value string) error {
	return repo.client.Set(ctx, repo.prefix+key, value, 0).Err()
}
