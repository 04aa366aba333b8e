package storage

import (
	"context"

	"github.com/skybi/metaview/internal/cell"
)

// Driver represents a storage driver
type Driver interface {
	// Initialize initializes the storage driver (i.e. opens a database connection)
	Initialize(ctx context.Context) error

	// Cells provides a cell repository implementation
	Cells() cell.Repository

	// Close closes the storage driver (i.e. closes a database connection)
	Close()
}
