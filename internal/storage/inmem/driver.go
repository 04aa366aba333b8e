package inmem

import (
	"context"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/skybi/metaview/internal/cell"
	"github.com/skybi/metaview/internal/storage"
)

const tableCells = "cells"

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableCells: {
			Name: tableCells,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

type cellRow struct {
	Key       string
	Value     string
	UpdatedAt int64
}

// Driver represents the in-memory storage driver built using hashicorp/go-memdb.
// Values do not survive a process restart.
type Driver struct {
	db    *memdb.MemDB
	cells *CellRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new empty in-memory storage driver
func New() *Driver {
	return &Driver{}
}

// Initialize creates the in-memory database
func (driver *Driver) Initialize(_ context.Context) error {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return err
	}
	driver.db = db
	driver.cells = &CellRepository{db: db}
	return nil
}

// Cells provides the in-memory cell repository implementation
func (driver *Driver) Cells() cell.Repository {
	return driver.cells
}

// Close discards the in-memory database
func (driver *Driver) Close() {
	driver.cells = nil
	driver.db = nil
}

// CellRepository implements the cell.Repository interface using hashicorp/go-memdb
type CellRepository struct {
	db *memdb.MemDB
}

var _ cell.Repository = (*CellRepository)(nil)

// Get retrieves the value of a cell
func (repo *CellRepository) Get(_ context.Context, key string) (string, bool, error) {
	txn := repo.db.Txn(false)
	obj, err := txn.First(tableCells, "id", key)
	if err != nil {
		return "", false, err
	}
	if obj == nil {
		return "", false, nil
	}
	return obj.(*cellRow).Value, true, nil
}

// Set creates or overwrites the value of a cell
func (repo *CellRepository) Set(_ context.Context, key, value string) error {
	txn := repo.db.Txn(true)
	defer txn.Abort()
	row := &cellRow{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().Unix(),
	}
	if err := txn.Insert(tableCells, row); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
