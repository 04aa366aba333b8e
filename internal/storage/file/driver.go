package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/skybi/metaview/internal/cell"
	"github.com/skybi/metaview/internal/storage"
	"github.com/viant/afs"
)

const (
	fileMode  = 0o600
	tmpSuffix = ".tmp"
)

// document is the on-disk representation of all cells
type document struct {
	Cells map[string]string `json:"cells"`
}

// Driver represents the storage driver persisting cells into a single JSON document.
// The location may be a local path or any URL supported by viant/afs.
type Driver struct {
	location string
	fs       afs.Service
	cells    *CellRepository
}

var _ storage.Driver = (*Driver)(nil)

// New creates a new file storage driver for the given location.
// Use Initialize to load the document and initialize the repository implementation.
func New(location string) *Driver {
	return &Driver{
		location: location,
	}
}

// Initialize loads the current document (if any) and initializes the repository implementation
func (driver *Driver) Initialize(ctx context.Context) error {
	driver.fs = afs.New()
	repo := &CellRepository{
		fs:       driver.fs,
		location: driver.location,
		cells:    make(map[string]string),
	}
	if err := repo.load(ctx); err != nil {
		return fmt.Errorf("loading %s: %w", driver.location, err)
	}
	driver.cells = repo
	return nil
}

// Cells provides the file cell repository implementation
func (driver *Driver) Cells() cell.Repository {
	return driver.cells
}

// Close discards the repository implementation.
// Every write is flushed immediately so there is nothing left to persist.
func (driver *Driver) Close() {
	driver.cells = nil
	driver.fs = nil
}

// CellRepository implements the cell.Repository interface on top of a JSON document
type CellRepository struct {
	mtx      sync.RWMutex
	fs       afs.Service
	location string
	cells    map[string]string
}

var _ cell.Repository = (*CellRepository)(nil)

// Get retrieves the value of a cell
func (repo *CellRepository) Get(_ context.Context, key string) (string, bool, error) {
	repo.mtx.RLock()
	defer repo.mtx.RUnlock()
	value, ok := repo.cells[key]
	return value, ok, nil
}

// Set creates or overwrites the value of a cell and writes the whole document back
func (repo *CellRepository) Set(ctx context.Context, key, value string) error {
	repo.mtx.Lock()
	defer repo.mtx.Unlock()

	previous, existed := repo.cells[key]
	repo.cells[key] = value
	if err := repo.save(ctx); err != nil {
		// Keep memory and disk consistent
		if existed {
			repo.cells[key] = previous
		} else {
			delete(repo.cells, key)
		}
		return err
	}
	return nil
}

func (repo *CellRepository) load(ctx context.Context) error {
	exists, err := repo.fs.Exists(ctx, repo.location)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	data, err := repo.fs.DownloadWithURL(ctx, repo.location)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	doc := new(document)
	if err := json.Unmarshal(data, doc); err != nil {
		return err
	}
	for key, value := range doc.Cells {
		repo.cells[key] = value
	}
	return nil
}

// save writes the document next to its location first and moves it over the previous one afterwards
func (repo *CellRepository) save(ctx context.Context) error {
	data, err := json.MarshalIndent(&document{Cells: repo.cells}, "", "  ")
	if err != nil {
		return err
	}
	tmp := repo.location + tmpSuffix
	if err := repo.fs.Upload(ctx, tmp, fileMode, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := repo.fs.Move(ctx, tmp, repo.location); err != nil {
		_ = repo.fs.Delete(ctx, tmp)
		return err
	}
	return nil
}
