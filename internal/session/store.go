// Package session provides the single persisted cell holding the identity credential of the client.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/skybi/metaview/internal/cell"
)

// DefaultKey is the name of the cell the credential is persisted under
const DefaultKey = "idTokenState"

// Listener is called with the new token whenever the stored token changes
type Listener func(token string)

// Store represents the process-wide session store.
// It holds exactly one token value which is persisted using a cell repository.
type Store struct {
	repo cell.Repository
	key  string

	mtx       sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

// NewStore creates a new session store persisting its token under the given key
func NewStore(repo cell.Repository, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		repo:      repo,
		key:       key,
		listeners: make(map[uint64]Listener),
	}
}

// Key returns the name of the persisted cell
func (store *Store) Key() string {
	return store.key
}

// Get returns the current token; it is empty if no token was ever stored
func (store *Store) Get(ctx context.Context) (string, error) {
	token, _, err := store.repo.Get(ctx, store.key)
	if err != nil {
		return "", fmt.Errorf("reading session token: %w", err)
	}
	return token, nil
}

// Set durably stores the given token as-is.
// Listeners are notified after the token was persisted and only if it differs from the previous one.
func (store *Store) Set(ctx context.Context, token string) error {
	store.mtx.Lock()
	previous, _, err := store.repo.Get(ctx, store.key)
	if err != nil {
		store.mtx.Unlock()
		return fmt.Errorf("reading session token: %w", err)
	}
	if err := store.repo.Set(ctx, store.key, token); err != nil {
		store.mtx.Unlock()
		return fmt.Errorf("writing session token: %w", err)
	}
	var listeners []Listener
	if previous != token {
		listeners = make([]Listener, 0, len(store.listeners))
		for _, listener := range store.listeners {
			listeners = append(listeners, listener)
		}
	}
	store.mtx.Unlock()

	for _, listener := range listeners {
		listener(token)
	}
	return nil
}

// Subscribe registers a listener for token changes.
// The returned function removes the listener again; calling it more than once is a no-op.
func (store *Store) Subscribe(listener Listener) func() {
	store.mtx.Lock()
	defer store.mtx.Unlock()
	id := store.nextID
	store.nextID++
	store.listeners[id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			store.mtx.Lock()
			defer store.mtx.Unlock()
			delete(store.listeners, id)
		})
	}
}
