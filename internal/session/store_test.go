package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/skybi/metaview/internal/storage/file"
	"github.com/skybi/metaview/internal/storage/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInmemStore(t *testing.T) *Store {
	t.Helper()
	driver := inmem.New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)
	return NewStore(driver.Cells(), "")
}

func TestStoreStartsEmpty(t *testing.T) {
	store := newInmemStore(t)
	token, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, DefaultKey, store.Key())
}

func TestStorePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "session.json")

	driver := file.New(location)
	require.NoError(t, driver.Initialize(ctx))
	require.NoError(t, NewStore(driver.Cells(), DefaultKey).Set(ctx, "abc.def.ghi"))
	driver.Close()

	restarted := file.New(location)
	require.NoError(t, restarted.Initialize(ctx))
	defer restarted.Close()

	token, err := NewStore(restarted.Cells(), DefaultKey).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)
}

func TestStoreStoresTokenAsIs(t *testing.T) {
	ctx := context.Background()
	store := newInmemStore(t)
	for _, token := range []string{"not a jwt", " padded ", "abc.def.ghi", ""} {
		require.NoError(t, store.Set(ctx, token))
		got, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, token, got)
	}
}

func TestStoreNotifiesOnChangeOnly(t *testing.T) {
	ctx := context.Background()
	store := newInmemStore(t)

	var seen []string
	unsubscribe := store.Subscribe(func(token string) {
		seen = append(seen, token)
	})

	require.NoError(t, store.Set(ctx, "a"))
	require.NoError(t, store.Set(ctx, "a"))
	require.NoError(t, store.Set(ctx, "b"))
	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Set(ctx, "c"))

	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestStoreListenerMaySubscribe(t *testing.T) {
	ctx := context.Background()
	store := newInmemStore(t)

	calls := 0
	store.Subscribe(func(string) {
		calls++
		store.Subscribe(func(string) {})
	})
	require.NoError(t, store.Set(ctx, "x"))
	assert.Equal(t, 1, calls)
}
