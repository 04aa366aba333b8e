package inmem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellRepository(t *testing.T) {
	ctx := context.Background()
	driver := New()
	require.NoError(t, driver.Initialize(ctx))
	defer driver.Close()

	value, ok, err := driver.Cells().Get(ctx, "idTokenState")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	require.NoError(t, driver.Cells().Set(ctx, "idTokenState", "first"))
	require.NoError(t, driver.Cells().Set(ctx, "idTokenState", "second"))
	require.NoError(t, driver.Cells().Set(ctx, "other", "x"))

	value, ok, err = driver.Cells().Get(ctx, "idTokenState")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}
