package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "snapshot", []byte("payload")))

	got, err := store.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	// Put replaces.
	require.NoError(t, store.Put(ctx, "snapshot", []byte("updated")))
	got, err = store.Get(ctx, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)
}

func TestLocalStoreGetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doomed", []byte("x")))
	require.NoError(t, store.Delete(ctx, "doomed"))

	_, err = store.Get(ctx, "doomed")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op.
	assert.NoError(t, store.Delete(ctx, "doomed"))
}

func TestLocalStoreNestedKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "audits/2026/snapshot", []byte("nested")))
	got, err := store.Get(ctx, "audits/2026/snapshot")
	require.NoError(t, err)
	assert.Equal(t, []byte("nested"), got)
}

func TestLocalStoreKeyTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStore(base)
	require.NoError(t, err)

	for _, key := range []string{"../escape", "/../../etc/passwd", "a/../../escape"} {
		path := store.keyToPath(key)
		rel, err := filepath.Rel(base, path)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(rel, ".."), "key %q resolved outside the base: %s", key, path)
	}
}
