package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), Config{Path: filepath.Join(t.TempDir(), "bloom.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	require.NoError(t, db.Set(ctx, "mood-2026-01-01", `{"mood":2}`))
	require.NoError(t, db.Set(ctx, "mood-2026-01-01", `{"mood":4}`))

	v, ok, err := db.Get(ctx, "mood-2026-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"mood":4}`, v)

	keys, err := db.Keys(ctx, "mood-")
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestGetMissing(t *testing.T) {
	db := openTemp(t)
	_, ok, err := db.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeysEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	require.NoError(t, db.Set(ctx, "a_b-2026-01-01", "1"))
	require.NoError(t, db.Set(ctx, "axb-2026-01-01", "2"))

	keys, err := db.Keys(ctx, "a_b-")
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b-2026-01-01"}, keys)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	require.NoError(t, db.Set(ctx, "best-2026-01-01", "sunrise"))
	require.NoError(t, db.Remove(ctx, "best-2026-01-01"))
	require.NoError(t, db.Remove(ctx, "best-2026-01-01"))

	_, ok, err := db.Get(ctx, "best-2026-01-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bloom.db")

	db, err := New(ctx, Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "quote-2026-01-01", "hello"))
	require.NoError(t, db.Close())

	db, err = New(ctx, Config{Path: path})
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Get(ctx, "quote-2026-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}
