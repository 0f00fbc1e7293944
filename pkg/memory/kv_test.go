package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewKV()

	_, ok, err := s.Get(ctx, "mood-2026-01-01")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "mood-2026-01-01", "a"))
	require.NoError(t, s.Set(ctx, "mood-2026-01-01", "b"))
	v, ok, err := s.Get(ctx, "mood-2026-01-01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Remove(ctx, "mood-2026-01-01"))
	_, ok, _ = s.Get(ctx, "mood-2026-01-01")
	assert.False(t, ok)
}

func TestKVKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewKV()
	for _, k := range []string{"mood-2026-01-02", "mood-2026-01-01", "quote-2026-01-01"} {
		require.NoError(t, s.Set(ctx, k, "x"))
	}
	keys, err := s.Keys(ctx, "mood-")
	require.NoError(t, err)
	assert.Equal(t, []string{"mood-2026-01-01", "mood-2026-01-02"}, keys)
}
