package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, found, err := store.Get(ctx, KeyRepository)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, KeyRepository, []byte(`[{"name":"flagA"}]`)))

	value, found, err := store.Get(ctx, KeyRepository)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"name":"flagA"}]`, string(value))
}

func TestMemoryReturnsCopies(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, KeySessionID, []byte("abc")))
	value, _, err := store.Get(ctx, KeySessionID)
	require.NoError(t, err)
	value[0] = 'x'

	again, _, err := store.Get(ctx, KeySessionID)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	ctx := context.Background()

	first := NewFile(path)
	require.NoError(t, first.Save(ctx, KeyRepository, []byte(`[]`)))
	require.NoError(t, first.Save(ctx, KeySessionID, []byte("session-1")))

	second := NewFile(path)
	value, found, err := second.Get(ctx, KeySessionID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "session-1", string(value))
}

func TestFileMissingIsEmpty(t *testing.T) {
	store := NewFile(filepath.Join(t.TempDir(), "missing.json"))

	_, found, err := store.Get(context.Background(), KeyRepository)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBoltRoundTrip(t *testing.T) {
	store, err := NewBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, found, err := store.Get(ctx, KeyRepository)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, KeyRepository, []byte(`[{"name":"flagA"}]`)))

	value, found, err := store.Get(ctx, KeyRepository)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"name":"flagA"}]`, string(value))
}
