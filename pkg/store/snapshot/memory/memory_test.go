package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()

	require.NoError(t, store.Write(ctx, "users.json", []byte("{}")))

	data, err := store.Read(ctx, "users.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = store.Read(ctx, "missing")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()

	require.NoError(t, store.Write(ctx, "users.json", []byte("abc")))

	data, err := store.Read(ctx, "users.json")
	require.NoError(t, err)
	data[0] = 'X'

	again, err := store.Read(ctx, "users.json")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()

	ok, err := store.Exists(ctx, "users.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(ctx, "users.json", nil))

	ok, err = store.Exists(ctx, "users.json")
	require.NoError(t, err)
	assert.True(t, ok)
}
