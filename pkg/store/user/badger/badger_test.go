package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/store/user"
)

func newTestStore(t *testing.T) *BadgerUserStore {
	t.Helper()

	store, err := NewBadgerUserStore(context.Background(), BadgerUserStoreConfig{
		DBPath: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	u, err := store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "groups/alice.json", u.GroupsKey)

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", got.Password)

	_, err = store.Get(ctx, "bob")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)

	_, err = store.Register(ctx, "alice", "Other1pw")
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
}

func TestRegistrySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	store, err := NewBadgerUserStore(ctx, BadgerUserStoreConfig{DBPath: dbPath})
	require.NoError(t, err)
	_, err = store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewBadgerUserStore(ctx, BadgerUserStoreConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", got.Password)
}

func TestMissingDBPath(t *testing.T) {
	_, err := NewBadgerUserStore(context.Background(), BadgerUserStoreConfig{})
	assert.Error(t, err)
}
