package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot/memory"
	"github.com/bpetkov/bookmarkd/pkg/store/user"
)

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileUserStore(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)

	u, err := store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "groups/alice.json", u.GroupsKey)

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", got.Password)

	_, err = store.Get(ctx, "bob")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileUserStore(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)

	_, err = store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)

	_, err = store.Register(ctx, "alice", "Other1pw")
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
}

func TestRegistrySurvivesReload(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	store, err := NewFileUserStore(ctx, blobs)
	require.NoError(t, err)
	_, err = store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)
	_, err = store.Register(ctx, "bob", "Secr3tPw")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx))

	reloaded, err := NewFileUserStore(ctx, blobs)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", got.Password)

	got, err = reloaded.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "groups/bob.json", got.GroupsKey)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileUserStore(ctx, memory.NewMemorySnapshotStore())
	require.NoError(t, err)

	_, err = store.Register(ctx, "alice", "Passw0rd")
	require.NoError(t, err)

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	got.Password = "mutated"

	again, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Passw0rd", again.Password)
}
