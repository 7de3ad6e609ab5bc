package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginLogout(t *testing.T) {
	table := NewTable()

	_, ok := table.Username("conn-1")
	assert.False(t, ok)

	table.Login("conn-1", "alice")
	username, ok := table.Username("conn-1")
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
	assert.Equal(t, 1, table.Len())

	table.Logout("conn-1")
	_, ok = table.Username("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())

	// Logging out twice is harmless.
	table.Logout("conn-1")
}

func TestConnectionsAreIndependent(t *testing.T) {
	table := NewTable()

	table.Login("conn-1", "alice")
	table.Login("conn-2", "bob")

	username, ok := table.Username("conn-2")
	assert.True(t, ok)
	assert.Equal(t, "bob", username)

	table.Logout("conn-1")
	_, ok = table.Username("conn-2")
	assert.True(t, ok)
}
