package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ProbeTimeout)
	assert.Equal(t, "fs", cfg.Snapshot.Type)
	assert.Equal(t, "file", cfg.Users.Type)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	content := `
logging:
  level: debug
server:
  port: 9000
snapshot:
  type: memory
users:
  type: badger
  badger:
    db_path: /tmp/users-db
shorten:
  api_key: test-key
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Snapshot.Type)
	assert.Equal(t, "badger", cfg.Users.Type)
	assert.Equal(t, "test-key", cfg.Shorten.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := Load(write(t, "logging:\n  level: chatty\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "snapshot:\n  type: tape\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "users:\n  type: badger\n"))
	assert.Error(t, err, "badger without db_path must be rejected")

	_, err = Load(write(t, "server:\n  port: 9090\nmetrics:\n  enabled: true\n  port: 9090\n"))
	assert.Error(t, err, "metrics port colliding with command port must be rejected")
}

func TestCreateSnapshotStoreFS(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := CreateSnapshotStore(ctx, &SnapshotConfig{
		Type: "fs",
		FS:   map[string]any{"path": dir},
	})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Write(ctx, "groups/alice.json", []byte(`{}`)))
	data, err := store.Read(ctx, "groups/alice.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)
}

func TestCreateSnapshotStoreUnknownType(t *testing.T) {
	_, err := CreateSnapshotStore(context.Background(), &SnapshotConfig{Type: "tape"})
	assert.Error(t, err)
}

func TestCreateUserStoreFile(t *testing.T) {
	ctx := context.Background()

	blobs, err := CreateSnapshotStore(ctx, &SnapshotConfig{Type: "memory"})
	require.NoError(t, err)

	store, err := CreateUserStore(ctx, &UsersConfig{Type: "file"}, blobs)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
