// Package fs implements filesystem-based snapshot storage.
//
// Snapshots are regular files below a base directory. Writes go to a
// temporary file in the target directory followed by a rename, so a
// crash mid-write can never leave a half-written snapshot in place.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

// FSSnapshotStore implements snapshot.Store on the local filesystem.
//
// Thread safety: distinct keys may be written concurrently. Callers must
// serialize writes to the same key; the stores built on top of this one
// (user registry, per-user group stores) each hold their own lock across
// mutate+persist, which provides that.
type FSSnapshotStore struct {
	basePath string
}

// NewFSSnapshotStore creates the base directory if needed and returns a
// store rooted at basePath.
func NewFSSnapshotStore(ctx context.Context, basePath string) (*FSSnapshotStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FSSnapshotStore{basePath: basePath}, nil
}

func (s *FSSnapshotStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key))
}

// Write stores the snapshot via temp-file-then-rename. The rename is
// atomic on POSIX filesystems, so readers see either the old snapshot or
// the new one, never a mix.
func (s *FSSnapshotStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(key)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot %s: %w", key, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish snapshot %s: %w", key, err)
	}

	return nil
}

func (s *FSSnapshotStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return data, nil
}

func (s *FSSnapshotStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat snapshot %s: %w", key, err)
	}
	return true, nil
}

func (s *FSSnapshotStore) Close() error {
	return nil
}
