// Package memory implements an in-memory snapshot store.
//
// State is ephemeral and lost on restart. Useful for tests and for
// running the server without any persistence.
package memory

import (
	"context"
	"sync"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

// MemorySnapshotStore implements snapshot.Store backed by a map.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemorySnapshotStore returns an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		blobs: make(map[string][]byte),
	}
}

func (s *MemorySnapshotStore) Write(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = cp
	return nil
}

func (s *MemorySnapshotStore) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, snapshot.ErrNotFound
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemorySnapshotStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *MemorySnapshotStore) Close() error {
	return nil
}
