package group

import (
	"context"
	"sync"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

// Manager hands out one Store per user, loading the snapshot lazily on
// first access and caching the Store afterwards.
type Manager struct {
	mu     sync.Mutex
	blobs  snapshot.Store
	stores map[string]*Store
}

// NewManager creates a Manager backed by the given snapshot store.
func NewManager(blobs snapshot.Store) *Manager {
	return &Manager{
		blobs:  blobs,
		stores: make(map[string]*Store),
	}
}

// For returns the Store persisted under key, loading it if this is the
// first access since startup.
func (m *Manager) For(ctx context.Context, key string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[key]; ok {
		return s, nil
	}

	s, err := Load(ctx, m.blobs, key)
	if err != nil {
		return nil, err
	}
	m.stores[key] = s
	return s, nil
}
