// Package snapshot defines the blob store used for whole-file state
// snapshots: the users registry and every user's bookmark groups file.
//
// A snapshot is always written in full. Implementations must guarantee
// that a reader never observes a half-written snapshot.
package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no snapshot exists under the key.
var ErrNotFound = errors.New("snapshot not found")

// Store persists named snapshot blobs.
//
// Keys are slash-separated relative paths (e.g. "groups/alice.json").
// Write replaces the whole blob; partial updates are not supported.
type Store interface {
	// Write stores data under key, replacing any previous snapshot.
	// The new snapshot must become visible atomically.
	Write(ctx context.Context, key string, data []byte) error

	// Read returns the full snapshot stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether a snapshot is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
