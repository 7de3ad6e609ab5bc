// Package file implements the user registry as a single snapshot blob.
//
// The snapshot is a stream of JSON user records. Loading decodes records
// sequentially until end of stream; saving rewrites the whole stream.
// Atomicity of the rewrite is delegated to the snapshot store.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
	"github.com/bpetkov/bookmarkd/pkg/store/user"
)

// UsersKey is the snapshot key holding the registry.
const UsersKey = "users.json"

// FileUserStore implements user.Store over a snapshot.Store.
//
// Thread safety: all operations take the store mutex, so concurrent
// connection handlers can register and look up users safely, and two
// Save calls can never interleave their snapshot writes.
type FileUserStore struct {
	mu    sync.RWMutex
	users map[string]*user.User
	blobs snapshot.Store
}

// NewFileUserStore loads the registry snapshot if one exists and returns
// the store. A missing snapshot means an empty registry, not an error.
func NewFileUserStore(ctx context.Context, blobs snapshot.Store) (*FileUserStore, error) {
	s := &FileUserStore{
		users: make(map[string]*user.User),
		blobs: blobs,
	}

	data, err := blobs.Read(ctx, UsersKey)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to load users snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var u user.User
		if err := dec.Decode(&u); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode users snapshot: %w", err)
		}
		s.users[u.Username] = &u
	}

	return s, nil
}

func (s *FileUserStore) Register(ctx context.Context, username, password string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return nil, user.ErrAlreadyExists
	}

	u := &user.User{
		Username:  username,
		Password:  password,
		GroupsKey: user.GroupsKeyFor(username),
	}
	s.users[username] = u

	if err := s.saveLocked(ctx); err != nil {
		delete(s.users, username)
		return nil, err
	}

	copied := *u
	return &copied, nil
}

func (s *FileUserStore) Get(ctx context.Context, username string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// Save rewrites the full registry snapshot.
func (s *FileUserStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// saveLocked serializes every record in username order so the snapshot
// is deterministic. Callers must hold mu.
func (s *FileUserStore) saveLocked(ctx context.Context) error {
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, name := range names {
		if err := enc.Encode(s.users[name]); err != nil {
			return fmt.Errorf("failed to encode user %s: %w", name, err)
		}
	}

	if err := s.blobs.Write(ctx, UsersKey, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save users snapshot: %w", err)
	}
	return nil
}

func (s *FileUserStore) Close() error {
	return nil
}
