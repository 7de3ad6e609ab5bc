// Package group implements per-user bookmark group storage with
// write-through JSON snapshots.
//
// Every user owns exactly one Store. Each mutating method rewrites the
// user's snapshot in full before returning, so the on-disk state is
// consistent with memory whenever a mutation reports success.
package group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bpetkov/bookmarkd/pkg/bookmark"
	"github.com/bpetkov/bookmarkd/pkg/store/snapshot"
)

// ErrGroupExists is returned by Create when the group name is taken.
var ErrGroupExists = errors.New("group already exists")

// ErrNoSuchGroup is returned when the named group does not exist.
var ErrNoSuchGroup = errors.New("no such group")

// ErrNoSuchBookmark is returned by Remove when no title matches.
var ErrNoSuchBookmark = errors.New("no such bookmark")

// snapshotDoc is the persisted JSON shape of one user's groups.
type snapshotDoc struct {
	Groups map[string]*bookmark.Group `json:"groups"`
}

// Store holds all bookmark groups of a single user.
//
// The mutex is held across mutate+persist, which serializes snapshot
// writes per user even when multiple connections act on the same
// account concurrently.
type Store struct {
	mu     sync.Mutex
	key    string
	groups map[string]*bookmark.Group
	blobs  snapshot.Store
}

// Load reads the user's snapshot under key, or starts empty if none
// exists yet.
func Load(ctx context.Context, blobs snapshot.Store, key string) (*Store, error) {
	s := &Store{
		key:    key,
		groups: make(map[string]*bookmark.Group),
		blobs:  blobs,
	}

	data, err := blobs.Read(ctx, key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to load groups snapshot %s: %w", key, err)
	}

	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode groups snapshot %s: %w", key, err)
	}
	if doc.Groups != nil {
		s.groups = doc.Groups
	}

	return s, nil
}

// Create inserts an empty group and persists the snapshot.
func (s *Store) Create(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[name]; exists {
		return ErrGroupExists
	}

	s.groups[name] = bookmark.NewGroup(name)
	if err := s.persistLocked(ctx); err != nil {
		delete(s.groups, name)
		return err
	}
	return nil
}

// Add inserts a bookmark into the named group and persists.
//
// Adding a bookmark identical to one already present is a silent no-op:
// no persist happens and no error is returned. Returns the number of
// bookmarks actually added (0 or 1) so callers can tell the cases apart.
func (s *Store) Add(ctx context.Context, groupName string, b bookmark.Bookmark) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupName]
	if !ok {
		return 0, ErrNoSuchGroup
	}
	if g.Contains(b) {
		return 0, nil
	}

	prev, hadPrev := g.Bookmarks[b.Title]
	g.Add(b)
	if err := s.persistLocked(ctx); err != nil {
		if hadPrev {
			g.Bookmarks[b.Title] = prev
		} else {
			delete(g.Bookmarks, b.Title)
		}
		return 0, err
	}
	return 1, nil
}

// Remove deletes the bookmark whose title matches case-insensitively
// and persists.
func (s *Store) Remove(ctx context.Context, groupName, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupName]
	if !ok {
		return ErrNoSuchGroup
	}

	b, found := g.FindByTitle(title)
	if !found {
		return ErrNoSuchBookmark
	}

	g.Remove(b.Title)
	if err := s.persistLocked(ctx); err != nil {
		g.Add(b)
		return err
	}
	return nil
}

// Merge adds every group from imported whose name is not already
// present. Existing groups are never overwritten. Persists only if at
// least one group was added; returns the bookmarks of the added groups.
func (s *Store) Merge(ctx context.Context, imported map[string]*bookmark.Group) ([]bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []bookmark.Bookmark
	var addedNames []string
	for name, g := range imported {
		if _, exists := s.groups[name]; exists {
			continue
		}
		s.groups[name] = g
		addedNames = append(addedNames, name)
		added = append(added, g.List()...)
	}

	if len(addedNames) == 0 {
		return nil, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		for _, name := range addedNames {
			delete(s.groups, name)
		}
		return nil, err
	}
	return added, nil
}

// PruneURLs removes every bookmark whose URL is flagged in bad, across
// all groups. Persists only if something was removed. Returns the
// removal count.
func (s *Store) PruneURLs(ctx context.Context, bad map[string]bool) (int, error) {
	if len(bad) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, g := range s.groups {
		removed += g.RemoveByURL(bad)
	}
	if removed == 0 {
		return 0, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		return 0, err
	}
	return removed, nil
}

// Contains reports whether the named group exists.
func (s *Store) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[name]
	return ok
}

// Flatten returns every bookmark across all groups.
func (s *Store) Flatten() []bookmark.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []bookmark.Bookmark
	for _, g := range s.groups {
		out = append(out, g.List()...)
	}
	return out
}

// GroupNames returns the names of all groups.
func (s *Store) GroupNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	return names
}

// Count returns the number of bookmarks in the named group.
func (s *Store) Count(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[name]
	if !ok {
		return 0, ErrNoSuchGroup
	}
	return len(g.Bookmarks), nil
}

// Flush rewrites the snapshot unconditionally. Used on disconnect.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(snapshotDoc{Groups: s.groups}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode groups snapshot %s: %w", s.key, err)
	}
	if err := s.blobs.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("failed to write groups snapshot %s: %w", s.key, err)
	}
	return nil
}
