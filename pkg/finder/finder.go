// Package finder answers read queries over a user's bookmarks through
// a per-user cache.
//
// The first query for a user loads and flattens all of their groups;
// later queries filter the cached slice. Mutating code must call
// Invalidate so the next query observes the change.
package finder

import (
	"context"
	"strings"
	"sync"

	"github.com/bpetkov/bookmarkd/pkg/bookmark"
)

// Loader produces the full flattened bookmark list of a user.
type Loader func(ctx context.Context, username string) ([]bookmark.Bookmark, error)

// Finder caches flattened bookmark lists keyed by username.
type Finder struct {
	mu    sync.Mutex
	cache map[string][]bookmark.Bookmark
	load  Loader
}

// New creates a Finder that fills cache misses through load.
func New(load Loader) *Finder {
	return &Finder{
		cache: make(map[string][]bookmark.Bookmark),
		load:  load,
	}
}

// ByUser returns every bookmark of the user across all groups.
func (f *Finder) ByUser(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
	return f.cached(ctx, username)
}

// ByGroup returns the bookmarks whose group name matches exactly.
func (f *Finder) ByGroup(ctx context.Context, username, groupName string) ([]bookmark.Bookmark, error) {
	all, err := f.cached(ctx, username)
	if err != nil {
		return nil, err
	}

	var out []bookmark.Bookmark
	for _, b := range all {
		if b.Group == groupName {
			out = append(out, b)
		}
	}
	return out, nil
}

// ByTags returns the bookmarks whose keyword set contains every query
// tag. An empty query matches everything.
func (f *Finder) ByTags(ctx context.Context, username string, tags []string) ([]bookmark.Bookmark, error) {
	all, err := f.cached(ctx, username)
	if err != nil {
		return nil, err
	}

	var out []bookmark.Bookmark
	for _, b := range all {
		if b.HasKeywords(tags) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ByTitle returns the bookmarks whose title contains the query as a
// case-insensitive substring.
func (f *Finder) ByTitle(ctx context.Context, username, query string) ([]bookmark.Bookmark, error) {
	all, err := f.cached(ctx, username)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var out []bookmark.Bookmark
	for _, b := range all {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Invalidate drops the user's cached list. Safe to call for users with
// no cached entry.
func (f *Finder) Invalidate(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, username)
}

func (f *Finder) cached(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
	f.mu.Lock()
	if list, ok := f.cache[username]; ok {
		f.mu.Unlock()
		return list, nil
	}
	f.mu.Unlock()

	// Load outside the lock so a slow snapshot read does not block
	// queries for other users.
	list, err := f.load(ctx, username)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cache[username] = list
	f.mu.Unlock()
	return list, nil
}
