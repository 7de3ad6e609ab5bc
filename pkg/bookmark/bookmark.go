// Package bookmark defines the core value types of the service: bookmarks
// and the named groups that own them.
package bookmark

import (
	"fmt"
	"sort"
	"strings"
)

// Bookmark is an immutable saved link.
//
// The title doubles as the uniqueness key inside a group. Keywords are the
// stemmed terms extracted from the page and drive tag search.
type Bookmark struct {
	// Title is the page-derived title, unique within its group
	Title string `json:"title"`

	// URL is the (possibly shortened) address of the page
	URL string `json:"url"`

	// Keywords is the set of stemmed terms extracted from the page text
	Keywords []string `json:"keywords"`

	// Group is the name of the group this bookmark belongs to
	Group string `json:"group"`
}

// HasKeywords reports whether the bookmark's keyword set contains every
// term in query. An empty query always matches.
func (b Bookmark) HasKeywords(query []string) bool {
	for _, q := range query {
		found := false
		for _, k := range b.Keywords {
			if k == q {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Equal compares two bookmarks field by field. Keyword order is ignored.
func (b Bookmark) Equal(other Bookmark) bool {
	if b.Title != other.Title || b.URL != other.URL || b.Group != other.Group {
		return false
	}
	if len(b.Keywords) != len(other.Keywords) {
		return false
	}
	a := append([]string(nil), b.Keywords...)
	c := append([]string(nil), other.Keywords...)
	sort.Strings(a)
	sort.Strings(c)
	for i := range a {
		if a[i] != c[i] {
			return false
		}
	}
	return true
}

// String renders the bookmark the way replies present it to clients.
func (b Bookmark) String() string {
	return fmt.Sprintf("Bookmark info: title: %s, url: %s, keywords: [%s], group: %s",
		b.Title, b.URL, strings.Join(b.Keywords, ", "), b.Group)
}

// Group is a named, per-user collection of bookmarks keyed by title.
type Group struct {
	// Name is the group name, unique per user
	Name string `json:"name"`

	// Bookmarks maps bookmark title to bookmark
	Bookmarks map[string]Bookmark `json:"bookmarks"`
}

// NewGroup creates an empty group with the given name.
func NewGroup(name string) *Group {
	return &Group{
		Name:      name,
		Bookmarks: make(map[string]Bookmark),
	}
}

// Add inserts or replaces the bookmark under its title.
func (g *Group) Add(b Bookmark) {
	if g.Bookmarks == nil {
		g.Bookmarks = make(map[string]Bookmark)
	}
	g.Bookmarks[b.Title] = b
}

// Contains reports whether an identical bookmark is already present.
// A bookmark with the same title but different contents does not count.
func (g *Group) Contains(b Bookmark) bool {
	existing, ok := g.Bookmarks[b.Title]
	return ok && existing.Equal(b)
}

// FindByTitle returns the bookmark whose title matches case-insensitively.
func (g *Group) FindByTitle(title string) (Bookmark, bool) {
	for t, b := range g.Bookmarks {
		if strings.EqualFold(t, title) {
			return b, true
		}
	}
	return Bookmark{}, false
}

// Remove deletes the bookmark stored under the exact title.
func (g *Group) Remove(title string) {
	delete(g.Bookmarks, title)
}

// RemoveByURL deletes every bookmark whose URL appears in urls and returns
// how many were removed.
func (g *Group) RemoveByURL(urls map[string]bool) int {
	removed := 0
	for title, b := range g.Bookmarks {
		if urls[b.URL] {
			delete(g.Bookmarks, title)
			removed++
		}
	}
	return removed
}

// List returns the group's bookmarks in unspecified order.
func (g *Group) List() []Bookmark {
	out := make([]Bookmark, 0, len(g.Bookmarks))
	for _, b := range g.Bookmarks {
		out = append(out, b)
	}
	return out
}
