// Package chromeimport reads the Chrome Bookmarks file and converts
// its root folders into bookmark groups.
package chromeimport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bpetkov/bookmarkd/internal/logger"
	"github.com/bpetkov/bookmarkd/pkg/bookmark"
)

// KeywordsFunc derives keywords for an imported URL. Failures are
// logged and the bookmark is kept without keywords.
type KeywordsFunc func(ctx context.Context, url string) ([]string, error)

// chromeNode is one entry in Chrome's Bookmarks JSON tree. A "url"
// node is a bookmark; a "folder" node nests further children.
type chromeNode struct {
	Type     string       `json:"type"`
	Name     string       `json:"name"`
	URL      string       `json:"url"`
	Children []chromeNode `json:"children"`
}

type chromeFile struct {
	Roots map[string]chromeNode `json:"roots"`
}

// Importer loads bookmark groups from a Chrome Bookmarks file.
type Importer struct {
	path     string
	keywords KeywordsFunc
}

// New creates an Importer for the given Bookmarks file. An empty path
// selects the default Chrome location for the current OS.
func New(path string, keywords KeywordsFunc) (*Importer, error) {
	if path == "" {
		var err error
		path, err = DefaultBookmarksPath()
		if err != nil {
			return nil, err
		}
	}
	return &Importer{path: path, keywords: keywords}, nil
}

// DefaultBookmarksPath returns where Chrome keeps its Bookmarks file
// on this OS.
func DefaultBookmarksPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome",
			"User Data", "Default", "Bookmarks"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google",
			"Chrome", "Bookmarks"), nil
	case "linux":
		return filepath.Join(home, ".config", "google-chrome", "Default",
			"Bookmarks"), nil
	default:
		return "", fmt.Errorf("no known Chrome bookmarks location on %s", runtime.GOOS)
	}
}

// Import parses the Bookmarks file. Each root folder (bookmark bar,
// other, synced) becomes one group; nested folders are flattened into
// their root's group.
func (i *Importer) Import(ctx context.Context) (map[string]*bookmark.Group, error) {
	data, err := os.ReadFile(i.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Chrome bookmarks file %s: %w", i.path, err)
	}

	var file chromeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse Chrome bookmarks file %s: %w", i.path, err)
	}

	groups := make(map[string]*bookmark.Group)
	for name, node := range file.Roots {
		if node.Children == nil {
			continue
		}
		g := bookmark.NewGroup(name)
		i.collect(ctx, node.Children, g)
		groups[name] = g
	}
	return groups, nil
}

func (i *Importer) collect(ctx context.Context, nodes []chromeNode, g *bookmark.Group) {
	for _, node := range nodes {
		switch node.Type {
		case "url":
			var keywords []string
			if i.keywords != nil {
				var err error
				keywords, err = i.keywords(ctx, node.URL)
				if err != nil {
					logger.Warn("Failed to derive keywords for imported bookmark %s: %v", node.URL, err)
					keywords = nil
				}
			}
			g.Add(bookmark.Bookmark{
				Title:    node.Name,
				URL:      node.URL,
				Keywords: keywords,
				Group:    g.Name,
			})
		case "folder":
			i.collect(ctx, node.Children, g)
		}
	}
}
