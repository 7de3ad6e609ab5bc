package group

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/bookmark"
	"github.com/bpetkov/bookmarkd/pkg/store/snapshot/memory"
)

func testBookmark(title, url string) bookmark.Bookmark {
	return bookmark.Bookmark{
		Title:    title,
		URL:      url,
		Keywords: []string{"go", "testing"},
	}
}

func TestCreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, "dev"))
	assert.True(t, s.Contains("dev"))

	err = s.Create(ctx, "dev")
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestAddIsIdempotentForIdenticalBookmarks(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))

	b := testBookmark("Go-Blog", "https://go.dev/blog")

	added, err := s.Add(ctx, "dev", b)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = s.Add(ctx, "dev", b)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	count, err := s.Count("dev")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddToMissingGroup(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)

	_, err = s.Add(ctx, "missing", testBookmark("a", "https://a"))
	assert.ErrorIs(t, err, ErrNoSuchGroup)
}

func TestRemoveIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))

	_, err = s.Add(ctx, "dev", testBookmark("Go-Blog", "https://go.dev/blog"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "dev", "go-blog"))

	count, err := s.Count("dev")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = s.Remove(ctx, "dev", "go-blog")
	assert.ErrorIs(t, err, ErrNoSuchBookmark)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))
	require.NoError(t, s.Create(ctx, "news"))

	_, err = s.Add(ctx, "dev", testBookmark("Go-Blog", "https://go.dev/blog"))
	require.NoError(t, err)
	_, err = s.Add(ctx, "news", testBookmark("HN", "https://news.ycombinator.com"))
	require.NoError(t, err)

	reloaded, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)

	assert.ElementsMatch(t, s.GroupNames(), reloaded.GroupNames())
	assert.ElementsMatch(t, s.Flatten(), reloaded.Flatten())
}

func TestSnapshotShape(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))

	data, err := blobs.Read(ctx, "groups/alice.json")
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "groups")
}

func TestMergeKeepsExistingGroups(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))

	existing := testBookmark("Go-Blog", "https://go.dev/blog")
	_, err = s.Add(ctx, "dev", existing)
	require.NoError(t, err)

	conflicting := bookmark.NewGroup("dev")
	conflicting.Add(testBookmark("Other", "https://other"))
	fresh := bookmark.NewGroup("imported")
	imported := testBookmark("HN", "https://news.ycombinator.com")
	fresh.Add(imported)

	added, err := s.Merge(ctx, map[string]*bookmark.Group{
		"dev":      conflicting,
		"imported": fresh,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []bookmark.Bookmark{imported}, added)

	count, err := s.Count("dev")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.ElementsMatch(t, []bookmark.Bookmark{existing, imported}, s.Flatten())
}

func TestPruneURLs(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()

	s, err := Load(ctx, blobs, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "dev"))
	require.NoError(t, s.Create(ctx, "news"))

	dead := testBookmark("Dead", "https://dead.example")
	alive := testBookmark("Alive", "https://go.dev")
	_, err = s.Add(ctx, "dev", dead)
	require.NoError(t, err)
	_, err = s.Add(ctx, "news", dead)
	require.NoError(t, err)
	_, err = s.Add(ctx, "news", alive)
	require.NoError(t, err)

	removed, err := s.PruneURLs(ctx, map[string]bool{"https://dead.example": true})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.ElementsMatch(t, []bookmark.Bookmark{alive}, s.Flatten())

	removed, err = s.PruneURLs(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestManagerCachesStores(t *testing.T) {
	ctx := context.Background()
	blobs := memory.NewMemorySnapshotStore()
	m := NewManager(blobs)

	a, err := m.For(ctx, "groups/alice.json")
	require.NoError(t, err)
	require.NoError(t, a.Create(ctx, "dev"))

	again, err := m.For(ctx, "groups/alice.json")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := m.For(ctx, "groups/bob.json")
	require.NoError(t, err)
	assert.False(t, b.Contains("dev"))
}
