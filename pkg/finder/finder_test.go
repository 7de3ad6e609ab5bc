package finder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpetkov/bookmarkd/pkg/bookmark"
)

func fixtureBookmarks() []bookmark.Bookmark {
	return []bookmark.Bookmark{
		{Title: "Go-Blog", URL: "https://go.dev/blog", Keywords: []string{"go", "blog"}, Group: "dev"},
		{Title: "Effective-Go", URL: "https://go.dev/doc/effective_go", Keywords: []string{"go", "style"}, Group: "dev"},
		{Title: "HN", URL: "https://news.ycombinator.com", Keywords: []string{"news"}, Group: "news"},
	}
}

func TestCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := New(func(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
		calls++
		return fixtureBookmarks(), nil
	})

	first, err := f.ByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	_, err = f.ByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = f.ByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInvalidateForcesReload(t *testing.T) {
	ctx := context.Background()
	calls := 0
	f := New(func(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
		calls++
		return fixtureBookmarks(), nil
	})

	_, err := f.ByUser(ctx, "alice")
	require.NoError(t, err)

	f.Invalidate("alice")

	_, err = f.ByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestByGroupExactMatch(t *testing.T) {
	ctx := context.Background()
	f := New(func(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
		return fixtureBookmarks(), nil
	})

	dev, err := f.ByGroup(ctx, "alice", "dev")
	require.NoError(t, err)
	assert.Len(t, dev, 2)

	none, err := f.ByGroup(ctx, "alice", "de")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestByTagsNarrowsMonotonically(t *testing.T) {
	ctx := context.Background()
	f := New(func(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
		return fixtureBookmarks(), nil
	})

	all, err := f.ByTags(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	goOnly, err := f.ByTags(ctx, "alice", []string{"go"})
	require.NoError(t, err)
	assert.Len(t, goOnly, 2)

	goStyle, err := f.ByTags(ctx, "alice", []string{"go", "style"})
	require.NoError(t, err)
	require.Len(t, goStyle, 1)
	assert.Equal(t, "Effective-Go", goStyle[0].Title)
}

func TestByTitleIsCaseInsensitiveSubstring(t *testing.T) {
	ctx := context.Background()
	f := New(func(ctx context.Context, username string) ([]bookmark.Bookmark, error) {
		return fixtureBookmarks(), nil
	})

	got, err := f.ByTitle(ctx, "alice", "go")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.ByTitle(ctx, "alice", "EFFECTIVE")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Effective-Go", got[0].Title)
}
