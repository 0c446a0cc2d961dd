package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nyapix/internal/models"
)

func albumIDs(page *models.AlbumPage) []int64 {
	ids := make([]int64, 0, len(page.Albums))
	for _, a := range page.Albums {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestSearchAlbumsRanking(t *testing.T) {
	store := newMemStore()
	for id := int64(1); id <= 6; id++ {
		store.public(id, tagA)
	}
	store.public(7, tagB)
	store.addAlbum(30, 1, 2)    // 2 matches
	store.addAlbum(20, 3, 4, 5) // 3 matches
	store.addAlbum(10, 6, 7)    // 1 match
	store.addAlbum(40, 1, 6)    // 2 matches, ties with 30
	store.addAlbum(50, 7)       // no matches
	engine := New(store, nil)

	r := req(1, 10)
	r.NeededTags = []int64{tagA}
	page, err := engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []int64{20, 30, 40, 10}, albumIDs(page))
	assert.Equal(t, 4, page.TotalAlbums)
	assert.Equal(t, 1, page.TotalPages)

	counts := map[int64]int{}
	for _, a := range page.Albums {
		counts[a.ID] = a.MatchCount
	}
	assert.Equal(t, map[int64]int{20: 3, 30: 2, 40: 2, 10: 1}, counts)
}

func TestSearchAlbumsPagination(t *testing.T) {
	store := newMemStore()
	store.public(1, tagA)
	for id := int64(1); id <= 5; id++ {
		store.addAlbum(id, 1)
	}
	engine := New(store, nil)

	r := req(2, 2)
	r.NeededTags = []int64{tagA}
	page, err := engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, albumIDs(page))
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.TotalAlbums)

	r.Page = 1 << 62
	page, err = engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, page.Albums)
	assert.Equal(t, 5, page.TotalAlbums)
}

func TestSearchAlbumsCountsOnlyAccessibleContent(t *testing.T) {
	store := newMemStore()
	store.addContent(1, 10, models.VisibilityPrivate, facetLinks{tags: []int64{tagA}})
	store.addContent(2, 10, models.VisibilityPublic, facetLinks{tags: []int64{tagA}})
	store.addAlbum(1, 1, 2)
	store.addAlbum(2, 1)
	engine := New(store, nil)

	r := req(1, 10)
	r.NeededTags = []int64{tagA}
	r.ViewerID = 20
	page, err := engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, page.Albums, 1)
	assert.Equal(t, int64(1), page.Albums[0].ID)
	assert.Equal(t, 1, page.Albums[0].MatchCount)

	r.ViewerID = 10
	page, err = engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, albumIDs(page))
	assert.Equal(t, 2, page.Albums[0].MatchCount)
}

func TestSearchAlbumsNoMatches(t *testing.T) {
	store := newMemStore()
	store.public(1, tagA)
	store.addAlbum(1, 1)
	engine := New(store, nil)

	r := req(1, 10)
	r.NeededTags = []int64{tagB}
	page, err := engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, page.Albums)
	assert.NotNil(t, page.Albums)
	assert.Equal(t, 0, page.TotalAlbums)
}

func TestSearchAlbumsAfterContentDelete(t *testing.T) {
	store := newMemStore()
	store.public(1, tagA)
	store.public(2, tagA)
	store.addAlbum(1, 1, 2)
	engine := New(store, nil)
	store.deleteContent(2)

	r := req(1, 10)
	r.NeededTags = []int64{tagA}
	page, err := engine.SearchAlbums(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, page.Albums, 1)
	assert.Equal(t, 1, page.Albums[0].MatchCount)
}
