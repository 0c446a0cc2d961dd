package search

import (
	"context"
	"slices"
	"sync"

	"nyapix/internal/models"
	"nyapix/internal/relindex"
)

// memStore is an in-memory Store backed by a relindex.Index.
type memStore struct {
	*relindex.Index

	mu       sync.RWMutex
	contents map[int64]models.ContentItem
	albums   map[int64]models.Album
	members  map[int64][]int64 // album -> contents

	err error
}

func newMemStore() *memStore {
	return &memStore{
		Index:    relindex.NewIndex(),
		contents: make(map[int64]models.ContentItem),
		albums:   make(map[int64]models.Album),
		members:  make(map[int64][]int64),
	}
}

type facetLinks struct {
	tags, characters, authors []int64
}

func (m *memStore) addContent(id, owner int64, vis models.Visibility, f facetLinks) {
	m.mu.Lock()
	m.contents[id] = models.ContentItem{
		ID:           id,
		Title:        "content",
		OwnerID:      owner,
		Visibility:   vis,
		TagIDs:       f.tags,
		CharacterIDs: f.characters,
		AuthorIDs:    f.authors,
	}
	m.mu.Unlock()

	for _, t := range f.tags {
		m.Add(id, models.FacetTag, t)
	}
	for _, c := range f.characters {
		m.Add(id, models.FacetCharacter, c)
	}
	for _, a := range f.authors {
		m.Add(id, models.FacetAuthor, a)
	}
}

func (m *memStore) public(id int64, tags ...int64) {
	m.addContent(id, 1, models.VisibilityPublic, facetLinks{tags: tags})
}

func (m *memStore) addAlbum(id int64, contentIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albums[id] = models.Album{ID: id, OwnerID: 1, Title: "album"}
	m.members[id] = contentIDs
}

func (m *memStore) deleteContent(id int64) {
	m.mu.Lock()
	delete(m.contents, id)
	m.mu.Unlock()
	m.RemoveContent(id)
}

func (m *memStore) AccessInfo(_ context.Context, ids []int64) (map[int64]models.Ownership, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]models.Ownership, len(ids))
	for _, id := range ids {
		if c, ok := m.contents[id]; ok {
			out[id] = models.Ownership{ID: id, OwnerID: c.OwnerID, Visibility: c.Visibility}
		}
	}
	return out, nil
}

func (m *memStore) ContentsByID(_ context.Context, ids []int64) (map[int64]models.ContentItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]models.ContentItem, len(ids))
	for _, id := range ids {
		if c, ok := m.contents[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *memStore) AlbumIDsForContents(_ context.Context, ids []int64) (map[int64][]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64][]int64)
	for albumID, members := range m.members {
		for _, id := range ids {
			if slices.Contains(members, id) {
				out[id] = append(out[id], albumID)
			}
		}
	}
	return out, nil
}

func (m *memStore) AlbumsByID(_ context.Context, ids []int64) (map[int64]models.Album, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]models.Album, len(ids))
	for _, id := range ids {
		if a, ok := m.albums[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (m *memStore) AlbumContentIDs(_ context.Context, albumID int64) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.members[albumID]), nil
}

// vanishing drops the listed ids from hydration only, mimicking a delete that
// lands between matching and hydration.
type vanishing struct {
	*memStore
	gone []int64
}

func (v vanishing) ContentsByID(ctx context.Context, ids []int64) (map[int64]models.ContentItem, error) {
	out, err := v.memStore.ContentsByID(ctx, ids)
	for _, id := range v.gone {
		delete(out, id)
	}
	return out, err
}

type fakeURLs struct{}

func (fakeURLs) PlaybackURL(_ context.Context, item *models.ContentItem) (string, error) {
	return "v1/" + string(item.Media.Kind) + "/x", nil
}
