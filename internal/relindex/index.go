package relindex

import (
	"context"
	"sync"

	"nyapix/internal/models"
)

type relation struct {
	postings map[int64]Set // facet -> contents
	forward  map[int64]Set // content -> facets
}

// Index is an in-memory relation index, safe for concurrent use. It backs
// tests; the server resolves against the database.
type Index struct {
	mu        sync.RWMutex
	relations map[models.FacetKind]*relation
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	idx := &Index{relations: make(map[models.FacetKind]*relation, len(models.FacetKinds))}
	for _, kind := range models.FacetKinds {
		idx.relations[kind] = &relation{
			postings: make(map[int64]Set),
			forward:  make(map[int64]Set),
		}
	}
	return idx
}

// Add links contentID to facetID. It returns false if the link already
// existed or the kind is unknown.
func (idx *Index) Add(contentID int64, kind models.FacetKind, facetID int64) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	rel, ok := idx.relations[kind]
	if !ok {
		return false
	}
	facets := rel.forward[contentID]
	if facets.Has(facetID) {
		return false
	}
	if facets == nil {
		facets = Set{}
		rel.forward[contentID] = facets
	}
	facets.Add(facetID)

	contents := rel.postings[facetID]
	if contents == nil {
		contents = Set{}
		rel.postings[facetID] = contents
	}
	contents.Add(contentID)
	return true
}

// RemoveAll unlinks contentID from every facet of kind.
func (idx *Index) RemoveAll(contentID int64, kind models.FacetKind) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeAll(contentID, kind)
}

// RemoveContent unlinks contentID from every facet of every kind.
func (idx *Index) RemoveContent(contentID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, kind := range models.FacetKinds {
		idx.removeAll(contentID, kind)
	}
}

func (idx *Index) removeAll(contentID int64, kind models.FacetKind) {
	rel, ok := idx.relations[kind]
	if !ok {
		return
	}
	for facetID := range rel.forward[contentID] {
		contents := rel.postings[facetID]
		delete(contents, contentID)
		if len(contents) == 0 {
			delete(rel.postings, facetID)
		}
	}
	delete(rel.forward, contentID)
}

// Replace replaces the facets of kind linked to contentID.
func (idx *Index) Replace(contentID int64, kind models.FacetKind, facetIDs []int64) {
	idx.RemoveAll(contentID, kind)
	for _, id := range facetIDs {
		idx.Add(contentID, kind, id)
	}
}

// HasFacet reports whether contentID is linked to facetID.
func (idx *Index) HasFacet(contentID int64, kind models.FacetKind, facetID int64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	rel, ok := idx.relations[kind]
	if !ok {
		return false
	}
	return rel.forward[contentID].Has(facetID)
}

// FacetsOf returns the facet ids of kind linked to contentID, ascending.
func (idx *Index) FacetsOf(contentID int64, kind models.FacetKind) []int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	rel, ok := idx.relations[kind]
	if !ok {
		return nil
	}
	return rel.forward[contentID].IDs()
}

// IDsWithFacet implements Postings.
func (idx *Index) IDsWithFacet(_ context.Context, kind models.FacetKind, facetID int64) ([]int64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	rel, ok := idx.relations[kind]
	if !ok {
		return nil, nil
	}
	return rel.postings[facetID].IDs(), nil
}
