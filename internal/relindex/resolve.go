package relindex

import (
	"context"
	"fmt"

	"nyapix/internal/models"
)

// Postings answers which content items carry a facet.
type Postings interface {
	IDsWithFacet(ctx context.Context, kind models.FacetKind, facetID int64) ([]int64, error)
}

// BatchPostings fetches several posting lists of one kind at once. Resolve
// uses it when the Postings value implements it.
type BatchPostings interface {
	IDsWithFacets(ctx context.Context, kind models.FacetKind, facetIDs []int64) (map[int64][]int64, error)
}

// Facets holds facet ids per kind.
type Facets struct {
	Tags       []int64
	Characters []int64
	Authors    []int64
}

// Of returns the ids for kind.
func (f Facets) Of(kind models.FacetKind) []int64 {
	switch kind {
	case models.FacetTag:
		return f.Tags
	case models.FacetCharacter:
		return f.Characters
	case models.FacetAuthor:
		return f.Authors
	}
	return nil
}

// Empty reports whether no kind has any id.
func (f Facets) Empty() bool {
	return len(f.Tags) == 0 && len(f.Characters) == 0 && len(f.Authors) == 0
}

// Query selects content carrying every Needed facet and no Excluded facet.
type Query struct {
	Needed   Facets
	Excluded Facets
}

// Resolve returns the ids of content matching q. A query without needed
// facets matches nothing. Needed lists are intersected tags first, then
// characters, then authors, and the walk stops as soon as the running set is
// empty.
func Resolve(ctx context.Context, p Postings, q Query) (Set, error) {
	if q.Needed.Empty() {
		return Set{}, nil
	}

	var result Set
	for _, kind := range models.FacetKinds {
		ids := dedupe(q.Needed.Of(kind))
		if len(ids) == 0 {
			continue
		}
		lists, err := postingLists(ctx, p, kind, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if result == nil {
				result = NewSet(lists[id]...)
			} else {
				result.Intersect(lists[id])
			}
			if len(result) == 0 {
				return result, nil
			}
		}
	}

	for _, kind := range models.FacetKinds {
		ids := dedupe(q.Excluded.Of(kind))
		if len(ids) == 0 {
			continue
		}
		lists, err := postingLists(ctx, p, kind, ids)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			result.Subtract(lists[id])
		}
		if len(result) == 0 {
			break
		}
	}

	return result, nil
}

func postingLists(ctx context.Context, p Postings, kind models.FacetKind, ids []int64) (map[int64][]int64, error) {
	if bp, ok := p.(BatchPostings); ok {
		lists, err := bp.IDsWithFacets(ctx, kind, ids)
		if err != nil {
			return nil, fmt.Errorf("load %s postings: %w", kind, err)
		}
		return lists, nil
	}

	lists := make(map[int64][]int64, len(ids))
	for _, id := range ids {
		contentIDs, err := p.IDsWithFacet(ctx, kind, id)
		if err != nil {
			return nil, fmt.Errorf("load %s %d postings: %w", kind, id, err)
		}
		lists[id] = contentIDs
	}
	return lists, nil
}

func dedupe(ids []int64) []int64 {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
