// Package access decides which content items a viewer may see.
//
// An owner always sees their own items. Everyone else, the anonymous viewer
// included, sees an item only when it is public.
package access

import (
	"context"
	"fmt"

	"nyapix/internal/models"
	"nyapix/internal/relindex"
)

// Anonymous is the viewer id of an unauthenticated request.
const Anonymous int64 = 0

// Source loads ownership data for a batch of content ids. Ids that no longer
// exist are absent from the result.
type Source interface {
	AccessInfo(ctx context.Context, ids []int64) (map[int64]models.Ownership, error)
}

// CanAccess reports whether viewerID may see an item with the given
// ownership.
func CanAccess(viewerID int64, o models.Ownership) bool {
	if viewerID != Anonymous && o.OwnerID == viewerID {
		return true
	}
	return o.Visibility == models.VisibilityPublic
}

// Filter returns the candidates viewerID may see. Candidates missing from the
// source are dropped.
func Filter(ctx context.Context, src Source, viewerID int64, candidates relindex.Set) (relindex.Set, error) {
	if len(candidates) == 0 {
		return relindex.Set{}, nil
	}

	info, err := src.AccessInfo(ctx, candidates.IDs())
	if err != nil {
		return nil, fmt.Errorf("load access info: %w", err)
	}

	visible := make(relindex.Set, len(candidates))
	for id := range candidates {
		o, ok := info[id]
		if ok && CanAccess(viewerID, o) {
			visible.Add(id)
		}
	}
	return visible, nil
}
