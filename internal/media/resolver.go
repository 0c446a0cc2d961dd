package media

import (
	"context"
	"fmt"

	"nyapix/internal/models"
)

// Resolver turns content media into playback URLs. With a nil store it
// returns the legacy "v1/{kind}/{id}" path.
type Resolver struct {
	store BlobStore
}

// NewResolver creates a resolver over store, which may be nil.
func NewResolver(store BlobStore) *Resolver {
	return &Resolver{store: store}
}

// PlaybackURL returns the URL for item's media, or "" when it has none.
func (r *Resolver) PlaybackURL(ctx context.Context, item *models.ContentItem) (string, error) {
	if item == nil || item.Media == nil {
		return "", nil
	}
	if r.store == nil || item.Media.ObjectKey == "" {
		return fmt.Sprintf("v1/%s/%d", item.Media.Kind, item.ID), nil
	}
	return r.store.PresignedURL(ctx, item.Media.ObjectKey)
}
