package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"nyapix/internal/access"
	"nyapix/internal/logging"
	"nyapix/internal/metrics"
	"nyapix/internal/models"
	"nyapix/internal/pagination"
	"nyapix/internal/relindex"
)

// Store is the read side of the catalogue the engine searches.
type Store interface {
	relindex.Postings
	access.Source

	// ContentsByID hydrates content items, facets and media included. Ids
	// that do not exist are absent from the result.
	ContentsByID(ctx context.Context, ids []int64) (map[int64]models.ContentItem, error)
	// AlbumIDsForContents maps each content id to the albums containing it.
	AlbumIDsForContents(ctx context.Context, ids []int64) (map[int64][]int64, error)
	// AlbumsByID loads album metadata. Missing ids are absent from the result.
	AlbumsByID(ctx context.Context, ids []int64) (map[int64]models.Album, error)
	// AlbumContentIDs lists the content ids in an album.
	AlbumContentIDs(ctx context.Context, albumID int64) ([]int64, error)
}

// URLResolver turns a content item's media into a playback URL.
type URLResolver interface {
	PlaybackURL(ctx context.Context, item *models.ContentItem) (string, error)
}

// Engine runs content and album searches.
type Engine struct {
	store Store
	urls  URLResolver
}

// New creates an engine. urls may be nil, in which case items are returned
// without playback URLs.
func New(store Store, urls URLResolver) *Engine {
	return &Engine{store: store, urls: urls}
}

// SearchContent returns one page of the content matching req that the
// viewer may access, newest first.
func (e *Engine) SearchContent(ctx context.Context, req Request) (page *models.ContentPage, err error) {
	defer observe("content", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids, err := e.matching(ctx, req, "content")
	if err != nil {
		return nil, err
	}

	w := pagination.Paginate(len(ids), req.Page, req.MaxResults)
	contents, err := e.hydrate(ctx, pagination.Slice(ids, w))
	if err != nil {
		return nil, err
	}

	return &models.ContentPage{
		Contents:      contents,
		TotalPages:    w.TotalPages,
		TotalContents: len(ids),
	}, nil
}

// MatchingContent returns every id matching req that the viewer may access,
// newest first. Paging fields are validated but not applied.
func (e *Engine) MatchingContent(ctx context.Context, req Request) ([]int64, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return e.matching(ctx, req, "content")
}

func (e *Engine) matching(ctx context.Context, req Request, kind string) ([]int64, error) {
	candidates, err := relindex.Resolve(ctx, e.store, req.Query())
	if err != nil {
		return nil, fmt.Errorf("resolve facets: %w", err)
	}
	metrics.SearchCandidates.WithLabelValues(kind).Observe(float64(len(candidates)))

	visible, err := access.Filter(ctx, e.store, req.ViewerID, candidates)
	if err != nil {
		return nil, err
	}
	metrics.SearchResults.WithLabelValues(kind).Observe(float64(len(visible)))

	logging.Debug("search %s: viewer=%d candidates=%d visible=%d", kind, req.ViewerID, len(candidates), len(visible))
	return visible.SortedDesc(), nil
}

// SearchAlbums ranks the albums containing content that matches req and the
// viewer may access. Albums with more matches come first; ties go to the
// lower album id.
func (e *Engine) SearchAlbums(ctx context.Context, req Request) (page *models.AlbumPage, err error) {
	defer observe("album", time.Now(), &err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids, err := e.matching(ctx, req, "album")
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int)
	if len(ids) > 0 {
		memberships, err := e.store.AlbumIDsForContents(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load album memberships: %w", err)
		}
		for _, albumIDs := range memberships {
			for _, albumID := range albumIDs {
				counts[albumID]++
			}
		}
	}

	ranked := make([]int64, 0, len(counts))
	for albumID := range counts {
		ranked = append(ranked, albumID)
	}
	slices.SortFunc(ranked, func(a, b int64) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	w := pagination.Paginate(len(ranked), req.Page, req.MaxResults)
	pageIDs := pagination.Slice(ranked, w)

	albums := []models.AlbumSummary{}
	if len(pageIDs) > 0 {
		byID, err := e.store.AlbumsByID(ctx, pageIDs)
		if err != nil {
			return nil, fmt.Errorf("load albums: %w", err)
		}
		for _, id := range pageIDs {
			a, ok := byID[id]
			if !ok {
				continue
			}
			albums = append(albums, models.AlbumSummary{
				ID:          a.ID,
				Title:       a.Title,
				Description: a.Description,
				MatchCount:  counts[id],
			})
		}
	}

	return &models.AlbumPage{
		Albums:      albums,
		TotalPages:  w.TotalPages,
		TotalAlbums: len(ranked),
	}, nil
}

// GetContent fetches one item for viewerID.
func (e *Engine) GetContent(ctx context.Context, viewerID, contentID int64) (*models.ContentItem, error) {
	byID, err := e.store.ContentsByID(ctx, []int64{contentID})
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	item, ok := byID[contentID]
	if !ok {
		return nil, fmt.Errorf("content %d: %w", contentID, ErrNotFound)
	}
	if !access.CanAccess(viewerID, models.Ownership{ID: item.ID, OwnerID: item.OwnerID, Visibility: item.Visibility}) {
		return nil, fmt.Errorf("content %d: %w", contentID, ErrForbidden)
	}
	if err := e.resolveURL(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetAlbum fetches an album together with the contents viewerID may access,
// newest first.
func (e *Engine) GetAlbum(ctx context.Context, viewerID, albumID int64) (*models.AlbumDetail, error) {
	byID, err := e.store.AlbumsByID(ctx, []int64{albumID})
	if err != nil {
		return nil, fmt.Errorf("load album: %w", err)
	}
	album, ok := byID[albumID]
	if !ok {
		return nil, fmt.Errorf("album %d: %w", albumID, ErrNotFound)
	}

	ids, err := e.store.AlbumContentIDs(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("load album contents: %w", err)
	}
	visible, err := access.Filter(ctx, e.store, viewerID, relindex.NewSet(ids...))
	if err != nil {
		return nil, err
	}
	contents, err := e.hydrate(ctx, visible.SortedDesc())
	if err != nil {
		return nil, err
	}

	return &models.AlbumDetail{Album: album, Contents: contents}, nil
}

// Contents loads ids in the given order with playback URLs resolved, without
// an access check. Callers must only pass ids the viewer may see.
func (e *Engine) Contents(ctx context.Context, ids []int64) ([]models.ContentItem, error) {
	return e.hydrate(ctx, ids)
}

// hydrate loads ids in order, skipping any that vanished since they were
// matched.
func (e *Engine) hydrate(ctx context.Context, ids []int64) ([]models.ContentItem, error) {
	out := make([]models.ContentItem, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	byID, err := e.store.ContentsByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate contents: %w", err)
	}
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			logging.Debug("content %d vanished during search", id)
			continue
		}
		if err := e.resolveURL(ctx, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (e *Engine) resolveURL(ctx context.Context, item *models.ContentItem) error {
	if e.urls == nil || item.Media == nil {
		return nil
	}
	u, err := e.urls.PlaybackURL(ctx, item)
	if err != nil {
		return fmt.Errorf("resolve media url for content %d: %w", item.ID, err)
	}
	item.URL = u
	return nil
}

func observe(kind string, start time.Time, errp *error) {
	status := "success"
	switch {
	case errors.Is(*errp, ErrInvalidRequest):
		status = "invalid"
	case *errp != nil:
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(kind, status).Inc()
	metrics.SearchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
