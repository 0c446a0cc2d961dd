package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nyapix/internal/models"
)

type edge struct {
	ContentID int64 `db:"content_id"`
	FacetID   int64 `db:"facet_id"`
}

// IDsWithFacet returns the ids of content linked to facetID, ascending.
func (d *Database) IDsWithFacet(ctx context.Context, kind models.FacetKind, facetID int64) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("ids_with_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := []int64{}
	err = d.db.SelectContext(ctx, &ids, d.db.Rebind(fmt.Sprintf(
		"SELECT content_id FROM %s WHERE %s = ? ORDER BY content_id", t.edges, t.column)), facetID)
	return ids, err
}

// IDsWithFacets returns, per facet id, the ids of content linked to it.
// Facets without content map to an empty list.
func (d *Database) IDsWithFacets(ctx context.Context, kind models.FacetKind, facetIDs []int64) (map[int64][]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("ids_with_facets", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := make(map[int64][]int64, len(facetIDs))
	for _, id := range facetIDs {
		out[id] = []int64{}
	}
	if len(facetIDs) == 0 {
		return out, nil
	}

	edges, err := selectIn[edge](ctx, d.db, fmt.Sprintf(
		"SELECT content_id, %s AS facet_id FROM %s WHERE %s IN (?)", t.column, t.edges, t.column), facetIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		out[e.FacetID] = append(out[e.FacetID], e.ContentID)
	}
	return out, nil
}

// HasFacet reports whether contentID is linked to facetID.
func (d *Database) HasFacet(ctx context.Context, contentID int64, kind models.FacetKind, facetID int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("has_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err = d.db.GetContext(ctx, &n, d.db.Rebind(fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE content_id = ? AND %s = ?", t.edges, t.column)), contentID, facetID)
	return n > 0, err
}

// AddFacet links contentID to facetID. It returns false when the link
// already existed.
func (d *Database) AddFacet(ctx context.Context, contentID int64, kind models.FacetKind, facetID int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_facet", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	added, err := addFacet(ctx, d.db, contentID, kind, facetID)
	return added, err
}

// RemoveAllFacets unlinks contentID from every facet of kind.
func (d *Database) RemoveAllFacets(ctx context.Context, contentID int64, kind models.FacetKind) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_all_facets", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = removeAllFacets(ctx, d.db, contentID, kind)
	return err
}

// SetFacets replaces the facets of kind linked to contentID.
func (d *Database) SetFacets(ctx context.Context, contentID int64, kind models.FacetKind, facetIDs []int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_facets", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		return replaceFacets(ctx, tx, contentID, kind, facetIDs)
	})
	return err
}

func addFacet(ctx context.Context, ex sqlx.ExtContext, contentID int64, kind models.FacetKind, facetID int64) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	result, err := ex.ExecContext(ctx, ex.Rebind(fmt.Sprintf(
		"INSERT INTO %s (content_id, %s) VALUES (?, ?) ON CONFLICT DO NOTHING", t.edges, t.column)), contentID, facetID)
	if err != nil {
		return false, classify(err, fmt.Sprintf("content %d %s %d", contentID, kind, facetID))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func removeAllFacets(ctx context.Context, ex sqlx.ExtContext, contentID int64, kind models.FacetKind) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, ex.Rebind(fmt.Sprintf("DELETE FROM %s WHERE content_id = ?", t.edges)), contentID)
	return err
}

// replaceFacets deletes every link of kind and reinserts facetIDs. Unknown
// facet ids fail with ErrInvalidReference.
func replaceFacets(ctx context.Context, ex sqlx.ExtContext, contentID int64, kind models.FacetKind, facetIDs []int64) error {
	missing, err := missingFacets(ctx, ex, kind, facetIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown %s ids %v: %w", kind, missing, ErrInvalidReference)
	}

	if err := removeAllFacets(ctx, ex, contentID, kind); err != nil {
		return err
	}
	for _, id := range facetIDs {
		if _, err := addFacet(ctx, ex, contentID, kind, id); err != nil {
			return err
		}
	}
	return nil
}

// facetsOf loads the facet ids of every kind for a batch of content.
func facetsOf(ctx context.Context, q sqlx.QueryerContext, contentIDs []int64) (map[models.FacetKind]map[int64][]int64, error) {
	out := make(map[models.FacetKind]map[int64][]int64, len(models.FacetKinds))
	for _, kind := range models.FacetKinds {
		t := facetTables[kind]
		edges, err := selectIn[edge](ctx, q, fmt.Sprintf(
			"SELECT content_id, %s AS facet_id FROM %s WHERE content_id IN (?) ORDER BY %s", t.column, t.edges, t.column), contentIDs)
		if err != nil {
			return nil, fmt.Errorf("load %s links: %w", kind, err)
		}
		byContent := make(map[int64][]int64)
		for _, e := range edges {
			byContent[e.ContentID] = append(byContent[e.ContentID], e.FacetID)
		}
		out[kind] = byContent
	}
	return out, nil
}
