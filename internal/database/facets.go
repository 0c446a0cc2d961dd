package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"nyapix/internal/models"
	"nyapix/internal/pagination"
)

// facetTable names the storage of one facet kind.
type facetTable struct {
	table  string // facet rows
	edges  string // content <-> facet membership
	column string // facet id column in edges
}

var facetTables = map[models.FacetKind]facetTable{
	models.FacetTag:       {table: "tags", edges: "content_tags", column: "tag_id"},
	models.FacetCharacter: {table: "characters", edges: "content_characters", column: "character_id"},
	models.FacetAuthor:    {table: "authors", edges: "content_authors", column: "author_id"},
}

func tableFor(kind models.FacetKind) (facetTable, error) {
	t, ok := facetTables[kind]
	if !ok {
		return facetTable{}, fmt.Errorf("unknown facet kind %q", kind)
	}
	return t, nil
}

func withKind(kind models.FacetKind, facets []models.Facet) []models.Facet {
	for i := range facets {
		facets[i].Kind = kind
	}
	return facets
}

// CreateFacet stores a new facet. The name must already be normalized.
func (d *Database) CreateFacet(ctx context.Context, kind models.FacetKind, name string, ownerID int64) (*models.Facet, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.GetContext(ctx, &id, d.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (name, owner_id) VALUES (?, ?) RETURNING id", t.table)),
		name, ownerID)
	if err != nil {
		err = classify(err, fmt.Sprintf("%s %q", kind, name))
		return nil, err
	}
	return d.GetFacet(ctx, kind, id)
}

// GetFacet retrieves a facet by id.
func (d *Database) GetFacet(ctx context.Context, kind models.FacetKind, id int64) (*models.Facet, error) {
	return d.getFacet(ctx, kind, "id", id)
}

// GetFacetByName retrieves a facet by its normalized name.
func (d *Database) GetFacetByName(ctx context.Context, kind models.FacetKind, name string) (*models.Facet, error) {
	return d.getFacet(ctx, kind, "name", name)
}

func (d *Database) getFacet(ctx context.Context, kind models.FacetKind, column string, value any) (*models.Facet, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f models.Facet
	err = d.db.GetContext(ctx, &f, d.db.Rebind(fmt.Sprintf(
		"SELECT id, name, owner_id, created_at FROM %s WHERE %s = ?", t.table, column)), value)
	if err != nil {
		err = notFound(err, string(kind), value)
		return nil, err
	}
	f.Kind = kind
	return &f, nil
}

// ListFacets returns one page of facets ordered by name.
func (d *Database) ListFacets(ctx context.Context, kind models.FacetKind, page, pageSize int) (*models.FacetPage, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_facets", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total int
	if err = d.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM %s", t.table)); err != nil {
		return nil, err
	}

	w := pagination.Paginate(total, page, pageSize)
	facets := []models.Facet{}
	err = d.db.SelectContext(ctx, &facets, d.db.Rebind(fmt.Sprintf(
		"SELECT id, name, owner_id, created_at FROM %s ORDER BY name LIMIT ? OFFSET ?", t.table)),
		w.Limit, w.Offset)
	if err != nil {
		return nil, err
	}

	return &models.FacetPage{
		Facets:     withKind(kind, facets),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: w.TotalPages,
		Total:      total,
	}, nil
}

// SearchFacets returns up to limit facets whose name contains query.
func (d *Database) SearchFacets(ctx context.Context, kind models.FacetKind, query string, limit int) ([]models.Facet, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("search_facets", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pattern := "%" + escapeLike(query) + "%"
	facets := []models.Facet{}
	err = d.db.SelectContext(ctx, &facets, d.db.Rebind(fmt.Sprintf(
		`SELECT id, name, owner_id, created_at FROM %s WHERE name LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`, t.table)),
		pattern, limit)
	if err != nil {
		return nil, err
	}
	return withKind(kind, facets), nil
}

// FacetsOwnedBy lists the facets a user created, ordered by name.
func (d *Database) FacetsOwnedBy(ctx context.Context, kind models.FacetKind, ownerID int64) ([]models.Facet, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("facets_owned_by", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	facets := []models.Facet{}
	err = d.db.SelectContext(ctx, &facets, d.db.Rebind(fmt.Sprintf(
		"SELECT id, name, owner_id, created_at FROM %s WHERE owner_id = ? ORDER BY name", t.table)), ownerID)
	if err != nil {
		return nil, err
	}
	return withKind(kind, facets), nil
}

// RenameFacet changes a facet's name.
func (d *Database) RenameFacet(ctx context.Context, kind models.FacetKind, id int64, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rename_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind(fmt.Sprintf("UPDATE %s SET name = ? WHERE id = ?", t.table)), name, id)
	if err != nil {
		err = classify(err, fmt.Sprintf("%s %q", kind, name))
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
		return err
	}
	return nil
}

// DeleteFacet removes a facet and every content link to it.
func (d *Database) DeleteFacet(ctx context.Context, kind models.FacetKind, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_facet", start, err) }()

	t, err := tableFor(kind)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.edges, t.column)), id); err != nil {
			return fmt.Errorf("unlink %s: %w", kind, err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.table)), id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
		}
		return nil
	})
	return err
}

// missingFacets returns the ids in ids that name no facet of kind.
func missingFacets(ctx context.Context, q sqlx.QueryerContext, kind models.FacetKind, ids []int64) ([]int64, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := selectIn[int64](ctx, q, fmt.Sprintf("SELECT id FROM %s WHERE id IN (?)", t.table), ids)
	if err != nil {
		return nil, err
	}
	present := make(map[int64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// MissingFacets returns the ids that name no facet of kind.
func (d *Database) MissingFacets(ctx context.Context, kind models.FacetKind, ids []int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return missingFacets(ctx, d.db, kind, ids)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// classify maps unique and foreign key violations from either driver to
// ErrConflict and ErrInvalidReference.
func classify(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", what, ErrConflict)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", what, ErrInvalidReference)
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", what, ErrConflict)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s: %w", what, ErrInvalidReference)
		}
	}
	return err
}
