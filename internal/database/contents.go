package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nyapix/internal/models"
	"nyapix/internal/pagination"
)

// ContentUpdate lists the fields to change on a content item. Nil fields are
// left alone. A facet kind present in Facets has its links replaced
// wholesale. A SourceID pointing at 0 clears the source.
type ContentUpdate struct {
	Title       *string
	Description *string
	Visibility  *models.Visibility
	SourceID    *int64
	Facets      map[models.FacetKind][]int64
}

const contentColumns = "id, title, description, owner_id, visibility, source_id, file_hash, created_at"

// CreateContent stores a content item together with its facet links and
// media in a single transaction, and returns the new id.
func (d *Database) CreateContent(ctx context.Context, item *models.ContentItem) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_content", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &id, tx.Rebind(`
			INSERT INTO contents (title, description, owner_id, visibility, source_id, file_hash)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`),
			item.Title, item.Description, item.OwnerID, item.Visibility, item.SourceID, item.FileHash,
		); err != nil {
			return classify(err, "content")
		}

		for _, kind := range models.FacetKinds {
			if err := replaceFacets(ctx, tx, id, kind, item.FacetIDs(kind)); err != nil {
				return err
			}
		}

		if item.Media != nil {
			m := item.Media
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO media (content_id, kind, object_key, mime_type, size)
				VALUES (?, ?, ?, ?, ?)`),
				id, m.Kind, m.ObjectKey, m.MimeType, m.Size,
			); err != nil {
				return fmt.Errorf("store media: %w", classify(err, "media"))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateContent applies u to content id.
func (d *Database) UpdateContent(ctx context.Context, id int64, u ContentUpdate) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_content", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind("SELECT COUNT(*) FROM contents WHERE id = ?"), id); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("content %d: %w", id, ErrNotFound)
		}

		sets := []string{}
		args := []any{}
		if u.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *u.Title)
		}
		if u.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *u.Description)
		}
		if u.Visibility != nil {
			sets = append(sets, "visibility = ?")
			args = append(args, *u.Visibility)
		}
		if u.SourceID != nil {
			sets = append(sets, "source_id = ?")
			if *u.SourceID == 0 {
				args = append(args, nil)
			} else {
				args = append(args, *u.SourceID)
			}
		}
		if len(sets) > 0 {
			query := "UPDATE contents SET "
			for i, s := range sets {
				if i > 0 {
					query += ", "
				}
				query += s
			}
			query += " WHERE id = ?"
			args = append(args, id)
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return classify(err, fmt.Sprintf("content %d", id))
			}
		}

		for _, kind := range models.FacetKinds {
			ids, ok := u.Facets[kind]
			if !ok {
				continue
			}
			if err := replaceFacets(ctx, tx, id, kind, ids); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// DeleteContent removes a content item with its facet links, album
// memberships and media row. It returns the media object key, empty when
// the item had no media.
func (d *Database) DeleteContent(ctx context.Context, id int64) (string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_content", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var objectKey string
	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		var keys []string
		if err := tx.SelectContext(ctx, &keys, tx.Rebind("SELECT object_key FROM media WHERE content_id = ?"), id); err != nil {
			return err
		}
		if len(keys) > 0 {
			objectKey = keys[0]
		}

		for _, kind := range models.FacetKinds {
			if err := removeAllFacets(ctx, tx, id, kind); err != nil {
				return err
			}
		}
		for _, stmt := range []string{
			"DELETE FROM album_contents WHERE content_id = ?",
			"DELETE FROM media WHERE content_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM contents WHERE id = ?"), id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("content %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

// ContentsByID hydrates content items with their facet ids and media. Ids
// that do not exist are absent from the result.
func (d *Database) ContentsByID(ctx context.Context, ids []int64) (map[int64]models.ContentItem, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("contents_by_id", start, err) }()

	out := make(map[int64]models.ContentItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items, err := selectIn[models.ContentItem](ctx, d.db,
		"SELECT "+contentColumns+" FROM contents WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return out, nil
	}

	found := make([]int64, 0, len(items))
	for _, item := range items {
		found = append(found, item.ID)
	}

	links, err := facetsOf(ctx, d.db, found)
	if err != nil {
		return nil, err
	}

	media, err := selectIn[models.Media](ctx, d.db,
		"SELECT id, content_id, kind, object_key, mime_type, size FROM media WHERE content_id IN (?)", found)
	if err != nil {
		return nil, err
	}
	mediaByContent := make(map[int64]models.Media, len(media))
	for _, m := range media {
		mediaByContent[m.ContentID] = m
	}

	for _, item := range items {
		for _, kind := range models.FacetKinds {
			facetIDs := links[kind][item.ID]
			if facetIDs == nil {
				facetIDs = []int64{}
			}
			item.SetFacetIDs(kind, facetIDs)
		}
		if m, ok := mediaByContent[item.ID]; ok {
			item.Media = &m
		}
		out[item.ID] = item
	}
	return out, nil
}

// AccessInfo returns the owner and visibility of each existing id.
func (d *Database) AccessInfo(ctx context.Context, ids []int64) (map[int64]models.Ownership, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("access_info", start, err) }()

	out := make(map[int64]models.Ownership, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := selectIn[models.Ownership](ctx, d.db,
		"SELECT id, owner_id, visibility FROM contents WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	for _, o := range rows {
		out[o.ID] = o
	}
	return out, nil
}

// ContentOwnership returns the owner and visibility of one item.
func (d *Database) ContentOwnership(ctx context.Context, id int64) (models.Ownership, error) {
	info, err := d.AccessInfo(ctx, []int64{id})
	if err != nil {
		return models.Ownership{}, err
	}
	o, ok := info[id]
	if !ok {
		return models.Ownership{}, fmt.Errorf("content %d: %w", id, ErrNotFound)
	}
	return o, nil
}

// ContentIDsByOwner returns one page of a user's content ids, newest first,
// and the total number of items the user owns.
func (d *Database) ContentIDsByOwner(ctx context.Context, ownerID int64, page, pageSize int) ([]int64, pagination.Window, int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("content_ids_by_owner", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total int
	if err = d.db.GetContext(ctx, &total, d.db.Rebind("SELECT COUNT(*) FROM contents WHERE owner_id = ?"), ownerID); err != nil {
		return nil, pagination.Window{}, 0, err
	}

	w := pagination.Paginate(total, page, pageSize)
	ids := []int64{}
	err = d.db.SelectContext(ctx, &ids, d.db.Rebind(
		"SELECT id FROM contents WHERE owner_id = ? ORDER BY id DESC LIMIT ? OFFSET ?"), ownerID, w.Limit, w.Offset)
	if err != nil {
		return nil, pagination.Window{}, 0, err
	}
	return ids, w, total, nil
}
