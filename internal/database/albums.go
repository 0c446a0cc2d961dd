package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nyapix/internal/models"
	"nyapix/internal/pagination"
)

type membership struct {
	AlbumID   int64 `db:"album_id"`
	ContentID int64 `db:"content_id"`
}

const albumColumns = "id, owner_id, title, description, created_at"

// CreateAlbum stores a new, empty album.
func (d *Database) CreateAlbum(ctx context.Context, ownerID int64, title, description string) (*models.Album, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_album", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.GetContext(ctx, &id, d.db.Rebind(
		"INSERT INTO albums (owner_id, title, description) VALUES (?, ?, ?) RETURNING id"),
		ownerID, title, description)
	if err != nil {
		err = classify(err, "album")
		return nil, err
	}
	return d.GetAlbum(ctx, id)
}

// GetAlbum retrieves album metadata.
func (d *Database) GetAlbum(ctx context.Context, id int64) (*models.Album, error) {
	albums, err := d.AlbumsByID(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	a, ok := albums[id]
	if !ok {
		return nil, fmt.Errorf("album %d: %w", id, ErrNotFound)
	}
	return &a, nil
}

// AlbumsByID loads album metadata. Missing ids are absent from the result.
func (d *Database) AlbumsByID(ctx context.Context, ids []int64) (map[int64]models.Album, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("albums_by_id", start, err) }()

	out := make(map[int64]models.Album, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	albums, err := selectIn[models.Album](ctx, d.db, "SELECT "+albumColumns+" FROM albums WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	for _, a := range albums {
		out[a.ID] = a
	}
	return out, nil
}

// UpdateAlbum changes an album's title and/or description.
func (d *Database) UpdateAlbum(ctx context.Context, id int64, title, description *string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_album", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind(`
		UPDATE albums SET
			title = COALESCE(?, title),
			description = COALESCE(?, description)
		WHERE id = ?`), title, description, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("album %d: %w", id, ErrNotFound)
		return err
	}
	return nil
}

// DeleteAlbum removes an album and its memberships. Its contents are kept.
func (d *Database) DeleteAlbum(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_album", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM album_contents WHERE album_id = ?"), id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM albums WHERE id = ?"), id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("album %d: %w", id, ErrNotFound)
		}
		return nil
	})
	return err
}

// AddContentToAlbum adds contentID to albumID. It returns false when the
// content was already in the album.
func (d *Database) AddContentToAlbum(ctx context.Context, albumID, contentID int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_content_to_album", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind(
		"INSERT INTO album_contents (album_id, content_id) VALUES (?, ?) ON CONFLICT DO NOTHING"), albumID, contentID)
	if err != nil {
		err = classify(err, fmt.Sprintf("album %d content %d", albumID, contentID))
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// RemoveContentFromAlbum removes contentID from albumID. It returns false
// when the content was not in the album.
func (d *Database) RemoveContentFromAlbum(ctx context.Context, albumID, contentID int64) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_content_from_album", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind(
		"DELETE FROM album_contents WHERE album_id = ? AND content_id = ?"), albumID, contentID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// AlbumContentIDs lists the content in an album, most recently added first.
func (d *Database) AlbumContentIDs(ctx context.Context, albumID int64) ([]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("album_content_ids", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := []int64{}
	err = d.db.SelectContext(ctx, &ids, d.db.Rebind(
		"SELECT content_id FROM album_contents WHERE album_id = ? ORDER BY added_at DESC, content_id DESC"), albumID)
	return ids, err
}

// AlbumIDsForContents maps each content id to the albums containing it.
// Content in no album is absent from the result.
func (d *Database) AlbumIDsForContents(ctx context.Context, ids []int64) (map[int64][]int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("album_ids_for_contents", start, err) }()

	out := make(map[int64][]int64)
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := selectIn[membership](ctx, d.db,
		"SELECT album_id, content_id FROM album_contents WHERE content_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ContentID] = append(out[m.ContentID], m.AlbumID)
	}
	return out, nil
}

// AlbumsOwnedBy returns one page of a user's albums, newest first.
func (d *Database) AlbumsOwnedBy(ctx context.Context, ownerID int64, page, pageSize int) (*models.AlbumListPage, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("albums_owned_by", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total int
	if err = d.db.GetContext(ctx, &total, d.db.Rebind("SELECT COUNT(*) FROM albums WHERE owner_id = ?"), ownerID); err != nil {
		return nil, err
	}

	w := pagination.Paginate(total, page, pageSize)
	albums := []models.Album{}
	err = d.db.SelectContext(ctx, &albums, d.db.Rebind(
		"SELECT "+albumColumns+" FROM albums WHERE owner_id = ? ORDER BY id DESC LIMIT ? OFFSET ?"),
		ownerID, w.Limit, w.Offset)
	if err != nil {
		return nil, err
	}

	return &models.AlbumListPage{
		Albums:     albums,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: w.TotalPages,
		Total:      total,
	}, nil
}
