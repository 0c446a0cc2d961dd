package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nyapix/internal/models"
)

// ListSources returns every source ordered by name.
func (d *Database) ListSources(ctx context.Context) ([]models.Source, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_sources", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sources := []models.Source{}
	err = d.db.SelectContext(ctx, &sources, "SELECT id, name, created_at FROM sources ORDER BY name")
	return sources, err
}

// GetSource retrieves a source by id.
func (d *Database) GetSource(ctx context.Context, id int64) (*models.Source, error) {
	return d.getSource(ctx, "id", id)
}

// GetSourceByName retrieves a source by name.
func (d *Database) GetSourceByName(ctx context.Context, name string) (*models.Source, error) {
	return d.getSource(ctx, "name", name)
}

func (d *Database) getSource(ctx context.Context, column string, value any) (*models.Source, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_source", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s models.Source
	err = d.db.GetContext(ctx, &s, d.db.Rebind("SELECT id, name, created_at FROM sources WHERE "+column+" = ?"), value)
	if err != nil {
		err = notFound(err, "source", value)
		return nil, err
	}
	return &s, nil
}

// CreateSource stores a new source.
func (d *Database) CreateSource(ctx context.Context, name string) (*models.Source, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_source", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.GetContext(ctx, &id, d.db.Rebind("INSERT INTO sources (name) VALUES (?) RETURNING id"), name)
	if err != nil {
		err = classify(err, fmt.Sprintf("source %q", name))
		return nil, err
	}
	return d.GetSource(ctx, id)
}

// RenameSource changes a source's name.
func (d *Database) RenameSource(ctx context.Context, id int64, name string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("rename_source", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind("UPDATE sources SET name = ? WHERE id = ?"), name, id)
	if err != nil {
		err = classify(err, fmt.Sprintf("source %q", name))
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("source %d: %w", id, ErrNotFound)
		return err
	}
	return nil
}

// DeleteSource removes a source. Content that referenced it keeps no source.
func (d *Database) DeleteSource(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_source", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE contents SET source_id = NULL WHERE source_id = ?"), id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM sources WHERE id = ?"), id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("source %d: %w", id, ErrNotFound)
		}
		return nil
	})
	return err
}
