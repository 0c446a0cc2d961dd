package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"

	"nyapix/internal/logging"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// migrate applies every pending migration for the active dialect.
func (d *Database) migrate(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("migrate", start, err) }()

	dialect, dir := goose.DialectSQLite3, "migrations/sqlite"
	if d.driver == DriverPostgres {
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, d.db.DB, fsys)
	if err != nil {
		err = fmt.Errorf("create migration provider: %w", err)
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		err = fmt.Errorf("apply migrations: %w", err)
		return err
	}
	for _, r := range results {
		logging.Info("Applied migration %s (%v)", r.Source.Path, r.Duration)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return err
	}
	logging.Debug("Database schema at version %d", version)
	return nil
}
