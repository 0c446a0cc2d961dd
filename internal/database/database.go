package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"nyapix/internal/logging"
	"nyapix/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// maxBatch bounds the number of ids bound into a single IN (...) clause.
const maxBatch = 500

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	// ErrInvalidReference is returned when a write names a facet, source,
	// user or content item that does not exist.
	ErrInvalidReference = errors.New("invalid reference")
)

// Config selects and locates the backing database.
type Config struct {
	Driver string // DriverSQLite or DriverPostgres
	Path   string // SQLite database file
	URL    string // PostgreSQL connection string
}

// Database manages all catalogue storage.
type Database struct {
	db     *sqlx.DB
	driver string
	// mu serializes writers; SQLite allows a single writer at a time.
	mu sync.Mutex
}

// New opens the database described by cfg and applies pending migrations.
// For SQLite, cfg.Path must be the database FILE and its parent directory
// must already exist and be writable.
func New(ctx context.Context, cfg Config) (*Database, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var dsn string
	switch driver {
	case DriverSQLite:
		logging.Info("Database path: %s", cfg.Path)
		if err := diagnoseDatabasePermissions(cfg.Path); err != nil {
			logging.Warn("Database permission diagnostics: %v", err)
		}
		// busy_timeout helps prevent "database is locked" errors
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1", cfg.Path)
	case DriverPostgres:
		if cfg.URL == "" {
			return nil, errors.New("database URL is required for the pgx driver")
		}
		dsn = cfg.URL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{db: db, driver: driver}

	if err := d.migrate(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after migration failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	logging.Info("Database initialized successfully (%s)", driver)
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Driver returns the name of the SQL driver in use.
func (d *Database) Driver() string {
	return d.driver
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (d *Database) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	start := time.Now()

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(start).Seconds())
		return fmt.Errorf("commit transaction: %w", err)
	}
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(start).Seconds())
	return nil
}

// selectIn runs query once per chunk of ids, binding the chunk to its single
// IN (?) placeholder, and appends the rows to dest.
func selectIn[T any](ctx context.Context, q sqlx.QueryerContext, query string, ids []int64, args ...any) ([]T, error) {
	var out []T
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))

		bound, bargs, err := sqlx.In(query, append([]any{ids[start:end]}, args...)...)
		if err != nil {
			return nil, err
		}

		var rows []T
		if err := sqlx.SelectContext(ctx, q, &rows, sqlx.Rebind(sqlx.BindType(driverName(q)), bound), bargs...); err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func driverName(q sqlx.QueryerContext) string {
	if dn, ok := q.(interface{ DriverName() string }); ok {
		return dn.DriverName()
	}
	return DriverSQLite
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return err
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
			if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
				logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
			} else {
				logging.Info("Fixed permissions on %s", path)
			}
		}
	}

	return nil
}
