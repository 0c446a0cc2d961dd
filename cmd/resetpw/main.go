package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"nyapix/internal/database"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
	minPasswordLength  = 8
	// bcrypt ignores bytes past 72
	maxPasswordLength = 72
)

// readPassword reads a line from the terminal without echo.
var readPassword = term.ReadPassword

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	cfg := databaseConfig()
	db, err := database.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		if cfg.Driver == database.DriverSQLite {
			fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", filepath.Dir(cfg.Path))
		}
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "reset":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: reset needs a username")
			printUsage()
			os.Exit(1)
		}
		if !resetPassword(ctx, db, os.Args[2]) {
			os.Exit(1)
		}
	case "status":
		if err := showStatus(ctx, db, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		os.Exit(1)
	}
}

// databaseConfig reads the same database variables as the server.
func databaseConfig() database.Config {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = database.DriverSQLite
	}
	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	return database.Config{
		Driver: driver,
		Path:   filepath.Join(databaseDir, "nyapix.db"),
		URL:    os.Getenv("DATABASE_URL"),
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Nyapix Account Management")
	fmt.Println("")
	fmt.Println("Usage: resetpw <command> [username]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  reset <username>  - Set a new password for an account")
	fmt.Println("  status            - Show how many accounts exist")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  DATABASE_DRIVER - sqlite3 or pgx (default: sqlite3)")
	fmt.Printf("  DATABASE_DIR    - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Println("  DATABASE_URL    - PostgreSQL connection string for pgx")
}

// validatePassword checks a new password and its confirmation.
func validatePassword(password, confirm []byte) error {
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	}
	return nil
}

func resetPassword(ctx context.Context, db *database.Database, username string) bool {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Check if user exists
	if _, err := db.GetUserByUsername(ctx, username); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Error: No account named %q\n", username)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return false
	}

	fmt.Print("New Password: ")
	password, err := readPassword(int(syscall.Stdin)) //nolint:unconvert // syscall.Stdin is not an int on every platform
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := readPassword(int(syscall.Stdin)) //nolint:unconvert // syscall.Stdin is not an int on every platform
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return false
	}

	if err := validatePassword(password, confirm); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	if err := db.UpdatePassword(ctx, username, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to update password: %v\n", err)
		return false
	}

	fmt.Printf("Password for %s updated successfully.\n", username)
	fmt.Println("Tokens issued before the change stay valid until they expire.")
	return true
}

func showStatus(ctx context.Context, db *database.Database, out io.Writer) error {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := db.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(out, "Status: No accounts (the admin account is created on first start)")
		return nil
	}
	fmt.Fprintf(out, "Status: %d account(s) configured\n", n)
	return nil
}
