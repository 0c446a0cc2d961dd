package database

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"nyapix/internal/logging"
	"nyapix/internal/models"
)

// ErrInvalidCredentials is returned when a username/password pair does not
// match a user.
var ErrInvalidCredentials = errors.New("invalid username or password")

const userColumns = "id, username, nickname, password_hash, role, created_at"

// generatedPasswordLength is the length of passwords produced for bootstrap
// accounts.
const generatedPasswordLength = 25

// CreateUser stores a new user with a bcrypt-hashed password.
func (d *Database) CreateUser(ctx context.Context, username, nickname, password string, role models.Role) (*models.User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id int64
	err = d.db.GetContext(ctx, &id, d.db.Rebind(
		"INSERT INTO users (username, nickname, password_hash, role) VALUES (?, ?, ?, ?) RETURNING id"),
		username, nickname, string(hash), role)
	if err != nil {
		err = classify(err, fmt.Sprintf("user %q", username))
		return nil, err
	}
	return d.GetUser(ctx, id)
}

// GetUser retrieves a user by id.
func (d *Database) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return d.getUser(ctx, "id", id)
}

// GetUserByUsername retrieves a user by username.
func (d *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return d.getUser(ctx, "username", username)
}

func (d *Database) getUser(ctx context.Context, column string, value any) (*models.User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_user", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u models.User
	err = d.db.GetContext(ctx, &u, d.db.Rebind("SELECT "+userColumns+" FROM users WHERE "+column+" = ?"), value)
	if err != nil {
		err = notFound(err, "user", value)
		return nil, err
	}
	return &u, nil
}

// ValidatePassword checks the password and returns the user if valid.
func (d *Database) ValidatePassword(ctx context.Context, username, password string) (*models.User, error) {
	user, err := d.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpdatePassword sets a new password for username.
func (d *Database) UpdatePassword(ctx context.Context, username, newPassword string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_password", start, err) }()

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx, d.db.Rebind(
		"UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE username = ?"),
		string(hash), username)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("user %q: %w", username, ErrNotFound)
		return err
	}
	return nil
}

// CountUsers returns the number of user accounts.
func (d *Database) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := d.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM users")
	return n, err
}

// EnsureAdmin creates the admin account when it does not exist yet. The
// generated password is returned only when the account was created.
func (d *Database) EnsureAdmin(ctx context.Context, username string) (string, bool, error) {
	_, err := d.GetUserByUsername(ctx, username)
	if err == nil {
		return "", false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}

	password, err := GeneratePassword(generatedPasswordLength)
	if err != nil {
		return "", false, err
	}
	if _, err := d.CreateUser(ctx, username, username, password, models.RoleAdmin); err != nil {
		return "", false, err
	}

	logging.Info("Created admin account %q", username)
	return password, true, nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePassword returns a random alphanumeric password of length n.
func GeneratePassword(n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
