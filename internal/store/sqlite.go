// ABOUTME: SQLite implementation of the CredentialStore interface using modernc.org/sqlite
// ABOUTME: Provides user/project/api-key persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the CredentialStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS api_keys (
			hash TEXT PRIMARY KEY,
			project_id INTEGER NOT NULL REFERENCES projects(id),
			environment TEXT NOT NULL,
			description TEXT NOT NULL,
			issued_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_api_keys_project ON api_keys(project_id, environment);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and assigns its ID.
// Returns ErrEmailExists if the email is already in use.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (email, name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	user.ID = id

	s.logger.Debug("created user", "id", user.ID, "email", user.Email, "role", user.Role)
	return nil
}

// GetUserByEmail retrieves a user by email.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, password_hash, role, created_at
		FROM users
		WHERE email = ?
	`

	var user User
	var role, createdAt string

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Role = Role(role)
	user.CreatedAt = parseStoredTime(s.logger, "user created_at", user.Email, createdAt)
	return &user, nil
}

// UpdateUserPassword replaces a user's password hash.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProject inserts a new project and assigns its ID.
// Returns ErrProjectExists if the name is already taken.
func (s *SQLiteStore) CreateProject(ctx context.Context, project *Project) error {
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, created_at) VALUES (?, ?)`,
		project.Name,
		project.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrProjectExists
		}
		return fmt.Errorf("inserting project: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading project id: %w", err)
	}
	project.ID = id

	s.logger.Debug("created project", "id", project.ID, "name", project.Name)
	return nil
}

// GetProject retrieves a project by ID.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (*Project, error) {
	return s.queryProject(ctx, `SELECT id, name, created_at FROM projects WHERE id = ?`, id)
}

// GetProjectByName retrieves a project by its unique name.
// Returns ErrNotFound if the project doesn't exist.
func (s *SQLiteStore) GetProjectByName(ctx context.Context, name string) (*Project, error) {
	return s.queryProject(ctx, `SELECT id, name, created_at FROM projects WHERE name = ?`, name)
}

func (s *SQLiteStore) queryProject(ctx context.Context, query string, arg any) (*Project, error) {
	var project Project
	var createdAt string

	err := s.db.QueryRowContext(ctx, query, arg).Scan(&project.ID, &project.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}

	project.CreatedAt = parseStoredTime(s.logger, "project created_at", project.Name, createdAt)
	return &project, nil
}

// InsertApiKey stores a new API key record keyed by its hash.
// The hash is the primary key, so a duplicate insert fails with
// ErrDuplicateKey instead of silently overwriting.
func (s *SQLiteStore) InsertApiKey(ctx context.Context, key *ApiKey) error {
	if key.IssuedAt.IsZero() {
		key.IssuedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO api_keys (hash, project_id, environment, description, issued_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		key.Hash,
		key.ProjectID,
		key.Environment,
		key.Description,
		key.IssuedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting api key: %w", err)
	}

	s.logger.Debug("stored api key", "project_id", key.ProjectID, "environment", key.Environment)
	return nil
}

// GetApiKeyByHash retrieves an API key record by its hash.
// Returns ErrNotFound if no key with that hash exists.
func (s *SQLiteStore) GetApiKeyByHash(ctx context.Context, hash string) (*ApiKey, error) {
	query := `
		SELECT hash, project_id, environment, description, issued_at
		FROM api_keys
		WHERE hash = ?
	`

	var key ApiKey
	var issuedAt string

	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&key.Hash,
		&key.ProjectID,
		&key.Environment,
		&key.Description,
		&issuedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}

	key.IssuedAt = parseStoredTime(s.logger, "api key issued_at", key.Hash, issuedAt)
	return &key, nil
}

// DeleteApiKeyByHash removes an API key record.
// Returns ErrNotFound if no key with that hash exists.
func (s *SQLiteStore) DeleteApiKeyByHash(ctx context.Context, hash string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	s.logger.Debug("revoked api key")
	return nil
}

// isConstraintViolation checks if an error is a SQLite constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// parseStoredTime parses an RFC3339 timestamp column, logging instead of
// failing on corrupt values.
func parseStoredTime(logger *slog.Logger, field, id, value string) time.Time {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		logger.Warn("failed to parse stored timestamp", "field", field, "record", id, "error", err)
		return time.Time{}
	}
	return parsed
}

// Ensure SQLiteStore implements CredentialStore.
var _ CredentialStore = (*SQLiteStore)(nil)
