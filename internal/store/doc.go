// Package store provides durable credential storage for auth-service using SQLite.
//
// # Architecture
//
// The package exposes a single CredentialStore interface consumed by the
// credential services. SQLiteStore is the production implementation and
// MockStore is an in-memory implementation for unit tests. Services never
// embed storage; they take a CredentialStore in their constructor.
//
// # Data Models
//
//   - User: account with unique email, bcrypt password hash, and role
//     (SUPERADMIN, ADMIN, USER)
//   - Project: tenant project that API keys are scoped to
//   - ApiKey: issued key record keyed by the SHA-256 hash of the plaintext
//     key; the plaintext is never persisted
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
// Absent records surface as ErrNotFound, never as a nil result or a panic.
// API key inserts are insert-if-absent: the hash column is the primary key
// and a duplicate insert returns ErrDuplicateKey rather than overwriting.
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests and NewSQLiteStore in a temp directory
// for integration tests with real SQLite.
package store
