// ABOUTME: CredentialStore interface and data types for auth-service persistence
// ABOUTME: Defines User, Project, ApiKey records and the store operations the services consume

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateKey is returned when inserting an API key whose hash already exists
var ErrDuplicateKey = errors.New("api key already exists")

// ErrEmailExists is returned when creating a user with an email already in use
var ErrEmailExists = errors.New("email already exists")

// ErrProjectExists is returned when creating a project whose name already exists
var ErrProjectExists = errors.New("project already exists")

// Role is the access level assigned to a user account.
type Role string

const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// Privileged reports whether the role is allowed to issue API keys.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is an account record. PasswordHash is a bcrypt hash and is never
// returned to callers of the RPC surface.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Project is a tenant project that API keys are scoped to.
type Project struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// ApiKey is the persisted record of an issued API key. Only the SHA-256 hash
// of the plaintext key is stored; the plaintext is returned to the caller once
// at issuance and cannot be recovered afterwards.
type ApiKey struct {
	Hash        string
	ProjectID   int64
	Environment string
	Description string
	IssuedAt    time.Time
}

// CredentialStore defines the persistence operations the credential services
// depend on. Implementations return ErrNotFound for absent records rather
// than an error per lookup, and must provide insert-if-absent semantics for
// API keys: a hash collision surfaces as ErrDuplicateKey, never an overwrite.
type CredentialStore interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	// Projects
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id int64) (*Project, error)
	GetProjectByName(ctx context.Context, name string) (*Project, error)

	// API keys
	InsertApiKey(ctx context.Context, key *ApiKey) error
	GetApiKeyByHash(ctx context.Context, hash string) (*ApiKey, error)
	DeleteApiKeyByHash(ctx context.Context, hash string) error

	Close() error
}
