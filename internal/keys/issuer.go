// ABOUTME: API key issuance, resolution, and revocation against the credential store
// ABOUTME: Issuance requires an existing project and a privileged user with the correct password

package keys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/store"
)

// Issuance errors. The service layer maps these to RPC status codes.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRoleForbidden   = errors.New("user role may not issue keys")
	ErrWrongPassword   = errors.New("incorrect password")
	ErrBadProjectRef   = errors.New("project identifier required")
)

// ProjectRef identifies a project by ID or by name. Exactly one field is
// consulted: a nonzero ID wins, otherwise a nonempty Name.
type ProjectRef struct {
	ID   int64
	Name string
}

// IssueParams carries the inputs for issuing a new API key.
type IssueParams struct {
	Project     ProjectRef
	Email       string
	Password    string
	Description string
	Environment string
}

// Issuer mints API keys, stores only their hash, and resolves presented keys
// back to their stored record.
type Issuer struct {
	store  store.CredentialStore
	logger *slog.Logger
}

// NewIssuer creates an Issuer backed by the given credential store.
func NewIssuer(s store.CredentialStore, logger *slog.Logger) *Issuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{
		store:  s,
		logger: logger.With("component", "keys"),
	}
}

// Issue mints a new API key for a project and environment after verifying
// the requesting user's password and role. The plaintext key is returned
// exactly once; only its hash is persisted.
func (i *Issuer) Issue(ctx context.Context, params IssueParams) (string, *store.ApiKey, error) {
	project, err := i.resolveProject(ctx, params.Project)
	if err != nil {
		return "", nil, err
	}

	user, err := i.store.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a comparison so a missing user costs as much as a bad password
			auth.DummyCompare(params.Password)
			return "", nil, ErrUserNotFound
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}

	if !user.Role.Privileged() {
		i.logger.Warn("key issuance denied", "reason", "role_forbidden", "role", user.Role, "project_id", project.ID)
		return "", nil, ErrRoleForbidden
	}

	if !auth.VerifyPassword(params.Password, user.PasswordHash) {
		i.logger.Warn("key issuance denied", "reason", "password_mismatch", "project_id", project.ID)
		return "", nil, ErrWrongPassword
	}

	plaintext, err := Generate()
	if err != nil {
		return "", nil, err
	}

	record := &store.ApiKey{
		Hash:        Hash(plaintext),
		ProjectID:   project.ID,
		Environment: params.Environment,
		Description: params.Description,
		IssuedAt:    time.Now().UTC(),
	}

	if err := i.store.InsertApiKey(ctx, record); err != nil {
		return "", nil, fmt.Errorf("storing api key: %w", err)
	}

	i.logger.Info("issued api key", "project_id", project.ID, "environment", record.Environment)
	return plaintext, record, nil
}

// Resolve re-derives the hash of a presented plaintext key and looks up its
// record. Returns store.ErrNotFound if no such key was ever issued or it has
// been revoked.
func (i *Issuer) Resolve(ctx context.Context, plaintextKey string) (*store.ApiKey, error) {
	return i.store.GetApiKeyByHash(ctx, Hash(plaintextKey))
}

// ResolveHash looks up a key record directly by its hash. Token validation
// uses this to confirm the key behind a token has not been revoked.
func (i *Issuer) ResolveHash(ctx context.Context, hash string) (*store.ApiKey, error) {
	return i.store.GetApiKeyByHash(ctx, hash)
}

// Revoke deletes the key record for the given hash. Outstanding tokens bound
// to the hash fail validation from this point on.
func (i *Issuer) Revoke(ctx context.Context, hash string) error {
	if err := i.store.DeleteApiKeyByHash(ctx, hash); err != nil {
		return err
	}
	i.logger.Info("revoked api key")
	return nil
}

func (i *Issuer) resolveProject(ctx context.Context, ref ProjectRef) (*store.Project, error) {
	var (
		project *store.Project
		err     error
	)
	switch {
	case ref.ID != 0:
		project, err = i.store.GetProject(ctx, ref.ID)
	case ref.Name != "":
		project, err = i.store.GetProjectByName(ctx, ref.Name)
	default:
		return nil, ErrBadProjectRef
	}

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("looking up project: %w", err)
	}
	return project, nil
}
