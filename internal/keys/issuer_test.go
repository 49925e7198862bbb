// ABOUTME: Tests for API key issuance, resolution, and revocation
// ABOUTME: Uses the in-memory mock store with provisioned users and projects

package keys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/store"
)

type issuerFixture struct {
	store   *store.MockStore
	issuer  *Issuer
	project *store.Project
}

func newIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()
	ctx := context.Background()
	m := store.NewMockStore()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	require.NoError(t, m.CreateUser(ctx, &store.User{
		Email:        "test@example.com",
		Name:         "Test-User",
		PasswordHash: hash,
		Role:         store.RoleSuperadmin,
	}))
	require.NoError(t, m.CreateUser(ctx, &store.User{
		Email:        "test2@example.com",
		Name:         "Test-User",
		PasswordHash: hash,
		Role:         store.RoleUser,
	}))

	project := &store.Project{Name: "project"}
	require.NoError(t, m.CreateProject(ctx, project))

	return &issuerFixture{
		store:   m,
		issuer:  NewIssuer(m, nil),
		project: project,
	}
}

func validParams() IssueParams {
	return IssueParams{
		Project:     ProjectRef{Name: "project"},
		Email:       "test@example.com",
		Password:    "password123",
		Description: "Valid API key",
		Environment: "dev",
	}
}

func TestIssue_Success(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	plaintext, record, err := f.issuer.Issue(ctx, validParams())
	require.NoError(t, err)

	assert.Len(t, plaintext, 64)
	assert.Equal(t, Hash(plaintext), record.Hash)
	assert.Equal(t, f.project.ID, record.ProjectID)
	assert.Equal(t, "dev", record.Environment)
	assert.Equal(t, "Valid API key", record.Description)
	assert.False(t, record.IssuedAt.IsZero())

	// Only the hash is persisted, and it resolves immediately
	stored, err := f.store.GetApiKeyByHash(ctx, record.Hash)
	require.NoError(t, err)
	assert.Equal(t, record.Hash, stored.Hash)
}

func TestIssue_ByProjectID(t *testing.T) {
	f := newIssuerFixture(t)

	params := validParams()
	params.Project = ProjectRef{ID: f.project.ID}

	_, record, err := f.issuer.Issue(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, f.project.ID, record.ProjectID)
}

func TestIssue_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*IssueParams)
		wantErr error
	}{
		{
			name:    "unknown project",
			mutate:  func(p *IssueParams) { p.Project = ProjectRef{Name: "nope"} },
			wantErr: ErrProjectNotFound,
		},
		{
			name:    "unknown project id",
			mutate:  func(p *IssueParams) { p.Project = ProjectRef{ID: 404} },
			wantErr: ErrProjectNotFound,
		},
		{
			name:    "missing project ref",
			mutate:  func(p *IssueParams) { p.Project = ProjectRef{} },
			wantErr: ErrBadProjectRef,
		},
		{
			name:    "unknown user",
			mutate:  func(p *IssueParams) { p.Email = "ghost@example.com" },
			wantErr: ErrUserNotFound,
		},
		{
			name:    "wrong master password",
			mutate:  func(p *IssueParams) { p.Password = "notthepassword123" },
			wantErr: ErrWrongPassword,
		},
		{
			name:    "unprivileged user with correct password",
			mutate:  func(p *IssueParams) { p.Email = "test2@example.com" },
			wantErr: ErrRoleForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuerFixture(t)

			params := validParams()
			tt.mutate(&params)

			_, _, err := f.issuer.Issue(context.Background(), params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	plaintext, record, err := f.issuer.Issue(ctx, validParams())
	require.NoError(t, err)

	got, err := f.issuer.Resolve(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, record.Hash, got.Hash)

	byHash, err := f.issuer.ResolveHash(ctx, record.Hash)
	require.NoError(t, err)
	assert.Equal(t, record.Hash, byHash.Hash)

	_, err = f.issuer.Resolve(ctx, "non-existent apiKey")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRevoke(t *testing.T) {
	f := newIssuerFixture(t)
	ctx := context.Background()

	plaintext, record, err := f.issuer.Issue(ctx, validParams())
	require.NoError(t, err)

	require.NoError(t, f.issuer.Revoke(ctx, record.Hash))

	_, err = f.issuer.Resolve(ctx, plaintext)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.issuer.ResolveHash(ctx, record.Hash)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, f.issuer.Revoke(ctx, record.Hash), store.ErrNotFound)
}
