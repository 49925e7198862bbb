// ABOUTME: End-to-end scenario tests for the credential lifecycle using real SQLite
// ABOUTME: Issue key -> mint token -> validate -> revoke -> validate fails

package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/keys"
	"github.com/lumenbase/auth-service/internal/store"
)

var scenarioSecret = []byte("scenario-test-secret-32-bytes!!!")

// newScenarioEnv builds the full service stack on a real SQLite store in a
// temp directory, provisioned like a fresh deployment.
func newScenarioEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "auth.db")
	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	require.NoError(t, s.CreateUser(ctx, &store.User{
		Email:        "test@example.com",
		Name:         "Test-User",
		PasswordHash: hash,
		Role:         store.RoleSuperadmin,
	}))
	require.NoError(t, s.CreateProject(ctx, &store.Project{Name: "project"}))

	issuer := keys.NewIssuer(s, nil)
	codec, err := auth.NewTokenCodec(scenarioSecret, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		issuer:  issuer,
		codec:   codec,
		apiKeys: NewApiKeyService(issuer, nil),
		jwt:     NewJwtService(issuer, codec, nil),
		users:   NewUserAuthService(s, nil),
	}
}

func TestScenario_CredentialLifecycle(t *testing.T) {
	env := newScenarioEnv(t)
	ctx := context.Background()

	// 1. Issue a key for project "project" in environment "dev"
	issued, err := env.apiKeys.IssueApiKey(ctx, &IssueApiKeyRequest{
		Project:     ProjectIdentifier{Name: "project"},
		Email:       "test@example.com",
		Password:    "password123",
		Description: "Valid API key",
		Environment: "dev",
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.ApiKey)

	// 2. Exchange the key for a token
	created, err := env.jwt.CreateJwt(ctx, &CreateJwtRequest{ApiKey: issued.ApiKey})
	require.NoError(t, err)
	require.NotEmpty(t, created.Jwt)

	// 3. Validate the token
	validated, err := env.jwt.ValidateJwt(ctx, &ValidateJwtRequest{Jwt: created.Jwt})
	require.NoError(t, err)
	assert.True(t, validated.Valid)

	// 4. Revoke the key
	_, err = env.apiKeys.RevokeApiKey(ctx, &RevokeApiKeyRequest{Hash: keys.Hash(issued.ApiKey)})
	require.NoError(t, err)

	// 5. The same, still cryptographically valid token must now fail
	_, err = env.jwt.ValidateJwt(ctx, &ValidateJwtRequest{Jwt: created.Jwt})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestScenario_AuthenticateAgainstSQLite(t *testing.T) {
	env := newScenarioEnv(t)
	ctx := context.Background()

	resp, err := env.users.Authenticate(ctx, &AuthenticateUserRequest{
		Email:    "test@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Id)
	assert.Equal(t, "SUPERADMIN", resp.Role)

	_, err = env.users.Authenticate(ctx, &AuthenticateUserRequest{
		Email:    "test@example.com",
		Password: "notthepassword123",
	})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestScenario_ConcurrentValidation(t *testing.T) {
	env := newScenarioEnv(t)
	ctx := context.Background()

	issued, err := env.apiKeys.IssueApiKey(ctx, &IssueApiKeyRequest{
		Project:     ProjectIdentifier{Name: "project"},
		Email:       "test@example.com",
		Password:    "password123",
		Environment: "dev",
	})
	require.NoError(t, err)

	created, err := env.jwt.CreateJwt(ctx, &CreateJwtRequest{ApiKey: issued.ApiKey})
	require.NoError(t, err)

	// Validations share no in-process state and run fully in parallel
	const workers = 16
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := env.jwt.ValidateJwt(ctx, &ValidateJwtRequest{Jwt: created.Jwt})
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}
}
