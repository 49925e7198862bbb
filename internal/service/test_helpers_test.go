// ABOUTME: Shared fixtures for service tests
// ABOUTME: Seeds a mock store with the standard project and privileged/unprivileged users

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/keys"
	"github.com/lumenbase/auth-service/internal/store"
)

var serviceTestSecret = []byte("service-test-secret-32-bytes!!!!")

type testEnv struct {
	store   *store.MockStore
	issuer  *keys.Issuer
	codec   *auth.TokenCodec
	apiKeys *ApiKeyService
	jwt     *JwtService
	users   *UserAuthService
}

func newTestEnv(t *testing.T) *testEnv {
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
	require.NoError(t, m.CreateProject(ctx, &store.Project{Name: "project"}))

	issuer := keys.NewIssuer(m, nil)
	codec, err := auth.NewTokenCodec(serviceTestSecret, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:   m,
		issuer:  issuer,
		codec:   codec,
		apiKeys: NewApiKeyService(issuer, nil),
		jwt:     NewJwtService(issuer, codec, nil),
		users:   NewUserAuthService(m, nil),
	}
}

func validIssueRequest() *IssueApiKeyRequest {
	return &IssueApiKeyRequest{
		Project:     ProjectIdentifier{Name: "project"},
		Email:       "test@example.com",
		Password:    "password123",
		Description: "Valid API key",
		Environment: "dev",
	}
}
