// ABOUTME: Tests for ApiKeyService issue and revoke handlers
// ABOUTME: Asserts status codes for valid and invalid issuance requests

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/keys"
)

func TestIssueApiKey_Success(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.apiKeys.IssueApiKey(context.Background(), validIssueRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Len(t, resp.ApiKey, 64)

	// The returned plaintext resolves against the store by hash
	record, err := env.issuer.Resolve(context.Background(), resp.ApiKey)
	require.NoError(t, err)
	assert.Equal(t, keys.Hash(resp.ApiKey), record.Hash)
}

func TestIssueApiKey_ByProjectID(t *testing.T) {
	env := newTestEnv(t)

	req := validIssueRequest()
	req.Project = ProjectIdentifier{Id: 1}

	resp, err := env.apiKeys.IssueApiKey(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ApiKey)
}

func TestIssueApiKey_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*IssueApiKeyRequest)
		wantCode codes.Code
	}{
		{
			name:     "unknown project",
			mutate:   func(r *IssueApiKeyRequest) { r.Project.Name = "missing" },
			wantCode: codes.NotFound,
		},
		{
			name:     "unknown user",
			mutate:   func(r *IssueApiKeyRequest) { r.Email = "ghost@example.com" },
			wantCode: codes.NotFound,
		},
		{
			name:     "invalid master password",
			mutate:   func(r *IssueApiKeyRequest) { r.Password = "notthepassword123" },
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "unprivileged user",
			mutate:   func(r *IssueApiKeyRequest) { r.Email = "test2@example.com" },
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "missing project identifier",
			mutate:   func(r *IssueApiKeyRequest) { r.Project = ProjectIdentifier{} },
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "missing email",
			mutate:   func(r *IssueApiKeyRequest) { r.Email = "" },
			wantCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			req := validIssueRequest()
			tt.mutate(req)

			_, err := env.apiKeys.IssueApiKey(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestIssueApiKey_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.store.FailWith = errors.New("connection refused")

	_, err := env.apiKeys.IssueApiKey(context.Background(), validIssueRequest())
	require.Error(t, err)

	// An unreachable store is retryable, not an authorization verdict
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestRevokeApiKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.apiKeys.IssueApiKey(ctx, validIssueRequest())
	require.NoError(t, err)

	hash := keys.Hash(resp.ApiKey)
	_, err = env.apiKeys.RevokeApiKey(ctx, &RevokeApiKeyRequest{Hash: hash})
	require.NoError(t, err)

	_, err = env.issuer.ResolveHash(ctx, hash)
	assert.Error(t, err)

	_, err = env.apiKeys.RevokeApiKey(ctx, &RevokeApiKeyRequest{Hash: hash})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.apiKeys.RevokeApiKey(ctx, &RevokeApiKeyRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
