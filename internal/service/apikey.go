// ABOUTME: ApiKeyService RPC handlers for issuing and revoking API keys
// ABOUTME: Maps issuance failures to NotFound/PermissionDenied status codes

package service

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/keys"
	"github.com/lumenbase/auth-service/internal/store"
)

// ApiKeyService implements the API key RPC operations.
type ApiKeyService struct {
	issuer *keys.Issuer
	logger *slog.Logger
}

// NewApiKeyService creates an ApiKeyService using the given issuer.
func NewApiKeyService(issuer *keys.Issuer, logger *slog.Logger) *ApiKeyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApiKeyService{
		issuer: issuer,
		logger: logger.With("component", "apikey_service"),
	}
}

// IssueApiKey mints a new API key for a project and environment. The caller
// must present the email and password of an ADMIN or SUPERADMIN user.
func (s *ApiKeyService) IssueApiKey(ctx context.Context, req *IssueApiKeyRequest) (*IssueApiKeyResponse, error) {
	if req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "email required")
	}

	plaintext, _, err := s.issuer.Issue(ctx, keys.IssueParams{
		Project:     keys.ProjectRef{ID: req.Project.Id, Name: req.Project.Name},
		Email:       req.Email,
		Password:    req.Password,
		Description: req.Description,
		Environment: req.Environment,
	})
	if err != nil {
		return nil, issueError(err)
	}

	return &IssueApiKeyResponse{ApiKey: plaintext}, nil
}

// RevokeApiKey deletes an issued key by hash. Tokens bound to the hash fail
// validation from this point on.
func (s *ApiKeyService) RevokeApiKey(ctx context.Context, req *RevokeApiKeyRequest) (*RevokeApiKeyResponse, error) {
	if req.Hash == "" {
		return nil, status.Error(codes.InvalidArgument, "hash required")
	}

	if err := s.issuer.Revoke(ctx, req.Hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "API key not found")
		}
		return nil, storeUnavailable(s.logger, "RevokeApiKey", err)
	}

	return &RevokeApiKeyResponse{}, nil
}

// issueError converts issuer failures to status errors. Not-found and
// permission-denied stay distinct kinds; messages never say more than the
// coarse kind.
func issueError(err error) error {
	switch {
	case errors.Is(err, keys.ErrBadProjectRef):
		return status.Error(codes.InvalidArgument, "project id or name required")
	case errors.Is(err, keys.ErrProjectNotFound):
		return status.Error(codes.NotFound, "Project not found")
	case errors.Is(err, keys.ErrUserNotFound):
		return status.Error(codes.NotFound, "No user found for email")
	case errors.Is(err, keys.ErrRoleForbidden):
		return status.Error(codes.PermissionDenied, "User is not authorized to issue API keys")
	case errors.Is(err, keys.ErrWrongPassword):
		return status.Error(codes.PermissionDenied, "Incorrect password")
	case errors.Is(err, store.ErrDuplicateKey):
		// Near-impossible at 256 bits of entropy; surfaced rather than retried
		return status.Error(codes.AlreadyExists, "key collision, retry the request")
	default:
		return status.Error(codes.Unavailable, "credential store unavailable")
	}
}
