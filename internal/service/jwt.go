// ABOUTME: JwtService RPC handlers for exchanging API keys for tokens and validating them
// ABOUTME: Validation re-checks the store so revoking a key kills its outstanding tokens

package service

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/keys"
	"github.com/lumenbase/auth-service/internal/store"
)

// JwtService implements the token RPC operations.
type JwtService struct {
	issuer *keys.Issuer
	codec  *auth.TokenCodec
	logger *slog.Logger
}

// NewJwtService creates a JwtService from the issuer and token codec.
func NewJwtService(issuer *keys.Issuer, codec *auth.TokenCodec, logger *slog.Logger) *JwtService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JwtService{
		issuer: issuer,
		codec:  codec,
		logger: logger.With("component", "jwt_service"),
	}
}

// CreateJwt exchanges a plaintext API key for a signed token. The token
// binds to the key's hash, never the raw key.
func (s *JwtService) CreateJwt(ctx context.Context, req *CreateJwtRequest) (*CreateJwtResponse, error) {
	if req.ApiKey == "" {
		return nil, status.Error(codes.InvalidArgument, "api key required")
	}

	record, err := s.issuer.Resolve(ctx, req.ApiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "API key not found")
		}
		return nil, storeUnavailable(s.logger, "CreateJwt", err)
	}

	token, err := s.codec.Mint(record.Hash)
	if err != nil {
		s.logger.Error("failed to mint token", "error", err)
		return nil, status.Error(codes.Internal, "failed to mint token")
	}

	return &CreateJwtResponse{Jwt: token}, nil
}

// ValidateJwt checks a token's signature and expiry, then re-resolves the
// embedded key hash against the store. Signature validity alone is not
// sufficient: a token for a revoked key fails here.
func (s *JwtService) ValidateJwt(ctx context.Context, req *ValidateJwtRequest) (*ValidateJwtResponse, error) {
	if req.Jwt == "" {
		return nil, status.Error(codes.Unauthenticated, "token required")
	}

	hash, err := s.codec.Verify(req.Jwt)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			s.logger.Warn("token validation failed", "reason", "expired")
			return nil, status.Error(codes.Unauthenticated, "token expired")
		default:
			s.logger.Warn("token validation failed", "reason", "invalid")
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
	}

	if _, err := s.issuer.ResolveHash(ctx, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("token validation failed", "reason", "key_revoked_or_unknown")
			return nil, status.Error(codes.Unauthenticated, "API key revoked or unknown")
		}
		return nil, storeUnavailable(s.logger, "ValidateJwt", err)
	}

	return &ValidateJwtResponse{Valid: true}, nil
}
