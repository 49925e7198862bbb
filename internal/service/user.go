// ABOUTME: UserAuthService RPC handler for email/password authentication
// ABOUTME: Distinguishes NotFound (no such user) from PermissionDenied (wrong password)

package service

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lumenbase/auth-service/internal/auth"
	"github.com/lumenbase/auth-service/internal/store"
)

// UserAuthService implements password-based user authentication.
type UserAuthService struct {
	store  store.CredentialStore
	logger *slog.Logger
}

// NewUserAuthService creates a UserAuthService backed by the credential store.
func NewUserAuthService(s store.CredentialStore, logger *slog.Logger) *UserAuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserAuthService{
		store:  s,
		logger: logger.With("component", "user_service"),
	}
}

// Authenticate verifies an email/password pair and returns the user record
// with the password hash excluded. An unknown email fails NotFound and a
// wrong password fails PermissionDenied; callers can tell the two apart.
func (s *UserAuthService) Authenticate(ctx context.Context, req *AuthenticateUserRequest) (*UserResponse, error) {
	if req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "email required")
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a comparison to keep timing flat for unknown emails
			auth.DummyCompare(req.Password)
			s.logger.Warn("authentication failed", "reason", "unknown_email")
			return nil, status.Error(codes.NotFound, "No user found for email")
		}
		return nil, storeUnavailable(s.logger, "Authenticate", err)
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.logger.Warn("authentication failed", "reason", "password_mismatch")
		return nil, status.Error(codes.PermissionDenied, "Incorrect password")
	}

	return &UserResponse{
		Id:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}, nil
}

// storeUnavailable logs a store failure and reports it as retryable.
// Authentication failures are never mapped here: callers must be able to
// distinguish "you are unauthorized" from "the system could not check".
func storeUnavailable(logger *slog.Logger, op string, err error) error {
	logger.Error("credential store failure", "op", op, "error", err)
	return status.Error(codes.Unavailable, "credential store unavailable")
}
