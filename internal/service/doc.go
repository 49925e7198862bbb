// Package service implements the credential RPC surface of auth-service.
//
// Three services cover the lifecycle of a credential:
//
//   - ApiKeyService: IssueApiKey, RevokeApiKey
//   - JwtService: CreateJwt, ValidateJwt
//   - UserAuthService: Authenticate
//
// Handlers take typed request messages and return typed responses or a
// google.golang.org/grpc/status error. The code carries the failure kind:
//
//   - NotFound: referenced project, user, or key does not exist
//   - PermissionDenied: password mismatch or insufficient role
//   - Unauthenticated: token malformed, expired, or bound to a revoked key
//   - InvalidArgument: empty key, token, or identifier
//   - Unavailable: the credential store could not be reached; retryable
//
// Services hold no mutable state and are safe for concurrent use; every
// validation re-queries the store so revocation is visible immediately.
package service
