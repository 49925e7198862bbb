// ABOUTME: Typed request/response messages for the credential RPC surface
// ABOUTME: These are the wire contract; transports marshal them as JSON

package service

// ProjectIdentifier references a project by id or by name. A nonzero Id
// takes precedence over Name.
type ProjectIdentifier struct {
	Id   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IssueApiKeyRequest asks for a new API key scoped to a project and
// environment, authorized by a privileged user's email and password.
type IssueApiKeyRequest struct {
	Project     ProjectIdentifier `json:"project"`
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	Description string            `json:"description"`
	Environment string            `json:"environment"`
}

// IssueApiKeyResponse carries the plaintext key. It is returned exactly once
// and never persisted or logged.
type IssueApiKeyResponse struct {
	ApiKey string `json:"apiKey"`
}

// RevokeApiKeyRequest deletes an issued key by its hash.
type RevokeApiKeyRequest struct {
	Hash string `json:"hash"`
}

// RevokeApiKeyResponse is intentionally empty.
type RevokeApiKeyResponse struct{}

// CreateJwtRequest exchanges a plaintext API key for a signed token.
type CreateJwtRequest struct {
	ApiKey string `json:"apiKey"`
}

// CreateJwtResponse carries the signed token.
type CreateJwtResponse struct {
	Jwt string `json:"jwt"`
}

// ValidateJwtRequest checks a previously minted token.
type ValidateJwtRequest struct {
	Jwt string `json:"jwt"`
}

// ValidateJwtResponse reports a token that passed signature, expiry, and
// revocation checks. Failures surface as errors, never as Valid=false.
type ValidateJwtResponse struct {
	Valid bool `json:"valid"`
}

// AuthenticateUserRequest verifies an email/password pair.
type AuthenticateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the authenticated user record with the password hash
// excluded.
type UserResponse struct {
	Id    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
