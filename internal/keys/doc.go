// Package keys implements API key issuance and validation.
//
// A key is a 256-bit random secret handed to the caller exactly once at
// issuance. The store keeps only its SHA-256 hash, so a presented key is
// validated by re-deriving the hash and looking it up; the plaintext cannot
// be recovered from the store and is never logged.
//
// Issuance is gated on three checks in order: the target project exists, the
// requesting user exists and holds an ADMIN or SUPERADMIN role, and the
// user's password verifies. Each failure maps to a distinct sentinel error
// so the service layer can report NotFound versus PermissionDenied.
//
// Revoking a key deletes its record, which also invalidates every
// outstanding token bound to the key's hash without any token blacklist.
package keys
