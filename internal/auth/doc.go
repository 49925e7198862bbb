// Package auth provides the stateless credential primitives for auth-service.
//
// # Password Verification
//
// Passwords are hashed with bcrypt at a service-wide cost constant:
//
//	hash, err := auth.HashPassword(password)
//	ok := auth.VerifyPassword(password, storedHash)
//
// A mismatch returns false rather than an error, and DummyCompare keeps the
// user-not-found path timing-equivalent to a real comparison.
//
// # Token Codec
//
// Tokens are HS256-signed JWTs binding to an API key hash:
//
//	codec, err := auth.NewTokenCodec(secret, ttl)
//	token, err := codec.Mint(apiKeyHash)
//	hash, err := codec.Verify(token)
//
// Verify checks signature and expiry independently; a token whose signature
// verifies but whose exp has passed fails with ErrExpiredToken. Whether the
// bound API key still exists is the caller's concern - the codec is pure
// computation and never touches storage.
package auth
