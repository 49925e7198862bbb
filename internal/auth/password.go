// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Mismatches return false, never an error; timing stays flat for unknown users

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the service-wide bcrypt cost factor for password hashes.
const BcryptCost = bcrypt.DefaultCost

// dummyHash is a valid bcrypt hash used for timing-safe comparison when no
// stored hash exists. This prevents timing attacks that could enumerate
// valid email addresses.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes a plaintext password with the service-wide cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// A mismatch returns false; it never returns an error distinguishable from
// a mismatch.
func VerifyPassword(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}

// DummyCompare burns one bcrypt comparison against a throwaway hash.
// Callers invoke it on the user-not-found path so that "no such user" and
// "wrong password" take the same time.
func DummyCompare(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
