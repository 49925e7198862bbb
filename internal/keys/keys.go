// ABOUTME: API key generation and one-way hashing
// ABOUTME: Keys are 256-bit random hex strings; only the SHA-256 hash is ever stored

package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyLength is the length of the random key material in bytes.
const KeyLength = 32

// Generate creates a new cryptographically random plaintext API key.
// The result is hex-encoded, so 64 characters for 256 bits of entropy.
func Generate() (string, error) {
	buf := make([]byte, KeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating key material: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash computes the one-way hash of a plaintext API key. Validation always
// re-derives this hash from a presented key and compares hashes; plaintext
// keys are never compared or persisted.
func Hash(plaintextKey string) string {
	sum := sha256.Sum256([]byte(plaintextKey))
	return hex.EncodeToString(sum[:])
}
