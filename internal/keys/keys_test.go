// ABOUTME: Unit tests for key generation and hashing
// ABOUTME: Verifies entropy encoding, uniqueness, and hash determinism

package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestGenerate(t *testing.T) {
	key, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 32 bytes hex-encoded
	if len(key) != 64 {
		t.Errorf("len(key) = %d, want 64", len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		t.Errorf("key is not valid hex: %v", err)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[key] {
			t.Fatalf("Generate() produced duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestHash(t *testing.T) {
	key := "my-plaintext-key"

	sum := sha256.Sum256([]byte(key))
	want := hex.EncodeToString(sum[:])

	if got := Hash(key); got != want {
		t.Errorf("Hash() = %q, want %q", got, want)
	}

	// Deterministic
	if Hash(key) != Hash(key) {
		t.Error("Hash() is not deterministic")
	}

	// Distinct inputs, distinct hashes
	if Hash(key) == Hash(key+"x") {
		t.Error("Hash() collided on distinct inputs")
	}
}
