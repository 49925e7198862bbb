// ABOUTME: Unit tests for bcrypt password hashing and verification
// ABOUTME: Covers match, mismatch, and malformed stored hashes

package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash = %q, want bcrypt format", hash)
	}

	if !VerifyPassword("password123", hash) {
		t.Error("VerifyPassword() = false for correct password")
	}
	if VerifyPassword("notthepassword123", hash) {
		t.Error("VerifyPassword() = true for wrong password")
	}
	if VerifyPassword("", hash) {
		t.Error("VerifyPassword() = true for empty password")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "empty hash", hash: ""},
		{name: "not a bcrypt hash", hash: "plaintext"},
		{name: "truncated hash", hash: "$2a$10$tooshort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Malformed stored hashes must read as mismatch, not panic
			if VerifyPassword("password123", tt.hash) {
				t.Error("VerifyPassword() = true for malformed hash")
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	second, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if first == second {
		t.Error("two hashes of the same password are identical; salt missing")
	}
}

func TestDummyCompare(t *testing.T) {
	// Just verifies it runs; timing properties are not assertable in a unit test
	DummyCompare("anything")
	DummyCompare("")
}
