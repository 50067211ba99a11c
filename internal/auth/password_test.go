package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher()

	digest, err := hasher.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$") {
		t.Errorf("Hash() = %q, want argon2id PHC string", digest)
	}
	if !hasher.Verify("correct horse battery", digest) {
		t.Error("Verify() = false for the original password")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewPasswordHasher()

	first, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ")
	}
}

func TestVerifyRejectsSingleCharacterMutations(t *testing.T) {
	hasher := NewPasswordHasher()
	password := "alice123"

	digest, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	mutations := []string{
		"Alice123",
		"alice124",
		"alice12",
		"alice1234",
		"xlice123",
		"alic3123",
	}
	for _, m := range mutations {
		if hasher.Verify(m, digest) {
			t.Errorf("Verify(%q) = true, want false", m)
		}
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	hasher := NewPasswordHasher()

	tests := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=1$onlysalt",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$aGFzaA",
	}
	for _, digest := range tests {
		if hasher.Verify("password", digest) {
			t.Errorf("Verify() = true for malformed digest %q", digest)
		}
	}
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	hasher := NewPasswordHasher()

	legacy, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}

	if !hasher.Verify("admin123", string(legacy)) {
		t.Error("Verify() = false for matching bcrypt digest")
	}
	if hasher.Verify("admin124", string(legacy)) {
		t.Error("Verify() = true for wrong password against bcrypt digest")
	}
}
