package auth

import (
	"strings"
	"testing"
)

func TestHashSecret_RoundTrip(t *testing.T) {
	hash, err := HashSecret("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Errorf("unexpected PHC prefix: %q", hash)
	}

	ok, err := VerifySecret("correct-horse-battery-staple", hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if !ok {
		t.Error("VerifySecret() should return true for the correct secret")
	}

	ok, err = VerifySecret("wrong", hash)
	if err != nil {
		t.Fatalf("VerifySecret() error = %v", err)
	}
	if ok {
		t.Error("VerifySecret() should return false for a wrong secret")
	}
}

func TestHashSecret_UniqueSalts(t *testing.T) {
	h1, err := HashSecret("same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	h2, err := HashSecret("same")
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same secret should have different salts")
	}
}

func TestVerifySecret_InvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not PHC", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$salt$hash"},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
		{"too few parts", "$argon2id$v=19$m=65536,t=3,p=1"},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=1$!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifySecret("secret", tt.hash); err == nil {
				t.Error("VerifySecret() should return error for invalid hash format")
			}
		})
	}
}
