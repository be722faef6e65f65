package auth

import (
	"testing"
	"time"
)

// ─── Secret hashing (Argon2id, intentionally slow) ──────────────────

func BenchmarkVerifySecret(b *testing.B) {
	hash, err := HashSecret("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("HashSecret: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifySecret("correct-horse-battery-staple", hash) //nolint:errcheck // benchmark
	}
}

// ─── JWT tokens (per-request hot path) ──────────────────────────────

func BenchmarkParseToken(b *testing.B) {
	token, err := GenerateAccessToken(&Client{ID: "bench", Role: RoleOperator}, testSecret, 15*time.Minute)
	if err != nil {
		b.Fatalf("GenerateAccessToken: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseToken(token, testSecret) //nolint:errcheck // benchmark
	}
}
