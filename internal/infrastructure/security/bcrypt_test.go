package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func TestNewBcryptHasher_DefaultCostWhenNonPositive(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected cost=%d, got %d", bcrypt.DefaultCost, h.cost)
	}
}

func TestBcryptHasher_HashAndCompare_Success(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4) // lower cost for test speed
	pw := "Passw0rd1"

	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if hash == "" || hash == pw {
		t.Fatalf("unexpected hash %q", hash)
	}

	if err := h.Compare(hash, pw); err != nil {
		t.Fatalf("compare should succeed, got %v", err)
	}
}

func TestBcryptHasher_SamePassword_DifferentSalts(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	a, _ := h.Hash("Passw0rd1")
	b, _ := h.Hash("Passw0rd1")
	if a == b {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestBcryptHasher_Compare_WrongPassword_Mismatch(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	hash, err := h.Hash("correct-password")
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}

	if err := h.Compare(hash, "wrong-password"); !errors.Is(err, auth.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestBcryptHasher_Compare_MalformedHash_HashFailed(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	err := h.Compare("not-a-bcrypt-hash", "pw")
	if errors.Is(err, auth.ErrPasswordMismatch) {
		t.Fatalf("malformed hash must not look like a mismatch")
	}
	if !domain.Is(err, "hash_failed") {
		t.Fatalf("expected hash_failed, got %v", err)
	}
}

func TestBcryptHasher_Hash_TooHighCost_ReturnsDomainHashFailed(t *testing.T) {
	t.Parallel()

	// bcrypt rejects cost > 31
	h := NewBcryptHasher(100)

	_, err := h.Hash("pw")
	if !domain.Is(err, "hash_failed") {
		t.Fatalf("expected hash_failed, got %v", err)
	}
}
