package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected hash %q", hash)
	}
	if err := CheckPassword(hash, "Secret123"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "nope"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("x", 99)
	if err != nil {
		t.Fatal(err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != DefaultCost {
		t.Fatalf("cost = %d, %v", cost, err)
	}
}
