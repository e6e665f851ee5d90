package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatal("correct password was rejected")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if ok {
		t.Fatal("wrong password was accepted")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	} {
		if _, err := VerifyPassword("whatever", encoded); err == nil {
			t.Errorf("VerifyPassword(%q) expected error", encoded)
		}
	}
}

func TestVerifyPasswordForeignParams(t *testing.T) {
	// Hash of "changeme" created under m=65536,t=1,p=4. Verification must
	// honor the parameters embedded in the hash itself.
	encoded := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	ok, err := VerifyPassword("changeme", encoded)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatal("stored hash rejected correct password")
	}

	if !NeedsRehash(encoded) {
		t.Fatal("foreign-parameter hash should need a rehash")
	}

	fresh, err := HashPassword("changeme!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if NeedsRehash(fresh) {
		t.Fatal("freshly created hash should not need a rehash")
	}
}
