package store_test

import (
	"context"
	"testing"

	"github.com/stanzacms/stanza/internal/auth"
	"github.com/stanzacms/stanza/internal/model"
	"github.com/stanzacms/stanza/internal/store"
	"github.com/stanzacms/stanza/internal/testutil"
)

func TestSeed(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()
	q := store.New(db)

	if err := store.Seed(ctx, db, "boss@example.com"); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	admin, err := q.GetUserByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatalf("admin user not created: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}
	ok, err := auth.VerifyPassword(store.DefaultAdminPassword, admin.PasswordHash)
	if err != nil || !ok {
		t.Errorf("default password does not verify: ok=%v err=%v", ok, err)
	}

	keys, err := q.CountAPIKeys(ctx)
	if err != nil {
		t.Fatalf("CountAPIKeys: %v", err)
	}
	if keys != 1 {
		t.Errorf("api keys = %d, want 1", keys)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.Seed(ctx, db, ""); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := store.Seed(ctx, db, ""); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	q := store.New(db)
	users, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if users != 1 {
		t.Errorf("users = %d, want 1", users)
	}
	keys, _ := q.CountAPIKeys(ctx)
	if keys != 1 {
		t.Errorf("api keys = %d, want 1", keys)
	}
}
