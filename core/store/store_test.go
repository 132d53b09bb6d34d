package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aibvs/config"
	"aibvs/core/utils"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}
	logger := utils.NewLogger()
	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newSeededDB(t *testing.T) *DB {
	t.Helper()
	db := newTestDB(t)
	if err := Seed(context.Background(), db, utils.NewLogger()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	if err := Seed(ctx, db, utils.NewLogger()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	systems, err := NewSystemsStore(db).List(ctx)
	if err != nil {
		t.Fatalf("list systems: %v", err)
	}
	if len(systems) != 3 {
		t.Fatalf("expected 3 systems after double seed, got %d", len(systems))
	}
	users, err := NewUsersStore(db).List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users after double seed, got %d", len(users))
	}
}

func TestUsersStoreRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUsersStore(db)
	id, err := users.Create(ctx, &User{
		Username:     "controller1",
		PasswordHash: "hash",
		FullName:     "Contrôleur Un",
		Email:        "c1@ccr-casa.ma",
		Role:         RoleATSEP,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := users.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Username != "controller1" || got.Role != RoleATSEP {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastLogin != nil {
		t.Fatalf("fresh user should have no last_login")
	}
	if err := users.TouchLastLogin(ctx, id, time.Now().UTC()); err != nil {
		t.Fatalf("touch: %v", err)
	}
	got, _ = users.Get(ctx, id)
	if got.LastLogin == nil {
		t.Fatalf("last_login not set after touch")
	}
	missing, err := users.Get(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil,nil for missing user, got %v, %v", missing, err)
	}
}

func TestUserUpdateAppliesOnlyProvidedFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	users := NewUsersStore(db)
	id, _ := users.Create(ctx, &User{Username: "op", PasswordHash: "h", FullName: "Op", Role: RoleATSEP})
	name := "Opérateur"
	updated, err := users.Update(ctx, id, UserUpdate{FullName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Opérateur" {
		t.Fatalf("full name not updated: %q", updated.FullName)
	}
	if updated.PasswordHash != "h" {
		t.Fatalf("password changed by partial update")
	}
}
