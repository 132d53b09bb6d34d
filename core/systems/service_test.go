package systems

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aibvs/config"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

func setupService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: store.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "systems.db"),
	}
	logger := utils.NewLogger()
	db, err := store.Open(cfg, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := store.Migrate(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := store.Seed(ctx, db, logger); err != nil {
		t.Fatalf("seed: %v", err)
	}
	recorder := audit.NewRecorder(store.NewAuditStore(db, 100, 1000), logger)
	return NewService(store.NewSystemsStore(db), recorder, logger), db
}

func TestEmptyUpdateActsAsCheckIn(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	systems := store.NewSystemsStore(db)

	before, err := systems.Get(ctx, 1)
	if err != nil || before == nil {
		t.Fatalf("get: %v", err)
	}
	stale := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := db.ExecContext(ctx, `UPDATE systems SET last_check=? WHERE id=?`, stale, 1); err != nil {
		t.Fatalf("age system: %v", err)
	}

	sys, err := svc.Update(ctx, 1, UpdateRequest{ActorID: 2})
	if err != nil {
		t.Fatalf("empty update: %v", err)
	}
	if !sys.LastCheck.After(stale) {
		t.Fatalf("last_check not refreshed: %s", sys.LastCheck)
	}
	if sys.Status != before.Status || sys.Frequency != before.Frequency {
		t.Fatalf("check-in must not alter other fields: %+v", sys)
	}
}

func TestUpdateAuditCarriesChangedFields(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	loc := "CCR Agadir"
	freq := "121.5 MHz"
	if _, err := svc.Update(ctx, 2, UpdateRequest{Location: &loc, Frequency: &freq, ActorID: 1}); err != nil {
		t.Fatalf("update: %v", err)
	}
	logs, err := store.NewAuditStore(db, 100, 1000).List(ctx, store.AuditFilter{Action: store.ActionUpdateSystem})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one update log, got %d", len(logs))
	}
	details := logs[0].Details
	if details["location"] != loc || details["frequency"] != freq {
		t.Fatalf("changed fields missing from details: %v", details)
	}
	if _, ok := details["status"]; ok {
		t.Fatalf("untouched field logged: %v", details)
	}
}
