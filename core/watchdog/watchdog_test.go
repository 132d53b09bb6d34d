package watchdog

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

func setupWatchdog(t *testing.T, staleAfter time.Duration) (*Watchdog, *store.DB) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: store.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "watchdog.db"),
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
	w := New(config.WatchdogConfig{Enabled: true, Schedule: "@every 5m", StaleAfter: staleAfter},
		store.NewSystemsStore(db), store.NewIncidentsStore(db), recorder, logger)
	return w, db
}

func TestSweepOpensReminderForStaleActiveSystem(t *testing.T) {
	// Zero stale-after makes every active system overdue immediately.
	w, db := setupWatchdog(t, 0)
	ctx := context.Background()
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	incidents := store.NewIncidentsStore(db)
	list, _ := incidents.List(ctx, store.IncidentFilter{})
	// Only SITTI is active in the seed.
	if len(list) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(list))
	}
	if list[0].ReportedBy != nil {
		t.Fatalf("reminder must have no human reporter")
	}
	if list[0].Severity != store.SeverityMedium || list[0].Status != store.IncidentOpen {
		t.Fatalf("unexpected reminder: %+v", list[0])
	}
	logs, _ := store.NewAuditStore(db, 100, 1000).List(ctx, store.AuditFilter{Action: store.ActionSystemCheckOverdue})
	if len(logs) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(logs))
	}
}

func TestSweepDeduplicatesReminders(t *testing.T) {
	w, db := setupWatchdog(t, 0)
	ctx := context.Background()
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	list, _ := store.NewIncidentsStore(db).List(ctx, store.IncidentFilter{})
	if len(list) != 1 {
		t.Fatalf("reminder duplicated: %d incidents", len(list))
	}
}

func TestSweepSkipsFreshSystems(t *testing.T) {
	w, db := setupWatchdog(t, 24*time.Hour)
	ctx := context.Background()
	if err := w.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	list, _ := store.NewIncidentsStore(db).List(ctx, store.IncidentFilter{})
	if len(list) != 0 {
		t.Fatalf("fresh systems must not trigger reminders, got %d", len(list))
	}
}
