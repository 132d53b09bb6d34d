package store

import (
	"context"
	"strings"
	"testing"
)

func TestSwitchIsAtomic(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	systems := NewSystemsStore(db)
	users := NewUsersStore(db)
	admin, _ := users.FindByUsername(ctx, "admin")

	all, _ := systems.List(ctx)
	source, target := all[0], all[2]
	res, err := systems.Switch(ctx, SwitchParams{
		SourceID:  source.ID,
		TargetID:  target.ID,
		Reason:    "Panne émetteur VHF",
		ActorID:   admin.ID,
		IPAddress: "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if res.Source.Status != SystemBackup || res.Target.Status != SystemActive {
		t.Fatalf("unexpected statuses: source=%s target=%s", res.Source.Status, res.Target.Status)
	}
	inc, err := NewIncidentsStore(db).Get(ctx, res.IncidentID)
	if err != nil || inc == nil {
		t.Fatalf("tracking incident missing: %v", err)
	}
	if !strings.HasPrefix(inc.Title, "Basculement") {
		t.Fatalf("unexpected incident title %q", inc.Title)
	}
	if inc.Severity != SeverityHigh || inc.Status != IncidentInProgress {
		t.Fatalf("incident severity/status: %s/%s", inc.Severity, inc.Status)
	}
	logs, _ := NewAuditStore(db, 100, 1000).List(ctx, AuditFilter{Action: ActionSystemSwitch})
	if len(logs) != 1 {
		t.Fatalf("expected one switch log, got %d", len(logs))
	}
}

func TestSwitchMissingSystemLeavesStateUntouched(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	systems := NewSystemsStore(db)

	before, _ := systems.List(ctx)
	_, err := systems.Switch(ctx, SwitchParams{SourceID: before[0].ID, TargetID: 999, Reason: "x", ActorID: 1})
	if err == nil {
		t.Fatalf("expected error for missing target")
	}
	after, _ := systems.List(ctx)
	for i := range before {
		if before[i].Status != after[i].Status {
			t.Fatalf("system %s status changed after failed switch", after[i].Name)
		}
	}
	var logCount int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&logCount); err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if logCount != 0 {
		t.Fatalf("failed switch must not leave log entries, found %d", logCount)
	}
}

func TestUpdateFieldsRefreshesLastCheck(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	systems := NewSystemsStore(db)
	all, _ := systems.List(ctx)
	before := all[0].LastCheck

	loc := "CCR Agadir"
	updated, err := systems.UpdateFields(ctx, all[0].ID, SystemUpdate{Location: &loc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Location != "CCR Agadir" {
		t.Fatalf("location not applied: %q", updated.Location)
	}
	if updated.Status != all[0].Status {
		t.Fatalf("status must not change on partial update")
	}
	if updated.LastCheck.Before(before) {
		t.Fatalf("last_check not refreshed")
	}
}

func TestCountByStatus(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	counts, err := NewSystemsStore(db).CountByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[SystemActive] != 1 || counts[SystemInactive] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
