package store

import (
	"context"
	"testing"
)

func TestIncidentResolutionStamping(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	incidents := NewIncidentsStore(db)
	users := NewUsersStore(db)
	admin, _ := users.FindByUsername(ctx, "admin")
	atsep, _ := users.FindByUsername(ctx, "atsep")

	id, err := incidents.Create(ctx, &Incident{
		Title:      "Perte fréquence 125.3",
		Severity:   SeverityHigh,
		ReportedBy: &atsep.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resolved := IncidentResolved
	inc, err := incidents.Update(ctx, id, IncidentUpdate{Status: &resolved, ResolverID: admin.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if inc.ResolvedBy == nil || *inc.ResolvedBy != admin.ID {
		t.Fatalf("resolver not stamped: %+v", inc)
	}
	if inc.ResolvedAt == nil {
		t.Fatalf("resolved_at not stamped")
	}
	if inc.ResolvedByName != "Administrator" {
		t.Fatalf("resolver name not joined: %q", inc.ResolvedByName)
	}

	reopened := IncidentOpen
	inc, err = incidents.Update(ctx, id, IncidentUpdate{Status: &reopened, ResolverID: admin.ID})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if inc.ResolvedBy != nil || inc.ResolvedAt != nil {
		t.Fatalf("reopening must clear resolution fields: %+v", inc)
	}
}

func TestIncidentListFilters(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	incidents := NewIncidentsStore(db)
	users := NewUsersStore(db)
	atsep, _ := users.FindByUsername(ctx, "atsep")
	systems := NewSystemsStore(db)
	all, _ := systems.List(ctx)

	for _, sev := range []string{SeverityLow, SeverityHigh, SeverityHigh} {
		if _, err := incidents.Create(ctx, &Incident{Title: "t", Severity: sev, SystemID: &all[0].ID, ReportedBy: &atsep.ID}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	high, err := incidents.List(ctx, IncidentFilter{Severity: SeverityHigh})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(high) != 2 {
		t.Fatalf("expected 2 high incidents, got %d", len(high))
	}
	limited, _ := incidents.List(ctx, IncidentFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("limit not applied")
	}
	if limited[0].SystemName != all[0].Name {
		t.Fatalf("system name not joined: %q", limited[0].SystemName)
	}
}

func TestStatsSummaryIncludesZeroCountSystems(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	incidents := NewIncidentsStore(db)
	users := NewUsersStore(db)
	atsep, _ := users.FindByUsername(ctx, "atsep")
	systems := NewSystemsStore(db)
	all, _ := systems.List(ctx)

	if _, err := incidents.Create(ctx, &Incident{Title: "t", Severity: SeverityCritical, SystemID: &all[0].ID, ReportedBy: &atsep.ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	stats, err := incidents.StatsSummary(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("total %d, want 1", stats.Total)
	}
	if stats.BySeverity[SeverityCritical] != 1 {
		t.Fatalf("by_severity: %v", stats.BySeverity)
	}
	if len(stats.BySystem) != 3 {
		t.Fatalf("by_system must cover every system, got %d buckets", len(stats.BySystem))
	}
	var zeros int
	for _, b := range stats.BySystem {
		if b.Count == 0 {
			zeros++
		}
	}
	if zeros != 2 {
		t.Fatalf("expected 2 zero-count systems, got %d", zeros)
	}
	if len(stats.Trend) != 1 {
		t.Fatalf("expected one trend bucket, got %d", len(stats.Trend))
	}
}

func TestFindOpenByTitleDedup(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	incidents := NewIncidentsStore(db)
	systems := NewSystemsStore(db)
	all, _ := systems.List(ctx)

	title := "Contrôle en retard: SITTI"
	if _, err := incidents.Create(ctx, &Incident{Title: title, Severity: SeverityMedium, SystemID: &all[0].ID}); err != nil {
		t.Fatalf("create: %v", err)
	}
	found, err := incidents.FindOpenByTitle(ctx, all[0].ID, title)
	if err != nil || found == nil {
		t.Fatalf("expected open reminder, got %v, %v", found, err)
	}
	closed := IncidentClosed
	if _, err := incidents.Update(ctx, found.ID, IncidentUpdate{Status: &closed, ResolverID: 1}); err != nil {
		t.Fatalf("close: %v", err)
	}
	found, err = incidents.FindOpenByTitle(ctx, all[0].ID, title)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != nil {
		t.Fatalf("closed reminder must not match")
	}
}
