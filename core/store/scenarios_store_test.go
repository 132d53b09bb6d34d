package store

import (
	"context"
	"testing"
)

func TestScenarioListOrderedByPriority(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	scenarios := NewScenariosStore(db)
	if _, err := scenarios.Create(ctx, &Scenario{Name: "Maintenance GAREX300", Priority: PriorityLow, Steps: []string{"Couper l'alimentation"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := scenarios.Create(ctx, &Scenario{Name: "Test hebdomadaire", Priority: PriorityMedium, Steps: []string{}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := scenarios.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Seeded: two high, one critical. Added: one low, one medium.
	want := []string{PriorityCritical, PriorityHigh, PriorityHigh, PriorityMedium, PriorityLow}
	if len(list) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(list))
	}
	for i, sc := range list {
		if sc.Priority != want[i] {
			t.Fatalf("position %d: expected priority %s, got %s", i, want[i], sc.Priority)
		}
	}
	if list[0].Name != "Panne Totale SITTI" {
		t.Fatalf("critical scenario not first: %s", list[0].Name)
	}
}

func TestScenarioListBreaksPriorityTiesByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scenarios := NewScenariosStore(db)
	var ids []int64
	for _, priority := range []string{PriorityLow, PriorityCritical, PriorityHigh, PriorityCritical} {
		id, err := scenarios.Create(ctx, &Scenario{Name: "Scénario " + priority, Priority: priority, Steps: []string{"Étape unique"}})
		if err != nil {
			t.Fatalf("create %s: %v", priority, err)
		}
		ids = append(ids, id)
	}
	list, err := scenarios.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// Both criticals first in insertion order, then high, then low.
	want := []int64{ids[1], ids[3], ids[2], ids[0]}
	if len(list) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(list))
	}
	for i, sc := range list {
		if sc.ID != want[i] {
			t.Fatalf("position %d: expected id %d, got %d", i, want[i], sc.ID)
		}
	}
}

func TestScenarioStepsRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	scenarios := NewScenariosStore(db)
	steps := []string{"Vérifier l'antenne", "Basculer l'émetteur"}
	id, err := scenarios.Create(ctx, &Scenario{Name: "Test", Priority: PriorityLow, Steps: steps})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := scenarios.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || len(got.Steps) != 2 || got.Steps[0] != steps[0] {
		t.Fatalf("steps mismatch: %+v", got)
	}
}

func TestExecuteFlipsSystemsAndOpensIncident(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	scenarios := NewScenariosStore(db)
	systems := NewSystemsStore(db)
	incidents := NewIncidentsStore(db)
	users := NewUsersStore(db)
	admin, _ := users.FindByUsername(ctx, "admin")

	list, _ := scenarios.List(ctx)
	var target *Scenario
	for i := range list {
		if list[i].Name == "Basculement SITTI → PCR960M" {
			target = &list[i]
		}
	}
	if target == nil {
		t.Fatalf("seeded scenario missing")
	}
	res, err := scenarios.Execute(ctx, ExecuteParams{
		ScenarioID: target.ID,
		ActorID:    admin.ID,
		IPAddress:  "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	src, _ := systems.Get(ctx, *target.SourceSystemID)
	if src.Status != SystemBackup {
		t.Fatalf("source status %s, want backup", src.Status)
	}
	tgt, _ := systems.Get(ctx, *target.TargetSystemID)
	if tgt.Status != SystemActive {
		t.Fatalf("target status %s, want active", tgt.Status)
	}
	inc, err := incidents.Get(ctx, res.IncidentID)
	if err != nil || inc == nil {
		t.Fatalf("incident missing: %v", err)
	}
	if inc.Severity != SeverityHigh {
		t.Fatalf("high-priority scenario should open high incident, got %s", inc.Severity)
	}
	if inc.Status != IncidentInProgress {
		t.Fatalf("incident status %s, want in_progress", inc.Status)
	}
	logs, err := NewAuditStore(db, 100, 1000).List(ctx, AuditFilter{Action: ActionExecuteScenario})
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one execute log, got %d (%v)", len(logs), err)
	}
	if logs[0].Details["scenario"] != target.Name {
		t.Fatalf("log details missing scenario name: %v", logs[0].Details)
	}
}

func TestExecuteCriticalScenarioOpensCriticalIncident(t *testing.T) {
	db := newSeededDB(t)
	ctx := context.Background()
	scenarios := NewScenariosStore(db)
	users := NewUsersStore(db)
	admin, _ := users.FindByUsername(ctx, "admin")

	list, _ := scenarios.List(ctx)
	// Critical scenario sorts first.
	res, err := scenarios.Execute(ctx, ExecuteParams{ScenarioID: list[0].ID, ActorID: admin.ID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	inc, _ := NewIncidentsStore(db).Get(ctx, res.IncidentID)
	if inc.Severity != SeverityCritical {
		t.Fatalf("critical scenario should open critical incident, got %s", inc.Severity)
	}
	// Panne Totale has no target system; the source still moves to backup.
	src, _ := NewSystemsStore(db).Get(ctx, *list[0].SourceSystemID)
	if src.Status != SystemBackup {
		t.Fatalf("source status %s, want backup", src.Status)
	}
}
