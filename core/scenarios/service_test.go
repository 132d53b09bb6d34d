package scenarios

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"aibvs/config"
	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

func setupService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: store.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "scenarios.db"),
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
	svc := NewService(store.NewScenariosStore(db), store.NewSystemsStore(db), recorder, logger)
	return svc, db
}

func TestCreateRejectsNonAdmin(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Create(context.Background(), CreateRequest{
		Name:      "Nouveau scénario",
		Priority:  store.PriorityLow,
		ActorRole: store.RoleATSEP,
		ActorID:   2,
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateValidatesPriorityAndSystems(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	steps := []string{"Vérifier l'émetteur"}
	_, err := svc.Create(ctx, CreateRequest{Name: "x", Steps: steps, Priority: "urgent", ActorRole: store.RoleAdmin})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad priority: expected validation error, got %v", err)
	}
	missing := int64(999)
	_, err = svc.Create(ctx, CreateRequest{Name: "x", Steps: steps, Priority: store.PriorityLow, SourceSystemID: &missing, ActorRole: store.RoleAdmin})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing system: expected validation error, got %v", err)
	}
}

func TestCreateRequiresSteps(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	before, err := store.NewScenariosStore(db).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	_, err = svc.Create(ctx, CreateRequest{
		Name:      "Sans procédure",
		Priority:  store.PriorityLow,
		ActorRole: store.RoleAdmin,
		ActorID:   1,
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing steps: expected validation error, got %v", err)
	}
	after, err := store.NewScenariosStore(db).List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("scenario persisted despite missing steps")
	}
}

func TestCreateRecordsAudit(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	sc, err := svc.Create(ctx, CreateRequest{
		Name:      "Maintenance préventive",
		Priority:  store.PriorityMedium,
		Steps:     []string{"Couper l'émetteur", "Inspecter l'antenne"},
		ActorRole: store.RoleAdmin,
		ActorID:   1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sc.ID == 0 || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}
	logs, _ := store.NewAuditStore(db, 100, 1000).List(ctx, store.AuditFilter{Action: store.ActionCreateScenario})
	if len(logs) != 1 {
		t.Fatalf("expected one create log, got %d", len(logs))
	}
}

func TestExecuteUnknownScenario(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Execute(context.Background(), ExecuteRequest{ScenarioID: 999, ActorID: 1})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var target store.Scenario
	for _, sc := range list {
		if sc.Name == "Basculement SITTI → GAREX300" {
			target = sc
		}
	}
	res, err := svc.Execute(ctx, ExecuteRequest{ScenarioID: target.ID, Notes: "exercice mensuel", ActorID: 1, IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.ScenarioName != target.Name || res.EstimatedTime != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	inc, _ := store.NewIncidentsStore(db).Get(ctx, res.IncidentID)
	if inc == nil || inc.Description != "exercice mensuel" {
		t.Fatalf("notes not carried into incident: %+v", inc)
	}
}
