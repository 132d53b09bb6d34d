package scenarios

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type Service struct {
	store    store.ScenariosStore
	systems  store.SystemsStore
	recorder *audit.Recorder
	logger   *utils.Logger
}

func NewService(s store.ScenariosStore, systems store.SystemsStore, recorder *audit.Recorder, logger *utils.Logger) *Service {
	return &Service{store: s, systems: systems, recorder: recorder, logger: logger}
}

type CreateRequest struct {
	Name           string
	Description    string
	SourceSystemID *int64
	TargetSystemID *int64
	Steps          []string
	EstimatedTime  int
	Priority       string
	ActorRole      string
	ActorID        int64
	IPAddress      string
}

type ExecuteRequest struct {
	ScenarioID int64
	Notes      string
	ActorID    int64
	IPAddress  string
}

func (s *Service) List(ctx context.Context) ([]store.Scenario, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*store.Scenario, error) {
	sc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, apperr.NotFoundf("scenario %d not found", id)
	}
	return sc, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Scenario, error) {
	if req.ActorRole != store.RoleAdmin {
		return nil, apperr.Forbiddenf("only administrators can create scenarios")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validationf("name is required")
	}
	if len(req.Steps) == 0 {
		return nil, apperr.Validationf("steps are required")
	}
	if !store.IsValidPriority(req.Priority) {
		return nil, apperr.Validationf("invalid priority %q", req.Priority)
	}
	for _, id := range []*int64{req.SourceSystemID, req.TargetSystemID} {
		if id == nil {
			continue
		}
		sys, err := s.systems.Get(ctx, *id)
		if err != nil {
			return nil, err
		}
		if sys == nil {
			return nil, apperr.Validationf("system %d not found", *id)
		}
	}
	sc := &store.Scenario{
		Name:           req.Name,
		Description:    req.Description,
		SourceSystemID: req.SourceSystemID,
		TargetSystemID: req.TargetSystemID,
		Steps:          req.Steps,
		EstimatedTime:  req.EstimatedTime,
		Priority:       req.Priority,
	}
	id, err := s.store.Create(ctx, sc)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionCreateScenario,
		EntityType: "scenario",
		EntityID:   &id,
		UserID:     &req.ActorID,
		Details:    map[string]any{"name": sc.Name, "priority": sc.Priority},
		IPAddress:  req.IPAddress,
	})
	return s.Get(ctx, id)
}

// Execute runs a failover scenario: the tracking incident, the source and
// target status flips and the audit entry land in one transaction.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest) (*store.ExecutionResult, error) {
	res, err := s.store.Execute(ctx, store.ExecuteParams{
		ScenarioID: req.ScenarioID,
		Notes:      req.Notes,
		ActorID:    req.ActorID,
		IPAddress:  req.IPAddress,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("scenario %d not found", req.ScenarioID)
		}
		return nil, err
	}
	s.logger.Printf("scenario %q executed, incident %d opened", res.ScenarioName, res.IncidentID)
	return res, nil
}
