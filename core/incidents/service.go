package incidents

import (
	"context"
	"strings"

	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type Service struct {
	store    store.IncidentsStore
	systems  store.SystemsStore
	recorder *audit.Recorder
	logger   *utils.Logger
}

func NewService(s store.IncidentsStore, systems store.SystemsStore, recorder *audit.Recorder, logger *utils.Logger) *Service {
	return &Service{store: s, systems: systems, recorder: recorder, logger: logger}
}

type CreateRequest struct {
	Title       string
	Description string
	SystemID    *int64
	Severity    string
	ActorID     int64
	IPAddress   string
}

type UpdateRequest struct {
	Status      *string
	Severity    *string
	Description *string
	ActorID     int64
	IPAddress   string
}

func (s *Service) List(ctx context.Context, f store.IncidentFilter) ([]store.Incident, error) {
	if f.Status != "" && !store.IsValidIncidentStatus(f.Status) {
		return nil, apperr.Validationf("invalid status %q", f.Status)
	}
	if f.Severity != "" && !store.IsValidSeverity(f.Severity) {
		return nil, apperr.Validationf("invalid severity %q", f.Severity)
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*store.Incident, error) {
	inc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, apperr.NotFoundf("incident %d not found", id)
	}
	return inc, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.Incident, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validationf("title is required")
	}
	if !store.IsValidSeverity(req.Severity) {
		return nil, apperr.Validationf("invalid severity %q", req.Severity)
	}
	if req.SystemID != nil {
		sys, err := s.systems.Get(ctx, *req.SystemID)
		if err != nil {
			return nil, err
		}
		if sys == nil {
			return nil, apperr.Validationf("system %d not found", *req.SystemID)
		}
	}
	inc := &store.Incident{
		Title:       req.Title,
		Description: req.Description,
		SystemID:    req.SystemID,
		Severity:    req.Severity,
		Status:      store.IncidentOpen,
		ReportedBy:  &req.ActorID,
	}
	id, err := s.store.Create(ctx, inc)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionCreateIncident,
		EntityType: "incident",
		EntityID:   &id,
		UserID:     &req.ActorID,
		Details:    map[string]any{"title": inc.Title, "severity": inc.Severity},
		IPAddress:  req.IPAddress,
	})
	return s.Get(ctx, id)
}

// Update trusts the caller on status transitions within the enum; only the
// resolution stamping is enforced here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*store.Incident, error) {
	if req.Status != nil && !store.IsValidIncidentStatus(*req.Status) {
		return nil, apperr.Validationf("invalid status %q", *req.Status)
	}
	if req.Severity != nil && !store.IsValidSeverity(*req.Severity) {
		return nil, apperr.Validationf("invalid severity %q", *req.Severity)
	}
	if req.Status == nil && req.Severity == nil && req.Description == nil {
		return nil, apperr.Validationf("no fields to update")
	}
	inc, err := s.store.Update(ctx, id, store.IncidentUpdate{
		Status:      req.Status,
		Severity:    req.Severity,
		Description: req.Description,
		ResolverID:  req.ActorID,
	})
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, apperr.NotFoundf("incident %d not found", id)
	}
	details := map[string]any{}
	if req.Status != nil {
		details["status"] = *req.Status
	}
	if req.Severity != nil {
		details["severity"] = *req.Severity
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionUpdateIncident,
		EntityType: "incident",
		EntityID:   &inc.ID,
		UserID:     &req.ActorID,
		Details:    details,
		IPAddress:  req.IPAddress,
	})
	return inc, nil
}

func (s *Service) StatsSummary(ctx context.Context) (*store.StatsSummary, error) {
	return s.store.StatsSummary(ctx)
}
