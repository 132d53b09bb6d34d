package systems

import (
	"context"
	"database/sql"
	"errors"

	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type Service struct {
	store    store.SystemsStore
	recorder *audit.Recorder
	logger   *utils.Logger
}

func NewService(s store.SystemsStore, recorder *audit.Recorder, logger *utils.Logger) *Service {
	return &Service{store: s, recorder: recorder, logger: logger}
}

type UpdateRequest struct {
	Status      *string
	Location    *string
	Frequency   *string
	Description *string
	ActorID     int64
	IPAddress   string
}

type SwitchRequest struct {
	SourceID  int64
	TargetID  int64
	Reason    string
	ActorID   int64
	IPAddress string
}

func (s *Service) List(ctx context.Context) ([]store.System, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*store.System, error) {
	sys, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sys == nil {
		return nil, apperr.NotFoundf("system %d not found", id)
	}
	return sys, nil
}

// Update applies the provided fields. An empty update is allowed and acts
// as an operator check-in: last_check is refreshed either way.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*store.System, error) {
	if req.Status != nil && !store.IsValidSystemStatus(*req.Status) {
		return nil, apperr.Validationf("invalid status %q", *req.Status)
	}
	sys, err := s.store.UpdateFields(ctx, id, store.SystemUpdate{
		Status:      req.Status,
		Location:    req.Location,
		Frequency:   req.Frequency,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	if sys == nil {
		return nil, apperr.NotFoundf("system %d not found", id)
	}
	details := map[string]any{"system": sys.Name}
	if req.Status != nil {
		details["status"] = *req.Status
	}
	if req.Location != nil {
		details["location"] = *req.Location
	}
	if req.Frequency != nil {
		details["frequency"] = *req.Frequency
	}
	if req.Description != nil {
		details["description"] = *req.Description
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionUpdateSystem,
		EntityType: "system",
		EntityID:   &sys.ID,
		UserID:     &req.ActorID,
		Details:    details,
		IPAddress:  req.IPAddress,
	})
	return sys, nil
}

// Switch fails the active chain over to a standby one. Both status flips,
// the tracking incident and the audit entry commit atomically.
func (s *Service) Switch(ctx context.Context, req SwitchRequest) (*store.SwitchResult, error) {
	if req.TargetID == 0 {
		return nil, apperr.Validationf("target system id is required")
	}
	if req.SourceID == req.TargetID {
		return nil, apperr.Validationf("source and target must differ")
	}
	res, err := s.store.Switch(ctx, store.SwitchParams{
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Reason:    req.Reason,
		ActorID:   req.ActorID,
		IPAddress: req.IPAddress,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("system not found")
		}
		return nil, err
	}
	s.logger.Printf("system switch %s -> %s (incident %d)", res.Source.Name, res.Target.Name, res.IncidentID)
	return res, nil
}

func (s *Service) Stats(ctx context.Context, id int64) (*store.SystemStats, error) {
	sys, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sys == nil {
		return nil, apperr.NotFoundf("system %d not found", id)
	}
	return s.store.Stats(ctx, id)
}
