package audit

import (
	"context"

	"aibvs/core/store"
	"aibvs/core/utils"
)

// Recorder writes audit trail entries. A failed write is logged and
// swallowed so it never aborts the operation being recorded.
type Recorder struct {
	store  store.AuditStore
	logger *utils.Logger
}

func NewRecorder(s store.AuditStore, logger *utils.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

type Entry struct {
	Action     string
	EntityType string
	EntityID   *int64
	UserID     *int64
	Details    map[string]any
	IPAddress  string
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.store == nil {
		return
	}
	rec := &store.AuditRecord{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
	}
	if err := r.store.Append(ctx, rec); err != nil {
		r.logger.Errorf("audit write failed for %s: %v", e.Action, err)
	}
}

// Append writes an entry on behalf of a client and, unlike Record, surfaces
// the failure and the stored row.
func (r *Recorder) Append(ctx context.Context, e Entry) (*store.AuditRecord, error) {
	rec := &store.AuditRecord{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		UserID:     e.UserID,
		Details:    e.Details,
		IPAddress:  e.IPAddress,
	}
	if err := r.store.Append(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Recorder) List(ctx context.Context, f store.AuditFilter) ([]store.AuditRecord, error) {
	return r.store.List(ctx, f)
}
