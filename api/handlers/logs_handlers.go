package handlers

import (
	"net/http"
	"strings"

	"aibvs/config"
	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/auth"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type LogsHandler struct {
	recorder *audit.Recorder
	cfg      *config.AppConfig
	logger   *utils.Logger
}

func NewLogsHandler(recorder *audit.Recorder, cfg *config.AppConfig, logger *utils.Logger) *LogsHandler {
	return &LogsHandler{recorder: recorder, cfg: cfg, logger: logger}
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.AuditFilter{
		Action:     strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("action"))),
		EntityType: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("entity_type"))),
		UserID:     int64(parseIntDefault(r.URL.Query().Get("user_id"), 0)),
		Limit:      parseIntDefault(r.URL.Query().Get("limit"), h.cfg.Logs.DefaultLimit),
	}
	items, err := h.recorder.List(r.Context(), filter)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create appends a client-reported entry. The author is always the caller,
// never a user id supplied in the payload.
func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	var payload struct {
		Action     string         `json:"action"`
		EntityType string         `json:"entity_type"`
		EntityID   *int64         `json:"entity_id"`
		Details    map[string]any `json:"details"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if strings.TrimSpace(payload.Action) == "" {
		respondError(h.logger, w, r, apperr.Validationf("action is required"))
		return
	}
	rec, err := h.recorder.Append(r.Context(), audit.Entry{
		Action:     strings.ToUpper(strings.TrimSpace(payload.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(payload.EntityType)),
		EntityID:   payload.EntityID,
		UserID:     &actor.UserID,
		Details:    payload.Details,
		IPAddress:  clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}
