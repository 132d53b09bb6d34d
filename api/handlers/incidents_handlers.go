package handlers

import (
	"net/http"
	"strings"

	"aibvs/core/auth"
	"aibvs/core/incidents"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type IncidentsHandler struct {
	svc    *incidents.Service
	logger *utils.Logger
}

func NewIncidentsHandler(svc *incidents.Service, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{svc: svc, logger: logger}
}

func (h *IncidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.IncidentFilter{
		Status:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		Severity: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("severity"))),
		SystemID: int64(parseIntDefault(r.URL.Query().Get("system_id"), 0)),
		Limit:    parseIntDefault(r.URL.Query().Get("limit"), 0),
	}
	items, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	inc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	var payload struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		SystemID    *int64 `json:"system_id"`
		Severity    string `json:"severity"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	inc, err := h.svc.Create(r.Context(), incidents.CreateRequest{
		Title:       payload.Title,
		Description: payload.Description,
		SystemID:    payload.SystemID,
		Severity:    strings.ToLower(strings.TrimSpace(payload.Severity)),
		ActorID:     actor.UserID,
		IPAddress:   clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inc)
}

func (h *IncidentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	var payload struct {
		Status      *string `json:"status"`
		Severity    *string `json:"severity"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	inc, err := h.svc.Update(r.Context(), id, incidents.UpdateRequest{
		Status:      payload.Status,
		Severity:    payload.Severity,
		Description: payload.Description,
		ActorID:     actor.UserID,
		IPAddress:   clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (h *IncidentsHandler) StatsSummary(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.StatsSummary(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
