package handlers

import (
	"net/http"

	"aibvs/core/auth"
	"aibvs/core/systems"
	"aibvs/core/utils"
)

type SystemsHandler struct {
	svc    *systems.Service
	logger *utils.Logger
}

func NewSystemsHandler(svc *systems.Service, logger *utils.Logger) *SystemsHandler {
	return &SystemsHandler{svc: svc, logger: logger}
}

func (h *SystemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SystemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	sys, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (h *SystemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	var payload struct {
		Status      *string `json:"status"`
		Location    *string `json:"location"`
		Frequency   *string `json:"frequency"`
		Description *string `json:"description"`
	}
	// a bodyless PUT is a plain check-in that only refreshes last_check
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &payload); err != nil {
			respondError(h.logger, w, r, err)
			return
		}
	}
	sys, err := h.svc.Update(r.Context(), id, systems.UpdateRequest{
		Status:      payload.Status,
		Location:    payload.Location,
		Frequency:   payload.Frequency,
		Description: payload.Description,
		ActorID:     actor.UserID,
		IPAddress:   clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (h *SystemsHandler) Switch(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	var payload struct {
		TargetSystemID int64  `json:"target_system_id"`
		Reason         string `json:"reason"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	res, err := h.svc.Switch(r.Context(), systems.SwitchRequest{
		SourceID:  id,
		TargetID:  payload.TargetSystemID,
		Reason:    payload.Reason,
		ActorID:   actor.UserID,
		IPAddress: clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Basculement effectué avec succès",
		"source":      res.Source,
		"target":      res.Target,
		"incident_id": res.IncidentID,
	})
}

func (h *SystemsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	stats, err := h.svc.Stats(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
