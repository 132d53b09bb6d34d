package handlers

import (
	"net/http"

	"aibvs/core/auth"
	"aibvs/core/scenarios"
	"aibvs/core/utils"
)

type ScenariosHandler struct {
	svc    *scenarios.Service
	logger *utils.Logger
}

func NewScenariosHandler(svc *scenarios.Service, logger *utils.Logger) *ScenariosHandler {
	return &ScenariosHandler{svc: svc, logger: logger}
}

func (h *ScenariosHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ScenariosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	sc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *ScenariosHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	var payload struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		SourceSystemID *int64   `json:"source_system_id"`
		TargetSystemID *int64   `json:"target_system_id"`
		Steps          []string `json:"steps"`
		EstimatedTime  int      `json:"estimated_time"`
		Priority       string   `json:"priority"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	sc, err := h.svc.Create(r.Context(), scenarios.CreateRequest{
		Name:           payload.Name,
		Description:    payload.Description,
		SourceSystemID: payload.SourceSystemID,
		TargetSystemID: payload.TargetSystemID,
		Steps:          payload.Steps,
		EstimatedTime:  payload.EstimatedTime,
		Priority:       payload.Priority,
		ActorRole:      actor.Role,
		ActorID:        actor.UserID,
		IPAddress:      clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (h *ScenariosHandler) Execute(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	var payload struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &payload); err != nil {
			respondError(h.logger, w, r, err)
			return
		}
	}
	res, err := h.svc.Execute(r.Context(), scenarios.ExecuteRequest{
		ScenarioID: id,
		Notes:      payload.Notes,
		ActorID:    actor.UserID,
		IPAddress:  clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Scénario exécuté avec succès",
		"incident_id":    res.IncidentID,
		"scenario_name":  res.ScenarioName,
		"estimated_time": res.EstimatedTime,
	})
}
