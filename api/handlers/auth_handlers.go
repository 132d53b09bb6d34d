package handlers

import (
	"net/http"

	"aibvs/core/auth"
	"aibvs/core/store"
	"aibvs/core/users"
	"aibvs/core/utils"
)

type AuthHandler struct {
	svc    *users.Service
	logger *utils.Logger
}

func NewAuthHandler(svc *users.Service, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), payload.Username, payload.Password, clientIP(r))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Register provisions an account. The route is admin-gated; the only
// difference from POST /api/users is the REGISTER audit action.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	user, err := h.svc.Create(r.Context(), users.CreateRequest{
		Username:  payload.Username,
		Password:  payload.Password,
		FullName:  payload.FullName,
		Email:     payload.Email,
		Role:      payload.Role,
		Action:    store.ActionRegister,
		ActorID:   &actor.UserID,
		IPAddress: clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "token manquant")
		return
	}
	user, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
