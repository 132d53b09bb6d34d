package handlers

import (
	"net/http"

	"aibvs/core/auth"
	"aibvs/core/store"
	"aibvs/core/users"
	"aibvs/core/utils"
)

type UsersHandler struct {
	svc    *users.Service
	logger *utils.Logger
}

func NewUsersHandler(svc *users.Service, logger *utils.Logger) *UsersHandler {
	return &UsersHandler{svc: svc, logger: logger}
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get serves any profile to admins and only the caller's own profile to
// operators.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if !canAccessUser(auth.IdentityFrom(r.Context()), id) {
		writeError(w, http.StatusForbidden, "accès refusé")
		return
	}
	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
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
		ActorID:   &actor.UserID,
		IPAddress: clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if !canAccessUser(actor, id) {
		writeError(w, http.StatusForbidden, "accès refusé")
		return
	}
	var payload struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	user, err := h.svc.Update(r.Context(), id, users.UpdateRequest{
		FullName:  payload.FullName,
		Email:     payload.Email,
		Password:  payload.Password,
		ActorID:   actor.UserID,
		IPAddress: clientIP(r),
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := auth.IdentityFrom(r.Context())
	id, err := pathID(r)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id, actor.UserID, clientIP(r)); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Utilisateur supprimé"})
}

func canAccessUser(actor *auth.Identity, id int64) bool {
	if actor == nil {
		return false
	}
	return actor.Role == store.RoleAdmin || actor.UserID == id
}
