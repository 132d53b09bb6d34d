package users

import (
	"context"
	"strings"

	"aibvs/core/apperr"
	"aibvs/core/audit"
	"aibvs/core/auth"
	"aibvs/core/store"
	"aibvs/core/utils"
)

type Service struct {
	store    store.UsersStore
	tokens   *auth.TokenManager
	recorder *audit.Recorder
	logger   *utils.Logger
}

func NewService(s store.UsersStore, tokens *auth.TokenManager, recorder *audit.Recorder, logger *utils.Logger) *Service {
	return &Service{store: s, tokens: tokens, recorder: recorder, logger: logger}
}

type LoginResult struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

type CreateRequest struct {
	Username  string
	Password  string
	FullName  string
	Email     string
	Role      string
	Action    string
	ActorID   *int64
	IPAddress string
}

type UpdateRequest struct {
	FullName  *string
	Email     *string
	Password  *string
	ActorID   int64
	IPAddress string
}

func (s *Service) Login(ctx context.Context, username, password, ip string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperr.Validationf("username and password are required")
	}
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, apperr.ErrAuth
	}
	token, err := s.tokens.Sign(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.store.TouchLastLogin(ctx, user.ID, utils.NowUTC()); err != nil {
		s.logger.Warnf("last_login update failed for %s: %v", user.Username, err)
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionLogin,
		EntityType: "user",
		EntityID:   &user.ID,
		UserID:     &user.ID,
		Details:    map[string]any{"username": user.Username},
		IPAddress:  ip,
	})
	return &LoginResult{Token: token, User: user}, nil
}

// Create provisions an account. The audit action distinguishes the two
// admin entry points (CREATE_USER vs REGISTER).
func (s *Service) Create(ctx context.Context, req CreateRequest) (*store.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, apperr.Validationf("username, password and full_name are required")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validationf("password must be at least 6 characters")
	}
	if !store.IsValidRole(req.Role) {
		return nil, apperr.Validationf("invalid role %q", req.Role)
	}
	existing, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrConflict
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &store.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Role:         req.Role,
	}
	id, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	action := req.Action
	if action == "" {
		action = store.ActionCreateUser
	}
	actorID := req.ActorID
	if actorID == nil {
		actorID = &id
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: "user",
		EntityID:   &id,
		UserID:     actorID,
		Details:    map[string]any{"username": username, "role": req.Role},
		IPAddress:  req.IPAddress,
	})
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*store.User, error) {
	user, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %d not found", id)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]store.User, error) {
	return s.store.List(ctx)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*store.User, error) {
	if req.FullName == nil && req.Email == nil && req.Password == nil {
		return nil, apperr.Validationf("no fields to update")
	}
	upd := store.UserUpdate{FullName: req.FullName, Email: req.Email}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, apperr.Validationf("password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}
	user, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %d not found", id)
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionUpdateUser,
		EntityType: "user",
		EntityID:   &user.ID,
		UserID:     &req.ActorID,
		Details:    map[string]any{"username": user.Username},
		IPAddress:  req.IPAddress,
	})
	return user, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID int64, ip string) error {
	if id == actorID {
		return apperr.Validationf("cannot delete your own account")
	}
	user, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NotFoundf("user %d not found", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.Entry{
		Action:     store.ActionDeleteUser,
		EntityType: "user",
		EntityID:   &id,
		UserID:     &actorID,
		Details:    map[string]any{"username": user.Username},
		IPAddress:  ip,
	})
	return nil
}
