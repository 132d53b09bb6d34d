package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"aibvs/api/handlers"
	"aibvs/config"
	"aibvs/core/audit"
	"aibvs/core/auth"
	"aibvs/core/incidents"
	"aibvs/core/rbac"
	"aibvs/core/scenarios"
	"aibvs/core/store"
	"aibvs/core/systems"
	"aibvs/core/users"
	"aibvs/core/utils"
)

type Server struct {
	cfg    *config.AppConfig
	logger *utils.Logger
	tokens *auth.TokenManager
	policy *rbac.Policy
	users  store.UsersStore

	loginLimiter *requestLimiter

	authH      *handlers.AuthHandler
	usersH     *handlers.UsersHandler
	systemsH   *handlers.SystemsHandler
	scenariosH *handlers.ScenariosHandler
	incidentsH *handlers.IncidentsHandler
	logsH      *handlers.LogsHandler
}

type Deps struct {
	Config    *config.AppConfig
	Logger    *utils.Logger
	Tokens    *auth.TokenManager
	Policy    *rbac.Policy
	UserStore store.UsersStore
	Users     *users.Service
	Systems   *systems.Service
	Scenarios *scenarios.Service
	Incidents *incidents.Service
	Recorder  *audit.Recorder
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:        d.Config,
		logger:     d.Logger,
		tokens:     d.Tokens,
		policy:     d.Policy,
		users:      d.UserStore,

		loginLimiter: newLimiter(5, time.Minute),
		authH:      handlers.NewAuthHandler(d.Users, d.Logger),
		usersH:     handlers.NewUsersHandler(d.Users, d.Logger),
		systemsH:   handlers.NewSystemsHandler(d.Systems, d.Logger),
		scenariosH: handlers.NewScenariosHandler(d.Scenarios, d.Logger),
		incidentsH: handlers.NewIncidentsHandler(d.Incidents, d.Logger),
		logsH:      handlers.NewLogsHandler(d.Recorder, d.Config, d.Logger),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverMiddleware, s.securityHeadersMiddleware, s.jsonMiddleware, s.loggingMiddleware)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "service": "AIBVS"})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", s.rateLimitMiddleware(s.authH.Login))
		r.Post("/register", s.withAuth(s.requirePermission(rbac.PermUsersManage)(s.authH.Register)))
		r.Get("/me", s.withAuth(s.authH.Me))
	})

	r.Route("/api/users", func(r chi.Router) {
		manage := s.requirePermission(rbac.PermUsersManage)
		r.Get("/", s.withAuth(manage(s.usersH.List)))
		r.Post("/", s.withAuth(manage(s.usersH.Create)))
		// Get and Update allow self-access; the handler rejects other
		// profiles for non-admins.
		r.Get("/{id}", s.withAuth(s.usersH.Get))
		r.Put("/{id}", s.withAuth(s.usersH.Update))
		r.Delete("/{id}", s.withAuth(manage(s.usersH.Delete)))
	})

	r.Route("/api/systems", func(r chi.Router) {
		r.Get("/", s.withAuth(s.requirePermission(rbac.PermSystemsView)(s.systemsH.List)))
		r.Get("/{id}", s.withAuth(s.requirePermission(rbac.PermSystemsView)(s.systemsH.Get)))
		r.Put("/{id}", s.withAuth(s.requirePermission(rbac.PermSystemsUpdate)(s.systemsH.Update)))
		r.Post("/{id}/switch", s.withAuth(s.requirePermission(rbac.PermSystemsSwitch)(s.systemsH.Switch)))
		r.Get("/{id}/stats", s.withAuth(s.requirePermission(rbac.PermSystemsView)(s.systemsH.Stats)))
	})

	r.Route("/api/scenarios", func(r chi.Router) {
		r.Get("/", s.withAuth(s.requirePermission(rbac.PermScenariosView)(s.scenariosH.List)))
		r.Post("/", s.withAuth(s.requirePermission(rbac.PermScenariosManage)(s.scenariosH.Create)))
		r.Get("/{id}", s.withAuth(s.requirePermission(rbac.PermScenariosView)(s.scenariosH.Get)))
		r.Post("/{id}/execute", s.withAuth(s.requirePermission(rbac.PermScenariosRun)(s.scenariosH.Execute)))
	})

	r.Route("/api/incidents", func(r chi.Router) {
		r.Get("/", s.withAuth(s.requirePermission(rbac.PermIncidentsView)(s.incidentsH.List)))
		r.Post("/", s.withAuth(s.requirePermission(rbac.PermIncidentsManage)(s.incidentsH.Create)))
		r.Get("/stats/summary", s.withAuth(s.requirePermission(rbac.PermIncidentsView)(s.incidentsH.StatsSummary)))
		r.Get("/{id}", s.withAuth(s.requirePermission(rbac.PermIncidentsView)(s.incidentsH.Get)))
		r.Put("/{id}", s.withAuth(s.requirePermission(rbac.PermIncidentsManage)(s.incidentsH.Update)))
	})

	r.Get("/api/logs", s.withAuth(s.requirePermission(rbac.PermLogsView)(s.logsH.List)))
	r.Post("/api/logs", s.withAuth(s.requirePermission(rbac.PermLogsView)(s.logsH.Create)))

	return r
}
