package appbootstrap

import (
	"aibvs/api"
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
	"aibvs/core/watchdog"
)

type runtimeComposition struct {
	serverDeps api.Deps
	watchdog   *watchdog.Watchdog
}

func composeRuntime(cfg *config.AppConfig, db *store.DB, logger *utils.Logger) (*runtimeComposition, error) {
	usersStore := store.NewUsersStore(db)
	systemsStore := store.NewSystemsStore(db)
	scenariosStore := store.NewScenariosStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	auditStore := store.NewAuditStore(db, cfg.Logs.DefaultLimit, cfg.Logs.MaxLimit)

	recorder := audit.NewRecorder(auditStore, logger)
	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.EffectiveTokenTTL())
	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}

	usersSvc := users.NewService(usersStore, tokens, recorder, logger)
	systemsSvc := systems.NewService(systemsStore, recorder, logger)
	incidentsSvc := incidents.NewService(incidentsStore, systemsStore, recorder, logger)
	scenariosSvc := scenarios.NewService(scenariosStore, systemsStore, recorder, logger)
	dog := watchdog.New(cfg.Watchdog, systemsStore, incidentsStore, recorder, logger)

	return &runtimeComposition{
		serverDeps: api.Deps{
			Config:    cfg,
			Logger:    logger,
			Tokens:    tokens,
			Policy:    policy,
			UserStore: usersStore,
			Users:     usersSvc,
			Systems:   systemsSvc,
			Scenarios: scenariosSvc,
			Incidents: incidentsSvc,
			Recorder:  recorder,
		},
		watchdog: dog,
	}, nil
}
