package watchdog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"aibvs/config"
	"aibvs/core/audit"
	"aibvs/core/store"
	"aibvs/core/utils"
)

// Watchdog periodically sweeps the equipment inventory and opens a
// reminder incident for every active system whose last_check is older
// than the configured threshold. Reminders are deduplicated: a system
// with an open reminder does not get another one.
type Watchdog struct {
	cfg       config.WatchdogConfig
	systems   store.SystemsStore
	incidents store.IncidentsStore
	recorder  *audit.Recorder
	logger    *utils.Logger
	cron      *cron.Cron
}

func New(cfg config.WatchdogConfig, systems store.SystemsStore, incidents store.IncidentsStore, recorder *audit.Recorder, logger *utils.Logger) *Watchdog {
	return &Watchdog{
		cfg:       cfg,
		systems:   systems,
		incidents: incidents,
		recorder:  recorder,
		logger:    logger,
	}
}

func (w *Watchdog) Start() error {
	if !w.cfg.Enabled {
		w.logger.Printf("watchdog disabled")
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(w.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := w.Sweep(ctx); err != nil {
			w.logger.Errorf("watchdog sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("watchdog schedule %q: %w", w.cfg.Schedule, err)
	}
	c.Start()
	w.cron = c
	w.logger.Printf("watchdog started (schedule %s, stale after %s)", w.cfg.Schedule, w.cfg.StaleAfter)
	return nil
}

func (w *Watchdog) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

func (w *Watchdog) Sweep(ctx context.Context) error {
	systems, err := w.systems.List(ctx)
	if err != nil {
		return err
	}
	cutoff := utils.NowUTC().Add(-w.cfg.StaleAfter)
	for _, sys := range systems {
		if sys.Status != store.SystemActive || !sys.LastCheck.Before(cutoff) {
			continue
		}
		title := fmt.Sprintf("Contrôle en retard: %s", sys.Name)
		existing, err := w.incidents.FindOpenByTitle(ctx, sys.ID, title)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		inc := &store.Incident{
			Title:       title,
			Description: fmt.Sprintf("Dernier contrôle du système %s le %s", sys.Name, sys.LastCheck.Format(time.RFC3339)),
			SystemID:    &sys.ID,
			Severity:    store.SeverityMedium,
			Status:      store.IncidentOpen,
		}
		id, err := w.incidents.Create(ctx, inc)
		if err != nil {
			return err
		}
		w.logger.Warnf("system %s overdue for check, opened incident %d", sys.Name, id)
		w.recorder.Record(ctx, audit.Entry{
			Action:     store.ActionSystemCheckOverdue,
			EntityType: "system",
			EntityID:   &sys.ID,
			Details:    map[string]any{"incident_id": id, "last_check": sys.LastCheck.Format(time.RFC3339)},
		})
	}
	return nil
}
