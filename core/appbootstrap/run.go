package appbootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aibvs/api"
	"aibvs/config"
	"aibvs/core/store"
	"aibvs/core/utils"
)

// Run wires the full runtime and serves until SIGINT or SIGTERM.
func Run(cfg *config.AppConfig, logger *utils.Logger) error {
	if cfg.TokenSecret == "" {
		return errors.New("token secret is not configured")
	}
	db, err := store.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.Migrate(ctx, db, logger); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if cfg.SeedData {
		if err := store.Seed(ctx, db, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	comp, err := composeRuntime(cfg, db, logger)
	if err != nil {
		return err
	}
	server := api.NewServer(comp.serverDeps)

	if err := comp.watchdog.Start(); err != nil {
		return err
	}
	defer comp.watchdog.Stop()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
