package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coverletter-backend/internal/bootstrap"
	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/server"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	if app.DB != nil {
		defer app.DB.Close()
		if err := db.RunMigrations(ctx, app.DB); err != nil {
			telemetry.Error("api.migrations_failed", map[string]any{"error": err})
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		telemetry.Info("api.started", map[string]any{
			"addr":         srv.Addr,
			"env":          cfg.Env,
			"llm_provider": cfg.LLMProvider,
			"async":        app.Queue != nil,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			telemetry.Error("api.server_error", map[string]any{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("api.shutdown_failed", map[string]any{"error": err})
	}
}
