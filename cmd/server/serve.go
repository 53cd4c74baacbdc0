package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/servicedesk-be/internal/config"
	"github.com/hongminglow/servicedesk-be/internal/logs"
	"github.com/hongminglow/servicedesk-be/internal/notify"
	"github.com/hongminglow/servicedesk-be/internal/server"
	"github.com/hongminglow/servicedesk-be/internal/storage/postgres"
)

var noMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server.

Requires DATABASE_URL and JWT_SECRET. Pending migrations are applied on
startup unless MIGRATE_ON_START=false or --no-migrate is given.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&noMigrate, "no-migrate", false, "skip applying migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logs.New(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.MigrateOnStart && !noMigrate {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info("database migrations applied")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer store.Close()

	srv := server.New(cfg, server.Deps{
		Store:    store,
		DB:       store,
		Notifier: notify.NewLogNotifier(log.WithField("component", "notify")),
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown")
		return err
	}
	return nil
}
