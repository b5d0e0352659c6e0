package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldinspect/internal/app/server/api"
	"fieldinspect/internal/domain/authority"
	"fieldinspect/internal/domain/session"
	"fieldinspect/internal/infrastructure/storage/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := openStorage(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		authorityRepo := postgres.NewAuthorityRepository(db, log)
		sessionRepo := postgres.NewSessionRepository(db, log)

		router := api.New(api.Deps{
			DB:        db.Pool(),
			Authority: authority.NewService(authorityRepo, log),
			Sessions:  session.NewService(sessionRepo, cfg.Auth.DeviceTokenTTL, log),
		}, log)

		srv := &http.Server{
			Addr:              cfg.Server.RunAddress,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server started", "address", cfg.Server.RunAddress, "env", cfg.Env)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info("server stopped")
		return nil
	},
}
