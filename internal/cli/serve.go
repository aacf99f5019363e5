package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lugayetu/collector/internal/api"
	"github.com/lugayetu/collector/internal/infrastructure/scheduler"
	"github.com/lugayetu/collector/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the orphan-audio sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServe(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		sched := scheduler.New(logger.Component("scheduler"))
		if cfg.Sweep.Schedule != "" {
			if err := sched.AddSweep(cfg.Sweep.Schedule, a.sweeper); err != nil {
				return err
			}
		}
		sched.Start()

		e := api.NewRouter(api.Services{
			Auth:       a.auth,
			Account:    a.account,
			Recordings: a.recordings,
			Admin:      a.admin,
			Languages:  a.languages,
			Export:     a.export,
		}, api.Options{
			MaxUploadBytes:  cfg.Storage.MaxUploadBytes,
			LoginRatePerMin: cfg.Auth.LoginRatePerMin,
			CookieSecure:    cfg.Auth.CookieSecure,
			Checks:          a.checks(),
		}, logger.Component("http"))

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Backend).Msg("server listening")
			if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			log.Info().Msg("shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
		sched.Stop(shutdownCtx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
