package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/fyrsmithlabs/callscribe/internal/http"
	"github.com/fyrsmithlabs/callscribe/internal/workflows"
)

// retentionInterval is how often expired calls are pruned.
const retentionInterval = time.Hour

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return serve(ctx, a)
		},
	}
}

// serve runs the API until ctx is cancelled.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logger := a.logger.Underlying()

	var serverOpts []httpapi.Option
	if cfg.Temporal.Enabled {
		c, err := a.dialTemporal()
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, httpapi.WithFollowUp(workflows.NewStarter(c, workflows.StarterConfig{
			TaskQueue:    cfg.Temporal.TaskQueue,
			PollInterval: cfg.Temporal.PollInterval,
			MaxPolls:     cfg.Temporal.MaxPolls,
		}, logger)))
	}

	srv, err := httpapi.NewServer(a.service, a.engine, logger, &httpapi.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSOrigins: cfg.Server.CORSOrigins,
		Version:     version,
	}, serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	if cfg.Templates.Watch && cfg.Templates.Path != "" {
		go func() {
			if err := a.catalog.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("template watcher stopped", zap.Error(err))
			}
		}()
	}
	go a.service.RunRetention(ctx, retentionInterval, cfg.Store.Retention)

	logger.Info("starting callscribe",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("provider_configured", a.service.ProviderConfigured()),
		zap.Bool("follow_up", cfg.Temporal.Enabled),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return <-errCh
}
