package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/callscribe/internal/config"
	"github.com/fyrsmithlabs/callscribe/internal/workflows"
)

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the call follow-up workflow worker",
		Long: `Run a Temporal worker that executes call follow-up workflows.

The worker and the API must share call state, so use the nats store
backend when running them as separate processes.`,
		Args: cobra.NoArgs,
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
			return runWorker(ctx, a)
		},
	}
}

func runWorker(ctx context.Context, a *app) error {
	logger := a.logger.Underlying()
	if a.cfg.Store.Backend == config.StoreMemory {
		logger.Warn("worker is using the memory store and will only see calls made in this process")
	}

	c, err := a.dialTemporal()
	if err != nil {
		return err
	}

	w := worker.New(c, a.cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CallFollowUpWorkflow)
	w.RegisterActivity(workflows.NewActivities(a.service))

	logger.Info("worker configured", zap.String("task_queue", a.cfg.Temporal.TaskQueue))

	interrupt := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()

	logger.Info("worker starting")
	if err := w.Run(interrupt); err != nil {
		return err
	}
	logger.Info("worker stopped gracefully")
	return nil
}
