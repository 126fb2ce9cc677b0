package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

// StarterConfig configures follow-up scheduling.
type StarterConfig struct {
	TaskQueue    string
	PollInterval time.Duration
	MaxPolls     int
}

// Starter schedules CallFollowUpWorkflow runs.
type Starter struct {
	client client.Client
	cfg    StarterConfig
	logger *zap.Logger
}

// NewStarter creates a starter on an existing Temporal client.
func NewStarter(c client.Client, cfg StarterConfig, logger *zap.Logger) *Starter {
	if cfg.TaskQueue == "" {
		cfg.TaskQueue = DefaultTaskQueue
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Starter{client: c, cfg: cfg, logger: logger.Named("workflows")}
}

// WorkflowID is the deterministic workflow ID for a call, so a call is
// followed by at most one running workflow.
func WorkflowID(batchCallID string) string {
	return "call-followup-" + batchCallID
}

// Start schedules a follow-up for the call and returns the run ID.
func (s *Starter) Start(ctx context.Context, batchCallID string) (string, error) {
	input := FollowUpInput{
		BatchCallID:  batchCallID,
		PollInterval: s.cfg.PollInterval,
		MaxPolls:     s.cfg.MaxPolls,
	}
	if err := input.Validate(); err != nil {
		return "", err
	}

	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        WorkflowID(batchCallID),
		TaskQueue: s.cfg.TaskQueue,
	}, CallFollowUpWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("failed to start follow-up workflow: %w", err)
	}

	s.logger.Info("follow-up workflow started",
		zap.String("batch_call_id", batchCallID),
		zap.String("workflow_id", run.GetID()),
		zap.String("run_id", run.GetRunID()),
	)
	return run.GetRunID(), nil
}
