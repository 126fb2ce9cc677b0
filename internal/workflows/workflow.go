package workflows

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
)

// CallFollowUpWorkflow polls a call until the platform reports a terminal
// status. A completed call has its conversation processed; a failed or
// cancelled call ends the workflow without processing.
func CallFollowUpWorkflow(ctx workflow.Context, input FollowUpInput) (*FollowUpResult, error) {
	logger := workflow.GetLogger(ctx)
	if err := input.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
	}
	input = input.withDefaults()
	logger.Info("Starting call follow-up",
		"batch_call_id", input.BatchCallID,
		"poll_interval", input.PollInterval,
		"max_polls", input.MaxPolls)

	pollCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	processCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2,
			MaximumAttempts:    5,
		},
	})

	var a *Activities
	result := &FollowUpResult{BatchCallID: input.BatchCallID}

	for poll := 1; poll <= input.MaxPolls; poll++ {
		result.Polls = poll

		var status string
		err := workflow.ExecuteActivity(pollCtx, a.PollStatus, input.BatchCallID).Get(ctx, &status)
		switch {
		case err != nil && isErrorType(err, ErrTypeCallNotFound):
			result.Errors = append(result.Errors, FormatErrorForResult("failed to poll call status", err))
			recordOutcome(ctx, "not_found", result.Polls)
			return result, err
		case err != nil:
			logger.Warn("Status poll failed", "poll", poll, "error", err)
			result.Errors = append(result.Errors, FormatErrorForResult("failed to poll call status", err))
		default:
			result.FinalStatus = status
		}

		switch {
		case err == nil && strings.EqualFold(status, calls.StatusCompleted):
			var out ProcessOutput
			if err := workflow.ExecuteActivity(processCtx, a.ProcessConversation, input.BatchCallID).Get(ctx, &out); err != nil {
				result.Errors = append(result.Errors, FormatErrorForResult("failed to process conversation", err))
				recordOutcome(ctx, "process_failed", result.Polls)
				return result, WrapActivityError("failed to process conversation", err)
			}
			result.Processed = true
			result.ConversationID = out.ConversationID
			result.Answered = out.Answered
			logger.Info("Call follow-up complete",
				"conversation_id", out.ConversationID,
				"answered", out.Answered)
			recordOutcome(ctx, "processed", result.Polls)
			return result, nil
		case err == nil && calls.IsTerminal(status):
			logger.Info("Call ended without a conversation to process", "status", status)
			recordOutcome(ctx, status, result.Polls)
			return result, nil
		}

		if poll < input.MaxPolls {
			if err := workflow.Sleep(ctx, input.PollInterval); err != nil {
				return result, err
			}
		}
	}

	logger.Warn("Call follow-up gave up", "polls", result.Polls, "last_status", result.FinalStatus)
	result.TimedOut = true
	recordOutcome(ctx, "timed_out", result.Polls)
	return result, nil
}
