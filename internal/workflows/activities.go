package workflows

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/temporal"

	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
)

// CallService is the subset of calls.Service the activities drive.
type CallService interface {
	Status(ctx context.Context, id string) (*calls.StatusReport, error)
	ProcessConversation(ctx context.Context, id string) (*calls.Result, error)
}

// Activities wraps the call service for Temporal. Register the struct
// pointer so both methods are exposed.
type Activities struct {
	svc CallService
}

// NewActivities creates activities backed by svc.
func NewActivities(svc CallService) *Activities {
	return &Activities{svc: svc}
}

// PollStatus refreshes the call status from the platform.
func (a *Activities) PollStatus(ctx context.Context, batchCallID string) (string, error) {
	defer record(ctx, "poll_status", time.Now())

	report, err := a.svc.Status(ctx, batchCallID)
	if err != nil {
		return "", classify("poll_status", err)
	}
	return report.Status, nil
}

// ProcessConversation extracts answers from the finished call.
func (a *Activities) ProcessConversation(ctx context.Context, batchCallID string) (*ProcessOutput, error) {
	defer record(ctx, "process_conversation", time.Now())

	result, err := a.svc.ProcessConversation(ctx, batchCallID)
	if err != nil {
		return nil, classify("process_conversation", err)
	}
	out := &ProcessOutput{ConversationID: result.ConversationID}
	for _, answer := range result.ExtractedInfo.Answers() {
		if answer != extraction.NotAnswered && answer != extraction.ProcessingError {
			out.Answered++
		}
	}
	return out, nil
}

// classify maps service errors onto Temporal application errors.
func classify(op string, err error) error {
	activityErrorCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("activity", op)))

	var notFound *calls.ConversationNotFoundError
	switch {
	case errors.Is(err, calls.ErrCallNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeCallNotFound, err)
	case errors.As(err, &notFound):
		return temporal.NewApplicationError(err.Error(), ErrTypeConversationPending, err)
	default:
		return WrapActivityError(op, err)
	}
}

func record(ctx context.Context, op string, start time.Time) {
	activityDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("activity", op)))
}
