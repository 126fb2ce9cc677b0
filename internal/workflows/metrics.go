package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/callscribe/internal/workflows"

var (
	followUpCounter      metric.Int64Counter
	followUpPolls        metric.Int64Histogram
	activityDuration     metric.Float64Histogram
	activityErrorCounter metric.Int64Counter
)

func init() {
	meter := otel.Meter(instrumentationName)
	followUpCounter = must(meter.Int64Counter(
		"callscribe.workflows.followup.completions",
		metric.WithDescription("Follow-up workflow completions by outcome"),
		metric.WithUnit("{execution}"),
	))
	followUpPolls = must(meter.Int64Histogram(
		"callscribe.workflows.followup.polls",
		metric.WithDescription("Status polls a follow-up needed before it ended"),
		metric.WithUnit("{poll}"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 40, 80, 120),
	))
	activityDuration = must(meter.Float64Histogram(
		"callscribe.workflows.activity.duration",
		metric.WithDescription("Duration of follow-up activity executions"),
		metric.WithUnit("s"),
	))
	activityErrorCounter = must(meter.Int64Counter(
		"callscribe.workflows.activity.errors",
		metric.WithDescription("Follow-up activity failures by activity"),
		metric.WithUnit("{error}"),
	))
}

// must panics on instrument creation errors, which only occur for invalid
// names or options.
func must[T any](inst T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("workflow metrics: %v", err))
	}
	return inst
}

// recordOutcome counts a finished follow-up. Replayed executions are
// skipped so a workflow is counted once.
func recordOutcome(ctx workflow.Context, outcome string, polls int) {
	if workflow.IsReplaying(ctx) {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	followUpCounter.Add(context.Background(), 1, attrs)
	followUpPolls.Record(context.Background(), int64(polls), attrs)
}
