package logging

import (
	"context"
	"regexp"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// correlation identifies one ID carried through a call's lifecycle. The
// order of correlations is the order fields appear in log lines.
type correlation int

const (
	requestCorrelation correlation = iota
	callCorrelation
	conversationCorrelation
)

var correlationKeys = [...]string{
	requestCorrelation:      "request.id",
	callCorrelation:         "call.id",
	conversationCorrelation: "conversation.id",
}

type correlationCtxKey struct{ c correlation }
type loggerCtxKey struct{}

const maxIDLen = 128

// idPattern covers request IDs and provider IDs such as btcal_ and conv_.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

func withCorrelation(ctx context.Context, c correlation, id string) context.Context {
	// IDs come from URL paths and client headers, so anything that does not
	// look like an ID is dropped rather than logged.
	if !idPattern.MatchString(id) {
		return ctx
	}
	return context.WithValue(ctx, correlationCtxKey{c}, id)
}

func correlationFrom(ctx context.Context, c correlation) string {
	id, _ := ctx.Value(correlationCtxKey{c}).(string)
	return id
}

// WithRequestID tags ctx with the HTTP request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, requestCorrelation, id)
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx, requestCorrelation)
}

// WithCallID tags ctx with the provider batch call ID.
func WithCallID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, callCorrelation, id)
}

func CallIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx, callCorrelation)
}

// WithConversationID tags ctx with the provider conversation ID.
func WithConversationID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, conversationCorrelation, id)
}

func ConversationIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx, conversationCorrelation)
}

// ContextFields returns the trace and correlation fields found in ctx.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, len(correlationKeys)+3)

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	for c, key := range correlationKeys {
		if id := correlationFrom(ctx, correlation(c)); id != "" {
			fields = append(fields, zap.String(key, id))
		}
	}
	return fields
}

// Fields prepends the ContextFields of ctx to fields. Components that log
// through a plain *zap.Logger use it to keep call correlation:
//
//	s.logger.Info("conversation processed", logging.Fields(ctx, zap.Int("answers", n))...)
func Fields(ctx context.Context, fields ...zap.Field) []zap.Field {
	return append(ContextFields(ctx), fields...)
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return Nop()
}
