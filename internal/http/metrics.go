package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/callscribe/internal/http"

// HTTPMetrics records per-route request counts, latency and response size
// through the otel meter. The Prometheus call counters on /metrics are
// separate and live in the calls package.
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

// NewHTTPMetrics builds the instruments from the global meter provider.
func NewHTTPMetrics(logger *zap.Logger) *HTTPMetrics {
	return newHTTPMetrics(otel.Meter(httpInstrumentationName), logger)
}

// newHTTPMetrics leaves an instrument nil when the meter rejects it; the
// middleware skips nil instruments.
func newHTTPMetrics(meter metric.Meter, logger *zap.Logger) *HTTPMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	warn := func(name string, err error) {
		if err != nil {
			logger.Warn("failed to create http instrument", zap.String("instrument", name), zap.Error(err))
		}
	}

	m := &HTTPMetrics{}
	var err error
	m.requests, err = meter.Int64Counter("callscribe.http.requests_total",
		metric.WithDescription("HTTP requests by method, route and status code"),
		metric.WithUnit("{request}"))
	warn("requests_total", err)

	m.duration, err = meter.Float64Histogram("callscribe.http.request_duration_seconds",
		metric.WithDescription("HTTP request latency by method, route and status code"),
		metric.WithUnit("s"),
		// make-call and process-conversation wait on the provider, so the
		// upper buckets reach past the provider client timeout.
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60))
	warn("request_duration_seconds", err)

	m.size, err = meter.Int64Histogram("callscribe.http.response_size_bytes",
		metric.WithDescription("HTTP response body size by method, route and status code"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(100, 500, 1000, 5000, 20000, 100000))
	warn("response_size_bytes", err)

	m.inFlight, err = meter.Int64UpDownCounter("callscribe.http.active_requests",
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"))
	warn("active_requests", err)

	return m
}

// MetricsMiddleware records every request. Handler errors are rendered here
// so the recorded status is the one sent to the client.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			if m.inFlight != nil {
				m.inFlight.Add(ctx, 1)
				defer m.inFlight.Add(ctx, -1)
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("endpoint", normalizePath(c.Path())),
				attribute.Int("status", status),
				attribute.String("status_class", statusClass(status)),
			)
			if m.requests != nil {
				m.requests.Add(ctx, 1, attrs)
			}
			if m.duration != nil {
				m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			}
			if m.size != nil {
				m.size.Record(ctx, c.Response().Size, attrs)
			}
			return nil
		}
	}
}

// normalizePath keeps the endpoint label bounded. Echo reports the route
// template ("/api/call-status/:id"), so only unrouted requests need folding.
func normalizePath(path string) string {
	switch {
	case path == "":
		return "/"
	case strings.HasSuffix(path, "/*"):
		return "unmatched"
	default:
		return path
	}
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
