package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry owns the tracer and meter providers of a callscribe process.
// The call service, extraction engine, HTTP metrics and follow-up workflow
// all take their tracers and meters from the otel globals that New installs.
type Telemetry struct {
	config *Config
	logger *zap.Logger

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	stopped atomic.Bool

	mu       sync.Mutex
	degraded []string
}

// HealthStatus reports whether telemetry is exporting.
type HealthStatus struct {
	Healthy  bool     `json:"healthy"`
	Degraded bool     `json:"degraded"`
	Failed   []string `json:"failed,omitempty"`
}

// provider is the lifecycle shared by the trace and metric SDK providers.
type provider interface {
	Shutdown(context.Context) error
	ForceFlush(context.Context) error
}

// New builds the providers and installs them as otel globals. A provider
// whose exporter cannot be created leaves the instance degraded; callers
// keep running on the no-op global for that signal.
func New(ctx context.Context, cfg *Config, logger *zap.Logger) (*Telemetry, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Telemetry{config: cfg, logger: logger}
	if !cfg.Enabled {
		return t, nil
	}

	res := newResource(cfg)
	if tp, err := newTracerProvider(ctx, cfg, res); err != nil {
		t.markDegraded("traces", err)
	} else {
		t.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}
	if mp, err := newMeterProvider(ctx, cfg, res); err != nil {
		t.markDegraded("metrics", err)
	} else {
		t.meterProvider = mp
		otel.SetMeterProvider(mp)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		zap.String("service", cfg.ServiceName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("protocol", cfg.Protocol),
		zap.Float64("sampling_rate", cfg.SamplingRate),
	)
	return t, nil
}

func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

func (t *Telemetry) providers() map[string]provider {
	out := make(map[string]provider, 2)
	if t.tracerProvider != nil {
		out["traces"] = t.tracerProvider
	}
	if t.meterProvider != nil {
		out["metrics"] = t.meterProvider
	}
	return out
}

// Shutdown flushes and stops the providers. Without a deadline on ctx the
// configured shutdown timeout applies.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || !t.stopped.CompareAndSwap(false, true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}
	var errs []error
	for signal, p := range t.providers() {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s shutdown: %w", signal, err))
		}
	}
	return errors.Join(errs...)
}

// ForceFlush exports everything pending.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	for signal, p := range t.providers() {
		if err := p.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s flush: %w", signal, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return HealthStatus{
		Healthy:  !t.stopped.Load(),
		Degraded: len(t.degraded) > 0,
		Failed:   append([]string(nil), t.degraded...),
	}
}

// IsEnabled reports whether telemetry is enabled and not shut down.
func (t *Telemetry) IsEnabled() bool {
	if t == nil || t.config == nil {
		return false
	}
	return t.config.Enabled && !t.stopped.Load()
}

func (t *Telemetry) markDegraded(signal string, err error) {
	t.mu.Lock()
	t.degraded = append(t.degraded, signal)
	t.mu.Unlock()
	t.logger.Warn("telemetry degraded", zap.String("signal", signal), zap.Error(err))
}
