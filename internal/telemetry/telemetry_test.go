package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fyrsmithlabs/callscribe/internal/config"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips validation", func(c *Config) { c.Endpoint = "" }, false},
		{"enabled defaults", func(c *Config) { c.Enabled = true }, false},
		{"missing endpoint", func(c *Config) { c.Enabled = true; c.Endpoint = "" }, true},
		{"missing service", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, true},
		{"bad protocol", func(c *Config) { c.Enabled = true; c.Protocol = "thrift" }, true},
		{"bad rate", func(c *Config) { c.Enabled = true; c.SamplingRate = 1.5 }, true},
		{"zero interval", func(c *Config) { c.Enabled = true; c.ExportInterval = 0 }, true},
		{"zero shutdown", func(c *Config) { c.Enabled = true; c.ShutdownTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromObservability(t *testing.T) {
	cfg := FromObservability(config.ObservabilityConfig{
		EnableTelemetry: true,
		ServiceName:     "callscribe-test",
		Endpoint:        "collector.internal:4318",
		Protocol:        ProtocolHTTP,
		SamplingRate:    0.25,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "callscribe-test", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 0.25, cfg.SamplingRate)
	assert.False(t, cfg.Insecure)

	local := FromObservability(config.ObservabilityConfig{Endpoint: "127.0.0.1:4317"}, "")
	assert.True(t, local.Insecure)
	assert.Equal(t, "dev", local.ServiceVersion)
}

func TestIsLocalEndpoint(t *testing.T) {
	tests := map[string]bool{
		"localhost:4317":        true,
		"127.0.0.1:4317":        true,
		"[::1]:4317":            true,
		"http://localhost:4318": true,
		"otel.example.com:4317": false,
		"10.0.0.5:4317":         false,
	}
	for endpoint, want := range tests {
		assert.Equal(t, want, isLocalEndpoint(endpoint), endpoint)
	}
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig(), nil)
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	require.NoError(t, tel.ForceFlush(context.Background()))
	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.SamplingRate = -1
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNilTelemetry(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
	assert.False(t, tel.IsEnabled())
	assert.True(t, tel.Health().Degraded)
}

func TestTestTelemetry_RecordsSpansAndMetrics(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("callscribe/test").Start(ctx, "calls.make_call")
	span.SetAttributes(attribute.String("call.agent_id", "agent_1"), attribute.Int("call.questions", 3))
	span.End()

	tt.AssertSpanExists(t, "calls.make_call")
	tt.AssertSpanAttribute(t, "calls.make_call", "call.agent_id", "agent_1")
	tt.AssertSpanAttribute(t, "calls.make_call", "call.questions", int64(3))

	counter, err := tt.Meter("callscribe/test").Int64Counter("calls.created")
	require.NoError(t, err)
	counter.Add(ctx, 2)

	rm, err := tt.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "calls.created", rm.ScopeMetrics[0].Metrics[0].Name)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	assert.NoError(t, tt.Shutdown(shutdownCtx))
}
