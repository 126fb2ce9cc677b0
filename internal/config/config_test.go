package config

import (
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"no shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"no base url", func(c *Config) { c.ElevenLabs.BaseURL = "" }, true},
		{"no timeout", func(c *Config) { c.ElevenLabs.Timeout = 0 }, true},
		{"zero burst", func(c *Config) { c.ElevenLabs.Burst = 0 }, true},
		{"nats backend with url", func(c *Config) {
			c.Store.Backend = StoreNATS
			c.NATS.URL = "nats://localhost:4222"
		}, false},
		{"negative retention", func(c *Config) { c.Store.Retention = -time.Second }, true},
		{"temporal enabled with defaults", func(c *Config) { c.Temporal.Enabled = true }, false},
		{"temporal without queue", func(c *Config) {
			c.Temporal.Enabled = true
			c.Temporal.TaskQueue = ""
		}, true},
		{"temporal zero polls", func(c *Config) {
			c.Temporal.Enabled = true
			c.Temporal.MaxPolls = 0
		}, true},
		{"telemetry without service name", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.ServiceName = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
