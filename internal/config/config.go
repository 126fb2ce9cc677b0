// Package config provides configuration loading for callscribe.
//
// Configuration is read from an optional YAML file and overridden by
// environment variables, then defaults are applied and the result validated.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreNATS   = "nats"
)

// Config holds the complete callscribe configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	ElevenLabs    ElevenLabsConfig    `koanf:"elevenlabs"`
	Extraction    ExtractionConfig    `koanf:"extraction"`
	Store         StoreConfig         `koanf:"store"`
	NATS          NATSConfig          `koanf:"nats"`
	Temporal      TemporalConfig      `koanf:"temporal"`
	Templates     TemplatesConfig     `koanf:"templates"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// ElevenLabsConfig holds conversational-voice provider settings.
type ElevenLabsConfig struct {
	APIKey         Secret        `koanf:"api_key"`
	PhoneNumberID  string        `koanf:"phone_number_id"`
	BaseURL        string        `koanf:"base_url"`
	Timeout        time.Duration `koanf:"timeout"`
	MaxRetries     int           `koanf:"max_retries"`
	RateLimit      float64       `koanf:"rate_limit"` // requests per second
	Burst          int           `koanf:"burst"`
	DefaultVoiceID string        `koanf:"default_voice_id"`
	DefaultLang    string        `koanf:"default_language"`
}

// Configured reports whether an API key other than the placeholder is set.
func (c ElevenLabsConfig) Configured() bool {
	return c.APIKey.Usable()
}

// ExtractionConfig tunes the answer extraction engine.
type ExtractionConfig struct {
	DisableFallback bool `koanf:"disable_fallback"`
}

// StoreConfig selects where call records live.
type StoreConfig struct {
	Backend   string        `koanf:"backend"`   // memory or nats
	Retention time.Duration `koanf:"retention"` // how long processed calls are kept
}

// NATSConfig holds NATS connection settings used for the key-value store
// and call events.
type NATSConfig struct {
	URL           string `koanf:"url"`
	Bucket        string `koanf:"bucket"`
	SubjectPrefix string `koanf:"subject_prefix"`
	Events        bool   `koanf:"events"`
}

// TemporalConfig holds follow-up workflow settings.
type TemporalConfig struct {
	Enabled      bool          `koanf:"enabled"`
	HostPort     string        `koanf:"host_port"`
	Namespace    string        `koanf:"namespace"`
	TaskQueue    string        `koanf:"task_queue"`
	PollInterval time.Duration `koanf:"poll_interval"`
	MaxPolls     int           `koanf:"max_polls"`
}

// TemplatesConfig points at an optional agent template file.
type TemplatesConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// LoggingConfig holds the subset of logging settings exposed in config files.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	ServiceName     string  `koanf:"service_name"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // grpc or http/protobuf
	Insecure        bool    `koanf:"insecure"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.ElevenLabs.BaseURL == "" {
		return errors.New("elevenlabs base url is required")
	}
	if c.ElevenLabs.Timeout <= 0 {
		return errors.New("elevenlabs timeout must be positive")
	}
	if c.ElevenLabs.MaxRetries < 0 {
		return fmt.Errorf("elevenlabs max retries cannot be negative: %d", c.ElevenLabs.MaxRetries)
	}
	if c.ElevenLabs.RateLimit <= 0 || c.ElevenLabs.Burst <= 0 {
		return errors.New("elevenlabs rate limit and burst must be positive")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreNATS:
		if c.NATS.URL == "" {
			return errors.New("nats url required for nats store backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	if c.Store.Retention < 0 {
		return errors.New("store retention cannot be negative")
	}
	if c.NATS.Events && c.NATS.URL == "" {
		return errors.New("nats url required when events are enabled")
	}

	if c.Temporal.Enabled {
		if c.Temporal.HostPort == "" || c.Temporal.TaskQueue == "" {
			return errors.New("temporal host_port and task_queue are required when temporal is enabled")
		}
		if c.Temporal.PollInterval <= 0 || c.Temporal.MaxPolls <= 0 {
			return errors.New("temporal poll_interval and max_polls must be positive")
		}
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	return nil
}
