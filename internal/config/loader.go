package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CALLSCRIBE_"

	appDir = "callscribe"
)

// Load loads configuration from the YAML file at configPath, then overrides
// it with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CALLSCRIBE_SERVER_HTTP_PORT, CALLSCRIBE_ELEVENLABS_API_KEY, ...)
//  2. Provider variables ELEVENLABS_API_KEY and ELEVENLABS_PHONE_NUMBER_ID
//  3. YAML config file (~/.config/callscribe/config.yaml)
//  4. Hardcoded defaults
//
// A missing file is not an error. An existing file must live under
// ~/.config/callscribe/ or /etc/callscribe/, be at most 1MB, and have 0600
// or 0400 permissions since it may hold the provider API key.
//
// # Environment Variable Mapping
//
// After the CALLSCRIBE_ prefix is removed, the first underscore separates
// the section from the field name:
//
//	CALLSCRIBE_SERVER_HTTP_PORT      -> server.http_port
//	CALLSCRIBE_ELEVENLABS_API_KEY    -> elevenlabs.api_key
//	CALLSCRIBE_TEMPORAL_TASK_QUEUE   -> temporal.task_queue
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", appDir, "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyProviderEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps CALLSCRIBE_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

// applyProviderEnv honours the provider's own variable names unless the
// prefixed form already set a value.
func applyProviderEnv(cfg *Config) {
	if !cfg.ElevenLabs.APIKey.IsSet() {
		cfg.ElevenLabs.APIKey = Secret(os.Getenv("ELEVENLABS_API_KEY"))
	}
	if cfg.ElevenLabs.PhoneNumberID == "" {
		cfg.ElevenLabs.PhoneNumberID = os.Getenv("ELEVENLABS_PHONE_NUMBER_ID")
	}
}

// readConfigFile opens the file once and validates the descriptor to avoid
// a TOCTOU race between the checks and the read.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// EnsureConfigDir creates the callscribe config directory with 0700
// permissions if it doesn't exist.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(home, ".config", appDir)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// validateConfigPath checks if path is in allowed directories.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so they cannot escape the allowed directories. Paths
	// that do not exist yet are checked as given.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", appDir),
		filepath.Join("/etc", appDir),
	}
	for _, dir := range allowedDirs {
		if resolvedPath == dir || strings.HasPrefix(resolvedPath, dir+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/%s/ or /etc/%s/", appDir, appDir)
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Windows has a different permission model.
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	// Provider defaults
	if cfg.ElevenLabs.BaseURL == "" {
		cfg.ElevenLabs.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if cfg.ElevenLabs.Timeout == 0 {
		cfg.ElevenLabs.Timeout = 30 * time.Second
	}
	if cfg.ElevenLabs.MaxRetries == 0 {
		cfg.ElevenLabs.MaxRetries = 3
	}
	if cfg.ElevenLabs.RateLimit == 0 {
		cfg.ElevenLabs.RateLimit = 5
	}
	if cfg.ElevenLabs.Burst == 0 {
		cfg.ElevenLabs.Burst = 5
	}
	if cfg.ElevenLabs.DefaultVoiceID == "" {
		cfg.ElevenLabs.DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if cfg.ElevenLabs.DefaultLang == "" {
		cfg.ElevenLabs.DefaultLang = "en"
	}

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreMemory
	}
	if cfg.Store.Retention == 0 {
		cfg.Store.Retention = 7 * 24 * time.Hour
	}
	if cfg.NATS.Bucket == "" {
		cfg.NATS.Bucket = "callscribe_calls"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "calls"
	}

	// Temporal defaults
	if cfg.Temporal.HostPort == "" {
		cfg.Temporal.HostPort = "localhost:7233"
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = "default"
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "callscribe-followup"
	}
	if cfg.Temporal.PollInterval == 0 {
		cfg.Temporal.PollInterval = 30 * time.Second
	}
	if cfg.Temporal.MaxPolls == 0 {
		cfg.Temporal.MaxPolls = 120
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Observability defaults
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "callscribe"
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = "localhost:4317"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
	if cfg.Observability.SamplingRate <= 0 {
		cfg.Observability.SamplingRate = 1.0
	}
}
