package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that decodes from YAML and environment text.
// A bare integer is read as seconds, so CALLSCRIBE_WORKFLOW_POLL_INTERVAL=30
// and poll_interval: 30s mean the same thing.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(secs) + "s"
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Secret holds a credential such as the ElevenLabs API key. Every formatting
// and encoding path prints a redaction marker; only Value exposes the key.
type Secret string

const (
	redacted = "[REDACTED]"

	// placeholderSecret is the value shipped in sample env files.
	placeholderSecret = "your-api-key-here"
)

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string { return "Secret(" + redacted + ")" }

func (s Secret) Value() string { return string(s) }

// IsSet reports whether the secret is non-empty.
func (s Secret) IsSet() bool { return s != "" }

// IsPlaceholder reports whether the secret is still the sample value.
func (s Secret) IsPlaceholder() bool {
	return strings.TrimSpace(string(s)) == placeholderSecret
}

// Usable reports whether the secret is set to something other than the
// sample value.
func (s Secret) Usable() bool { return s.IsSet() && !s.IsPlaceholder() }

func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(strings.TrimSpace(string(text)))
	return nil
}
