package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/callscribe/internal/config"
)

// captureStdout redirects the stdout core to a buffer for the test.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, logger.Underlying())
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestLogger_WritesJSONWithServiceAndContext(t *testing.T) {
	buf := captureStdout(t)
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	ctx := WithCallID(WithRequestID(context.Background(), "req-1"), "btcal_42")
	logger.Info(ctx, "call submitted", zap.String("agent_id", "agent_7"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "call submitted", lines[0]["msg"])
	assert.Equal(t, "callscribe", lines[0]["service"])
	assert.Equal(t, "req-1", lines[0]["request.id"])
	assert.Equal(t, "btcal_42", lines[0]["call.id"])
	assert.Equal(t, "agent_7", lines[0]["agent_id"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")
}

func TestLogger_RedactsPerEntryFields(t *testing.T) {
	buf := captureStdout(t)
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.Warn(context.Background(), "provider call",
		zap.String("xi-api-key", "sk-raw"),
		zap.String("detail", "Bearer abc.def"),
		Secret("api_key_value", config.Secret("sk-raw")),
		MaskedPhone("phone", "+1 (555) 123-4567"),
	)

	out := buf.String()
	assert.NotContains(t, out, "sk-raw")
	assert.NotContains(t, out, "abc.def")
	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "[REDACTED]", lines[0]["xi-api-key"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["detail"])
	assert.Equal(t, "*******4567", lines[0]["phone"])
}

func TestLogger_Levels(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Trace(ctx, "trace message")
	tl.Debug(ctx, "debug message")
	tl.Info(ctx, "info message")
	tl.Warn(ctx, "warn message")
	tl.Error(ctx, "error message")

	entries := tl.All()
	require.Len(t, entries, 5)
	assert.Equal(t, TraceLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	child := tl.With(zap.String("component", "calls")).Named("service")

	child.Info(context.Background(), "child message")
	tl.Info(context.Background(), "parent message")

	tl.AssertField(t, "child message", "component", "calls")
	entries := tl.FilterMessage("child message").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "service", entries[0].LoggerName)
	assert.Empty(t, tl.FilterMessage("parent message").All()[0].Context)
}

func TestNopAndFromZap(t *testing.T) {
	Nop().Info(context.Background(), "dropped")
	assert.NotNil(t, FromZap(nil).Underlying())

	zl := zap.NewExample()
	assert.Same(t, zl, FromZap(zl).Underlying())
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("trace", "console")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	_, err = NewConfig("loud", "json")
	assert.Error(t, err)

	_, err = NewConfig("info", "xml")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no outputs", func(c *Config) { c.Output.Stdout = false }},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }},
		{"negative caller skip", func(c *Config) { c.Caller.Skip = -1 }},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"(["} }},
		{"long pattern", func(c *Config) { c.Redaction.Patterns = []string{strings.Repeat("a", 300)} }},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"env": ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, NewDefaultConfig().Validate())
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("TRACE")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	lvl, err = LevelFromString("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = LevelFromString("nope")
	assert.Error(t, err)
}

func TestStatusLevel(t *testing.T) {
	tests := []struct {
		status int
		want   zapcore.Level
	}{
		{200, zapcore.InfoLevel},
		{302, zapcore.InfoLevel},
		{400, zapcore.WarnLevel},
		{404, zapcore.WarnLevel},
		{500, zapcore.ErrorLevel},
		{503, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusLevel(tt.status), "status %d", tt.status)
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	buf := captureStdout(t)
	cfg := NewDefaultConfig()
	cfg.Level = TraceLevel
	cfg.Sampling.Enabled = false
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.Trace(context.Background(), "provider response")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "trace", lines[0]["level"])
}
