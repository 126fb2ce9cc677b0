package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/callscribe/internal/config"
)

func TestMaskPhone(t *testing.T) {
	tests := map[string]string{
		"+15551234567":      "*******4567",
		"+1 (555) 123-4567": "*******4567",
		"1234":              "****",
		"12":                "**",
		"*******4567":       "*******4567",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskPhone(in), in)
	}
}

func TestRedactingEncoder_FieldNames(t *testing.T) {
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{
		zap.String("API_KEY", "k1"),
		zap.ByteString("token", []byte("k2")),
		zap.Any("authorization", map[string]string{"h": "k3"}),
		zap.String("safe", "visible"),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "k1")
	assert.NotContains(t, out, "k2")
	assert.NotContains(t, out, "k3")
	assert.Contains(t, out, "visible")
}

func TestRedactingEncoder_CallContent(t *testing.T) {
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{
		zap.String("to_number", "+15551234567"),
		zap.ByteString("Phone", []byte("+1 555 987 6543")),
		zap.String("transcript", "agent: hi\nuser: my name is Ada"),
		zap.Any("prompt", map[string]string{"system": "You are a nurse"}),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"to_number":"*******4567"`)
	assert.Contains(t, out, `"Phone":"*******6543"`)
	assert.Contains(t, out, `"transcript":"[ELIDED:30 chars]"`)
	assert.Contains(t, out, `"prompt":"[REDACTED]"`)
	assert.NotContains(t, out, "Ada")
	assert.NotContains(t, out, "nurse")
}

func TestRedactingEncoder_RedactWinsOverMask(t *testing.T) {
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), RedactionConfig{
		Enabled:     true,
		Fields:      []string{"phone"},
		PhoneFields: []string{"phone"},
	})
	require.NoError(t, err)
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{zap.String("phone", "+15551234567")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"phone":"[REDACTED]"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), RedactionConfig{})
	require.NoError(t, err)
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{zap.String("api_key", "plain")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plain")
}

func TestNewRedactingEncoder_BadPattern(t *testing.T) {
	_, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"(["},
	})
	assert.Error(t, err)
}

func TestTestLogger_AssertNoSecrets(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "configured",
		Secret("api_key", config.Secret("sk-123")),
		RedactedString("authorization", "Bearer x"),
		MaskedPhone("phone", "+15551234567"),
	)
	tl.AssertNoSecrets(t)
}
