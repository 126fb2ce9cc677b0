package logging

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

var errNoOutput = errors.New("no log output available")

// buildCore tees the enabled outputs and applies sampling. The stdout core
// redacts; the OTEL bridge receives structured fields and relies on the
// field helpers (Secret, MaskedPhone) for masking.
func buildCore(cfg *Config, provider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	if cfg.Output.Stdout {
		enc, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(stdout), cfg.Level))
	}
	if cfg.Output.OTEL && provider != nil {
		bridge := otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(provider))
		cores = append(cores, levelGate{Core: bridge, min: cfg.Level})
	}

	switch len(cores) {
	case 0:
		return nil, errNoOutput
	case 1:
		return newSampledCore(cores[0], cfg.Sampling), nil
	default:
		return newSampledCore(zapcore.NewTee(cores...), cfg.Sampling), nil
	}
}

// levelGate applies the configured minimum level to a core that has none.
type levelGate struct {
	zapcore.Core
	min zapcore.Level
}

func (g levelGate) Enabled(lvl zapcore.Level) bool {
	return lvl >= g.min && g.Core.Enabled(lvl)
}

func (g levelGate) With(fields []zapcore.Field) zapcore.Core {
	return levelGate{Core: g.Core.With(fields), min: g.min}
}

func (g levelGate) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !g.Enabled(e.Level) {
		return ce
	}
	return g.Core.Check(e, ce)
}
