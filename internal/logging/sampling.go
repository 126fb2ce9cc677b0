package logging

import (
	"go.uber.org/zap/zapcore"
)

// newSampledCore samples repeated entries below error level. Errors take a
// separate path and are always written, so a failing call is never hidden
// by a burst of status polls.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	return &splitCore{
		sampled: zapcore.NewSamplerWithOptions(core, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter),
		direct:  core,
	}
}

// splitCore routes error and above to direct, everything else to sampled.
type splitCore struct {
	sampled zapcore.Core
	direct  zapcore.Core
}

func (c *splitCore) route(lvl zapcore.Level) zapcore.Core {
	if lvl >= zapcore.ErrorLevel {
		return c.direct
	}
	return c.sampled
}

func (c *splitCore) Enabled(lvl zapcore.Level) bool {
	return c.route(lvl).Enabled(lvl)
}

func (c *splitCore) With(fields []zapcore.Field) zapcore.Core {
	return &splitCore{sampled: c.sampled.With(fields), direct: c.direct.With(fields)}
}

func (c *splitCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return c.route(e.Level).Check(e, ce)
}

// Write is only reached when a caller bypasses Check; the entry goes to the
// unsampled core.
func (c *splitCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	return c.direct.Write(e, fields)
}

func (c *splitCore) Sync() error {
	return c.direct.Sync()
}
