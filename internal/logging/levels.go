package logging

import (
	"net/http"
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug and carries provider request and response
// bodies.
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name. "trace" is accepted on top of the
// zap names.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(strings.TrimSpace(level), "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// StatusLevel picks the access log level for an HTTP response status.
// Server errors log at error, client errors at warn, the rest at info.
func StatusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
