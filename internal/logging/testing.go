package logging

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry, at every level, for assertions. Entries
// are captured before any encoder runs, so AssertNoSecrets checks what the
// calling code passed in rather than what redaction made of it.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{Logger: &Logger{zap: zap.New(core)}, observed: observed}
}

func (t *TestLogger) All() []observer.LoggedEntry { return t.observed.All() }

func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessage(msg)
}

// Reset drops everything recorded so far.
func (t *TestLogger) Reset() { t.observed.TakeAll() }

// AssertLogged fails unless an entry at level contains msgContains.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msgContains) {
			return
		}
	}
	tb.Errorf("expected log at %v containing %q, logs: %+v", level, msgContains, t.observed.All())
}

// AssertField fails unless an entry with message msg carries key=expected.
// Values are compared by their formatted form so int and int64 match.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected any) {
	tb.Helper()
	want := fmt.Sprint(expected)
	for _, e := range t.observed.FilterMessage(msg).All() {
		if got, ok := e.ContextMap()[key]; ok && fmt.Sprint(got) == want {
			return
		}
	}
	tb.Errorf("field %q=%v not found in message %q", key, expected, msg)
}

var (
	credentialKeys     = []string{"api_key", "xi-api-key", "authorization", "secret", "token", "password"}
	credentialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)bearer\s+\S+`),
		regexp.MustCompile(`(?i)api[_-]?key[=:]\s*\S+`),
	}
	// rawPhonePattern matches seven or more unmasked digits.
	rawPhonePattern = regexp.MustCompile(`\+?\d{7,}`)
)

// AssertNoSecrets fails on any credential, unmasked phone number or
// transcript text reaching the logger.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	for _, e := range t.observed.All() {
		for _, re := range credentialPatterns {
			if re.MatchString(e.Message) {
				tb.Errorf("credential in message: %q", e.Message)
			}
		}
		for _, f := range e.Context {
			if f.Type != zapcore.StringType {
				continue
			}
			checkField(tb, strings.ToLower(f.Key), f.String)
		}
	}
}

func checkField(tb testing.TB, key, val string) {
	tb.Helper()
	for _, k := range credentialKeys {
		if strings.Contains(key, k) && val != "" && !strings.HasPrefix(val, "[REDACTED") {
			tb.Errorf("credential field %q not redacted", key)
		}
	}
	for _, re := range credentialPatterns {
		if re.MatchString(val) {
			tb.Errorf("credential pattern in field %q", key)
		}
	}
	if strings.Contains(key, "phone") && rawPhonePattern.MatchString(val) {
		tb.Errorf("unmasked phone number in field %q", key)
	}
	if key == "transcript" && val != "" {
		tb.Errorf("transcript text logged in field %q", key)
	}
}
