package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/callscribe/internal/config"
)

const (
	redactedValue = "[REDACTED]"
	maxPatternLen = 200

	// phoneVisibleDigits is how many trailing digits MaskPhone keeps.
	phoneVisibleDigits = 4
)

// Secret logs a config.Secret as its length only.
func Secret(key string, val config.Secret) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val.Value()))+"]")
}

// RedactedString logs val as its length only.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// MaskedPhone logs a phone number with only its last four digits visible.
func MaskedPhone(key, phone string) zap.Field {
	return zap.String(key, MaskPhone(phone))
}

// MaskPhone drops non-digits and replaces every digit except the last four
// with '*'. Masking an already masked number returns it unchanged.
func MaskPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if (phone[i] >= '0' && phone[i] <= '9') || phone[i] == '*' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) <= phoneVisibleDigits {
		return strings.Repeat("*", len(digits))
	}
	hidden := len(digits) - phoneVisibleDigits
	return strings.Repeat("*", hidden) + string(digits[hidden:])
}

// action is what the encoder does with a field, chosen by key.
type action int

// Higher actions win when a key is configured more than once.
const (
	keep action = iota
	elide
	maskPhone
	redact
)

// RedactingEncoder applies RedactionConfig to every field written through
// it. Credentials are replaced, phone numbers masked, and transcripts and
// prompts collapsed to their length, so call content stays out of stdout.
type RedactingEncoder struct {
	zapcore.Encoder
	actions  map[string]action
	patterns []*regexp.Regexp
}

// NewRedactingEncoder wraps base. It fails if a pattern does not compile.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	if !cfg.Enabled {
		return &RedactingEncoder{Encoder: base}, nil
	}

	actions := make(map[string]action)
	for act, keys := range map[action][]string{
		elide:     cfg.Elide,
		maskPhone: cfg.PhoneFields,
		redact:    cfg.Fields,
	} {
		for _, k := range keys {
			k = strings.ToLower(k)
			if actions[k] < act {
				actions[k] = act
			}
		}
	}

	patterns, err := compilePatterns(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, actions: actions, patterns: patterns}, nil
}

func compilePatterns(raw []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (e *RedactingEncoder) actionFor(key string) action {
	return e.actions[strings.ToLower(key)]
}

func (e *RedactingEncoder) AddString(key, val string) {
	switch e.actionFor(key) {
	case redact:
		e.Encoder.AddString(key, redactedValue)
		return
	case maskPhone:
		e.Encoder.AddString(key, MaskPhone(val))
		return
	case elide:
		e.Encoder.AddString(key, "[ELIDED:"+strconv.Itoa(len(val))+" chars]")
		return
	}
	for _, re := range e.patterns {
		if re.MatchString(val) {
			e.Encoder.AddString(key, "[REDACTED:pattern]")
			return
		}
	}
	e.Encoder.AddString(key, val)
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.actionFor(key) != keep {
		e.AddString(key, string(val))
		return
	}
	e.Encoder.AddByteString(key, val)
}

// AddReflected drops the whole value for any key with an action, since a
// structured value cannot be masked piecewise.
func (e *RedactingEncoder) AddReflected(key string, val any) error {
	if e.actionFor(key) != keep {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.actionFor(key) != keep {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), actions: e.actions, patterns: e.patterns}
}

// EncodeEntry routes the entry's fields through the Add methods above. The
// embedded encoder would otherwise write them directly.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	clone := e.Clone().(*RedactingEncoder)
	for _, f := range fields {
		f.AddTo(clone)
	}
	return clone.Encoder.EncodeEntry(ent, nil)
}
