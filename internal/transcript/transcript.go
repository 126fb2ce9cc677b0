// Package transcript normalizes the raw transcript shapes returned by the
// conversational-voice platform into a single canonical text.
//
// A transcript arrives as plain text, as an ordered list of turns (strings
// or keyed objects), or as a single keyed object. Raw models these shapes as
// a tagged variant; Normalize dispatches on the tag.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NoTranscript is the text produced for absent or empty input.
const NoTranscript = "No transcript available"

// textKeys lists the keys that carry turn text, in priority order.
var textKeys = []string{"text", "content", "message"}

// Kind tags the shape of a raw transcript.
type Kind int

const (
	// KindAbsent is a missing or null transcript.
	KindAbsent Kind = iota
	// KindText is a plain string.
	KindText
	// KindTurns is an ordered list of turn entries.
	KindTurns
	// KindObject is a single keyed object.
	KindObject
	// KindOther is any other scalar value.
	KindOther
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTurns:
		return "turns"
	case KindObject:
		return "object"
	case KindOther:
		return "other"
	default:
		return "absent"
	}
}

// Raw is a transcript in one of its raw shapes. Exactly one payload field
// is meaningful, selected by Kind.
type Raw struct {
	Kind   Kind
	Text   string
	Turns  []any
	Object map[string]any
	Value  any
}

// Text builds a plain text transcript.
func Text(s string) Raw {
	return Raw{Kind: KindText, Text: s}
}

// Turns builds a turn-list transcript.
func Turns(turns ...any) Raw {
	return Raw{Kind: KindTurns, Turns: turns}
}

// FromValue classifies a decoded value.
func FromValue(v any) Raw {
	switch t := v.(type) {
	case nil:
		return Raw{Kind: KindAbsent}
	case Raw:
		return t
	case *Raw:
		if t == nil {
			return Raw{Kind: KindAbsent}
		}
		return *t
	case string:
		return Raw{Kind: KindText, Text: t}
	case []any:
		return Raw{Kind: KindTurns, Turns: t}
	case []string:
		turns := make([]any, len(t))
		for i, s := range t {
			turns[i] = s
		}
		return Raw{Kind: KindTurns, Turns: turns}
	case []map[string]any:
		turns := make([]any, len(t))
		for i, m := range t {
			turns[i] = m
		}
		return Raw{Kind: KindTurns, Turns: turns}
	case map[string]any:
		return Raw{Kind: KindObject, Object: t}
	case json.RawMessage:
		return FromJSON(t)
	default:
		return Raw{Kind: KindOther, Value: t}
	}
}

// FromJSON classifies a JSON document. Input that is not valid JSON is
// treated as plain text.
func FromJSON(data []byte) Raw {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Raw{Kind: KindAbsent}
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return Raw{Kind: KindText, Text: string(data)}
	}
	return FromValue(v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Raw) UnmarshalJSON(data []byte) error {
	*r = FromJSON(data)
	return nil
}

// MarshalJSON implements json.Marshaler, writing the payload back in its
// original shape.
func (r Raw) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case KindText:
		return json.Marshal(r.Text)
	case KindTurns:
		return json.Marshal(r.Turns)
	case KindObject:
		return json.Marshal(r.Object)
	case KindOther:
		return json.Marshal(r.Value)
	default:
		return []byte("null"), nil
	}
}

// IsAbsent reports whether the transcript carries no content at all.
func (r Raw) IsAbsent() bool {
	return r.Kind == KindAbsent
}

// Normalize converts the transcript into canonical text. It never fails.
func (r Raw) Normalize() string {
	var out string
	switch r.Kind {
	case KindText:
		out = r.Text
	case KindTurns:
		out = normalizeTurns(r.Turns)
	case KindObject:
		out = normalizeObject(r.Object)
	case KindOther:
		out = stringify(r.Value)
	}
	if out == "" {
		return NoTranscript
	}
	return out
}

// Normalize classifies v and converts it into canonical text.
func Normalize(v any) string {
	return FromValue(v).Normalize()
}

func normalizeTurns(turns []any) string {
	if len(turns) == 0 {
		return ""
	}
	parts := make([]string, len(turns))
	for i, turn := range turns {
		if obj, ok := turn.(map[string]any); ok {
			parts[i] = normalizeObject(obj)
			continue
		}
		parts[i] = stringify(turn)
	}
	return strings.Join(parts, " ")
}

func normalizeObject(obj map[string]any) string {
	for _, key := range textKeys {
		if v, ok := obj[key]; ok {
			return stringify(v)
		}
	}
	return stringify(obj)
}

// stringify renders any decoded value as text. Containers are rendered as
// compact JSON; null renders as the empty string.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
