package transcript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"nil", nil, NoTranscript},
		{"empty string", "", NoTranscript},
		{"plain string", "hello there", "hello there"},
		{"string list", []any{"a", "b", "c"}, "a b c"},
		{"typed string list", []string{"a", "b", "c"}, "a b c"},
		{"empty list", []any{}, NoTranscript},
		{
			name: "turn objects use text then content then message",
			raw: []any{
				map[string]any{"text": "one", "content": "ignored"},
				map[string]any{"content": "two", "message": "ignored"},
				map[string]any{"role": "user", "message": "three"},
			},
			want: "one two three",
		},
		{
			name: "turn without text keys is stringified",
			raw:  []any{map[string]any{"role": "agent"}, "done"},
			want: `{"role":"agent"} done`,
		},
		{"mixed scalars", []any{"rated", float64(8), true}, "rated 8 true"},
		{"object with text", map[string]any{"text": "from object"}, "from object"},
		{"object with message", map[string]any{"message": "hi", "role": "agent"}, "hi"},
		{"object without keys", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"number", 42, "42"},
		{"float", 2.5, "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalize_IdempotentOnStrings(t *testing.T) {
	for _, s := range []string{"x", "  spaced  ", "My name is Jane.", "{not json}"} {
		assert.Equal(t, s, Normalize(s))
		assert.Equal(t, s, Normalize(Normalize(s)))
	}
}

func TestNormalize_PresentNullKeyWins(t *testing.T) {
	turn := map[string]any{"text": nil, "message": "fallback"}
	assert.Equal(t, NoTranscript, Normalize(map[string]any{"text": nil}))
	assert.Equal(t, " b", Normalize([]any{turn, "b"}))
}

func TestFromJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind Kind
		want string
	}{
		{"null", `null`, KindAbsent, NoTranscript},
		{"blank", `  `, KindAbsent, NoTranscript},
		{"string", `"hello"`, KindText, "hello"},
		{
			name: "provider turns",
			data: `[{"role":"agent","message":"What is your name?","time_in_call_secs":1},{"role":"user","message":"Jane."}]`,
			kind: KindTurns,
			want: "What is your name? Jane.",
		},
		{"object", `{"content":"body"}`, KindObject, "body"},
		{"number", `7`, KindOther, "7"},
		{"invalid json is text", `hello world`, KindText, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := FromJSON([]byte(tt.data))
			assert.Equal(t, tt.kind, raw.Kind)
			assert.Equal(t, tt.want, raw.Normalize())
		})
	}
}

func TestRaw_JSONRoundTrip(t *testing.T) {
	var body struct {
		Transcript Raw `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"transcript":["a",{"text":"b"}]}`), &body))
	assert.Equal(t, KindTurns, body.Transcript.Kind)
	assert.Equal(t, "a b", body.Transcript.Normalize())

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"transcript":["a",{"text":"b"}]}`, string(out))

	var missing struct {
		Transcript Raw `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &missing))
	assert.True(t, missing.Transcript.IsAbsent())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "absent", KindAbsent.String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "turns", KindTurns.String())
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "other", KindOther.String())
}

func TestFromValue_PassesRawThrough(t *testing.T) {
	raw := Text("kept")
	assert.Equal(t, raw, FromValue(raw))
	assert.Equal(t, raw, FromValue(&raw))
	var nilRaw *Raw
	assert.True(t, FromValue(nilRaw).IsAbsent())
}
