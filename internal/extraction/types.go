package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Answer sentinels.
const (
	// NotAnswered is recorded when no probe matched.
	NotAnswered = "Not answered"

	// ProcessingError is recorded when extraction of a single question faulted.
	ProcessingError = "Could not extract answer due to processing error"

	// NoSymptoms is the symptom answer when no symptom keyword is present.
	NoSymptoms = "No specific symptoms mentioned"
)

// Medication adherence answers.
const (
	MedicationAdherent     = "Yes, taking as prescribed"
	MedicationNotTaking    = "No, not taking medication"
	MedicationInconsistent = "Taking inconsistently"
)

// Text is a normalized transcript in both its original and lower-cased form.
type Text struct {
	Original string
	Lower    string
}

// NewText prepares s for probing.
func NewText(s string) Text {
	return Text{Original: s, Lower: strings.ToLower(s)}
}

// Entry is one assembled answer.
type Entry struct {
	Key      string `json:"-"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ResultMap is an ordered mapping from positional keys (question_1,
// question_2, ...) to answers. It encodes as a JSON object whose key order
// matches question order.
type ResultMap struct {
	entries []Entry
}

// Key returns the positional key for the zero-based index i.
func Key(i int) string {
	return "question_" + strconv.Itoa(i+1)
}

// NewResultMap creates an empty map with room for n entries.
func NewResultMap(n int) ResultMap {
	return ResultMap{entries: make([]Entry, 0, n)}
}

func (m *ResultMap) add(question, answer string) {
	m.entries = append(m.entries, Entry{
		Key:      Key(len(m.entries)),
		Question: question,
		Answer:   answer,
	})
}

// Len returns the number of entries.
func (m ResultMap) Len() int {
	return len(m.entries)
}

// Entries returns a copy of the entries in question order.
func (m ResultMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get looks up an entry by positional key.
func (m ResultMap) Get(key string) (Entry, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Answers returns the answers in question order.
func (m ResultMap) Answers() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Answer
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (m ResultMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping document key order.
func (m *ResultMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		m.entries = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("extraction: result map must be a JSON object")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("extraction: unexpected token %v", tok)
		}
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("extraction: decode %s: %w", key, err)
		}
		e.Key = key
		entries = append(entries, e)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	m.entries = entries
	return nil
}
