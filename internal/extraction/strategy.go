package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Renderer builds an answer from a regex submatch slice, where groups[0] is
// the whole match.
type Renderer func(groups []string) string

// Pattern declares a regex probe.
type Pattern struct {
	Name  string `json:"name"`
	Regex string `json:"regex"`

	// Original matches against the original-case transcript instead of the
	// lower-cased one.
	Original bool `json:"original,omitempty"`

	// Render defaults to the trimmed first capture group.
	Render Renderer `json:"-"`
}

// KeywordSet declares a keyword probe: it yields Answer when the lower-cased
// transcript contains any of Keywords.
type KeywordSet struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Answer   string   `json:"answer"`

	// Negatable ignores keyword occurrences directly preceded by a negating
	// word such as "no" or "without".
	Negatable bool `json:"negatable,omitempty"`
}

// Strategy is the ordered probe list for one category. Patterns and keyword
// sets are tried in declaration order, patterns first.
type Strategy struct {
	Category Category
	Patterns []Pattern
	Keywords []KeywordSet

	// Union collects every matching probe's answer instead of stopping at
	// the first, joining them with Separator.
	Union     bool
	Separator string

	// Empty is the answer of a union strategy that matched nothing. When
	// empty the strategy reports no match.
	Empty string
}

// probe is a compiled Pattern or KeywordSet.
type probe interface {
	name() string
	apply(t Text) (string, bool)
}

// compiledPattern holds a pre-compiled regex pattern.
type compiledPattern struct {
	Pattern
	regex *regexp.Regexp
}

func (p *compiledPattern) name() string { return p.Name }

func (p *compiledPattern) apply(t Text) (string, bool) {
	src := t.Lower
	if p.Original {
		src = t.Original
	}
	groups := p.regex.FindStringSubmatch(src)
	if groups == nil {
		return "", false
	}
	render := p.Render
	if render == nil {
		render = firstGroup
	}
	answer := render(groups)
	return answer, answer != ""
}

type keywordProbe struct {
	KeywordSet
}

func (k *keywordProbe) name() string { return k.Name }

func (k *keywordProbe) apply(t Text) (string, bool) {
	for _, kw := range k.Keywords {
		if k.Negatable {
			if containsUnnegated(t.Lower, kw) {
				return k.Answer, true
			}
			continue
		}
		if strings.Contains(t.Lower, kw) {
			return k.Answer, true
		}
	}
	return "", false
}

// compiledStrategy is a Strategy ready to run.
type compiledStrategy struct {
	Strategy
	probes []probe
}

func compileStrategy(s Strategy) (*compiledStrategy, error) {
	probes := make([]probe, 0, len(s.Patterns)+len(s.Keywords))
	for _, p := range s.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("%s pattern %q: %w", s.Category, p.Name, err)
		}
		probes = append(probes, &compiledPattern{Pattern: p, regex: re})
	}
	for _, k := range s.Keywords {
		if len(k.Keywords) == 0 {
			return nil, fmt.Errorf("%s keyword set %q has no keywords", s.Category, k.Name)
		}
		probes = append(probes, &keywordProbe{KeywordSet: k})
	}
	return &compiledStrategy{Strategy: s, probes: probes}, nil
}

// run applies the probes and reports the answer with the name of the probe
// that produced it.
func (s *compiledStrategy) run(t Text) (answer, matched string, ok bool) {
	if !s.Union {
		for _, p := range s.probes {
			if a, ok := p.apply(t); ok {
				return a, p.name(), true
			}
		}
		return "", "", false
	}

	var found, names []string
	for _, p := range s.probes {
		if a, ok := p.apply(t); ok {
			found = append(found, a)
			names = append(names, p.name())
		}
	}
	if len(found) == 0 {
		if s.Empty == "" {
			return "", "", false
		}
		return s.Empty, "", true
	}
	return strings.Join(found, s.Separator), strings.Join(names, "+"), true
}

func firstGroup(groups []string) string {
	if len(groups) < 2 {
		return strings.TrimSpace(groups[0])
	}
	return strings.TrimSpace(groups[1])
}

// firstGroupOrMatch renders the first capture, or the whole match when the
// capture is empty.
func firstGroupOrMatch(groups []string) string {
	if len(groups) > 1 && groups[1] != "" {
		return groups[1]
	}
	return groups[0]
}

// outOfTen renders a rating. An explicitly captured denominator is kept.
func outOfTen(groups []string) string {
	denominator := "10"
	if len(groups) > 2 && groups[2] != "" {
		denominator = groups[2]
	}
	return groups[1] + "/" + denominator
}

var negators = map[string]bool{
	"no":      true,
	"not":     true,
	"without": true,
	"never":   true,
}

// containsUnnegated reports whether kw occurs in s at least once without a
// negating word immediately before the word it starts in.
func containsUnnegated(s, kw string) bool {
	offset := 0
	for {
		i := strings.Index(s[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if !negated(s, pos) {
			return true
		}
		offset = pos + len(kw)
	}
}

func negated(s string, pos int) bool {
	start := pos
	for start > 0 {
		r := rune(s[start-1])
		if r >= 0x80 || unicode.IsLetter(r) || r == '\'' {
			start--
			continue
		}
		break
	}
	fields := strings.Fields(s[:start])
	if len(fields) == 0 {
		return false
	}
	prev := strings.TrimFunc(fields[len(fields)-1], func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	return negators[prev]
}

// DefaultStrategies returns the built-in strategy table. The generic
// category has no entry; it is served by the fallback alone.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Category: NameCategory,
			Patterns: []Pattern{
				{Name: "my_name_is", Regex: `(?i)my name is ([^.!?]+)`, Original: true},
				{Name: "i_m", Regex: `(?i)i'm ([^.!?]+)`, Original: true},
				{Name: "i_am", Regex: `(?i)i am ([^.!?]+)`, Original: true},
				{Name: "call_me", Regex: `(?i)call me ([^.!?]+)`, Original: true},
			},
		},
		{
			Category: EmailCategory,
			Patterns: []Pattern{
				{Name: "address", Regex: `([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`, Original: true},
			},
		},
		{
			Category: RatingCategory,
			Patterns: []Pattern{
				{Name: "out_of", Regex: `(\d+)\s*out of\s*(\d+)`, Render: outOfTen},
				{Name: "slash", Regex: `(\d+)\s*/\s*(\d+)`, Render: outOfTen},
				{Name: "rate", Regex: `rate.*?(\d+)`, Render: outOfTen},
				{Name: "stars_points", Regex: `(\d+)\s*(?:stars?|points?)`, Render: outOfTen},
				{Name: "scale", Regex: `scale.*?(\d+)`, Render: outOfTen},
				{Name: "feeling", Regex: `feeling.*?(\d+)`, Render: outOfTen},
			},
		},
		{
			Category: MedicationCategory,
			Keywords: []KeywordSet{
				{Name: "adherent", Keywords: []string{"yes", "taking", "keep up", "continue", "prescribed"}, Answer: MedicationAdherent},
				{Name: "not_taking", Keywords: []string{"no", "stopped", "not taking", "quit"}, Answer: MedicationNotTaking},
				{Name: "inconsistent", Keywords: []string{"sometimes", "occasionally", "forget"}, Answer: MedicationInconsistent},
			},
		},
		{
			Category: SymptomCategory,
			Keywords: []KeywordSet{
				{Name: "headache", Keywords: []string{"headache"}, Answer: "headaches", Negatable: true},
				{Name: "dizziness", Keywords: []string{"dizziness", "dizzy"}, Answer: "dizziness", Negatable: true},
				{Name: "swelling", Keywords: []string{"swelling", "swollen"}, Answer: "swelling", Negatable: true},
				{Name: "fatigue", Keywords: []string{"fatigue", "tired"}, Answer: "fatigue", Negatable: true},
				{Name: "nausea", Keywords: []string{"nausea"}, Answer: "nausea", Negatable: true},
			},
			Union:     true,
			Separator: ", ",
			Empty:     NoSymptoms,
		},
		{
			Category: FrequencyCategory,
			Patterns: []Pattern{
				{Name: "times_per", Regex: `(\d+)\s*times?\s*(?:a|per)\s*(?:day|week|month)`, Render: firstGroupOrMatch},
				{Name: "every", Regex: `(?:every|each)\s*(\w+)`, Render: firstGroupOrMatch},
				{Name: "adverb", Regex: `(daily|weekly|monthly|rarely|never|always|often|sometimes)`, Render: firstGroupOrMatch},
			},
		},
	}
}
