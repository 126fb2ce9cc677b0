package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minGenericWordLen is the rune length a question word must exceed to be
	// used as an anchor.
	minGenericWordLen = 3
	// minGenericAnswerLen is the rune length a trimmed capture must exceed.
	minGenericAnswerLen = 5
	// maxGenericAnswerLen bounds fallback answers.
	maxGenericAnswerLen = 100
)

// genericAnswer searches the lower-cased transcript for text following each
// word of the question. Words are used as regex fragments verbatim, so a
// word that is not a valid expression is reported as an error.
func genericAnswer(question string, t Text) (string, bool, error) {
	for _, word := range strings.Fields(strings.ToLower(question)) {
		if utf8.RuneCountInString(word) <= minGenericWordLen {
			continue
		}
		re, err := regexp.Compile(word + `.*?([^.!?]+)`)
		if err != nil {
			return "", false, fmt.Errorf("fallback pattern for %q: %w", word, err)
		}
		groups := re.FindStringSubmatch(t.Lower)
		if groups == nil {
			continue
		}
		answer := strings.TrimSpace(groups[1])
		if utf8.RuneCountInString(answer) > minGenericAnswerLen {
			return truncate(answer, maxGenericAnswerLen), true, nil
		}
	}
	return "", false, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
