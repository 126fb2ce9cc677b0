package extraction

import "strings"

// Category selects the extraction strategy for a question.
type Category int

const (
	GenericCategory Category = iota
	NameCategory
	EmailCategory
	RatingCategory
	MedicationCategory
	SymptomCategory
	FrequencyCategory
)

// String returns the lower-case category name.
func (c Category) String() string {
	switch c {
	case NameCategory:
		return "name"
	case EmailCategory:
		return "email"
	case RatingCategory:
		return "rating"
	case MedicationCategory:
		return "medication"
	case SymptomCategory:
		return "symptom"
	case FrequencyCategory:
		return "frequency"
	default:
		return "generic"
	}
}

// classifierRules are evaluated in order; the first rule with a keyword
// contained in the question wins.
var classifierRules = []struct {
	category Category
	keywords []string
}{
	{NameCategory, []string{"name"}},
	{EmailCategory, []string{"email"}},
	{RatingCategory, []string{"satisfied", "satisfaction", "rating", "scale"}},
	{MedicationCategory, []string{"medication", "medicine", "lisinopril", "losartan"}},
	{SymptomCategory, []string{"symptom"}},
	{FrequencyCategory, []string{"how often", "frequency"}},
}

// Classify returns the category of question. Matching is a case-insensitive
// substring test, so "surname" is a NameCategory question.
func Classify(question string) Category {
	q := strings.ToLower(question)
	for _, rule := range classifierRules {
		if containsAny(q, rule.keywords) {
			return rule.category
		}
	}
	return GenericCategory
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
