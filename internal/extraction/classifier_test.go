package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question string
		want     Category
	}{
		{"What is your name?", NameCategory},
		{"What is your full NAME and email?", NameCategory},
		{"What is your email address?", EmailCategory},
		{"How satisfied are you with your care?", RatingCategory},
		{"On a SCALE of 1-10, how are you feeling?", RatingCategory},
		{"What rating would you give us?", RatingCategory},
		{"Are you taking your blood pressure medication as prescribed?", MedicationCategory},
		{"Do you still take lisinopril?", MedicationCategory},
		{"Any issues with losartan?", MedicationCategory},
		{"Any symptoms today?", SymptomCategory},
		{"How often have you had symptoms?", SymptomCategory},
		{"How often do you exercise?", FrequencyCategory},
		{"What is the frequency of your headaches?", FrequencyCategory},
		{"Do you have any concerns?", GenericCategory},
		{"", GenericCategory},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.question))
		})
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Each question matches every later category too; the earliest wins.
	assert.Equal(t, NameCategory, Classify("name, email, rating, medication, symptom, how often"))
	assert.Equal(t, EmailCategory, Classify("email, rating, medication, symptom, how often"))
	assert.Equal(t, RatingCategory, Classify("rating, medication, symptom, how often"))
	assert.Equal(t, MedicationCategory, Classify("medication, symptom, how often"))
	assert.Equal(t, SymptomCategory, Classify("symptom, how often"))
	assert.Equal(t, FrequencyCategory, Classify("how often"))
}

func TestCategory_String(t *testing.T) {
	names := map[Category]string{
		GenericCategory:    "generic",
		NameCategory:       "name",
		EmailCategory:      "email",
		RatingCategory:     "rating",
		MedicationCategory: "medication",
		SymptomCategory:    "symptom",
		FrequencyCategory:  "frequency",
	}
	for c, want := range names {
		assert.Equal(t, want, c.String())
	}
}
