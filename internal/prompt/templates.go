package prompt

import "fmt"

// Template is a reusable call configuration.
type Template struct {
	Name         string   `json:"name" toml:"name"`
	Purpose      string   `json:"purpose" toml:"purpose"`
	Questions    []string `json:"questions" toml:"questions"`
	VoiceID      string   `json:"voice_id" toml:"voice_id"`
	Language     string   `json:"language" toml:"language"`
	FirstMessage string   `json:"first_message" toml:"first_message"`
	CustomPrompt string   `json:"custom_prompt" toml:"custom_prompt"`
}

// Spec converts the template into a prompt spec.
func (t Template) Spec() Spec {
	return Spec{
		Name:         t.Name,
		Purpose:      t.Purpose,
		Questions:    append([]string(nil), t.Questions...),
		FirstMessage: t.FirstMessage,
		CustomPrompt: t.CustomPrompt,
	}
}

func (t Template) validate(key string) error {
	if key == "" {
		return fmt.Errorf("template key cannot be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("template %q: name is required", key)
	}
	for i, q := range t.Questions {
		if q == "" {
			return fmt.Errorf("template %q: question %d is empty", key, i+1)
		}
	}
	return nil
}

func (t Template) clone() Template {
	t.Questions = append([]string(nil), t.Questions...)
	return t
}

const (
	defaultVoice      = "21m00Tcm4TlvDq8ikWAM"
	hypertensionVoice = "EXAVITQu4vr4xnSDxMaL"

	feelingQuestion      = "I've noticed that you have been improving lately, thats awesome!. On a scale from 1 to 10, how are you feeling?"
	symptomsQuestion     = "In the past week, how often have you had symptoms like headaches, dizziness, or swelling?"
	newSymptomsQuestion  = "Have you noticed any new or different symptoms since we last spoke?"
	anythingElseQuestion = "Is there anything else you'd like Dr. Vinals to know about how you've been feeling?"
)

// DefaultTemplates returns the built-in follow-up protocols.
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		"standard_protocol": {
			Name:    "Standard Basic Protocol",
			Purpose: "General follow-up",
			Questions: []string{
				feelingQuestion,
				"Are you keeping up with Lisinopril as instructed?",
				symptomsQuestion,
				newSymptomsQuestion,
				anythingElseQuestion,
			},
			VoiceID:      defaultVoice,
			Language:     "en",
			FirstMessage: "Hi, I'm the AI assistant of Dr. Vinals. I'm calling to follow up on you and to ask if there are any changes in your health since your last visit. I have a few quick questions that will only take a couple of minutes. Is now a good time?",
			CustomPrompt: "You are a professional AI assistant calling on behalf of Dr. Vinals. You must ask each question one at a time and wait for complete responses. Be polite, professional, and empathetic. If a patient needs clarification, rephrase the question. Keep the conversation focused on getting answers to all the questions.",
		},
		"hypertension_protocol": {
			Name:    "Hypertension Protocol",
			Purpose: "Hypertension follow-up",
			Questions: []string{
				feelingQuestion,
				"Are you keeping up with Lisinopril as instructed?",
				symptomsQuestion,
				newSymptomsQuestion,
				anythingElseQuestion,
			},
			VoiceID:      hypertensionVoice,
			Language:     "en",
			FirstMessage: "Hi, I'm the AI assistant of Dr. Vinals. I'm calling to follow up on your hypertension treatment and see how you're doing. I have a few questions about your medication and symptoms. Is this a good time to talk?",
			CustomPrompt: "You are a professional AI assistant calling on behalf of Dr. Vinals for a hypertension follow-up. Ask each question individually and wait for responses. Be understanding about medical concerns and encourage patients to be honest about their symptoms and medication compliance.",
		},
		"diabetes_protocol": {
			Name:    "Diabetes Protocol",
			Purpose: "Diabetes follow-up",
			Questions: []string{
				feelingQuestion,
				"Are you keeping up with Losartan as instructed?",
				symptomsQuestion,
				newSymptomsQuestion,
				anythingElseQuestion,
			},
			VoiceID:      defaultVoice,
			Language:     "en",
			FirstMessage: "Hi, I'm the AI assistant of Dr. Vinals. I'm calling to check on your diabetes management and see how you're feeling. I have some questions about your medication and any symptoms you might be experiencing. Do you have a few minutes to talk?",
			CustomPrompt: "You are a professional AI assistant calling on behalf of Dr. Vinals for a diabetes follow-up. Focus on medication compliance and symptom monitoring. Ask questions one at a time and be patient with responses. Show empathy for any challenges the patient might be facing.",
		},
	}
}
