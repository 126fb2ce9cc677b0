// Package prompt builds the agent prompt and opening line for an outbound
// call, and holds the catalog of reusable call templates.
package prompt

import (
	"fmt"
	"strings"
)

const (
	DefaultAgentName = "AI Assistant"
	DefaultPurpose   = "follow up with you"

	genericBasePrompt = "You are a helpful AI assistant."
)

// Spec describes the call an agent is being built for.
type Spec struct {
	Name         string
	Purpose      string
	Questions    []string
	FirstMessage string
	CustomPrompt string
}

// WithDefaults fills in the make-call defaults for empty fields.
func (s Spec) WithDefaults() Spec {
	if s.Name == "" {
		s.Name = DefaultAgentName
	}
	if s.Purpose == "" {
		s.Purpose = DefaultPurpose
	}
	return s
}

// BasePrompt is the custom prompt, or a one-line persona when none is set.
func (s Spec) BasePrompt() string {
	if s.CustomPrompt != "" {
		return s.CustomPrompt
	}
	return defaultPersona(s.Name, s.Purpose)
}

func defaultPersona(name, purpose string) string {
	return fmt.Sprintf("You are %s, a professional AI assistant calling to %s.", name, purpose)
}

// BuildStructuredPrompt renders the agent prompt. With questions it is a
// step-by-step script; without, a short free-conversation prompt.
func BuildStructuredPrompt(s Spec) string {
	base := s.BasePrompt()
	var b strings.Builder

	if len(s.Questions) == 0 {
		fmt.Fprintf(&b, "You are %s, calling for %s.\n\n", s.Name, s.Purpose)
		b.WriteString("Have a natural, friendly conversation. Be professional and helpful.\n\n")
		if base != genericBasePrompt {
			b.WriteString(base)
		}
		b.WriteString("\n")
		return b.String()
	}

	fmt.Fprintf(&b, "You are %s, calling for %s.\n\n", s.Name, s.Purpose)
	b.WriteString("CONVERSATION SCRIPT - Follow this exact sequence:\n\n")
	b.WriteString("1. Then ask these questions ONE AT A TIME, waiting for each answer:\n\n")
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, q)
	}
	b.WriteString("\n2. After all questions: Thank them and end the call\n")
	b.WriteString("3. Create a JSON object with the results of the call in an structured way.\n\n")
	b.WriteString("IMPORTANT RULES:\n")
	b.WriteString("- Ask only ONE question at a time\n")
	b.WriteString("- Wait for their complete answer before asking the next question\n")
	b.WriteString("- If they don't understand, rephrase the question simply\n")
	b.WriteString("- Be patient and friendly\n")
	b.WriteString("- Don't rush through the questions\n")
	fmt.Fprintf(&b, "- After getting all %d answers, say thank you and goodbye\n\n", len(s.Questions))
	b.WriteString("CONVERSATION STYLE:\n")
	b.WriteString("- Be natural and conversational\n")
	b.WriteString("- Show empathy and understanding\n")
	b.WriteString("- Keep your responses brief between questions\n")
	b.WriteString("- Focus on getting clear answers to each question\n")

	if base != "" && base != genericBasePrompt && base != defaultPersona(s.Name, s.Purpose) {
		b.WriteString("\nADDITIONAL INSTRUCTIONS:\n")
		b.WriteString(base)
	}
	return b.String()
}

// BuildFirstMessage returns the custom first message, or a greeting that
// announces the questions when there are any.
func BuildFirstMessage(s Spec) string {
	if s.FirstMessage != "" {
		return s.FirstMessage
	}
	if len(s.Questions) > 0 {
		return fmt.Sprintf("Hi, I'm %s. I'm calling to %s. I have a few questions that will only take a couple of minutes. Is now a good time to talk?", s.Name, s.Purpose)
	}
	return fmt.Sprintf("Hi, I'm %s. I'm calling to %s. How are you doing today?", s.Name, s.Purpose)
}
