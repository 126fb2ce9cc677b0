// Package calls tracks outbound follow-up calls from initiation to
// processed results: the call store, lifecycle events, and the service
// that drives the voice platform and the extraction engine.
package calls

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/callscribe/internal/extraction"
)

// Call statuses. Other values reported by the platform are stored as-is.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether status ends the call lifecycle.
func IsTerminal(status string) bool {
	switch strings.ToLower(status) {
	case StatusCompleted, StatusFailed, StatusCancelled, "canceled":
		return true
	}
	return false
}

// Call is a placed call, keyed by the platform's batch call ID.
type Call struct {
	BatchCallID           string    `json:"batch_call_id"`
	PhoneNumber           string    `json:"phone_number"`
	AgentID               string    `json:"agent_id"`
	AgentName             string    `json:"agent_name"`
	CallPurpose           string    `json:"call_purpose"`
	Questions             []string  `json:"questions"`
	FirstMessage          string    `json:"first_message"`
	CustomPrompt          string    `json:"custom_prompt"`
	StructuredPrompt      string    `json:"structured_prompt"`
	VoiceID               string    `json:"voice_id"`
	Language              string    `json:"language"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	ConversationProcessed bool      `json:"conversation_processed"`
}

func (c *Call) clone() *Call {
	if c == nil {
		return nil
	}
	out := *c
	out.Questions = append([]string(nil), c.Questions...)
	return &out
}

// Result is the processed outcome of a call's conversation.
type Result struct {
	ConversationID    string               `json:"conversation_id"`
	Transcript        string               `json:"transcript"`
	ExtractedInfo     extraction.ResultMap `json:"extracted_info"`
	ProcessedAt       time.Time            `json:"processed_at"`
	RawTranscriptType string               `json:"raw_transcript_type"`
	ProcessingNotes   string               `json:"processing_notes"`
}

// CallRequest is the input to MakeCall. Empty fields take defaults.
type CallRequest struct {
	PhoneNumber  string   `json:"phoneNumber"`
	AgentName    string   `json:"agentName"`
	CallPurpose  string   `json:"callPurpose"`
	Questions    []string `json:"questions"`
	VoiceID      string   `json:"voiceId"`
	FirstMessage string   `json:"firstMessage"`
	CustomPrompt string   `json:"customPrompt"`
	Language     string   `json:"language"`
	// Template optionally names a catalog template whose fields fill any
	// left empty in the request.
	Template string `json:"template,omitempty"`
}

// StatusReport is the result of a status poll.
type StatusReport struct {
	Status                string  `json:"status"`
	Call                  *Call   `json:"call_info"`
	Result                *Result `json:"results"`
	ConversationProcessed bool    `json:"conversation_processed"`
}

// ConversationSummary is one entry of the debug conversation listing.
type ConversationSummary struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	BatchCallID    string `json:"batch_call_id"`
	Status         string `json:"status"`
	CreatedAt      any    `json:"created_at"`
}
