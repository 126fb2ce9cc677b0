package http

import (
	"github.com/fyrsmithlabs/callscribe/internal/calls"
	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

// failure is the body of every unsuccessful API response.
type failure struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	DebugInfo any    `json:"debug_info,omitempty"`
}

// MessageResponse is the body for GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// TestResponse is the body for GET /api/test.
type TestResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	ElevenLabsConfigured  bool   `json:"elevenlabs_configured"`
	PhoneNumberConfigured bool   `json:"phone_number_configured"`
}

// TestAgentResponse is the body for POST /api/test-agent-creation.
type TestAgentResponse struct {
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	AgentID               string `json:"agent_id"`
	ElevenLabsConfigured  bool   `json:"elevenlabs_configured"`
	PhoneNumberConfigured bool   `json:"phone_number_configured"`
}

// TemplatesResponse is the body for GET /api/agent-templates.
type TemplatesResponse struct {
	Success   bool                       `json:"success"`
	Templates map[string]prompt.Template `json:"templates"`
}

// AgentSummary describes the agent created for a call.
type AgentSummary struct {
	Name           string `json:"name"`
	Purpose        string `json:"purpose"`
	QuestionsCount int    `json:"questions_count"`
	FirstMessage   string `json:"first_message"`
	VoiceID        string `json:"voice_id"`
}

// MakeCallResponse is the body for POST /api/make-call.
type MakeCallResponse struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	BatchCallID   string       `json:"batch_call_id"`
	AgentID       string       `json:"agent_id"`
	AgentConfig   AgentSummary `json:"agent_config"`
	FollowUpRunID string       `json:"follow_up_run_id,omitempty"`
}

// CallStatusResponse is the body for GET /api/call-status/:id.
type CallStatusResponse struct {
	Success bool `json:"success"`
	*calls.StatusReport
}

// ProcessResponse is the body for POST /api/process-conversation/:id.
type ProcessResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Results *calls.Result `json:"results"`
}

// DebugInfo lists the platform's conversations.
type DebugInfo struct {
	TotalConversations int                         `json:"total_conversations"`
	Conversations      []calls.ConversationSummary `json:"conversations"`
}

// DebugResponse is the body for GET /api/debug-conversations.
type DebugResponse struct {
	Success   bool      `json:"success"`
	DebugInfo DebugInfo `json:"debug_info"`
}

// ResultsResponse is the body for GET /api/call-results/:id.
type ResultsResponse struct {
	Success bool          `json:"success"`
	Results *calls.Result `json:"results"`
}

// ActiveCallsResponse is the body for GET /api/active-calls.
type ActiveCallsResponse struct {
	Success bool `json:"success"`
	*calls.Snapshot
}

// ExtractRequest is the body for POST /api/extract.
type ExtractRequest struct {
	Transcript transcript.Raw `json:"transcript"`
	Questions  []string       `json:"questions"`
}

// ExtractResponse is the body returned by POST /api/extract.
type ExtractResponse struct {
	Success       bool                 `json:"success"`
	Transcript    string               `json:"transcript"`
	ExtractedInfo extraction.ResultMap `json:"extracted_info"`
}
