package elevenlabs

import (
	"time"

	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

// AgentConfig describes a conversational agent to create.
type AgentConfig struct {
	Name         string
	Prompt       string
	VoiceID      string
	Language     string
	FirstMessage string
}

// Agent is the result of creating an agent.
type Agent struct {
	ID  string         `json:"agent_id"`
	Raw map[string]any `json:"-"`
}

// Recipient is one phone number a batch call dials.
type Recipient struct {
	PhoneNumber string `json:"phone_number"`
}

// BatchCallRequest submits an outbound batch call.
type BatchCallRequest struct {
	CallName string
	AgentID  string
	// PhoneNumberID defaults to the client's configured number.
	PhoneNumberID string
	// ScheduledAt defaults to now.
	ScheduledAt time.Time
	Recipients  []Recipient
}

// BatchCall is a submitted batch call as reported by the platform.
type BatchCall struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Raw    map[string]any `json:"-"`
}

// Conversation is a conversation summary from the listing endpoint.
type Conversation struct {
	ConversationID string `json:"conversation_id"`
	AgentID        string `json:"agent_id"`
	BatchCallID    string `json:"batch_call_id"`
	Status         string `json:"status"`
	CreatedAt      any    `json:"created_at"`
}

// ConversationDetail is a single conversation including its transcript,
// which arrives in whatever shape the platform chose.
type ConversationDetail struct {
	ConversationID string         `json:"conversation_id"`
	AgentID        string         `json:"agent_id"`
	Status         string         `json:"status"`
	Transcript     transcript.Raw `json:"transcript"`
	Raw            map[string]any `json:"-"`
}

type createAgentPayload struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
}

type conversationConfig struct {
	Agent agentSection `json:"agent"`
	ASR   asrSection   `json:"asr"`
	TTS   ttsSection   `json:"tts"`
}

type agentSection struct {
	Prompt       promptSection `json:"prompt"`
	FirstMessage string        `json:"first_message"`
	Language     string        `json:"language"`
}

type promptSection struct {
	Prompt string `json:"prompt"`
}

type asrSection struct {
	Quality string `json:"quality"`
}

type ttsSection struct {
	VoiceID string `json:"voice_id"`
}

type batchCallPayload struct {
	CallName           string      `json:"call_name"`
	AgentID            string      `json:"agent_id"`
	AgentPhoneNumberID string      `json:"agent_phone_number_id"`
	ScheduledTimeUnix  int64       `json:"scheduled_time_unix"`
	Recipients         []Recipient `json:"recipients"`
}

type conversationList struct {
	Conversations []Conversation `json:"conversations"`
}
