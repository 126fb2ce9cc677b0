package calls

import (
	"errors"
	"fmt"
)

var (
	// ErrCallNotFound is returned when no call exists for the ID.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallExists is returned when creating a call whose ID is taken.
	ErrCallExists = errors.New("call already exists")
	// ErrResultNotFound is returned when a call has no processed result.
	ErrResultNotFound = errors.New("result not found")
	// ErrPhoneRequired is returned by MakeCall without a phone number.
	ErrPhoneRequired = errors.New("phone number is required")
	// ErrInvalidID is returned for IDs the store cannot key.
	ErrInvalidID = errors.New("invalid call id")
)

// StepError is a provider failure during a named step of an operation.
// Message is the user-facing summary, Err the underlying cause.
type StepError struct {
	Message string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ConversationNotFoundError reports that no conversation could be matched
// to a call. When Cause is set the listing itself failed.
type ConversationNotFoundError struct {
	BatchCallID           string
	AgentID               string
	Total                 int
	AvailableBatchCallIDs []string
	AvailableAgentIDs     []string
	Cause                 error
}

func (e *ConversationNotFoundError) Error() string {
	if e.Cause != nil {
		return "Failed to fetch conversations"
	}
	return fmt.Sprintf("No conversation found for batch call %s", e.BatchCallID)
}

func (e *ConversationNotFoundError) Unwrap() error { return e.Cause }

// DebugInfo returns the diagnostic payload shown to API clients.
func (e *ConversationNotFoundError) DebugInfo() any {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return map[string]any{
		"total_conversations":       e.Total,
		"looking_for_batch_call_id": e.BatchCallID,
		"looking_for_agent_id":      e.AgentID,
		"available_batch_call_ids":  nonNil(e.AvailableBatchCallIDs),
		"available_agent_ids":       nonNil(e.AvailableAgentIDs),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
