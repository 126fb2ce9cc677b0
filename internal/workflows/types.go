// Package workflows provides the Temporal follow-up workflow that watches an
// outbound call until it finishes and then processes its conversation.
package workflows

import (
	"errors"
	"time"
)

// Defaults applied to a zero FollowUpInput.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultMaxPolls     = 120

	// DefaultTaskQueue is the queue the worker listens on.
	DefaultTaskQueue = "callscribe-followup"
)

// FollowUpInput configures one CallFollowUpWorkflow run.
type FollowUpInput struct {
	BatchCallID  string        // Call to follow
	PollInterval time.Duration // Wait between status polls
	MaxPolls     int           // Give up after this many polls
}

// Validate checks that all required fields are set.
func (in *FollowUpInput) Validate() error {
	if in.BatchCallID == "" {
		return errors.New("BatchCallID is required")
	}
	if in.PollInterval < 0 {
		return errors.New("PollInterval cannot be negative")
	}
	if in.MaxPolls < 0 {
		return errors.New("MaxPolls cannot be negative")
	}
	return nil
}

func (in FollowUpInput) withDefaults() FollowUpInput {
	if in.PollInterval == 0 {
		in.PollInterval = DefaultPollInterval
	}
	if in.MaxPolls == 0 {
		in.MaxPolls = DefaultMaxPolls
	}
	return in
}

// FollowUpResult summarizes a workflow run.
type FollowUpResult struct {
	BatchCallID    string   // Call followed
	FinalStatus    string   // Last status reported by the platform
	Polls          int      // Status polls performed
	Processed      bool     // Whether the conversation was processed
	ConversationID string   // Conversation that was processed
	Answered       int      // Questions with a real answer
	TimedOut       bool     // MaxPolls reached without a terminal status
	Errors         []string // Non-fatal errors encountered
}

// ProcessOutput is returned by the ProcessConversation activity.
type ProcessOutput struct {
	ConversationID string
	Answered       int
}
