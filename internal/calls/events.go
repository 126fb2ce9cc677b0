package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// EventType names a call lifecycle transition.
type EventType string

const (
	EventCreated   EventType = "created"
	EventStatus    EventType = "status"
	EventProcessed EventType = "processed"
)

// Event is published on every call lifecycle transition. It never carries
// the phone number or transcript.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	BatchCallID    string    `json:"batch_call_id"`
	AgentID        string    `json:"agent_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Questions      int       `json:"questions"`
	Answered       int       `json:"answered,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func newEvent(typ EventType, call *Call) Event {
	return Event{
		ID:          uuid.New().String(),
		Type:        typ,
		BatchCallID: call.BatchCallID,
		AgentID:     call.AgentID,
		Status:      call.Status,
		Questions:   len(call.Questions),
		Timestamp:   time.Now().UTC(),
	}
}

// EventPublisher delivers call events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NATSPublisher publishes events as JSON to
// <prefix>.<batch_call_id>.<type>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher creates a publisher on an existing connection.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	if prefix == "" {
		prefix = "calls"
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject an event is published on.
func (p *NATSPublisher) Subject(event Event) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, event.BatchCallID, event.Type)
}

// Publish implements EventPublisher.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.Subject(event), data); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
