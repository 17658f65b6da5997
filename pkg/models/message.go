package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies an envelope between the orchestrator and a worker.
type MessageType string

const (
	// MessageRequest asks a worker to perform a task.
	MessageRequest MessageType = "request"
	// MessageResponse carries a worker's result back to the sender.
	MessageResponse MessageType = "response"
	// MessageError reports a failure processing a request.
	MessageError MessageType = "error"
	// MessageInfo carries advisory information with no reply expected.
	MessageInfo MessageType = "info"
)

// Message is the envelope used when workers run behind a transport instead
// of an in-process call. A response always carries the CorrelationID of its
// originating request.
type Message struct {
	// ID is the unique identifier of this message.
	ID string `json:"id"`
	// Sender names the component that produced the message.
	Sender string `json:"sender"`
	// Receiver names the component the message is addressed to.
	Receiver string `json:"receiver"`
	// Type is the message class.
	Type MessageType `json:"type"`
	// Content is the opaque body; for requests it carries the task,
	// for responses the agent result.
	Content map[string]any `json:"content,omitempty"`
	// Priority orders messages, 1 highest.
	Priority int `json:"priority"`
	// CorrelationID links a response to its request.
	CorrelationID string `json:"correlation_id,omitempty"`
	// Timestamp is when the message was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewRequest builds a request envelope from sender to receiver.
func NewRequest(sender, receiver string, priority int, content map[string]any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      MessageRequest,
		Content:   content,
		Priority:  priority,
		Timestamp: time.Now(),
	}
}

// Reply builds a response (or error) envelope for this message. The reply
// correlates to the request's CorrelationID when set, otherwise to its ID.
func (m *Message) Reply(typ MessageType, content map[string]any) *Message {
	corr := m.CorrelationID
	if corr == "" {
		corr = m.ID
	}
	return &Message{
		ID:            uuid.NewString(),
		Sender:        m.Receiver,
		Receiver:      m.Sender,
		Type:          typ,
		Content:       content,
		Priority:      m.Priority,
		CorrelationID: corr,
		Timestamp:     time.Now(),
	}
}
