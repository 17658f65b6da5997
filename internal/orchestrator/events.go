package orchestrator

import "time"

// EventType represents the type of session event.
type EventType string

const (
	// EventStageStarted indicates a stage began executing.
	EventStageStarted EventType = "stage_started"
	// EventStageCompleted indicates a stage finished successfully.
	EventStageCompleted EventType = "stage_completed"
	// EventStageFailed indicates a stage's work failed.
	EventStageFailed EventType = "stage_failed"
	// EventRetry indicates the error handler consumed a retry.
	EventRetry EventType = "retry"
	// EventSessionDone indicates the session reached a terminal state.
	EventSessionDone EventType = "session_done"
)

// Event is emitted as the control loop moves through stages. Events feed the
// progress view and are advisory: a slow consumer drops events rather than
// stalling the session.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// SessionID identifies the session.
	SessionID string
	// Stage is the stage the event refers to.
	Stage string
	// Message provides additional context.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event without blocking; if the consumer lags, the event is
// dropped.
func (o *Orchestrator) emit(typ EventType, sessionID, stage, message string) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- Event{
		Type:      typ,
		SessionID: sessionID,
		Stage:     stage,
		Message:   message,
		Timestamp: time.Now(),
	}:
	default:
	}
}
