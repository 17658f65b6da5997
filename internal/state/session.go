// Package state holds the per-session workflow state and its SQLite-backed
// checkpoint store. A session's state is owned by exactly one control loop;
// the store only needs to isolate distinct session ids from each other.
package state

import (
	"time"

	"github.com/danbi-ai/danbi/pkg/models"
)

// SchemaVersion is written into every serialized session document. Readers
// ignore unknown fields, so newer writers stay forward-readable.
const SchemaVersion = 1

// SessionState is the single mutable aggregate passed through every stage of
// a session. It is created empty at session start, mutated by one stage at a
// time, and checkpointed after every stage transition.
type SessionState struct {
	// Version is the document schema version.
	Version int `json:"version"`
	// SessionID identifies the session.
	SessionID string `json:"session_id"`
	// Query is the original user query.
	Query string `json:"query"`
	// Intent is the classified intent, set once by the analyze stage.
	Intent models.Intent `json:"intent"`
	// Metadata holds attributes extracted alongside the intent.
	Metadata models.Metadata `json:"metadata"`
	// Tasks is the append-only task list for this session.
	Tasks []*models.Task `json:"tasks,omitempty"`
	// Results maps task id to the task's outcome.
	Results map[string]*models.AgentResult `json:"results,omitempty"`
	// CompletedStages records stages that finished, in completion order.
	CompletedStages []string `json:"completed_stages,omitempty"`
	// CurrentStage names the stage the control loop will run next. A resumed
	// driver continues here instead of restarting the graph.
	CurrentStage string `json:"current_stage,omitempty"`
	// Errors is the ordered log of stage-level errors.
	Errors []string `json:"errors,omitempty"`
	// RetryCount is the number of error-handler retries consumed so far.
	RetryCount int `json:"retry_count"`
	// FailedStage names the stage whose work last failed. It is set when a
	// stage reports an error, read by the error handler to decide where to
	// loop back, and cleared on re-entry or retry exhaustion.
	FailedStage string `json:"failed_stage,omitempty"`
	// FinalInsight is the synthesized report, set by a terminal stage.
	FinalInsight string `json:"final_insight,omitempty"`
	// ConfidenceScore is the aggregate confidence of the final result.
	ConfidenceScore float64 `json:"confidence_score"`
	// CreatedAt is when the session started.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the state was last checkpointed.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates the initial state for a session.
func NewSession(sessionID, query string) *SessionState {
	now := time.Now()
	return &SessionState{
		Version:   SchemaVersion,
		SessionID: sessionID,
		Query:     query,
		Results:   make(map[string]*models.AgentResult),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CompleteStage records a stage as finished. The set only grows; recording
// an already-completed stage is a no-op.
func (s *SessionState) CompleteStage(stage string) {
	if s.StageCompleted(stage) {
		return
	}
	s.CompletedStages = append(s.CompletedStages, stage)
}

// StageCompleted returns true if the stage has been recorded as finished.
func (s *SessionState) StageCompleted(stage string) bool {
	for _, done := range s.CompletedStages {
		if done == stage {
			return true
		}
	}
	return false
}

// RecordError appends a stage-level error to the session's error log.
func (s *SessionState) RecordError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// LastErrors returns up to n of the most recent recorded errors.
func (s *SessionState) LastErrors(n int) []string {
	if n <= 0 || len(s.Errors) == 0 {
		return nil
	}
	if len(s.Errors) < n {
		n = len(s.Errors)
	}
	return s.Errors[len(s.Errors)-n:]
}

// AppendTasks adds decomposed tasks to the session. The task list is an
// audit trail: entries are never removed.
func (s *SessionState) AppendTasks(tasks []*models.Task) {
	s.Tasks = append(s.Tasks, tasks...)
}

// PendingTasks returns the session's tasks that have not reached a terminal
// status, filtered to the given kinds. An empty kinds filter matches all.
func (s *SessionState) PendingTasks(kinds ...string) []*models.Task {
	var out []*models.Task
	for _, t := range s.Tasks {
		if t.Status.Terminal() {
			continue
		}
		if len(kinds) == 0 {
			out = append(out, t)
			continue
		}
		for _, k := range kinds {
			if t.Kind == k {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// MergeResults records task outcomes into the session's result map.
func (s *SessionState) MergeResults(results map[string]*models.AgentResult) {
	if s.Results == nil {
		s.Results = make(map[string]*models.AgentResult, len(results))
	}
	for id, r := range results {
		s.Results[id] = r
	}
}

// SuccessfulResults returns results with success status, in task order.
func (s *SessionState) SuccessfulResults() []*models.AgentResult {
	var out []*models.AgentResult
	for _, t := range s.Tasks {
		if r, ok := s.Results[t.ID]; ok && r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// ResultByKind returns the first successful result whose task has the given
// kind, or nil.
func (s *SessionState) ResultByKind(kind string) *models.AgentResult {
	for _, t := range s.Tasks {
		if t.Kind != kind {
			continue
		}
		if r, ok := s.Results[t.ID]; ok && r.Succeeded() {
			return r
		}
	}
	return nil
}
