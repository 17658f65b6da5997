package models

import "fmt"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task is being worked on.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusSucceeded indicates the task completed successfully.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// rank orders statuses along the pending -> running -> terminal lifecycle.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusRunning:
		return 1
	case TaskStatusSucceeded, TaskStatusFailed:
		return 2
	default:
		return -1
	}
}

// Terminal returns true if the status is succeeded or failed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// Task is one unit of analysis work emitted by the decomposer and executed
// by the tiered executor. Tasks are appended to the session's task list and
// never deleted; their status only moves forward.
type Task struct {
	// ID is the unique identifier for this task within a session.
	ID string `json:"id"`
	// Kind names the analysis this task performs (data_collection,
	// insight_generation, recommendation, ...).
	Kind string `json:"kind"`
	// Worker is the registry name of the worker that executes this task.
	Worker string `json:"worker"`
	// Priority orders tasks into execution tiers; 1 is highest.
	Priority int `json:"priority"`
	// Params carries task inputs. Workers must ignore unknown keys.
	Params map[string]any `json:"params,omitempty"`
	// Status is the current lifecycle state of the task.
	Status TaskStatus `json:"status"`
}

// Advance moves the task to the given status. It returns an error if the
// transition would move the lifecycle backward or leave a terminal state.
func (t *Task) Advance(next TaskStatus) error {
	if !next.Valid() {
		return fmt.Errorf("task %s: invalid status %q", t.ID, next)
	}
	if t.Status.Terminal() || next.rank() < t.Status.rank() {
		return fmt.Errorf("task %s: cannot transition %s -> %s", t.ID, t.Status, next)
	}
	t.Status = next
	return nil
}

// ResultStatus is the outcome class of a worker invocation.
type ResultStatus string

const (
	// ResultSuccess indicates the worker produced a usable payload.
	ResultSuccess ResultStatus = "success"
	// ResultError indicates the worker failed; Error holds the reason.
	ResultError ResultStatus = "error"
)

// AgentResult is the outcome of one task. It is produced by the tiered
// executor and read-only for all downstream stages: worker failures become
// error results here instead of aborting the tier.
type AgentResult struct {
	// TaskID links the result back to its task.
	TaskID string `json:"task_id"`
	// Status is success or error.
	Status ResultStatus `json:"status"`
	// Payload is the worker's structured output.
	Payload map[string]any `json:"payload,omitempty"`
	// Confidence is the worker's certainty in [0,1].
	Confidence float64 `json:"confidence"`
	// Error holds the failure reason for error results.
	Error string `json:"error,omitempty"`
}

// Succeeded returns true for a success result.
func (r *AgentResult) Succeeded() bool {
	return r != nil && r.Status == ResultSuccess
}

// ErrorResult builds an error AgentResult for the given task.
func ErrorResult(taskID string, err error) *AgentResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &AgentResult{
		TaskID: taskID,
		Status: ResultError,
		Error:  msg,
	}
}
