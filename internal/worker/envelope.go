package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danbi-ai/danbi/pkg/models"
)

// EnvelopeWorker exposes a Worker over the message envelope, for deployments
// where workers sit behind a queue or RPC transport instead of an in-process
// call. A request's content carries the task under "task"; the response
// carries the result under "result" and correlates to the request.
type EnvelopeWorker struct {
	// Name is the worker's address for envelope routing.
	Name string
	// Inner does the actual work.
	Inner Worker
}

// Handle processes a request envelope and returns the response envelope.
func (e *EnvelopeWorker) Handle(ctx context.Context, msg *models.Message) *models.Message {
	if msg.Type != models.MessageRequest {
		return msg.Reply(models.MessageError, map[string]any{
			"error": fmt.Sprintf("worker %s: unexpected message type %q", e.Name, msg.Type),
		})
	}

	task, err := taskFromContent(msg.Content)
	if err != nil {
		return msg.Reply(models.MessageError, map[string]any{
			"error": fmt.Sprintf("worker %s: %v", e.Name, err),
		})
	}

	result := e.Inner.Invoke(ctx, task)
	typ := models.MessageResponse
	if !result.Succeeded() {
		typ = models.MessageError
	}
	return msg.Reply(typ, map[string]any{"result": resultToContent(result)})
}

// NewTaskRequest builds a request envelope carrying the task, addressed to
// the task's target worker.
func NewTaskRequest(sender string, task *models.Task) *models.Message {
	return models.NewRequest(sender, task.Worker, task.Priority, map[string]any{
		"task": taskToContent(task),
	})
}

func taskToContent(task *models.Task) map[string]any {
	return map[string]any{
		"id":       task.ID,
		"kind":     task.Kind,
		"worker":   task.Worker,
		"priority": task.Priority,
		"params":   task.Params,
		"status":   string(task.Status),
	}
}

func taskFromContent(content map[string]any) (*models.Task, error) {
	raw, ok := content["task"]
	if !ok {
		return nil, fmt.Errorf("request content has no task")
	}
	// Round-trip through JSON: content maps may come off the wire with
	// arbitrary numeric types.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode task content: %w", err)
	}
	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("decode task content: %w", err)
	}
	if task.ID == "" {
		return nil, fmt.Errorf("task content has no id")
	}
	return &task, nil
}

func resultToContent(result *models.AgentResult) map[string]any {
	return map[string]any{
		"task_id":    result.TaskID,
		"status":     string(result.Status),
		"payload":    result.Payload,
		"confidence": result.Confidence,
		"error":      result.Error,
	}
}
