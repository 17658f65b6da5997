// Package executor runs decomposed tasks in priority tiers: tiers execute
// strictly in ascending priority order, tasks within a tier run
// concurrently. A failing, panicking, or timed-out task becomes an error
// result instead of taking its siblings down.
package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/danbi-ai/danbi/internal/worker"
	"github.com/danbi-ai/danbi/pkg/models"
)

const (
	// DefaultMaxConcurrency bounds concurrent worker invocations per tier.
	DefaultMaxConcurrency = 4
	// DefaultTaskTimeout bounds one worker invocation.
	DefaultTaskTimeout = 30 * time.Second
)

// Executor fans tasks out to workers tier by tier.
type Executor struct {
	registry *worker.Registry
	logger   *zap.Logger

	maxConcurrency int64
	taskTimeout    time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxConcurrency bounds how many tasks of one tier run at once.
func WithMaxConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxConcurrency = int64(n)
		}
	}
}

// WithTaskTimeout bounds a single worker invocation.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.taskTimeout = d
		}
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Executor resolving workers from the registry.
func New(registry *worker.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry:       registry,
		logger:         zap.NewNop(),
		maxConcurrency: DefaultMaxConcurrency,
		taskTimeout:    DefaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs all tasks and returns one result per task, keyed by task id.
// Task statuses advance pending -> running -> succeeded/failed as a side
// effect. Only ctx cancellation aborts the run early; in that case results
// collected so far are returned along with ctx's error.
func (e *Executor) Execute(ctx context.Context, tasks []*models.Task) (map[string]*models.AgentResult, error) {
	results := make(map[string]*models.AgentResult, len(tasks))

	for _, tier := range groupByPriority(tasks) {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		e.logger.Debug("running tier",
			zap.Int("priority", tier[0].Priority),
			zap.Int("tasks", len(tier)))

		var (
			mu  sync.Mutex
			wg  sync.WaitGroup
			sem = semaphore.NewWeighted(e.maxConcurrency)
		)
		for _, task := range tier {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(task *models.Task) {
				defer wg.Done()
				defer sem.Release(1)

				result := e.runTask(ctx, task)

				mu.Lock()
				results[task.ID] = result
				mu.Unlock()
			}(task)
		}
		// Tier barrier: the next tier starts only when every invocation of
		// this one has finished, success or failure.
		wg.Wait()
	}

	return results, ctx.Err()
}

// runTask invokes the task's worker with a per-task timeout and converts
// every failure mode into an error result.
func (e *Executor) runTask(ctx context.Context, task *models.Task) *models.AgentResult {
	if err := task.Advance(models.TaskStatusRunning); err != nil {
		return models.ErrorResult(task.ID, err)
	}

	w, err := e.registry.Lookup(task.Worker)
	if err != nil {
		_ = task.Advance(models.TaskStatusFailed)
		return models.ErrorResult(task.ID, err)
	}

	taskCtx, cancel := context.WithTimeout(ctx, e.taskTimeout)
	defer cancel()

	resultCh := make(chan *models.AgentResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("worker panicked",
					zap.String("task", task.ID),
					zap.String("worker", task.Worker),
					zap.Any("panic", r))
				resultCh <- models.ErrorResult(task.ID, fmt.Errorf("worker panic: %v", r))
			}
		}()
		resultCh <- w.Invoke(taskCtx, task)
	}()

	var result *models.AgentResult
	select {
	case result = <-resultCh:
		if result == nil {
			result = models.ErrorResult(task.ID, fmt.Errorf("worker %s returned no result", task.Worker))
		}
	case <-taskCtx.Done():
		// The worker goroutine is abandoned; it still gets to send into the
		// buffered channel without blocking.
		result = models.ErrorResult(task.ID, fmt.Errorf("timeout"))
	}
	result.TaskID = task.ID

	if result.Succeeded() {
		_ = task.Advance(models.TaskStatusSucceeded)
	} else {
		_ = task.Advance(models.TaskStatusFailed)
	}
	return result
}

// groupByPriority buckets tasks into tiers, ascending (priority 1 first).
func groupByPriority(tasks []*models.Task) [][]*models.Task {
	buckets := make(map[int][]*models.Task)
	for _, task := range tasks {
		buckets[task.Priority] = append(buckets[task.Priority], task)
	}

	priorities := make([]int, 0, len(buckets))
	for p := range buckets {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)

	tiers := make([][]*models.Task, 0, len(priorities))
	for _, p := range priorities {
		tiers = append(tiers, buckets[p])
	}
	return tiers
}
