package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danbi-ai/danbi/internal/worker"
	"github.com/danbi-ai/danbi/pkg/models"
)

// workerFunc adapts a function to the worker.Worker interface.
type workerFunc func(ctx context.Context, task *models.Task) *models.AgentResult

func (f workerFunc) Invoke(ctx context.Context, task *models.Task) *models.AgentResult {
	return f(ctx, task)
}

func okWorker(confidence float64) worker.Worker {
	return workerFunc(func(_ context.Context, task *models.Task) *models.AgentResult {
		return &models.AgentResult{TaskID: task.ID, Status: models.ResultSuccess, Confidence: confidence}
	})
}

func newTask(id string, priority int, workerName string) *models.Task {
	return &models.Task{ID: id, Kind: id, Worker: workerName, Priority: priority, Status: models.TaskStatusPending}
}

func TestExecute_TiersRunInPriorityOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := workerFunc(func(_ context.Context, task *models.Task) *models.AgentResult {
		mu.Lock()
		order = append(order, task.ID)
		mu.Unlock()
		return &models.AgentResult{TaskID: task.ID, Status: models.ResultSuccess, Confidence: 0.8}
	})

	e := New(worker.NewRegistry(map[string]worker.Worker{"w": record}))
	tasks := []*models.Task{
		newTask("tier3", 3, "w"),
		newTask("tier1", 1, "w"),
		newTask("tier2", 2, "w"),
	}

	results, err := e.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if order[0] != "tier1" || order[1] != "tier2" || order[2] != "tier3" {
		t.Errorf("execution order = %v, want ascending priority", order)
	}
	for _, task := range tasks {
		if task.Status != models.TaskStatusSucceeded {
			t.Errorf("task %s status = %v, want succeeded", task.ID, task.Status)
		}
	}
}

func TestExecute_FailureDoesNotAbortSiblingsOrNextTier(t *testing.T) {
	boom := workerFunc(func(_ context.Context, task *models.Task) *models.AgentResult {
		return models.ErrorResult(task.ID, errors.New("backend unavailable"))
	})

	e := New(worker.NewRegistry(map[string]worker.Worker{
		"ok":   okWorker(0.9),
		"boom": boom,
	}))
	tasks := []*models.Task{
		newTask("a", 1, "boom"),
		newTask("b", 1, "ok"),
		newTask("c", 2, "ok"),
	}

	results, err := e.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if results["a"].Succeeded() {
		t.Error("failing task reported success")
	}
	if !results["b"].Succeeded() || !results["c"].Succeeded() {
		t.Errorf("siblings affected by failure: b=%+v c=%+v", results["b"], results["c"])
	}
	if tasks[0].Status != models.TaskStatusFailed {
		t.Errorf("failed task status = %v, want failed", tasks[0].Status)
	}
}

func TestExecute_Timeout(t *testing.T) {
	// Ignores its context on purpose; the executor must abandon it.
	slow := workerFunc(func(_ context.Context, task *models.Task) *models.AgentResult {
		time.Sleep(5 * time.Second)
		return &models.AgentResult{TaskID: task.ID, Status: models.ResultSuccess}
	})

	e := New(
		worker.NewRegistry(map[string]worker.Worker{"slow": slow, "ok": okWorker(0.9)}),
		WithTaskTimeout(50*time.Millisecond),
	)
	tasks := []*models.Task{
		newTask("slow-task", 1, "slow"),
		newTask("fast-task", 1, "ok"),
	}

	start := time.Now()
	results, err := e.Execute(context.Background(), tasks)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("tier blocked on timed-out task for %v", elapsed)
	}

	r := results["slow-task"]
	if r.Succeeded() || r.Error != "timeout" {
		t.Errorf("timed-out result = %+v, want error=timeout", r)
	}
	if !results["fast-task"].Succeeded() {
		t.Error("sibling affected by timeout")
	}
}

func TestExecute_PanicBecomesErrorResult(t *testing.T) {
	angry := workerFunc(func(context.Context, *models.Task) *models.AgentResult {
		panic("nil map write")
	})

	e := New(worker.NewRegistry(map[string]worker.Worker{"angry": angry}))
	results, err := e.Execute(context.Background(), []*models.Task{newTask("p", 1, "angry")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	r := results["p"]
	if r.Succeeded() || !strings.Contains(r.Error, "panic") {
		t.Errorf("panic result = %+v, want contained panic error", r)
	}
}

func TestExecute_UnknownWorker(t *testing.T) {
	e := New(worker.NewRegistry(nil))
	results, err := e.Execute(context.Background(), []*models.Task{newTask("x", 1, "ghost")})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if results["x"].Succeeded() {
		t.Error("unknown worker reported success")
	}
}

func TestExecute_ConcurrencyBound(t *testing.T) {
	var running, peak int32
	counting := workerFunc(func(_ context.Context, task *models.Task) *models.AgentResult {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return &models.AgentResult{TaskID: task.ID, Status: models.ResultSuccess}
	})

	e := New(
		worker.NewRegistry(map[string]worker.Worker{"w": counting}),
		WithMaxConcurrency(2),
	)
	tasks := []*models.Task{
		newTask("1", 1, "w"), newTask("2", 1, "w"),
		newTask("3", 1, "w"), newTask("4", 1, "w"),
	}

	if _, err := e.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(worker.NewRegistry(map[string]worker.Worker{"w": okWorker(0.9)}))
	_, err := e.Execute(ctx, []*models.Task{newTask("t", 1, "w")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
