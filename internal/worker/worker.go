// Package worker holds the analysis agents the tiered executor invokes and
// the registry that resolves a task's target worker by name. The agents here
// run against a simulated retail dataset; swapping one for a live
// implementation only requires registering a different Worker.
package worker

import (
	"context"
	"fmt"

	"github.com/danbi-ai/danbi/internal/decompose"
	"github.com/danbi-ai/danbi/pkg/models"
)

// Worker executes one task and reports its outcome. Implementations must
// return an error result rather than panic on bad input, and should honor
// ctx cancellation for long work.
type Worker interface {
	Invoke(ctx context.Context, task *models.Task) *models.AgentResult
}

// Registry resolves worker names to Worker implementations. It is built once
// at startup and read-only afterward, so lookups need no locking.
type Registry struct {
	workers map[string]Worker
}

// NewRegistry creates a registry with the given name -> worker mapping.
func NewRegistry(workers map[string]Worker) *Registry {
	m := make(map[string]Worker, len(workers))
	for name, w := range workers {
		m[name] = w
	}
	return &Registry{workers: m}
}

// DefaultRegistry creates a registry with the five simulated analysts, all
// reading from the given dataset.
func DefaultRegistry(data Dataset) *Registry {
	return NewRegistry(map[string]Worker{
		decompose.WorkerDataAnalyst:      &DataAnalyst{Data: data},
		decompose.WorkerInsightGenerator: &InsightGenerator{Data: data},
		decompose.WorkerRecommendation:   &Recommender{Data: data},
		decompose.WorkerAnomalyDetector:  &AnomalyDetector{Data: data},
		decompose.WorkerTrendPredictor:   &TrendPredictor{Data: data},
	})
}

// Lookup returns the worker registered under name.
func (r *Registry) Lookup(name string) (Worker, error) {
	w, ok := r.workers[name]
	if !ok {
		return nil, fmt.Errorf("no worker registered as %q", name)
	}
	return w, nil
}

// Names returns all registered worker names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.workers))
	for name := range r.workers {
		names = append(names, name)
	}
	return names
}
