// Package decompose expands a classified intent into the ordered task list
// the tiered executor runs. Decomposition is pure and deterministic given
// its inputs; templates can be overridden from a YAML file and hot-reloaded.
package decompose

import (
	"sync"

	"github.com/google/uuid"

	"github.com/danbi-ai/danbi/pkg/models"
)

// TaskTemplate describes one task slot of an intent's template.
type TaskTemplate struct {
	// Kind names the analysis to perform.
	Kind string `yaml:"kind"`
	// Worker is the registry name of the executing worker.
	Worker string `yaml:"worker"`
	// Priority is the execution tier; 1 runs first.
	Priority int `yaml:"priority"`
}

// Decomposer expands intents into tasks using per-intent templates.
type Decomposer struct {
	mu        sync.RWMutex
	templates map[models.IntentLabel][]TaskTemplate
}

// New creates a Decomposer with the built-in templates.
func New() *Decomposer {
	return &Decomposer{templates: builtinTemplates()}
}

// SetTemplates replaces the template table. Intents absent from the new
// table keep falling back as usual.
func (d *Decomposer) SetTemplates(templates map[models.IntentLabel][]TaskTemplate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.templates = templates
}

// Decompose expands the intent into tasks. Every task gets a fresh unique id
// and its own copy of the metadata, so sibling tasks cannot alias each
// other's params. Simple intents need no analysis and return no tasks; every
// other intent always yields at least the fallback template.
func (d *Decomposer) Decompose(intent models.Intent, metadata models.Metadata) []*models.Task {
	if intent.IsSimple || intent.Primary == models.IntentSimple {
		return nil
	}

	d.mu.RLock()
	template, ok := d.templates[intent.Primary]
	if !ok {
		// Unclassified intents get the forecasting treatment.
		template, ok = d.templates[models.IntentPredictive]
	}
	d.mu.RUnlock()
	if !ok || len(template) == 0 {
		template = diagnosticDefault()
	}

	tasks := make([]*models.Task, 0, len(template))
	for _, t := range template {
		md := metadata.Clone()
		tasks = append(tasks, &models.Task{
			ID:       uuid.NewString(),
			Kind:     t.Kind,
			Worker:   t.Worker,
			Priority: t.Priority,
			Params: map[string]any{
				"time_period": string(md.TimePeriod),
				"metrics":     md.Metrics,
				"urgency":     string(md.Urgency),
			},
			Status: models.TaskStatusPending,
		})
	}
	return tasks
}

// Worker registry names shared by templates and the worker package.
const (
	WorkerDataAnalyst      = "data_analyst"
	WorkerInsightGenerator = "insight_generator"
	WorkerRecommendation   = "recommendation"
	WorkerAnomalyDetector  = "anomaly_detector"
	WorkerTrendPredictor   = "trend_predictor"
)

func builtinTemplates() map[models.IntentLabel][]TaskTemplate {
	return map[models.IntentLabel][]TaskTemplate{
		models.IntentDiagnostic: diagnosticDefault(),
		models.IntentComparative: {
			{Kind: "comparative_data_collection", Worker: WorkerDataAnalyst, Priority: 1},
			{Kind: "comparative_analysis", Worker: WorkerInsightGenerator, Priority: 2},
			{Kind: "recommendation", Worker: WorkerRecommendation, Priority: 3},
		},
		models.IntentTrend: {
			{Kind: "time_series_collection", Worker: WorkerDataAnalyst, Priority: 1},
			{Kind: "trend_analysis", Worker: WorkerTrendPredictor, Priority: 2},
			{Kind: "insight_generation", Worker: WorkerInsightGenerator, Priority: 3},
		},
		models.IntentAnomaly: {
			{Kind: "anomaly_detection", Worker: WorkerAnomalyDetector, Priority: 1},
			{Kind: "data_validation", Worker: WorkerDataAnalyst, Priority: 2},
			{Kind: "insight_generation", Worker: WorkerInsightGenerator, Priority: 3},
		},
		models.IntentOptimization: {
			{Kind: "performance_analysis", Worker: WorkerDataAnalyst, Priority: 1},
			{Kind: "optimization_analysis", Worker: WorkerInsightGenerator, Priority: 2},
			{Kind: "action_planning", Worker: WorkerRecommendation, Priority: 3},
		},
		models.IntentPredictive: {
			{Kind: "historical_data_collection", Worker: WorkerDataAnalyst, Priority: 1},
			{Kind: "predictive_analysis", Worker: WorkerTrendPredictor, Priority: 2},
			{Kind: "recommendation", Worker: WorkerRecommendation, Priority: 3},
		},
	}
}

func diagnosticDefault() []TaskTemplate {
	return []TaskTemplate{
		{Kind: "data_collection", Worker: WorkerDataAnalyst, Priority: 1},
		{Kind: "insight_generation", Worker: WorkerInsightGenerator, Priority: 2},
		{Kind: "recommendation", Worker: WorkerRecommendation, Priority: 3},
	}
}
