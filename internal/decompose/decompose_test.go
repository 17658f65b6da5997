package decompose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danbi-ai/danbi/pkg/models"
)

func TestDecompose_Templates(t *testing.T) {
	tests := []struct {
		name      string
		primary   models.IntentLabel
		wantKinds []string
	}{
		{"diagnostic", models.IntentDiagnostic,
			[]string{"data_collection", "insight_generation", "recommendation"}},
		{"comparative", models.IntentComparative,
			[]string{"comparative_data_collection", "comparative_analysis", "recommendation"}},
		{"trend", models.IntentTrend,
			[]string{"time_series_collection", "trend_analysis", "insight_generation"}},
		{"anomaly", models.IntentAnomaly,
			[]string{"anomaly_detection", "data_validation", "insight_generation"}},
		{"optimization", models.IntentOptimization,
			[]string{"performance_analysis", "optimization_analysis", "action_planning"}},
		{"predictive", models.IntentPredictive,
			[]string{"historical_data_collection", "predictive_analysis", "recommendation"}},
		{"unknown intent falls back to forecasting", models.IntentLabel("mystery"),
			[]string{"historical_data_collection", "predictive_analysis", "recommendation"}},
	}

	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := d.Decompose(models.Intent{Primary: tt.primary, Confidence: 0.7}, models.Metadata{})
			if len(tasks) != len(tt.wantKinds) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.wantKinds))
			}
			for i, task := range tasks {
				if task.Kind != tt.wantKinds[i] {
					t.Errorf("task[%d].Kind = %q, want %q", i, task.Kind, tt.wantKinds[i])
				}
				if task.Priority != i+1 {
					t.Errorf("task[%d].Priority = %d, want %d", i, task.Priority, i+1)
				}
				if task.Status != models.TaskStatusPending {
					t.Errorf("task[%d].Status = %v, want pending", i, task.Status)
				}
				if task.Worker == "" {
					t.Errorf("task[%d] has no worker", i)
				}
			}
		})
	}
}

func TestDecompose_SimpleIntentYieldsNoTasks(t *testing.T) {
	d := New()
	intent := models.Intent{Primary: models.IntentSimple, IsSimple: true, Confidence: 0.9}
	if tasks := d.Decompose(intent, models.Metadata{}); len(tasks) != 0 {
		t.Errorf("simple intent produced %d tasks, want 0", len(tasks))
	}
}

func TestDecompose_UniqueIDsAndIndependentParams(t *testing.T) {
	d := New()
	md := models.Metadata{
		TimePeriod: models.PeriodToday,
		Metrics:    []string{"visitors"},
		Urgency:    models.UrgencyNormal,
	}

	tasks := d.Decompose(models.Intent{Primary: models.IntentDiagnostic}, md)

	seen := make(map[string]bool)
	for _, task := range tasks {
		if task.ID == "" || seen[task.ID] {
			t.Fatalf("task id %q is empty or duplicated", task.ID)
		}
		seen[task.ID] = true
		if task.Params["time_period"] != "today" {
			t.Errorf("params[time_period] = %v, want today", task.Params["time_period"])
		}
	}

	// Mutating one task's metrics slice must not leak into siblings.
	first := tasks[0].Params["metrics"].([]string)
	first[0] = "mutated"
	second := tasks[1].Params["metrics"].([]string)
	if second[0] != "visitors" {
		t.Error("sibling tasks share a metrics slice")
	}
}

func TestDecompose_SecondRunGetsFreshIDs(t *testing.T) {
	d := New()
	intent := models.Intent{Primary: models.IntentDiagnostic}

	a := d.Decompose(intent, models.Metadata{})
	b := d.Decompose(intent, models.Metadata{})
	for i := range a {
		if a[i].ID == b[i].ID {
			t.Errorf("run 2 task[%d] reused id %q", i, a[i].ID)
		}
	}
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := `
templates:
  diagnostic:
    - kind: store_health_check
      worker: data_analyst
      priority: 1
    - kind: insight_generation
      worker: insight_generator
      priority: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	diag := templates[models.IntentDiagnostic]
	if len(diag) != 2 || diag[0].Kind != "store_health_check" {
		t.Errorf("diagnostic override = %+v, want store_health_check first", diag)
	}
	// Unnamed intents keep their built-ins.
	if len(templates[models.IntentAnomaly]) != 3 {
		t.Errorf("anomaly template = %+v, want built-in of 3 tasks", templates[models.IntentAnomaly])
	}
}

func TestLoadTemplates_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown intent", "templates:\n  mystery:\n    - kind: a\n      worker: b\n      priority: 1\n"},
		{"empty template", "templates:\n  diagnostic: []\n"},
		{"missing worker", "templates:\n  diagnostic:\n    - kind: a\n      priority: 1\n"},
		{"bad priority", "templates:\n  diagnostic:\n    - kind: a\n      worker: b\n      priority: 0\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadTemplates(path); err == nil {
				t.Error("load succeeded, want error")
			}
		})
	}
}

func TestDecomposer_LoadInto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `
templates:
  trend:
    - kind: hourly_series_collection
      worker: data_analyst
      priority: 1
    - kind: trend_analysis
      worker: trend_predictor
      priority: 2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d := New()
	if err := d.LoadInto(path); err != nil {
		t.Fatalf("load into: %v", err)
	}

	tasks := d.Decompose(models.Intent{Primary: models.IntentTrend}, models.Metadata{})
	if len(tasks) != 2 || tasks[0].Kind != "hourly_series_collection" {
		t.Errorf("tasks after reload = %+v, want override applied", tasks)
	}
}
