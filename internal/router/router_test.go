package router

import (
	"testing"

	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/pkg/models"
)

func sessionWithIntent(primary models.IntentLabel, simple bool) *state.SessionState {
	s := state.NewSession("s1", "q")
	s.Intent = models.Intent{Primary: primary, Confidence: 0.7, IsSimple: simple}
	return s
}

func TestNext_AnalyzeIntent(t *testing.T) {
	r := New()

	next, err := r.Next(StageAnalyzeIntent, sessionWithIntent(models.IntentDiagnostic, false))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageDecomposeTasks {
		t.Errorf("next = %v, want decompose_tasks", next)
	}
}

func TestNext_DecomposeBranchesByIntent(t *testing.T) {
	tests := []struct {
		name    string
		primary models.IntentLabel
		simple  bool
		want    Stage
	}{
		{"anomaly", models.IntentAnomaly, false, StageAnomalyDetection},
		{"trend", models.IntentTrend, false, StageTrendAnalysis},
		{"predictive", models.IntentPredictive, false, StageTrendAnalysis},
		{"diagnostic", models.IntentDiagnostic, false, StageDataCollection},
		{"comparative", models.IntentComparative, false, StageDataCollection},
		{"optimization", models.IntentOptimization, false, StageDataCollection},
		{"unknown falls back to data", models.IntentLabel("mystery"), false, StageDataCollection},
		{"simple short-circuits", models.IntentDiagnostic, true, StageSynthesize},
		{"simple_response label", models.IntentSimple, false, StageSynthesize},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := r.Next(StageDecomposeTasks, sessionWithIntent(tt.primary, tt.simple))
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if next != tt.want {
				t.Errorf("next = %v, want %v", next, tt.want)
			}
		})
	}
}

func TestNext_AfterDataCollection(t *testing.T) {
	tests := []struct {
		primary models.IntentLabel
		want    Stage
	}{
		{models.IntentAnomaly, StageAnomalyDetection},
		{models.IntentTrend, StageTrendAnalysis},
		{models.IntentPredictive, StageTrendAnalysis},
		{models.IntentDiagnostic, StageInsightGeneration},
		{models.IntentOptimization, StageInsightGeneration},
	}

	r := New()
	for _, tt := range tests {
		t.Run(string(tt.primary), func(t *testing.T) {
			next, err := r.Next(StageDataCollection, sessionWithIntent(tt.primary, false))
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if next != tt.want {
				t.Errorf("next = %v, want %v", next, tt.want)
			}
		})
	}
}

func TestNext_InsightRequiresEssentialStages(t *testing.T) {
	r := New()

	// Insight alone is not enough; exit gracefully to synthesis.
	s := sessionWithIntent(models.IntentAnomaly, false)
	s.CompleteStage(string(StageInsightGeneration))
	next, err := r.Next(StageInsightGeneration, s)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageSynthesize {
		t.Errorf("next without data collection = %v, want synthesize", next)
	}

	// With both essential stages done, recommendation follows.
	s.CompleteStage(string(StageDataCollection))
	next, err = r.Next(StageInsightGeneration, s)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageRecommendation {
		t.Errorf("next with essentials done = %v, want recommendation", next)
	}
}

func TestNext_AnomalyAndTrendFeedInsights(t *testing.T) {
	r := New()

	for _, stage := range []Stage{StageAnomalyDetection, StageTrendAnalysis} {
		s := sessionWithIntent(models.IntentAnomaly, false)
		next, err := r.Next(stage, s)
		if err != nil {
			t.Fatalf("next(%v): %v", stage, err)
		}
		if next != StageInsightGeneration {
			t.Errorf("next(%v) = %v, want insight_generation", stage, next)
		}

		s.CompleteStage(string(StageInsightGeneration))
		next, err = r.Next(stage, s)
		if err != nil {
			t.Fatalf("next(%v): %v", stage, err)
		}
		if next != StageSynthesize {
			t.Errorf("next(%v) with insights done = %v, want synthesize", stage, next)
		}
	}
}

func TestNext_StageFailureRoutesToErrorHandle(t *testing.T) {
	r := New()
	for _, stage := range []Stage{
		StageAnalyzeIntent, StageDecomposeTasks, StageDataCollection,
		StageInsightGeneration, StageRecommendation, StageAnomalyDetection,
		StageTrendAnalysis,
	} {
		s := sessionWithIntent(models.IntentDiagnostic, false)
		s.FailedStage = string(stage)
		next, err := r.Next(stage, s)
		if err != nil {
			t.Fatalf("next(%v): %v", stage, err)
		}
		if next != StageErrorHandle {
			t.Errorf("next(%v) after failure = %v, want error_handle", stage, next)
		}
	}
}

func TestNext_ErrorHandle(t *testing.T) {
	r := New()

	// Retry budget remaining: loop back to the failed stage.
	s := sessionWithIntent(models.IntentDiagnostic, false)
	s.FailedStage = string(StageDataCollection)
	next, err := r.Next(StageErrorHandle, s)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageDataCollection {
		t.Errorf("next = %v, want loop back to data_collection", next)
	}

	// Exhausted: the handler cleared the failed stage; the session ends.
	s.FailedStage = ""
	next, err = r.Next(StageErrorHandle, s)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageDone {
		t.Errorf("next = %v, want done", next)
	}
}

func TestNext_SynthesizeIsTerminal(t *testing.T) {
	r := New()
	next, err := r.Next(StageSynthesize, sessionWithIntent(models.IntentDiagnostic, false))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != StageDone {
		t.Errorf("next = %v, want done", next)
	}
}

func TestNext_UndefinedStage(t *testing.T) {
	r := New()
	if _, err := r.Next(Stage("mystery_stage"), sessionWithIntent(models.IntentDiagnostic, false)); err == nil {
		t.Error("Next on unknown stage succeeded, want ErrUndefinedTransition")
	}
}

// TestNext_Exhaustive checks that every (stage, primary intent) pair has a
// defined transition producing a known stage.
func TestNext_Exhaustive(t *testing.T) {
	r := New()
	primaries := []models.IntentLabel{
		models.IntentDiagnostic, models.IntentComparative, models.IntentTrend,
		models.IntentPredictive, models.IntentOptimization, models.IntentAnomaly,
		models.IntentSimple,
	}

	for _, stage := range Stages() {
		for _, primary := range primaries {
			s := sessionWithIntent(primary, primary == models.IntentSimple)
			next, err := r.Next(stage, s)
			if err != nil {
				t.Errorf("Next(%v, %v): %v", stage, primary, err)
				continue
			}
			if next != StageDone && !next.Valid() {
				t.Errorf("Next(%v, %v) = %v, not a known stage", stage, primary, next)
			}
		}
	}
}
