// Package router holds the workflow's finite-state machine: the closed set
// of stage identifiers and the transition table evaluated after each stage's
// work completes.
package router

import (
	"errors"
	"fmt"

	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/pkg/models"
)

// Stage identifies one node of the workflow graph.
type Stage string

const (
	// StageAnalyzeIntent classifies the query into an intent.
	StageAnalyzeIntent Stage = "analyze_intent"
	// StageDecomposeTasks expands the intent into prioritized tasks.
	StageDecomposeTasks Stage = "decompose_tasks"
	// StageDataCollection runs the data-collection tier.
	StageDataCollection Stage = "data_collection"
	// StageInsightGeneration derives findings from collected data.
	StageInsightGeneration Stage = "insight_generation"
	// StageRecommendation turns findings into prioritized actions.
	StageRecommendation Stage = "recommendation_generation"
	// StageAnomalyDetection scans metrics for outliers.
	StageAnomalyDetection Stage = "anomaly_detection"
	// StageTrendAnalysis fits and extrapolates metric trends.
	StageTrendAnalysis Stage = "trend_analysis"
	// StageSynthesize merges all results into the final report.
	StageSynthesize Stage = "synthesize"
	// StageErrorHandle applies the bounded-retry policy after a failure.
	StageErrorHandle Stage = "error_handle"
	// StageDone marks session completion. It is not a workable stage.
	StageDone Stage = "done"
)

// Valid returns true if the stage is a known workable stage.
func (s Stage) Valid() bool {
	switch s {
	case StageAnalyzeIntent, StageDecomposeTasks, StageDataCollection,
		StageInsightGeneration, StageRecommendation, StageAnomalyDetection,
		StageTrendAnalysis, StageSynthesize, StageErrorHandle:
		return true
	default:
		return false
	}
}

// ErrUndefinedTransition reports that the transition table has no rule for
// the requested stage, or a rule produced an unknown stage. This is a fatal
// internal error: the driver escalates it instead of retrying.
var ErrUndefinedTransition = errors.New("undefined stage transition")

// Router evaluates the transition table. Transitions are decided on
// post-stage state: each stage records itself in CompletedStages before the
// router runs, so a single diagnostic pass through InsightGeneration can
// reach RecommendationGeneration.
type Router struct {
	transitions map[Stage]func(*state.SessionState) Stage
}

// New creates a Router with the standard transition table.
func New() *Router {
	r := &Router{}
	r.transitions = map[Stage]func(*state.SessionState) Stage{
		StageAnalyzeIntent:     r.afterAnalyzeIntent,
		StageDecomposeTasks:    r.afterDecompose,
		StageDataCollection:    r.afterDataCollection,
		StageInsightGeneration: r.afterInsight,
		StageRecommendation:    r.afterRecommendation,
		StageAnomalyDetection:  r.afterAnomalyOrTrend(StageAnomalyDetection),
		StageTrendAnalysis:     r.afterAnomalyOrTrend(StageTrendAnalysis),
		StageSynthesize:        func(*state.SessionState) Stage { return StageDone },
		StageErrorHandle:       r.afterErrorHandle,
	}
	return r
}

// Next returns the stage to run after currentStage, given the session state.
func (r *Router) Next(currentStage Stage, st *state.SessionState) (Stage, error) {
	fn, ok := r.transitions[currentStage]
	if !ok {
		return "", fmt.Errorf("%w: no rule for stage %q", ErrUndefinedTransition, currentStage)
	}
	next := fn(st)
	if next != StageDone && !next.Valid() {
		return "", fmt.Errorf("%w: rule for %q produced %q", ErrUndefinedTransition, currentStage, next)
	}
	return next, nil
}

// Stages returns all workable stages, in graph order.
func Stages() []Stage {
	return []Stage{
		StageAnalyzeIntent, StageDecomposeTasks, StageDataCollection,
		StageInsightGeneration, StageRecommendation, StageAnomalyDetection,
		StageTrendAnalysis, StageSynthesize, StageErrorHandle,
	}
}

func (r *Router) afterAnalyzeIntent(st *state.SessionState) Stage {
	if st.FailedStage == string(StageAnalyzeIntent) {
		return StageErrorHandle
	}
	return StageDecomposeTasks
}

// afterDecompose branches on the classified intent. Simple inputs
// short-circuit straight to synthesis.
func (r *Router) afterDecompose(st *state.SessionState) Stage {
	if st.FailedStage == string(StageDecomposeTasks) {
		return StageErrorHandle
	}
	if st.Intent.IsSimple || st.Intent.Primary == models.IntentSimple {
		return StageSynthesize
	}
	switch st.Intent.Primary {
	case models.IntentAnomaly:
		return StageAnomalyDetection
	case models.IntentTrend, models.IntentPredictive:
		return StageTrendAnalysis
	default:
		// diagnostic, comparative, optimization, and anything unclassified
		return StageDataCollection
	}
}

func (r *Router) afterDataCollection(st *state.SessionState) Stage {
	if st.FailedStage == string(StageDataCollection) {
		return StageErrorHandle
	}
	switch st.Intent.Primary {
	case models.IntentAnomaly:
		return StageAnomalyDetection
	case models.IntentTrend, models.IntentPredictive:
		return StageTrendAnalysis
	default:
		return StageInsightGeneration
	}
}

// afterInsight proceeds to recommendation only when the essential upstream
// stages have both completed; otherwise it exits gracefully to synthesis
// with whatever results exist.
func (r *Router) afterInsight(st *state.SessionState) Stage {
	if st.FailedStage == string(StageInsightGeneration) {
		return StageErrorHandle
	}
	if st.StageCompleted(string(StageDataCollection)) &&
		st.StageCompleted(string(StageInsightGeneration)) {
		return StageRecommendation
	}
	return StageSynthesize
}

func (r *Router) afterRecommendation(st *state.SessionState) Stage {
	if st.FailedStage == string(StageRecommendation) {
		return StageErrorHandle
	}
	return StageSynthesize
}

// afterAnomalyOrTrend feeds detection results into insight generation,
// unless insights already exist, in which case analysis is complete.
func (r *Router) afterAnomalyOrTrend(self Stage) func(*state.SessionState) Stage {
	return func(st *state.SessionState) Stage {
		if st.FailedStage == string(self) {
			return StageErrorHandle
		}
		if st.StageCompleted(string(StageInsightGeneration)) {
			return StageSynthesize
		}
		return StageInsightGeneration
	}
}

// afterErrorHandle loops back to the failed stage while the retry handler
// left one to return to; otherwise the degraded result is final.
func (r *Router) afterErrorHandle(st *state.SessionState) Stage {
	if st.FailedStage != "" {
		return Stage(st.FailedStage)
	}
	return StageDone
}
