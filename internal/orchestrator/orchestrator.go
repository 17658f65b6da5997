// Package orchestrator drives a session through the workflow graph: it runs
// each stage's work, routes to the next stage, and checkpoints the session
// after every transition. One control loop owns one session; concurrency
// lives inside the tiered executor and across independent sessions.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/internal/classify"
	"github.com/danbi-ai/danbi/internal/decompose"
	"github.com/danbi-ai/danbi/internal/executor"
	"github.com/danbi-ai/danbi/internal/retry"
	"github.com/danbi-ai/danbi/internal/router"
	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/internal/synthesize"
	"github.com/danbi-ai/danbi/internal/worker"
	"github.com/danbi-ai/danbi/pkg/models"
)

// DefaultSessionTimeout bounds one session end to end.
const DefaultSessionTimeout = 2 * time.Minute

// stageKinds maps each analytic stage to the task kinds it executes.
var stageKinds = map[router.Stage][]string{
	router.StageDataCollection:    {"data_collection", "comparative_data_collection", "time_series_collection", "historical_data_collection", "performance_analysis", "data_validation"},
	router.StageInsightGeneration: {"insight_generation", "comparative_analysis", "optimization_analysis"},
	router.StageRecommendation:    {"recommendation", "action_planning"},
	router.StageAnomalyDetection:  {"anomaly_detection"},
	router.StageTrendAnalysis:     {"trend_analysis", "predictive_analysis"},
}

// Result is the outcome of one session.
type Result struct {
	// Success is false when the session terminated through the degraded
	// path (retry exhaustion, timeout, or a routing fault).
	Success bool
	// SessionID identifies the session.
	SessionID string
	// FinalInsight is the synthesized report.
	FinalInsight string
	// ConfidenceScore is the aggregate confidence in [0,1].
	ConfidenceScore float64
	// CompletedStages lists the stages that finished, in order.
	CompletedStages []string
	// Errors lists every stage-level error recorded during the session.
	Errors []string
}

// Orchestrator coordinates classification, decomposition, tiered execution,
// and synthesis for analysis sessions.
type Orchestrator struct {
	classifier classify.Classifier
	decomposer *decompose.Decomposer
	registry   *worker.Registry
	store      state.Store
	router     *router.Router
	handler    *retry.Handler
	exec       *executor.Executor
	logger     *zap.Logger
	events     chan<- Event

	maxRetries     int
	maxConcurrency int
	taskTimeout    time.Duration
	sessionTimeout time.Duration
}

// New creates an Orchestrator. Without options it classifies by keywords,
// runs the simulated analysts, and keeps no checkpoints.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier:     classify.NewKeywordClassifier(),
		decomposer:     decompose.New(),
		registry:       worker.DefaultRegistry(worker.DefaultDataset()),
		router:         router.New(),
		logger:         zap.NewNop(),
		maxRetries:     retry.DefaultMaxRetries,
		maxConcurrency: executor.DefaultMaxConcurrency,
		taskTimeout:    executor.DefaultTaskTimeout,
		sessionTimeout: DefaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.handler = retry.New(
		retry.WithMaxRetries(o.maxRetries),
		retry.WithLogger(o.logger),
	)
	o.exec = executor.New(o.registry,
		executor.WithMaxConcurrency(o.maxConcurrency),
		executor.WithTaskTimeout(o.taskTimeout),
		executor.WithLogger(o.logger),
	)
	return o
}

// Execute runs one session for the query. An empty sessionID starts a fresh
// session; a known sessionID with an unfinished checkpoint resumes from the
// last checkpointed stage.
func (o *Orchestrator) Execute(ctx context.Context, query, sessionID string) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, o.sessionTimeout)
	defer cancel()

	st, stage, err := o.loadOrCreate(sessionID, query)
	if err != nil {
		return nil, err
	}
	if stage == router.StageDone {
		// Already finished; return the checkpointed outcome.
		return o.result(st, st.ConfidenceScore != retryDegradedScore), nil
	}

	o.logger.Info("session started",
		zap.String("session", sessionID),
		zap.String("stage", string(stage)))

	degraded := false
	// The only permitted cycle is the bounded error-handle loop, so the
	// transition count has a hard ceiling. Exceeding it means a routing
	// fault.
	maxTransitions := (o.maxRetries + 2) * len(router.Stages())

	for transitions := 0; ; transitions++ {
		if err := ctx.Err(); err != nil {
			o.degrade(st, fmt.Sprintf("session aborted: %v", err))
			degraded = true
			break
		}
		if transitions >= maxTransitions {
			o.degrade(st, fmt.Sprintf("transition budget exceeded at stage %s", stage))
			degraded = true
			break
		}

		o.emit(EventStageStarted, sessionID, string(stage), "")
		if err := o.runStage(ctx, stage, st); err != nil {
			st.RecordError(fmt.Sprintf("%s failed: %v", stage, err))
			st.FailedStage = string(stage)
			o.emit(EventStageFailed, sessionID, string(stage), err.Error())
			o.logger.Warn("stage failed",
				zap.String("session", sessionID),
				zap.String("stage", string(stage)),
				zap.Error(err))
		} else if stage != router.StageErrorHandle {
			// A successful re-entry clears the failure marker.
			st.FailedStage = ""
			st.CompleteStage(string(stage))
			o.emit(EventStageCompleted, sessionID, string(stage), "")
		} else if st.FailedStage != "" {
			o.emit(EventRetry, sessionID, st.FailedStage,
				fmt.Sprintf("retry %d/%d", st.RetryCount, o.maxRetries))
		} else {
			// The handler exhausted the budget and wrote the degraded
			// result.
			degraded = true
		}

		next, rerr := o.router.Next(stage, st)
		if rerr != nil {
			// Routing faults are fatal internal errors.
			o.degrade(st, rerr.Error())
			degraded = true
			break
		}

		st.CurrentStage = string(next)
		o.checkpoint(st)

		if next == router.StageDone {
			break
		}
		stage = next
	}

	st.CurrentStage = string(router.StageDone)
	o.checkpoint(st)
	o.emit(EventSessionDone, sessionID, string(router.StageDone), "")
	o.logger.Info("session finished",
		zap.String("session", sessionID),
		zap.Bool("degraded", degraded),
		zap.Float64("confidence", st.ConfidenceScore))

	return o.result(st, !degraded), nil
}

// retryDegradedScore mirrors the retry handler's degraded confidence floor.
const retryDegradedScore = 0.1

func (o *Orchestrator) loadOrCreate(sessionID, query string) (*state.SessionState, router.Stage, error) {
	if o.store != nil {
		st, err := o.store.Get(sessionID)
		if err != nil {
			return nil, "", fmt.Errorf("load session %s: %w", sessionID, err)
		}
		if st != nil {
			stage := router.Stage(st.CurrentStage)
			if stage == router.StageDone {
				return st, router.StageDone, nil
			}
			if stage.Valid() {
				o.logger.Info("resuming session",
					zap.String("session", sessionID),
					zap.String("stage", string(stage)))
				return st, stage, nil
			}
		}
	}
	return state.NewSession(sessionID, query), router.StageAnalyzeIntent, nil
}

// runStage performs one stage's work. A returned error marks the stage
// failed; routing then diverts through error handling.
func (o *Orchestrator) runStage(ctx context.Context, stage router.Stage, st *state.SessionState) error {
	switch stage {
	case router.StageAnalyzeIntent:
		intent, err := o.classifier.Classify(ctx, st.Query)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}
		st.Intent = intent
		st.Metadata = classify.ExtractMetadata(st.Query)
		return nil

	case router.StageDecomposeTasks:
		tasks := o.decomposer.Decompose(st.Intent, st.Metadata)
		st.AppendTasks(tasks)
		return nil

	case router.StageDataCollection, router.StageInsightGeneration,
		router.StageRecommendation, router.StageAnomalyDetection,
		router.StageTrendAnalysis:
		return o.runAnalyticStage(ctx, stage, st)

	case router.StageErrorHandle:
		o.handler.Handle(st)
		return nil

	case router.StageSynthesize:
		// The degraded path arrives here with the insight already written;
		// its inputs are known-incomplete, so normal aggregation is skipped.
		if st.FinalInsight == "" {
			st.FinalInsight, st.ConfidenceScore = synthesize.Synthesize(st)
		}
		return nil

	default:
		return fmt.Errorf("stage %q has no implementation", stage)
	}
}

// runAnalyticStage executes the stage's pending tasks through the tiered
// executor. Individual task failures are contained in their results; the
// stage itself fails only when it had tasks and none succeeded.
func (o *Orchestrator) runAnalyticStage(ctx context.Context, stage router.Stage, st *state.SessionState) error {
	kinds := stageKinds[stage]

	tasks := st.PendingTasks(kinds...)
	if len(tasks) == 0 {
		// On retry the original tasks are already terminal; respawn them.
		tasks = respawnFailed(st, kinds)
	}
	if len(tasks) == 0 {
		return nil
	}

	results, err := o.exec.Execute(ctx, tasks)
	st.MergeResults(results)
	if err != nil {
		return fmt.Errorf("execute tier: %w", err)
	}

	var lastErr string
	for _, task := range tasks {
		if r, ok := results[task.ID]; ok {
			if r.Succeeded() {
				return nil
			}
			lastErr = r.Error
		}
	}
	return fmt.Errorf("all %d tasks failed, last error: %s", len(tasks), lastErr)
}

// respawnFailed clones failed tasks of the given kinds as fresh pending
// tasks. The originals stay in the task list as the audit trail.
func respawnFailed(st *state.SessionState, kinds []string) []*models.Task {
	var clones []*models.Task
	for _, task := range st.Tasks {
		if task.Status != models.TaskStatusFailed || !kindIn(task.Kind, kinds) {
			continue
		}
		if _, ok := st.Results[task.ID]; !ok {
			continue
		}
		clones = append(clones, &models.Task{
			ID:       uuid.NewString(),
			Kind:     task.Kind,
			Worker:   task.Worker,
			Priority: task.Priority,
			Params:   task.Params,
			Status:   models.TaskStatusPending,
		})
	}
	st.AppendTasks(clones)
	return clones
}

func kindIn(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// degrade terminates the session with the user-safe degraded insight.
func (o *Orchestrator) degrade(st *state.SessionState, reason string) {
	o.logger.Error("session degraded",
		zap.String("session", st.SessionID),
		zap.String("reason", reason))
	st.RecordError(reason)
	st.RetryCount = o.maxRetries
	o.handler.Handle(st)
}

// checkpoint persists the session if a store is configured. Checkpoint
// failures are logged, not fatal: the session result is still returned to
// the caller.
func (o *Orchestrator) checkpoint(st *state.SessionState) {
	if o.store == nil {
		return
	}
	if err := o.store.Put(st); err != nil {
		o.logger.Warn("checkpoint failed",
			zap.String("session", st.SessionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) result(st *state.SessionState, success bool) *Result {
	return &Result{
		Success:         success,
		SessionID:       st.SessionID,
		FinalInsight:    st.FinalInsight,
		ConfidenceScore: st.ConfidenceScore,
		CompletedStages: append([]string(nil), st.CompletedStages...),
		Errors:          append([]string(nil), st.Errors...),
	}
}
