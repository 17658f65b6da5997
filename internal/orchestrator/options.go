package orchestrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/internal/classify"
	"github.com/danbi-ai/danbi/internal/decompose"
	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/internal/worker"
)

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*Orchestrator)

// WithClassifier sets the intent classifier. Defaults to the keyword
// classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithDecomposer sets the task decomposer.
func WithDecomposer(d *decompose.Decomposer) Option {
	return func(o *Orchestrator) {
		if d != nil {
			o.decomposer = d
		}
	}
}

// WithRegistry sets the worker registry tasks are executed against.
func WithRegistry(r *worker.Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithStore sets the session checkpoint store. Without a store, sessions are
// not persisted and cannot be resumed.
func WithStore(s state.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMaxRetries sets the per-session retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithMaxConcurrency bounds concurrent tasks within one execution tier.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithTaskTimeout bounds one worker invocation.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithSessionTimeout bounds a whole session. An expired session terminates
// through the degraded path at the next suspension point.
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.sessionTimeout = d
		}
	}
}

// WithEvents sets the channel progress events are emitted on. Events are
// dropped, never blocked on, when the channel is full.
func WithEvents(ch chan<- Event) Option {
	return func(o *Orchestrator) { o.events = ch }
}
