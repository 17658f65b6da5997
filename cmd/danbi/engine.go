package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/internal/classify"
	"github.com/danbi-ai/danbi/internal/config"
	"github.com/danbi-ai/danbi/internal/decompose"
	"github.com/danbi-ai/danbi/internal/orchestrator"
	"github.com/danbi-ai/danbi/internal/state"
	"github.com/danbi-ai/danbi/internal/worker"
)

// buildEngine wires an orchestrator from the loaded configuration. The
// returned cleanup closes the checkpoint store and any template watcher.
func buildEngine(cfg *config.Config, logger *zap.Logger, events chan<- orchestrator.Event) (*orchestrator.Orchestrator, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := state.Open(cfg.StorePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	closers = append(closers, func() { db.Close() })
	if err := db.Migrate(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate session store: %w", err)
	}

	decomposer := decompose.New()
	if cfg.Templates.Path != "" {
		if cfg.Templates.Watch {
			watcher, err := decompose.WatchTemplates(decomposer, cfg.Templates.Path, logger)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("watch templates: %w", err)
			}
			closers = append(closers, watcher.Close)
		} else if err := decomposer.LoadInto(cfg.Templates.Path); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("load templates: %w", err)
		}
	}

	eng := orchestrator.New(
		orchestrator.WithClassifier(buildClassifier(cfg, logger)),
		orchestrator.WithDecomposer(decomposer),
		orchestrator.WithRegistry(worker.DefaultRegistry(worker.DefaultDataset())),
		orchestrator.WithStore(db),
		orchestrator.WithLogger(logger),
		orchestrator.WithMaxRetries(cfg.Engine.MaxRetries),
		orchestrator.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		orchestrator.WithTaskTimeout(cfg.Engine.TaskTimeout),
		orchestrator.WithSessionTimeout(cfg.Engine.SessionTimeout),
		orchestrator.WithEvents(events),
	)
	return eng, cleanup, nil
}

// buildClassifier selects the model-backed classifier when credentials are
// available, the keyword classifier otherwise.
func buildClassifier(cfg *config.Config, logger *zap.Logger) classify.Classifier {
	var base classify.Classifier

	apiKey, keyErr := config.GetAPIKey(cfg)
	if keyErr == nil || cfg.Anthropic.UseBedrock {
		claude, err := classify.NewClaudeClassifier(classify.ClaudeConfig{
			Model:         anthropic.Model(cfg.Anthropic.Model),
			APIKey:        apiKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
			Logger:        logger,
		})
		if err != nil {
			logger.Warn("model classifier unavailable, using keyword classification",
				zap.Error(err))
		} else {
			base = claude
		}
	}
	if base == nil {
		base = classify.NewKeywordClassifier()
	}

	if cfg.Cache.Enabled {
		base = classify.NewCached(base, cfg.CacheSettings())
	}
	return base
}
