package decompose

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// TemplateWatcher hot-reloads a template override file into a Decomposer
// whenever it changes on disk. A file that becomes invalid is logged and
// skipped; the previously installed templates stay in effect.
type TemplateWatcher struct {
	decomposer *Decomposer
	path       string
	logger     *zap.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchTemplates performs an initial load of path and then watches it for
// changes. Call Close to stop watching.
func WatchTemplates(d *Decomposer, path string, logger *zap.Logger) (*TemplateWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := d.LoadInto(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	tw := &TemplateWatcher{
		decomposer: d,
		path:       path,
		logger:     logger,
		watcher:    watcher,
		done:       make(chan struct{}),
	}
	go tw.watch()
	return tw, nil
}

func (tw *TemplateWatcher) watch() {
	for {
		select {
		case <-tw.done:
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(tw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := tw.decomposer.LoadInto(tw.path); err != nil {
				tw.logger.Warn("template reload failed, keeping previous templates",
					zap.String("path", tw.path), zap.Error(err))
				continue
			}
			tw.logger.Info("task templates reloaded", zap.String("path", tw.path))
		case <-tw.watcher.Errors:
			// Keep watching.
		}
	}
}

// Close stops the watcher.
func (tw *TemplateWatcher) Close() {
	close(tw.done)
	tw.watcher.Close()
}
