// Package watch re-runs the indexing pipeline when workflow files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vflow-stack/flowcat/internal/scanner"
)

// RunFunc performs one pipeline run.
type RunFunc func(ctx context.Context) error

// Watcher debounces filesystem events in one directory into pipeline runs.
type Watcher struct {
	dir         string
	catalogFile string
	debounce    time.Duration
	run         RunFunc
	logger      *slog.Logger
}

// New creates a Watcher for dir. Events on catalogFile are ignored so the
// catalog write does not retrigger a run.
func New(dir, catalogFile string, debounce time.Duration, run RunFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:         dir,
		catalogFile: catalogFile,
		debounce:    debounce,
		run:         run,
		logger:      logger,
	}
}

// Relevant reports whether an event should trigger a run.
func (w *Watcher) Relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if name == w.catalogFile || !scanner.IsCandidate(name) {
		return false
	}
	// Permission changes alone never alter content
	return ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// Watch blocks until ctx is cancelled. Runs never overlap: events arriving
// during a run are coalesced into the next one. Run errors are logged and
// watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.logger.Info("watching for changes", "dir", w.dir, "debounce", w.debounce)

	// Since Go 1.23 Stop and Reset leave no stale value in timer.C, so no draining
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.Relevant(ev) {
				continue
			}
			w.logger.Debug("change detected", "file", filepath.Base(ev.Name), "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			if err := w.run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warn("run failed", "error", err)
			}
		}
	}
}
