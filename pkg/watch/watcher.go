// Package watch rebuilds the exam tables whenever a source document in the
// input directory changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"gopkg.in/fsnotify.v1"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc is called once per burst of changes with the changed paths.
type RebuildFunc func(ctx context.Context, changed []string) error

// Config configures a Watcher.
type Config struct {
	Dir      string
	Pattern  *regexp.Regexp
	Debounce time.Duration
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Watcher watches the input directory for source documents.
type Watcher struct {
	cfg     Config
	rebuild RebuildFunc
	logger  *slog.Logger
	ready   chan struct{}
}

// New creates a Watcher that calls rebuild after changes to files whose
// name matches cfg.Pattern.
func New(cfg Config, rebuild RebuildFunc) *Watcher {
	cfg.defaults()
	return &Watcher{
		cfg:     cfg,
		rebuild: rebuild,
		logger:  cfg.Logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. Rebuild errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", w.cfg.Dir, err)
	}
	close(w.ready)
	w.logger.Info("watching for exam document changes", "dir", w.cfg.Dir, "debounce", w.cfg.Debounce)

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("exam document changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(w.cfg.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			clear(pending)

			if err := w.rebuild(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if w.cfg.Pattern != nil && !w.cfg.Pattern.MatchString(filepath.Base(event.Name)) {
		return false
	}
	const ops = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	return event.Op&ops != 0
}
