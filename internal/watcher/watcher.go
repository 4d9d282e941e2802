// Package watcher monitors a drop directory for CSV plans.
//
// Watch mode turns the tool into a hot folder: export a plan into the
// directory and it runs against the active course. Events are debounced
// so a file still being written is not picked up half-finished, and a
// plan is skipped when its modification time has not moved since the
// last run.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher monitors a directory for settled CSV plans.
type Watcher struct {
	dir           string
	debounceDelay time.Duration
	process       func(path string) error
	onDone        func(path string, err error)
	log           zerolog.Logger

	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	pending   map[string]time.Time
	lastRun   map[string]time.Time
}

// Config holds configuration options for the Watcher.
type Config struct {
	Dir           string
	DebounceDelay time.Duration // Default: 2s
	Process       func(path string) error
	OnDone        func(path string, err error) // Optional callback
	Log           zerolog.Logger
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.Process == nil {
		return nil, fmt.Errorf("process callback is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 2 * time.Second
	}

	return &Watcher{
		dir:           cfg.Dir,
		debounceDelay: debounce,
		process:       cfg.Process,
		onDone:        cfg.OnDone,
		log:           cfg.Log,
		pending:       make(map[string]time.Time),
		lastRun:       make(map[string]time.Time),
	}, nil
}

// Start begins watching the directory. It blocks until the context is
// cancelled. Plans are processed one at a time; there is only one browser.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.log.Debug().Str("dir", w.dir).Dur("debounce", w.debounceDelay).Msg("watching for plans")

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.processDebounced(ctx)
	}()
	defer func() { <-done }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Debug().Err(err).Msg("watcher error")
		}
	}
}

// IsPlanFile reports whether a path names a CSV plan. Hidden files and
// editor temp files are not plans.
func IsPlanFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".csv")
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !IsPlanFile(path) {
		// But watch new subdirectories.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addWatchRecursive(path)
			}
		}
		return
	}

	w.log.Debug().Str("op", event.Op.String()).Str("path", path).Msg("event")

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.schedule(path)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	}
}

// schedule adds a plan to the pending queue with debouncing. A new event
// for the same path restarts its debounce window.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// processDebounced periodically drains plans whose debounce window passed.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending runs plans whose last event is older than the debounce
// delay.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	ready := make([]string, 0)
	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		stat, err := os.Stat(path)
		if err != nil {
			// Removed between settle and run.
			w.log.Debug().Str("path", path).Err(err).Msg("plan vanished")
			continue
		}
		if last, ok := w.lastRunTime(path); ok && !stat.ModTime().After(last) {
			w.log.Debug().Str("path", path).Msg("plan unchanged since last run")
			continue
		}

		err = w.process(path)
		w.setLastRun(path, stat.ModTime())
		if w.onDone != nil {
			w.onDone(path, err)
		}
		if err != nil {
			w.log.Warn().Str("path", path).Err(err).Msg("plan failed")
		} else {
			w.log.Debug().Str("path", path).Msg("plan processed")
		}
	}
}

func (w *Watcher) lastRunTime(path string) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.lastRun[path]
	return t, ok
}

func (w *Watcher) setLastRun(path string, t time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastRun[path] = t
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Hidden subdirectories are not part of the drop folder. The
			// root itself may be hidden; never skip it.
			if path != root && strings.HasPrefix(filepath.Base(path), ".") {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.log.Debug().Str("path", path).Err(err).Msg("watch failed")
			}
		}
		return nil
	})
}
