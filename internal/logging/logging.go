// Package logging configures the process-wide zerolog root.
//
// Human-facing output (status lines, tables, summaries) never goes through
// here; that is the ui package's job. This logger carries diagnostics: the
// per-step detail that matters when a run against a live course goes
// sideways and the operator needs to reconstruct what the browser saw.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	// Verbose drops the level from warn to debug.
	Verbose bool
	// File appends JSON lines to a file instead of writing a console
	// stream to stderr.
	File string
	// Writer overrides the destination (tests).
	Writer io.Writer
}

var (
	mu     sync.Mutex
	root   = zerolog.Nop()
	inited bool
)

// Init builds the root logger. The returned cleanup closes the log file,
// when one was opened; it is safe to call either way.
func Init(opts Options) (func(), error) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.TimeFieldFormat = time.RFC3339

	cleanup := func() {}
	var w io.Writer
	switch {
	case opts.Writer != nil:
		w = opts.Writer
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return cleanup, fmt.Errorf("open log file: %w", err)
		}
		w = f
		cleanup = func() { _ = f.Close() }
	default:
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	level := zerolog.WarnLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	root = zerolog.New(w).Level(level).With().Timestamp().Logger()
	inited = true
	return cleanup, nil
}

// Root returns the process logger. Before Init it is a no-op logger, so
// packages can grab component loggers at construction time without caring
// about ordering.
func Root() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return root
}

// Named returns a component-tagged logger.
func Named(component string) zerolog.Logger {
	return Root().With().Str("component", component).Logger()
}
