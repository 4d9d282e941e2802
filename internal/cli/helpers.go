package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"d2ldates/internal/audit"
	"d2ldates/internal/browser"
	"d2ldates/internal/config"
	"d2ldates/internal/history"
	"d2ldates/internal/labelcache"
	"d2ldates/internal/plan"
	"d2ldates/internal/resolver"
)

// dataDir is where the journal, audit log, and label captures live:
// alongside the config file.
func dataDir() string {
	return config.DataDir(getConfigPath())
}

// browserOptions maps config onto the session options.
func browserOptions() browser.Options {
	b := getConfig().Browser
	return browser.Options{
		DebugPort:  b.Port(),
		ProfileDir: b.Profile(getConfigPath()),
		ChromePath: b.ChromePath,
		Headless:   b.Headless,
	}
}

// resolverOptions maps config onto the matching ladder options.
func resolverOptions() resolver.Options {
	m := getConfig().Matching
	return resolver.Options{
		FillerTokens:   m.FillerTokens,
		CandidateLimit: m.CandidateLimit,
	}
}

// openHistory opens the run journal.
func openHistory() (*history.Store, error) {
	return history.Open(dataDir())
}

// newAudit builds the audit logger from config.
func newAudit() *audit.Logger {
	return audit.New(dataDir(), getConfig().Audit.Enabled)
}

// openLabelCache opens the capture store.
func openLabelCache() *labelcache.Cache {
	return labelcache.Open(dataDir())
}

// loadAliases loads the alias map: the explicit flag path when given,
// otherwise aliases.yaml next to the config file when present.
func loadAliases(flagPath string) (map[string]string, error) {
	path := flagPath
	if path == "" {
		candidate := filepath.Join(dataDir(), "aliases.yaml")
		if _, err := os.Stat(candidate); err != nil {
			return nil, nil
		}
		path = candidate
	}
	aliases, err := plan.LoadAliases(path)
	if err != nil {
		return nil, fmt.Errorf("load aliases from %s: %w", path, err)
	}
	return aliases, nil
}

// courseError maps a course resolution failure to a structured CLI error.
func courseError(err error) error {
	var notFound *config.CourseNotFoundError
	if errors.As(err, &notFound) {
		return handleError(ErrCourseNotFound, err,
			"Run 'd2ldates courses' to see configured courses")
	}
	return handleError(ErrCourseNotSpecified, err,
		"Pass --course <name|url>, run 'd2ldates courses use <name>', or set default_course in config.toml")
}
