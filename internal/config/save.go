package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// persistedConfig mirrors Config with omitempty pointers so saving a
// barely-touched config does not spray default-valued keys into the file.
type persistedConfig struct {
	DefaultCourse *string           `toml:"default_course,omitempty"`
	LoginURL      *string           `toml:"login_url,omitempty"`
	StateFile     *string           `toml:"state_file,omitempty"`
	Courses       map[string]string `toml:"courses,omitempty"`
	Browser       *BrowserConfig    `toml:"browser,omitempty"`
	Matching      *MatchingConfig   `toml:"matching,omitempty"`
	Timing        *TimingConfig     `toml:"timing,omitempty"`
	Audit         *AuditConfig      `toml:"audit,omitempty"`
	UI            *persistedUI      `toml:"ui,omitempty"`
}

type persistedUI struct {
	Accent *string `toml:"accent,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the global config to a specific path atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultCourse: nonEmptyPtr(cfg.DefaultCourse),
		LoginURL:      nonEmptyPtr(cfg.LoginURL),
		StateFile:     nonEmptyPtr(cfg.StateFile),
	}
	if len(cfg.Courses) > 0 {
		out.Courses = cfg.Courses
	}
	if cfg.Browser != (BrowserConfig{}) {
		b := cfg.Browser
		out.Browser = &b
	}
	if cfg.Matching.CandidateLimit != 0 || len(cfg.Matching.FillerTokens) > 0 {
		m := cfg.Matching
		out.Matching = &m
	}
	if cfg.Timing != (TimingConfig{}) {
		t := cfg.Timing
		out.Timing = &t
	}
	if cfg.Audit.Enabled {
		a := cfg.Audit
		out.Audit = &a
	}
	if accent := nonEmptyPtr(cfg.UI.Accent); accent != nil {
		out.UI = &persistedUI{Accent: accent}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}

// writeFileAtomic writes data via a temp file in the same directory and a
// rename, so a crash mid-write never leaves a torn file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	_ = tmp.Chmod(perm)

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// On Windows, renaming over an existing file fails. Remove first (not atomic).
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename temp file: %w", err)
		}
	}

	committed = true
	return nil
}
