package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitLevels(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Init(Options{Writer: &buf, Verbose: false})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer cleanup()

	log := Named("test")
	log.Debug().Msg("hidden")
	log.Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug should be filtered at default level")
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn should pass, got %q", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("component tag missing, got %q", out)
	}
}

func TestInitVerbose(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Init(Options{Writer: &buf, Verbose: true})
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer cleanup()

	logger := Named("test")
	logger.Debug().Msg("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("verbose should pass debug, got %q", buf.String())
	}
}
