package cli

import (
	"runtime"
	"runtime/debug"
	"testing"

	"d2ldates/internal/buildinfo"
)

func TestCurrentVersionInfoFromBuildInfo(t *testing.T) {
	prevRead := readBuildInfo
	t.Cleanup(func() {
		readBuildInfo = prevRead
	})

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.23.4",
			Main: debug.Module{
				Path:    "d2ldates",
				Version: "v0.3.0",
			},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.time", Value: "2026-08-01T09:00:00Z"},
				{Key: "vcs.modified", Value: "true"},
				{Key: "GOOS", Value: "linux"},
				{Key: "GOARCH", Value: "arm64"},
			},
		}, true
	}

	info := currentVersionInfo()

	if info.Version != "v0.3.0" {
		t.Fatalf("Version = %q, want %q", info.Version, "v0.3.0")
	}
	if info.ModulePath != "d2ldates" {
		t.Fatalf("ModulePath = %q, want %q", info.ModulePath, "d2ldates")
	}
	if info.Commit != "abc123" {
		t.Fatalf("Commit = %q, want %q", info.Commit, "abc123")
	}
	if !info.Modified {
		t.Fatal("Modified = false, want true")
	}
	if info.GOOS != "linux" || info.GOARCH != "arm64" {
		t.Fatalf("platform = %s/%s, want linux/arm64", info.GOOS, info.GOARCH)
	}
}

func TestCurrentVersionInfoFallbackWhenBuildInfoMissing(t *testing.T) {
	prevRead := readBuildInfo
	t.Cleanup(func() {
		readBuildInfo = prevRead
	})

	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return nil, false
	}

	info := currentVersionInfo()

	if info.Version != "devel" {
		t.Fatalf("Version = %q, want %q", info.Version, "devel")
	}
	if info.ModulePath != defaultModulePath {
		t.Fatalf("ModulePath = %q, want %q", info.ModulePath, defaultModulePath)
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("GoVersion = %q, want runtime %q", info.GoVersion, runtime.Version())
	}
}

func TestApplyLdflagsFallback(t *testing.T) {
	prevVersion, prevCommit, prevDate := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date = prevVersion, prevCommit, prevDate
	})
	buildinfo.Version = "v0.4.1"
	buildinfo.Commit = "deadbeef"
	buildinfo.Date = "2026-08-20T12:00:00Z"

	info := versionInfo{Version: "devel"}
	applyLdflagsFallback(&info)

	if info.Version != "v0.4.1" {
		t.Fatalf("Version = %q, want %q", info.Version, "v0.4.1")
	}
	if info.Commit != "deadbeef" {
		t.Fatalf("Commit = %q, want %q", info.Commit, "deadbeef")
	}
	if info.CommitTime != "2026-08-20T12:00:00Z" {
		t.Fatalf("CommitTime = %q", info.CommitTime)
	}

	// An already-resolved version is not clobbered by ldflags.
	info = versionInfo{Version: "v1.0.0", Commit: "aaa"}
	applyLdflagsFallback(&info)
	if info.Version != "v1.0.0" || info.Commit != "aaa" {
		t.Fatalf("ldflags overwrote resolved info: %+v", info)
	}
}

func TestNormalizeVersion(t *testing.T) {
	cases := map[string]string{
		"":        "devel",
		"(devel)": "devel",
		"v1.2.3":  "v1.2.3",
	}
	for in, want := range cases {
		if got := normalizeVersion(in); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", in, got, want)
		}
	}
}
