package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// SpawnDetached starts a user-visible browser with the devtools port open
// and returns without waiting. The operator signs in by hand; a later
// Attach on the same port picks the session up. The process outlives this
// one.
func SpawnDetached(opts Options, url string) (int, error) {
	opts = opts.withDefaults()

	path := opts.ChromePath
	if path == "" {
		var err error
		path, err = findBrowser()
		if err != nil {
			return 0, err
		}
	}

	args := []string{
		fmt.Sprintf("--remote-debugging-port=%d", opts.DebugPort),
		"--no-first-run",
		"--no-default-browser-check",
	}
	if opts.ProfileDir != "" {
		args = append(args, "--user-data-dir="+opts.ProfileDir)
	}
	if url != "" {
		args = append(args, "--new-window", url)
	}

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", path, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("detach browser process: %w", err)
	}
	return pid, nil
}

// findBrowser locates a Chrome-family binary for the current platform.
func findBrowser() (string, error) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
	case "windows":
		candidates = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
	default:
		candidates = []string{
			"google-chrome",
			"google-chrome-stable",
			"chromium",
			"chromium-browser",
			"microsoft-edge",
		}
	}

	for _, c := range candidates {
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no Chrome-family browser found; set browser.chrome_path in config")
}
