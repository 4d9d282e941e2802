package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"d2ldates/internal/browser"
	"d2ldates/internal/ui"
)

var loginURLFlag string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a browser for signing in to the LMS",
	Long: `Open a browser for signing in to the LMS.

The browser starts with its devtools port open and stays up after this
command returns. Sign in by hand, leave the window open, then run
'd2ldates process' or 'd2ldates snapshot'; they attach to the same
browser and inherit the signed-in session.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginURLFlag, "url", "", "Page to open (defaults to login_url from config)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	url := loginURLFlag
	if url == "" {
		url = getConfig().LoginURL
	}
	if url == "" {
		return handleErrorMsg(ErrConfigInvalid, "no login URL configured",
			"Set login_url in config.toml or pass --url")
	}

	opts := browserOptions()
	opts.Headless = false

	pid, err := browser.SpawnDetached(opts, url)
	if err != nil {
		return handleError(ErrBrowserUnavailable, err,
			"Install Chrome or Chromium, or set browser.chrome_path in config")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"pid":  pid,
			"port": opts.DebugPort,
			"url":  url,
		}, nil)
		return nil
	}

	fmt.Println(ui.Successf("Browser started (pid %d, devtools port %d)", pid, opts.DebugPort))
	fmt.Println(ui.Info("Sign in, then leave the window open"))
	fmt.Println(ui.Hint("Next: d2ldates snapshot, or d2ldates process <plan.csv>"))
	return nil
}
