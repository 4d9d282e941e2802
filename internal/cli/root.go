// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"d2ldates/internal/config"
	"d2ldates/internal/logging"
	"d2ldates/internal/ui"
)

var (
	// Global flags
	courseFlag    string
	configPath    string
	statePathFlag string
	verboseFlag   bool
	logFileFlag   string

	// Resolved values
	resolvedConfigPath string
	resolvedStatePath  string
	cfg                *config.Config
	state              *config.State
	logCleanup         func()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "d2ldates",
	Short: "Batch-edit start and due dates from a CSV plan",
	Long: `d2ldates drives the LMS "Manage Dates" page from a CSV plan.

Each plan row names an item on the page and the start/due date and time
it should get. The tool resolves names against the live listing, opens
each item's edit dialog, writes the date components, and saves - one
field at a time, carrying on past failures.

Sign in once with 'd2ldates login'; later runs re-attach to the same
browser profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version and shell plumbing run without config.
		switch cmd.Name() {
		case "version", "completion", "help", "docs":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg == nil {
			cfg = &config.Config{}
		}
		resolvedStatePath = config.ResolveStatePath(statePathFlag, resolvedConfigPath, cfg)

		state, err = config.LoadState(resolvedStatePath)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		ui.ConfigureTheme(cfg.UI.Accent)

		logCleanup, err = logging.Init(logging.Options{
			Verbose: verboseFlag,
			File:    logFileFlag,
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&courseFlag, "course", "c", "", "Course name from config, or a manage-dates URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Append JSON logs to a file")
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	return cfg
}

// getConfigPath returns the resolved global config path.
func getConfigPath() string {
	return resolvedConfigPath
}

// getStatePath returns the resolved global state path.
func getStatePath() string {
	return resolvedStatePath
}

// getState returns the loaded state.
func getState() *config.State {
	return state
}

// resolveCourse picks the course for this invocation: the --course flag,
// then the active course from state, then the config default.
func resolveCourse() (name, url string, err error) {
	active := ""
	if state != nil {
		active = strings.TrimSpace(state.ActiveCourse)
	}
	return cfg.ResolveCourse(courseFlag, active)
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}
