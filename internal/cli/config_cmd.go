package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"d2ldates/internal/config"
	"d2ldates/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize the global configuration",
	Long: `Inspect and initialize the global configuration.

The config file holds the course map, browser options, and the matching
and timing knobs. 'config init' writes a commented starter file;
'config show' prints what is currently in effect.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := getConfigPath()
	existed := false
	if _, err := os.Stat(path); err == nil {
		existed = true
	}

	created, err := config.CreateDefaultAt(path)
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"path":    created,
			"created": !existed,
		}, nil)
		return nil
	}

	if existed {
		fmt.Println(ui.Info(fmt.Sprintf("Config already exists: %s", created)))
		return nil
	}
	fmt.Println(ui.Successf("Created %s", created))
	fmt.Println(ui.Hint("Open it and add at least one [courses] entry"))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	path := getConfigPath()
	exists := false
	if _, err := os.Stat(path); err == nil {
		exists = true
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"config_path":    path,
			"state_path":     getStatePath(),
			"exists":         exists,
			"default_course": strings.TrimSpace(cfg.DefaultCourse),
			"login_url":      strings.TrimSpace(cfg.LoginURL),
			"courses":        cfg.ListCourses(),
			"browser": map[string]interface{}{
				"debug_port":  cfg.Browser.Port(),
				"profile_dir": cfg.Browser.Profile(path),
				"chrome_path": strings.TrimSpace(cfg.Browser.ChromePath),
				"headless":    cfg.Browser.Headless,
			},
			"matching": map[string]interface{}{
				"filler_tokens":   cfg.Matching.FillerTokens,
				"candidate_limit": cfg.Matching.CandidateLimit,
			},
			"audit_enabled": cfg.Audit.Enabled,
		}, nil)
		return nil
	}

	if !exists {
		fmt.Printf("Config file does not exist: %s\n", path)
		fmt.Println(ui.Hint("Run 'd2ldates config init' to create it"))
		return nil
	}

	fmt.Printf("config: %s\n", path)
	fmt.Printf("state:  %s\n", getStatePath())
	if v := strings.TrimSpace(cfg.DefaultCourse); v != "" {
		fmt.Printf("default_course: %s\n", v)
	}
	if v := strings.TrimSpace(cfg.LoginURL); v != "" {
		fmt.Printf("login_url: %s\n", v)
	}
	fmt.Printf("browser: port %d, profile %s\n", cfg.Browser.Port(), cfg.Browser.Profile(path))
	if len(cfg.Courses) > 0 {
		fmt.Printf("courses: %d configured\n", len(cfg.Courses))
		fmt.Println(ui.Hint("List them with 'd2ldates courses'"))
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	if isJSONOutput() {
		outputSuccess(map[string]string{"path": getConfigPath()}, nil)
		return nil
	}
	fmt.Println(getConfigPath())
	return nil
}
