package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"d2ldates/internal/browser"
	"d2ldates/internal/logging"
	"d2ldates/internal/plan"
	"d2ldates/internal/ui"
	"d2ldates/internal/watcher"
)

var (
	watchAliasesFlag string
	watchDebounce    time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a folder and process plans dropped into it",
	Long: `Watch a folder and process plans dropped into it.

This runs in the foreground. Every .csv file written under the folder is
picked up once it stops changing, applied to the active course through
the attached browser, and journaled like a normal run. Rewriting a file
runs it again.

The browser must already be signed in (see 'd2ldates login'); watch mode
never launches one.

Examples:
  # Process plans dropped into ~/plans
  d2ldates watch ~/plans

  # Slower debounce for network shares
  d2ldates watch ~/plans --debounce 10s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchAliasesFlag, "aliases", "", "YAML file mapping plan names to page labels")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "How long a file must sit still before it runs")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}
	if !info.IsDir() {
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("%s is not a directory", dir), "")
	}

	aliases, err := loadAliases(watchAliasesFlag)
	if err != nil {
		return handleError(ErrAliasesInvalid, err, "")
	}

	courseName, courseURL, err := resolveCourse()
	if err != nil {
		return courseError(err)
	}

	auditLog := newAudit()
	log := logging.Named("watch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	process := func(path string) error {
		pl, err := plan.Load(path)
		if err != nil {
			return err
		}
		if len(pl.Records) == 0 {
			return fmt.Errorf("%s has no data rows", path)
		}

		fmt.Println(ui.Header(fmt.Sprintf("Processing %s (%d records)", filepath.Base(path), len(pl.Records))))

		sess, err := browser.Attach(ctx, browserOptions(), logging.Named("browser"))
		if err != nil {
			return fmt.Errorf("attach browser: %w", err)
		}
		defer sess.Close()

		if err := sess.Navigate(ctx, courseURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}

		sum, runID := runPlan(ctx, sess, pl, aliases, courseName, &textObserver{}, auditLog, log)

		line := ui.Successf("%s: %s", filepath.Base(path), ui.RunCounts(sum.Processed, sum.Errors))
		if sum.Errors > 0 {
			line = ui.Warningf("%s: %s", filepath.Base(path), ui.RunCounts(sum.Processed, sum.Errors))
		}
		fmt.Println(line)
		if runID != 0 {
			fmt.Println(ui.Hint(fmt.Sprintf("Details: d2ldates history --run %d", runID)))
		}
		return nil
	}

	w, err := watcher.New(watcher.Config{
		Dir:           dir,
		DebounceDelay: watchDebounce,
		Process:       process,
		OnDone: func(path string, err error) {
			if err != nil {
				fmt.Fprintln(os.Stderr, ui.Errorf("%s: %v", filepath.Base(path), err))
			}
		},
		Log: log,
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down watcher...")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	fmt.Printf("Watching %s for plans (course: %s)\n", dir, ui.CourseName(courseName))
	fmt.Println("Press Ctrl+C to stop")

	return w.Start(ctx)
}
