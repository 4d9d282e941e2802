package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"d2ldates/internal/audit"
	"d2ldates/internal/batch"
	"d2ldates/internal/browser"
	"d2ldates/internal/editor"
	"d2ldates/internal/history"
	"d2ldates/internal/logging"
	"d2ldates/internal/plan"
	"d2ldates/internal/resolver"
	"d2ldates/internal/ui"
)

var (
	processAliasesFlag string
	processAttachOnly  bool
	processNoAudit     bool
)

var processCmd = &cobra.Command{
	Use:   "process <plan.csv>",
	Short: "Apply a CSV plan to the course's manage-dates page",
	Long: `Apply a CSV plan to the course's manage-dates page.

The plan needs a header row with Name, Start Date, Start Time, Due Date,
Due Time. A field is edited only when both its date and time cells are
filled; rows with an empty Name are skipped. Failures are isolated: a
record that cannot be resolved or saved is reported and the run moves on.

The first Ctrl-C stops the run between edits; the current dialog is
finished first. A second Ctrl-C exits immediately.

Examples:
  # Apply a plan to the active course
  d2ldates process dates.csv

  # Apply to a named course with an alias file
  d2ldates process dates.csv --course "BIO 101" --aliases names.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processAliasesFlag, "aliases", "", "YAML file mapping plan names to page labels")
	processCmd.Flags().BoolVar(&processAttachOnly, "attach-only", false, "Fail instead of launching a browser when none is listening")
	processCmd.Flags().BoolVar(&processNoAudit, "no-audit", false, "Skip the audit log for this run")
}

// processResult is the JSON payload of a finished run.
type processResult struct {
	Course    string               `json:"course"`
	Plan      string               `json:"plan"`
	RunID     int64                `json:"run_id,omitempty"`
	Processed int                  `json:"processed"`
	Errors    int                  `json:"errors"`
	Stopped   bool                 `json:"stopped,omitempty"`
	Records   []batch.RecordReport `json:"records"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	start := time.Now()

	pl, err := plan.Load(args[0])
	if err != nil {
		var hdrErr *plan.HeaderError
		switch {
		case errors.As(err, &hdrErr):
			return handleErrorWithDetails(ErrHeadersMissing, err.Error(),
				"The header row must contain: Name, Start Date, Start Time, Due Date, Due Time", hdrErr)
		case errors.Is(err, os.ErrNotExist):
			return handleError(ErrPlanNotFound, err, "")
		default:
			return handleError(ErrPlanInvalid, err, "")
		}
	}
	if len(pl.Records) == 0 {
		return handleErrorMsg(ErrPlanInvalid, fmt.Sprintf("%s has no data rows", pl.Path), "")
	}

	aliases, err := loadAliases(processAliasesFlag)
	if err != nil {
		return handleError(ErrAliasesInvalid, err, "")
	}

	courseName, courseURL, err := resolveCourse()
	if err != nil {
		return courseError(err)
	}

	log := logging.Named("process")
	log.Info().Str("plan", pl.Path).Str("course", courseName).
		Int("records", len(pl.Records)).Msg("starting run")

	// Ctrl-C stops between edits; the run context stays alive for the
	// dialog in flight. A second Ctrl-C gives up entirely.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		if !jsonOutput {
			fmt.Println("\nStopping after the current edit (Ctrl-C again to exit now)")
		}
		stopRun()
		<-sigCh
		os.Exit(130)
	}()

	sess, err := connectBrowser(runCtx)
	if err != nil {
		return handleError(ErrBrowserUnavailable, err,
			"Run 'd2ldates login' and sign in first, or check browser.debug_port in config")
	}
	defer sess.Close()

	if err := navigateTo(runCtx, sess, courseName, courseURL); err != nil {
		return handleError(ErrNavigationFailed, err, "")
	}

	auditLog := newAudit()
	if processNoAudit {
		auditLog = audit.New("", false)
	}

	var obs batch.Observer = batch.NopObserver{}
	if !jsonOutput {
		obs = &textObserver{}
	}

	sum, runID := runPlan(runCtx, sess, pl, aliases, courseName, obs, auditLog, log)

	result := processResult{
		Course:    courseName,
		Plan:      pl.Path,
		RunID:     runID,
		Processed: sum.Processed,
		Errors:    sum.Errors,
		Stopped:   sum.Stopped,
		Records:   sum.Records,
	}

	if isJSONOutput() {
		outputSuccess(result, &Meta{
			Count:      len(sum.Records),
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil
	}

	fmt.Println()
	line := ui.Successf("Done in %s. %s", time.Since(start).Round(time.Second), ui.RunCounts(sum.Processed, sum.Errors))
	if sum.Errors > 0 {
		line = ui.Warningf("Done in %s. %s", time.Since(start).Round(time.Second), ui.RunCounts(sum.Processed, sum.Errors))
	}
	fmt.Println(line)
	if sum.Stopped {
		fmt.Println(ui.Info("Run stopped early; remaining records untouched"))
	}
	if runID != 0 {
		fmt.Println(ui.Hint(fmt.Sprintf("Details: d2ldates history --run %d", runID)))
	}
	return nil
}

// connectBrowser establishes the session, with a spinner in text mode.
func connectBrowser(ctx context.Context) (*browser.Session, error) {
	var sp *ui.Spinner
	if !jsonOutput {
		sp = ui.NewSpinner("Connecting to browser")
		sp.Start()
	}

	opts := browserOptions()
	log := logging.Named("browser")

	var sess *browser.Session
	var err error
	if processAttachOnly {
		sess, err = browser.Attach(ctx, opts, log)
	} else {
		sess, err = browser.Connect(ctx, opts, log)
	}

	if sp != nil {
		if err == nil {
			sp.StopWithMessage(ui.Successf("Browser connected (%s)", sess.Mode()))
		} else {
			sp.Stop()
		}
	}
	return sess, err
}

// navigateTo drives the session to the course page, with a spinner in
// text mode.
func navigateTo(ctx context.Context, sess *browser.Session, courseName, url string) error {
	var sp *ui.Spinner
	if !jsonOutput {
		sp = ui.NewSpinner(fmt.Sprintf("Opening manage dates for %s", courseName))
		sp.Start()
	}

	err := sess.Navigate(ctx, url)

	if sp != nil {
		if err == nil {
			sp.StopWithMessage(ui.Successf("On manage dates for %s", ui.CourseName(courseName)))
		} else {
			sp.Stop()
		}
	}
	return err
}

// runPlan drives one loaded plan through a connected session: resolve,
// edit, audit, journal. The watch command shares this path.
func runPlan(ctx context.Context, sess *browser.Session, pl *plan.Plan, aliases map[string]string, courseName string, obs batch.Observer, auditLog *audit.Logger, log zerolog.Logger) (batch.Summary, int64) {
	start := time.Now()
	page := sess.Page()
	timing := getConfig().Timing

	res := resolver.New(page, resolverOptions())
	ed := editor.New(page, editor.Config{
		DialogTimeout: timing.DialogTimeout.Std(),
		FieldSettle:   timing.FieldSettle.Std(),
	}, logging.Named("editor"))

	coord := batch.New(res, page, ed, obs, batch.Config{
		Aliases:      aliases,
		FieldSettle:  timing.FieldSettle.Std(),
		RecordSettle: timing.RecordSettle.Std(),
		FieldHook: func(record string, fr batch.FieldReport) {
			entry := audit.Entry{
				Course: courseName,
				Plan:   pl.Path,
				Record: record,
				Kind:   fr.Kind,
				Date:   fr.Date,
				Time:   fr.Time,

				DateApplied: fr.Outcome.DateApplied,
				TimeApplied: fr.Outcome.TimeApplied,
				Committed:   fr.Outcome.Committed,
				Failed:      fr.Failed,
				Reason:      fr.Reason,
			}
			if err := auditLog.LogField(entry); err != nil {
				log.Warn().Err(err).Msg("audit write failed")
			}
		},
	}, logging.Named("batch"))

	sum := coord.Run(ctx, pl.Records)

	if err := auditLog.LogRun(courseName, pl.Path, sum.Processed, sum.Errors); err != nil {
		log.Warn().Err(err).Msg("audit write failed")
	}

	return sum, recordHistory(log, courseName, pl.Path, start, sum)
}

// recordHistory journals the run. A journal failure loses the history
// row but never the run itself.
func recordHistory(log zerolog.Logger, courseName, planPath string, start time.Time, sum batch.Summary) int64 {
	store, err := openHistory()
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return 0
	}
	defer store.Close()

	var fields []history.Field
	for _, rec := range sum.Records {
		for _, fr := range rec.Fields {
			fields = append(fields, history.Field{
				Record:      rec.Name,
				Target:      rec.Target,
				Kind:        fr.Kind,
				Date:        fr.Date,
				Time:        fr.Time,
				DateApplied: fr.Outcome.DateApplied,
				TimeApplied: fr.Outcome.TimeApplied,
				Committed:   fr.Outcome.Committed,
				Failed:      fr.Failed,
				Reason:      fr.Reason,
			})
		}
	}

	id, err := store.RecordRun(history.Run{
		StartedAt:  start,
		FinishedAt: time.Now(),
		Course:     courseName,
		Plan:       planPath,
		Records:    len(sum.Records),
		Processed:  sum.Processed,
		Errors:     sum.Errors,
		Stopped:    sum.Stopped,
	}, fields)
	if err != nil {
		log.Warn().Err(err).Msg("history write failed")
		return 0
	}
	return id
}

// textObserver prints the coordinator's status stream.
type textObserver struct{}

func (o *textObserver) OnStatus(message string) {
	fmt.Println(message)
}

func (o *textObserver) OnComplete(processed, errors int) {}
