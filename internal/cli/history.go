package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"d2ldates/internal/history"
	"d2ldates/internal/ui"
)

var (
	historyLimit int
	historyRunID int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past runs",
	Long: `Show past runs.

Every 'd2ldates process' invocation is journaled locally: when it ran,
which course and plan, and how each field edit went. Without flags the
most recent runs are listed; --run shows one run field by field.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "How many runs to list")
	historyCmd.Flags().Int64Var(&historyRunID, "run", 0, "Show one run's field edits")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}
	defer store.Close()

	if historyRunID > 0 {
		return showRun(store, historyRunID)
	}
	return listRuns(store)
}

func listRuns(store *history.Store) error {
	runs, err := store.RecentRuns(historyLimit)
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"runs": runs}, &Meta{Count: len(runs)})
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	table := ui.NewTable(6)
	table.SetHeader("ID", "WHEN", "COURSE", "PLAN", "PROCESSED", "ERRORS")
	for _, run := range runs {
		errCell := strconv.Itoa(run.Errors)
		if run.Stopped {
			errCell += " (stopped)"
		}
		table.AddRow(
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format("Jan 2 15:04"),
			run.Course,
			filepath.Base(run.Plan),
			fmt.Sprintf("%d/%d", run.Processed, run.Records),
			errCell,
		)
	}
	fmt.Print(table.String())
	fmt.Println()
	fmt.Println(ui.Hint("d2ldates history --run <id> shows the field edits"))
	return nil
}

func showRun(store *history.Store, id int64) error {
	run, err := store.GetRun(id)
	if err != nil {
		if errors.Is(err, history.ErrRunNotFound) {
			return handleErrorMsg(ErrHistoryError,
				fmt.Sprintf("run %d not found", id),
				"Run 'd2ldates history' to list recorded runs")
		}
		return handleError(ErrHistoryError, err, "")
	}
	fields, err := store.RunFields(id)
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"run":    run,
			"fields": fields,
		}, &Meta{Count: len(fields)})
		return nil
	}

	fmt.Println(ui.Header(fmt.Sprintf("Run %d: %s / %s", run.ID, run.Course, filepath.Base(run.Plan))))
	fmt.Printf("Started %s, took %s. %s\n",
		run.StartedAt.Local().Format("Jan 2 2006 15:04"),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
		ui.RunCounts(run.Processed, run.Errors))
	if run.Stopped {
		fmt.Println(ui.Info("Run was stopped before finishing"))
	}
	fmt.Println()

	if len(fields) == 0 {
		fmt.Println("No field edits recorded.")
		return nil
	}

	table := ui.NewTable(5)
	table.SetHeader("", "RECORD", "FIELD", "VALUE", "DETAIL")
	for _, f := range fields {
		status := ui.SymbolSuccess
		detail := ""
		if f.Failed {
			status = ui.SymbolError
			detail = f.Reason
		} else if !f.Committed {
			detail = "save button not found"
		}
		table.AddRow(status, f.Record, f.Kind, f.Date+" "+f.Time, detail)
	}
	fmt.Print(table.String())
	return nil
}
