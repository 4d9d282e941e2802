package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"d2ldates/internal/browser"
	"d2ldates/internal/labelcache"
	"d2ldates/internal/listing"
	"d2ldates/internal/logging"
	"d2ldates/internal/ui"
)

var (
	snapshotShow   bool
	snapshotDelete bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the course's row labels for offline checks",
	Long: `Capture the course's row labels for offline checks.

Attaches to the running browser, reads every row label from the
manage-dates listing, and stores them locally. 'd2ldates check
--resolve' matches plan names against this capture without a browser.

With --show, prints the stored capture instead of taking a new one.
With --delete, removes it.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().BoolVar(&snapshotShow, "show", false, "Print the stored capture without touching the browser")
	snapshotCmd.Flags().BoolVar(&snapshotDelete, "delete", false, "Remove the stored capture")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	courseName, courseURL, err := resolveCourse()
	if err != nil {
		return courseError(err)
	}
	cache := openLabelCache()

	if snapshotDelete {
		if err := cache.Delete(courseName); err != nil {
			return handleError(ErrCacheError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(map[string]string{"deleted": courseName}, nil)
			return nil
		}
		fmt.Println(ui.Successf("Removed snapshot for %s", ui.CourseName(courseName)))
		return nil
	}

	if snapshotShow {
		capture, err := cache.Get(courseName)
		if err != nil {
			if errors.Is(err, labelcache.ErrNoCapture) {
				return handleError(ErrNoSnapshot, err,
					"Run 'd2ldates snapshot' with the browser open to capture one")
			}
			return handleError(ErrCacheError, err, "")
		}
		printCapture(capture)
		return nil
	}

	ctx := context.Background()
	sess, err := browser.Attach(ctx, browserOptions(), logging.Named("browser"))
	if err != nil {
		return handleError(ErrBrowserUnavailable, err,
			"Run 'd2ldates login' and sign in first")
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, courseURL); err != nil {
		return handleError(ErrNavigationFailed, err, "")
	}

	rows, err := sess.Page().Rows(ctx)
	if err != nil {
		return handleError(ErrRunFailed, err, "")
	}

	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Label)
	}

	capture := labelcache.Capture{
		Course:     courseName,
		URL:        courseURL,
		CapturedAt: time.Now().UTC(),
		Labels:     labels,
	}
	if err := cache.Put(capture); err != nil {
		return handleError(ErrCacheError, err, "")
	}

	printCapture(capture)
	return nil
}

func printCapture(capture labelcache.Capture) {
	if isJSONOutput() {
		outputSuccess(capture, &Meta{Count: len(capture.Labels)})
		return
	}

	fmt.Println(ui.Successf("%s: %d rows (captured %s)",
		ui.CourseName(capture.Course), len(capture.Labels),
		capture.CapturedAt.Local().Format("Jan 2 15:04")))

	list := ui.NewList()
	for _, label := range capture.Labels {
		if listing.LooksLikeDateCell(label) {
			continue
		}
		list.Add(label)
	}
	fmt.Print(list.String())
}
