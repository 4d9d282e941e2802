package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"d2ldates/internal/browser"
	"d2ldates/internal/logging"
	"d2ldates/internal/ui"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate [course]",
	Short: "Drive the attached browser to a course's manage-dates page",
	Long: `Drive the attached browser to a course's manage-dates page.

Attaches to the running browser (see 'd2ldates login') and navigates to
the course's configured URL. Useful for eyeballing the page before a
run, or for landing on the right tab after signing in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNavigate,
}

func init() {
	rootCmd.AddCommand(navigateCmd)
}

func runNavigate(cmd *cobra.Command, args []string) error {
	selector := courseFlag
	if len(args) > 0 {
		selector = args[0]
	}
	active := ""
	if st := getState(); st != nil {
		active = strings.TrimSpace(st.ActiveCourse)
	}
	courseName, courseURL, err := getConfig().ResolveCourse(selector, active)
	if err != nil {
		return courseError(err)
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

	if isJSONOutput() {
		outputSuccess(map[string]string{
			"course": courseName,
			"url":    courseURL,
		}, nil)
		return nil
	}

	fmt.Println(ui.Successf("On manage dates for %s", ui.CourseName(courseName)))
	return nil
}
