package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"d2ldates/internal/config"
	"d2ldates/internal/ui"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List configured courses",
	Long: `List configured courses.

Courses live in the [courses] table of config.toml, mapping a short name
to the course's Manage Dates URL. The active course (set with
'd2ldates courses use') is marked; it is what runs use when --course is
not given.`,
	Args: cobra.NoArgs,
	RunE: runCoursesList,
}

var coursesUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active course for later runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoursesUse,
}

func init() {
	coursesCmd.AddCommand(coursesUseCmd)
	rootCmd.AddCommand(coursesCmd)
}

type courseRow struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Active  bool   `json:"active,omitempty"`
	Default bool   `json:"default,omitempty"`
}

func runCoursesList(cmd *cobra.Command, args []string) error {
	courses := getConfig().ListCourses()
	active := ""
	if st := getState(); st != nil {
		active = strings.TrimSpace(st.ActiveCourse)
	}

	names := make([]string, 0, len(courses))
	for name := range courses {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]courseRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, courseRow{
			Name:    name,
			URL:     courses[name],
			Active:  name == active,
			Default: name == getConfig().DefaultCourse,
		})
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"courses": rows}, &Meta{Count: len(rows)})
		return nil
	}

	if len(rows) == 0 {
		fmt.Println("No courses configured.")
		fmt.Println(ui.Hint(fmt.Sprintf("Add a [courses] entry to %s", getConfigPath())))
		return nil
	}

	table := ui.NewTable(3)
	table.SetHeader("", "NAME", "URL")
	for _, row := range rows {
		marker := ""
		switch {
		case row.Active:
			marker = "*"
		case row.Default:
			marker = "-"
		}
		table.AddRow(marker, row.Name, row.URL)
	}
	fmt.Print(table.String())
	if active != "" {
		fmt.Println()
		fmt.Println(ui.Hint("* active course, - config default"))
	}
	return nil
}

func runCoursesUse(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	courses := getConfig().ListCourses()
	if _, ok := courses[name]; !ok {
		return handleErrorMsg(ErrCourseNotFound,
			fmt.Sprintf("course %q not found in config", name),
			"Run 'd2ldates courses' to see configured courses")
	}

	st := getState()
	if st == nil {
		st = &config.State{}
	}
	st.ActiveCourse = name
	if err := config.SaveState(getStatePath(), st); err != nil {
		return handleError(ErrInternal, err, "")
	}
	state = st

	if isJSONOutput() {
		outputSuccess(map[string]string{
			"active_course": name,
			"url":           courses[name],
		}, nil)
		return nil
	}

	fmt.Println(ui.Successf("Active course: %s", ui.CourseName(name)))
	return nil
}
