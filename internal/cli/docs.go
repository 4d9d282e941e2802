package cli

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	builtindocs "d2ldates/docs"
	"d2ldates/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [topic]",
	Short: "Browse bundled documentation",
	Long: `Browse the long-form guides bundled into the d2ldates binary.

With no arguments, lists available topics. With a topic name, renders
that guide in the terminal. For command usage, use 'd2ldates help
<command>'.

Examples:
  d2ldates docs
  d2ldates docs getting-started
  d2ldates docs csv-format`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := listDocTopics()
		if err != nil {
			return handleError(ErrInternal, err, "Rebuild d2ldates so bundled docs are available")
		}

		if len(args) == 0 {
			return listDocs(topics)
		}
		return showDoc(topics, args[0])
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

type docTopic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// listDocTopics enumerates the embedded guides. The topic id is the file
// name without extension; the title is the first markdown heading.
func listDocTopics() ([]docTopic, error) {
	entries, err := fs.ReadDir(builtindocs.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read bundled docs: %w", err)
	}

	var topics []docTopic
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		id := strings.TrimSuffix(name, ".md")
		topics = append(topics, docTopic{
			ID:    id,
			Title: docTitle(name, id),
			Path:  name,
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].ID < topics[j].ID })
	return topics, nil
}

func docTitle(path, fallback string) string {
	content, err := fs.ReadFile(builtindocs.FS, path)
	if err != nil {
		return fallback
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return fallback
}

func listDocs(topics []docTopic) error {
	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"topics": topics}, &Meta{Count: len(topics)})
		return nil
	}

	fmt.Println("Bundled guides:")
	fmt.Println()
	table := ui.NewTable(2)
	for _, t := range topics {
		table.AddRow("  "+t.ID, t.Title)
	}
	fmt.Print(table.String())
	fmt.Println()
	fmt.Println(ui.Hint("Read one with 'd2ldates docs <topic>'"))
	return nil
}

func showDoc(topics []docTopic, id string) error {
	id = strings.ToLower(strings.TrimSpace(id))
	var topic *docTopic
	for i := range topics {
		if topics[i].ID == id {
			topic = &topics[i]
			break
		}
	}
	if topic == nil {
		available := make([]string, 0, len(topics))
		for _, t := range topics {
			available = append(available, t.ID)
		}
		return handleErrorMsg(ErrInvalidInput,
			fmt.Sprintf("unknown docs topic %q", id),
			"Available topics: "+strings.Join(available, ", "))
	}

	content, err := fs.ReadFile(builtindocs.FS, topic.Path)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]string{
			"id":      topic.ID,
			"title":   topic.Title,
			"content": string(content),
		}, nil)
		return nil
	}

	// Piped output gets the raw markdown; terminals get the rendered form.
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Print(string(content))
		return nil
	}

	display := ui.NewDisplayContext()
	rendered, err := ui.RenderMarkdown(string(content), display.AvailableWidth(ui.MarkdownRenderMargin))
	if err != nil {
		fmt.Print(string(content))
		return nil
	}
	fmt.Print(rendered)
	return nil
}
