package cli

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/docs"
	"github.com/magpie-md/magpie/internal/ui"
)

var docsCmd = &cobra.Command{
	Use:   "docs [TOPIC]",
	Short: "Read the bundled reference docs",
	Long: `Without arguments, lists the available topics. With a topic name,
renders it for the terminal; piped output stays raw markdown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := docTopics()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			for _, t := range topics {
				fmt.Println(t)
			}
			return nil
		}

		topic := strings.TrimSuffix(args[0], ".md")
		content, err := docs.FS.ReadFile("reference/" + topic + ".md")
		if err != nil {
			return fmt.Errorf("unknown topic %q; available: %s", topic, strings.Join(topics, ", "))
		}
		rendered, err := ui.RenderMarkdown(string(content), ui.DefaultTermWidth)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

func docTopics() ([]string, error) {
	entries, err := fs.ReadDir(docs.FS, "reference")
	if err != nil {
		return nil, err
	}
	var topics []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		topics = append(topics, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(topics)
	return topics, nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
