package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/ui"
	"github.com/magpie-md/magpie/internal/vault"
)

var queryCmd = &cobra.Command{
	Use:   "query EXPR...",
	Short: "List documents matching filter expressions",
	Long: `Filters documents by their frontmatter. Multiple expressions combine
with an implicit AND.

  mag query "status == 'doing'" "!isEmpty(due)"
  mag query "due == today() + 7d"
  mag query "type == 'task' || hasTag('urgent')"

See "mag docs query-language" for the full grammar.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(resolvedVaultPath)
		if err != nil {
			return err
		}
		snap, err := v.Snapshot()
		if err != nil {
			return err
		}
		matched, err := v.Filter(snap, args)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printQueryJSON(matched)
		}
		for _, doc := range matched {
			fmt.Println(ui.FilePath(doc.Path))
		}
		if len(matched) == 0 {
			fmt.Println(ui.Infof("no documents matched"))
		}
		return nil
	},
}

type queryMatch struct {
	Path   string            `json:"path"`
	Type   string            `json:"type,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func printQueryJSON(matched []*vault.Document) error {
	out := make([]queryMatch, 0, len(matched))
	for _, doc := range matched {
		m := queryMatch{Path: doc.Path, Type: doc.Parsed.TypePath()}
		if len(doc.Parsed.Fields) > 0 {
			m.Fields = make(map[string]string, len(doc.Parsed.Fields))
			for k, v := range doc.Parsed.Fields {
				m.Fields[k] = v.Display()
			}
		}
		out = append(out, m)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
