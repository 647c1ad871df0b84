package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/schema"
	"github.com/magpie-md/magpie/internal/ui"
	"github.com/magpie-md/magpie/internal/vault"
)

var typesCmd = &cobra.Command{
	Use:   "types [TYPE]",
	Short: "List schema types, or show one type's effective fields",
	Long: `Without arguments, lists every declared type path. With a type path,
shows the effective field set after walking the extends chain and any
subtype overrides.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(resolvedVaultPath)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			return printTypeNames(v.Schema)
		}
		return printType(v.Schema, args[0])
	},
}

func printTypeNames(s *schema.File) error {
	names := s.TypeNames()
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

type typeField struct {
	Name     string   `json:"name"`
	Shape    string   `json:"shape"`
	Required bool     `json:"required,omitempty"`
	Default  string   `json:"default,omitempty"`
	Options  []string `json:"options,omitempty"`
	Source   string   `json:"source,omitempty"`
	Owner    bool     `json:"owner,omitempty"`
}

func printType(s *schema.File, typePath string) error {
	res, err := s.Resolve(typePath)
	if err != nil {
		return err
	}

	fields := make([]typeField, 0, len(res.Fields))
	for _, f := range res.Fields {
		tf := typeField{
			Name:     f.Name,
			Shape:    string(f.Shape),
			Required: f.Required,
			Source:   f.Source,
			Owner:    f.Owner,
		}
		if f.Default != nil {
			tf.Default = fmt.Sprintf("%v", f.Default)
		}
		switch {
		case f.Enum != "":
			if opts, ok := s.Enums[f.Enum]; ok {
				tf.Options = opts
			}
		case len(f.Options) > 0:
			tf.Options = f.Options
		}
		fields = append(fields, tf)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Path   string      `json:"path"`
			Fields []typeField `json:"fields"`
		}{res.Path, fields})
	}

	fmt.Println(ui.Bold.Render(res.Path))
	for _, f := range fields {
		var attrs []string
		if f.Required {
			attrs = append(attrs, "required")
		}
		if f.Default != "" {
			attrs = append(attrs, "default: "+f.Default)
		}
		if len(f.Options) > 0 {
			attrs = append(attrs, "options: "+strings.Join(f.Options, ", "))
		}
		if f.Source != "" {
			attrs = append(attrs, "source: "+f.Source)
		}
		if f.Owner {
			attrs = append(attrs, "owner")
		}
		line := fmt.Sprintf("  %-16s %s", f.Name, f.Shape)
		if len(attrs) > 0 {
			line += "  " + ui.Muted.Render(strings.Join(attrs, ", "))
		}
		fmt.Println(line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
