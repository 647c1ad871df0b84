package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/audit"
	"github.com/magpie-md/magpie/internal/ui"
	"github.com/magpie-md/magpie/internal/vault"
)

var (
	auditWorkers int
	auditStrict  bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the vault against its schema",
	Long: `Checks every document for schema conformance and structural integrity:
required fields, value shapes, enum membership, unknown fields with typo
suggestions, date formats, duplicate keys, frontmatter placement, broken
links, and ownership cycles.

The exit status is 1 when errors are found; with --strict, warnings fail
the run too.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(resolvedVaultPath)
		if err != nil {
			return err
		}
		report, err := v.Audit(cmd.Context(), auditWorkers)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			printReport(report)
		}

		if report.HasErrors() || (auditStrict && report.Summary.TotalWarnings > 0) {
			os.Exit(1)
		}
		return nil
	},
}

func printReport(report *vault.Report) {
	for _, fr := range report.Files {
		if fr.ReadError != "" {
			fmt.Printf("%s %s: %s\n", ui.Severity("ERROR"), ui.FilePath(fr.Path), fr.ReadError)
			continue
		}
		for _, issue := range fr.Issues {
			printIssue(fr.Path, issue)
		}
	}
	for _, issue := range report.Global {
		printIssue("(vault)", issue)
	}

	s := report.Summary
	fmt.Printf("\n%d files checked: %d error(s) in %d file(s), %d warning(s) in %d file(s)\n",
		s.FilesChecked, s.TotalErrors, s.FilesWithErrors, s.TotalWarnings, s.FilesWithWarning)
	if s.ReadFailures > 0 {
		fmt.Printf("%d file(s) could not be read\n", s.ReadFailures)
	}
}

func printIssue(path string, issue audit.Issue) {
	location := path
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", path, issue.Line)
	}
	fmt.Printf("%s %s [%s] %s\n",
		ui.Severity(issue.Severity.String()), ui.FilePath(location), issue.Code, issue.Message)
}

func init() {
	auditCmd.Flags().IntVar(&auditWorkers, "workers", 0, "parallel audit workers (0 = NumCPU)")
	auditCmd.Flags().BoolVar(&auditStrict, "strict", false, "treat warnings as failures")
	rootCmd.AddCommand(auditCmd)
}
