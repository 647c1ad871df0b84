package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/audit"
	"github.com/magpie-md/magpie/internal/fix"
	"github.com/magpie-md/magpie/internal/ui"
	"github.com/magpie-md/magpie/internal/vault"
)

var (
	fixDryRun      bool
	fixInteractive bool
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply safe automatic repairs",
	Long: `Audits the vault and applies the fixes that are safe to make without
guessing: canonicalize date formats, insert missing required fields that
declare defaults, pin fixed values, rename and migrate unambiguous field
typos, delete duplicate keys, and move misplaced frontmatter to the top.

Fixes never touch the document body, and every write replaces the file
atomically. --dry-run reports what would change without writing;
--interactive asks before each fix.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(resolvedVaultPath)
		if err != nil {
			return err
		}

		opts := fix.Options{
			Mode:          fix.ModeAuto,
			DuplicateKeep: fix.DuplicateKeep(cfg.Fix.DuplicateKeep),
		}
		switch {
		case fixDryRun:
			opts.Mode = fix.ModeDryRun
		case fixInteractive:
			opts.Mode = fix.ModeInteractive
			opts.Confirm = promptConfirm(bufio.NewReader(os.Stdin))
		}

		run, err := v.Fix(cmd.Context(), opts)
		if err != nil {
			return err
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		printFixRun(run)
		return nil
	},
}

// promptConfirm reads a y/n answer per proposed fix. Anything but an
// explicit yes declines.
func promptConfirm(in *bufio.Reader) func(audit.Issue, string) bool {
	return func(issue audit.Issue, description string) bool {
		fmt.Printf("%s %s\n  apply? [y/N] ", ui.Severity(issue.Severity.String()), description)
		line, err := in.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func printFixRun(run *vault.FixRun) {
	for _, ff := range run.Files {
		for _, r := range ff.Results {
			switch r.Outcome {
			case fix.OutcomeFixed:
				fmt.Println(ui.Successf("%s: fixed [%s] %s", ui.FilePath(ff.Path), r.Issue.Code, r.Issue.Message))
			case fix.OutcomeFailed:
				fmt.Println(ui.Errorf("%s: failed [%s] %s", ui.FilePath(ff.Path), r.Issue.Code, r.Reason))
			}
		}
		if ff.Err != nil {
			fmt.Println(ui.Errorf("%s: %v", ui.FilePath(ff.Path), ff.Err))
		}
	}

	s := run.Summary
	verb := "fixed"
	if s.DryRun {
		verb = "would fix"
	}
	fmt.Printf("\n%s %d issue(s), skipped %d, failed %d, %d remaining\n",
		verb, s.Fixed, s.Skipped, s.Failed, s.Remaining)
}

func init() {
	fixCmd.Flags().BoolVar(&fixDryRun, "dry-run", false, "report fixes without writing")
	fixCmd.Flags().BoolVarP(&fixInteractive, "interactive", "i", false, "confirm each fix")
	rootCmd.AddCommand(fixCmd)
}
