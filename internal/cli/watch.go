package cli

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/ui"
	"github.com/magpie-md/magpie/internal/vault"
	"github.com/magpie-md/magpie/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-audit the vault whenever it changes",
	Long: `Watches the vault for edits to markdown files or the schema and reruns
the audit after a quiet period (watch.debounce_ms in config, default 400).
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runAudit := func() {
			v, err := vault.Open(resolvedVaultPath)
			if err != nil {
				fmt.Println(ui.Errorf("%v", err))
				return
			}
			report, err := v.Audit(ctx, 0)
			if err != nil {
				fmt.Println(ui.Errorf("%v", err))
				return
			}
			printReport(report)
		}

		runAudit()
		fmt.Println(ui.Infof("watching %s", ui.FilePath(resolvedVaultPath)))

		w, err := watcher.New(watcher.Config{
			Root:     resolvedVaultPath,
			Debounce: time.Duration(cfg.Debounce()) * time.Millisecond,
			OnChange: func(paths []string) {
				fmt.Printf("\n%s\n", ui.Infof("changed: %s", strings.Join(paths, ", ")))
				runAudit()
			},
		})
		if err != nil {
			return err
		}

		if err := w.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
