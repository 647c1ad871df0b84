package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/magpie-md/magpie/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mag version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mag %s", buildinfo.Resolve())
		if buildinfo.Commit != "" {
			fmt.Printf(" (%s", buildinfo.Commit)
			if buildinfo.Date != "" {
				fmt.Printf(", %s", buildinfo.Date)
			}
			fmt.Print(")")
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
