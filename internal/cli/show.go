// internal/cli/show.go
package modebench

import (
	"github.com/spf13/cobra"
)

// showCmd represents the 'show' command group for displaying settings.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Group commands for displaying settings",
	Long:  `The 'show' command groups subcommands that display information related to modebench.`,
}

func init() {
	rootCmd.AddCommand(showCmd)
}
