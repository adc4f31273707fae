// internal/cli/show_config.go
package modebench

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/modebench/internal/appconfig"
)

// showConfigCmd prints the merged configuration a benchmark would run with.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		cfg := GetConfig()
		appconfig.ShowConfig(out, viper.ConfigFileUsed(), cfg)
		if cfg != nil && cfg.Debug {
			fmt.Fprintln(out)
			pp.Fprintln(out, *cfg)
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
