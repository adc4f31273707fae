// internal/cli/report.go
package modebench

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/report"
	"github.com/mwiater/modebench/internal/util"
)

// reportCmd re-renders REPORT.md and the console table from saved results.
var reportCmd = &cobra.Command{
	Use:   "report [results.json]",
	Short: "Re-render the report from an existing benchmark-results.json",
	Long: `Load and validate a benchmark-results.json (by default the one in --resultsDir),
rewrite REPORT.md next to it and print the comparison table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("config not loaded")
		}
		path := filepath.Join(cfg.ResultsDir, report.ResultsFile)
		if len(args) == 1 {
			path = args[0]
		}

		doc, err := report.Load(path)
		if err != nil {
			return err
		}
		mdPath := filepath.Join(filepath.Dir(path), report.MarkdownFile)
		if err := util.WriteFile(mdPath, []byte(report.Markdown(doc))); err != nil {
			return fmt.Errorf("write %s: %w", mdPath, err)
		}
		logging.LogEvent("report for run %s written to %s", doc.RunID, mdPath)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, report.RenderTable(doc.Comparison))
		fmt.Fprintf(out, "\n%s %s\n", successText("Report written to"), mdPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
