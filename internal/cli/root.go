// internal/cli/root.go
package modebench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/modebench/internal/appconfig"
	"github.com/mwiater/modebench/internal/benchmark"
	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/report"
	"github.com/mwiater/modebench/internal/tui"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

var (
	runBenchmarkFn = benchmark.RunBenchmark
	runWithTUIFn   = tui.Run
	isInteractive  = func() bool { return tui.Interactive(os.Stdout) }
)

var (
	errorText   = color.New(color.FgRed, color.Bold).SprintFunc()
	successText = color.New(color.FgGreen).SprintFunc()
)

// rootCmd runs a benchmark when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "modebench",
	Short: "modebench — compare full and lite performance modes of a page in Chrome",
	Long: `modebench drives a Chromium browser over the DevTools protocol, runs the same
scripted trial against a page in full and lite performance mode, and writes a
statistical comparison to benchmark-results.json and REPORT.md.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range []string{"headed", "debug", "progress"} {
			if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(name)))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFilePath(), logToConsole(cmd, cfg)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runRoot,
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorText("Error:"), err)
		os.Exit(1)
	}
}

// ExecuteContext runs the root command under ctx.
func ExecuteContext(ctx context.Context) error {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)
	defer logging.Close()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	d := appconfig.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	flags.String("host", d.Host, "host serving the page under test")
	flags.Int("port", d.Port, "port serving the page under test")
	flags.String("path", d.Path, "path of the page under test")
	flags.Int("iterations", d.Iterations, "measured iterations per mode")
	flags.Int("warmup", d.Warmup, "unmeasured warmup rounds")
	flags.Bool("headed", false, "show the browser window")
	flags.String("resultsDir", d.ResultsDir, "directory for results, report, trace and screenshots")
	flags.Int("frameCap", d.FrameCap, "maximum frames recorded per sampling pass")
	flags.Float64("jankThreshold", d.JankThreshold, "frame duration in ms above which a frame counts as jank")
	flags.Int("stepTimeout", d.StepTimeout, "seconds allowed for each browser step")
	flags.String("chromePath", "", "path to the Chrome or Chromium binary (auto-detected when empty)")
	flags.String("logFile", "", "path to the log file")
	flags.Bool("debug", false, "enable debug logging, including browser protocol errors")
	flags.Bool("progress", true, "show the interactive progress view when stdout is a terminal")

	for _, name := range []string{
		"host", "port", "path", "iterations", "warmup", "headed", "resultsDir", "frameCap",
		"jankThreshold", "stepTimeout", "chromePath", "logFile", "debug", "progress",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig points viper at the config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file. A missing file at the default
// location is fine; a missing file named explicitly is not.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) && filepath.Clean(cfgFile) == filepath.Clean(appconfig.DefaultConfigPath) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the merged configuration (flags > config file > defaults).
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func useProgressView(cfg appconfig.Config) bool {
	return cfg.Progress && isInteractive()
}

// logToConsole reports whether log lines may go to stdout. The progress view
// owns stdout while the root command runs.
func logToConsole(cmd *cobra.Command, cfg appconfig.Config) bool {
	return cmd.HasParent() || !useProgressView(cfg)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	if !useProgressView(*cfg) {
		doc, err := runBenchmarkFn(ctx, cfg, nil, out)
		if err != nil {
			return err
		}
		printOutputs(out, cfg.ResultsDir, doc)
		return nil
	}

	total := len(metrics.Modes) * (cfg.Warmup + cfg.Iterations)
	doc, err := runWithTUIFn(ctx, cfg.TargetURL(), total, func(ctx context.Context, progress benchmark.Progress) (*report.Document, error) {
		return runBenchmarkFn(ctx, cfg, progress, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, report.RenderTable(doc.Comparison))
	printOutputs(out, cfg.ResultsDir, doc)
	return nil
}

func printOutputs(out io.Writer, dir string, doc *report.Document) {
	fmt.Fprintf(out, "\n%s run %s\n", successText("Benchmark complete:"), doc.RunID)
	fmt.Fprintf(out, "  Results: %s\n", filepath.Join(dir, report.ResultsFile))
	fmt.Fprintf(out, "  Report:  %s\n", filepath.Join(dir, report.MarkdownFile))
}
