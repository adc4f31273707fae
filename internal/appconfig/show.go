package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		d := Defaults()
		cfg = &d
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Target URL:      %s\n", cfg.TargetURL())
	fmt.Fprintf(out, "  Iterations:      %d (+ %d warmup)\n", cfg.Iterations, cfg.Warmup)
	fmt.Fprintf(out, "  Headed:          %v\n", cfg.Headed)
	fmt.Fprintf(out, "  Results Dir:     %s\n", cfg.ResultsDir)
	fmt.Fprintf(out, "  Frame Cap:       %d\n", cfg.FrameCap)
	fmt.Fprintf(out, "  Jank Threshold:  %.2fms\n", cfg.JankThreshold)
	fmt.Fprintf(out, "  Step Timeout:    %s\n", cfg.StepTimeoutDuration())
	if cfg.ChromePath != "" {
		fmt.Fprintf(out, "  Chrome Path:     %s\n", cfg.ChromePath)
	}
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Progress TUI:    %v\n", cfg.Progress)
}
