package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwiater/modebench/internal/appconfig"
	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/report"
)

// RunBenchmark is the CLI entry point for a benchmark run. On success the
// comparison table is printed to out.
func RunBenchmark(ctx context.Context, cfg *appconfig.Config, progress Progress, out io.Writer) (*report.Document, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	logging.LogEvent("benchmarking %s: %d iterations + %d warmup (headed=%v)", cfg.TargetURL(), cfg.Iterations, cfg.Warmup, cfg.Headed)

	doc, err := NewRunner(*cfg, progress).Run(ctx)
	if err != nil {
		return nil, err
	}
	if out != nil {
		fmt.Fprintln(out, report.RenderTable(doc.Comparison))
	}
	return doc, nil
}
