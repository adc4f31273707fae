// internal/benchmark/benchmark.go
// Package benchmark sequences warmup and measured trials for both modes and
// produces the results document.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/modebench/internal/appconfig"
	"github.com/mwiater/modebench/internal/browser"
	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/report"
	"github.com/mwiater/modebench/internal/trial"
)

const probeTimeout = 5 * time.Second

// ErrServerUnavailable is returned when the page under test does not answer.
var ErrServerUnavailable = errors.New("server unavailable")

// TrialRunner executes one trial.
type TrialRunner interface {
	Run(ctx context.Context, spec trial.Spec) (metrics.TrialResult, error)
}

var (
	probeServer    = probe
	newTrialRunner = launchTrialRunner
	writeResultsFn = report.Write
	newRunID       = uuid.NewString
	now            = time.Now
)

// Runner drives one complete benchmark run.
type Runner struct {
	cfg      appconfig.Config
	progress Progress
}

func NewRunner(cfg appconfig.Config, progress Progress) *Runner {
	if progress == nil {
		progress = LogProgress{}
	}
	return &Runner{cfg: cfg, progress: progress}
}

// Run probes the server, runs every trial and writes the results. Any trial
// error aborts the run before anything is written.
func (r *Runner) Run(ctx context.Context) (*report.Document, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := probeServer(ctx, r.cfg.BaseURL()); err != nil {
		return nil, err
	}
	logging.LogEvent("server detected at %s", r.cfg.BaseURL())

	if err := os.MkdirAll(r.cfg.ResultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating results directory: %w", err)
	}

	runner, closeRunner, err := newTrialRunner(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	defer closeRunner()

	full, lite, err := r.runTrials(ctx, runner)
	if err != nil {
		return nil, err
	}
	closeRunner()

	doc, err := report.Build(newRunID(), now(), r.runConfig(), full, lite)
	if err != nil {
		return nil, err
	}

	jsonPath, mdPath, err := writeResultsFn(r.cfg.ResultsDir, doc)
	if err != nil {
		return nil, err
	}
	logging.LogEvent("results written to %s and %s", jsonPath, mdPath)
	r.progress.Report(Event{Kind: EventFinished, Total: r.totalTrials(), Completed: r.totalTrials()})
	return doc, nil
}

func (r *Runner) totalTrials() int {
	return len(metrics.Modes) * (r.cfg.Warmup + r.cfg.Iterations)
}

// runTrials runs the warmup rounds and then the measured iterations. Every
// round runs full before lite; only the last iteration captures a trace.
func (r *Runner) runTrials(ctx context.Context, runner TrialRunner) (full, lite []metrics.TrialResult, err error) {
	total := r.totalTrials()
	completed := 0

	runRound := func(phase string, measured, capture bool) error {
		for _, mode := range metrics.Modes {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec := trial.Spec{Mode: mode, CaptureTrace: capture, Phase: phase}
			r.progress.Report(Event{Kind: EventTrialStarted, Phase: phase, Mode: mode, Completed: completed, Total: total})

			res, err := runner.Run(ctx, spec)
			if err != nil {
				r.progress.Report(Event{Kind: EventTrialFailed, Phase: phase, Mode: mode, Completed: completed, Total: total, Err: err})
				return err
			}
			completed++
			r.progress.Report(Event{Kind: EventTrialDone, Phase: phase, Mode: mode, Completed: completed, Total: total, Result: &res})

			if !measured {
				continue
			}
			if mode == metrics.ModeFull {
				full = append(full, res)
			} else {
				lite = append(lite, res)
			}
		}
		return nil
	}

	for i := 1; i <= r.cfg.Warmup; i++ {
		if err := runRound(fmt.Sprintf("warmup-%d", i), false, false); err != nil {
			return nil, nil, err
		}
	}
	for i := 1; i <= r.cfg.Iterations; i++ {
		if err := runRound(fmt.Sprintf("iteration-%d", i), true, i == r.cfg.Iterations); err != nil {
			return nil, nil, err
		}
	}
	return full, lite, nil
}

func (r *Runner) runConfig() report.RunConfig {
	return report.RunConfig{
		Host:          r.cfg.HostName(),
		Port:          r.cfg.Port,
		Path:          r.cfg.Path,
		URL:           r.cfg.TargetURL(),
		Iterations:    r.cfg.Iterations,
		Warmup:        r.cfg.Warmup,
		Headed:        r.cfg.Headed,
		Viewport:      fmt.Sprintf("%dx%d", browser.ViewportWidth, browser.ViewportHeight),
		FrameCap:      r.cfg.FrameCap,
		JankThreshold: r.cfg.JankThreshold,
		ResultsDir:    r.cfg.ResultsDir,
	}
}

// probe issues GET baseURL and expects a 2xx answer within probeTimeout.
func probe(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrServerUnavailable, baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w at %s: status %d", ErrServerUnavailable, baseURL, resp.StatusCode)
	}
	return nil
}

// launchTrialRunner starts the shared browser and wraps it in an
// orchestrator. The returned func closes the browser and may be called twice.
func launchTrialRunner(ctx context.Context, cfg appconfig.Config) (TrialRunner, func(), error) {
	b, err := browser.Launch(ctx, browser.LaunchOptions{
		Headless: !cfg.Headed,
		ExecPath: cfg.ChromePath,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return nil, nil, err
	}
	orch := trial.New(b, trial.Options{
		TargetURL:       cfg.TargetURL(),
		ResultsDir:      cfg.ResultsDir,
		StepTimeout:     cfg.StepTimeoutDuration(),
		FrameCap:        cfg.FrameCap,
		JankThresholdMs: cfg.JankThreshold,
	})
	return orch, b.Close, nil
}
