// internal/trial/trial.go
// Package trial runs one measurement trial: load the page in a given mode,
// drive a scripted interaction and invoke every collector in order.
package trial

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/browser"
	"github.com/mwiater/modebench/internal/collect"
	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/util"
)

const defaultStepTimeout = 60 * time.Second

// ClickTargets are tried in order; the first match of each is clicked.
var ClickTargets = []string{"nav a", "button", `[role="button"]`}

// Opener creates the isolated browser context a trial runs in.
type Opener interface {
	NewIsolatedContext(ctx context.Context) (*browser.Session, error)
}

// Spec selects the mode of one trial and whether it records a trace.
type Spec struct {
	Mode         metrics.Mode
	CaptureTrace bool
	// Phase labels log lines, e.g. "warmup" or "iteration-3".
	Phase string
}

// Timings holds the pauses of the interaction script.
type Timings struct {
	ReloadSettle    time.Duration
	ScrollStep      int
	ScrollDelay     time.Duration
	ScrollReturn    time.Duration
	FrameSettle     time.Duration
	ClickSettle     time.Duration
	PostClickSettle time.Duration
	ClickTimeout    time.Duration
	LayerWindow     time.Duration
	VitalsSettle    time.Duration
}

// DefaultTimings returns the standard interaction pacing.
func DefaultTimings() Timings {
	return Timings{
		ReloadSettle:    time.Second,
		ScrollStep:      300,
		ScrollDelay:     150 * time.Millisecond,
		ScrollReturn:    300 * time.Millisecond,
		FrameSettle:     500 * time.Millisecond,
		ClickSettle:     200 * time.Millisecond,
		PostClickSettle: 500 * time.Millisecond,
		ClickTimeout:    3 * time.Second,
		LayerWindow:     collect.DefaultLayerWindow,
		VitalsSettle:    collect.DefaultVitalsSettle,
	}
}

// Options configures an Orchestrator.
type Options struct {
	TargetURL       string
	ResultsDir      string
	StepTimeout     time.Duration
	FrameCap        int
	JankThresholdMs float64
	Timings         Timings
}

// TrialError reports a step that made the trial unusable.
type TrialError struct {
	Mode metrics.Mode
	Step string
	Err  error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("%s trial failed at %s: %v", e.Mode, e.Step, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

// Orchestrator runs trials against one browser.
type Orchestrator struct {
	opener Opener
	opts   Options
}

func New(opener Opener, opts Options) *Orchestrator {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = defaultStepTimeout
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Timings.ScrollStep <= 0 {
		opts.Timings.ScrollStep = DefaultTimings().ScrollStep
	}
	if opts.Timings.ClickTimeout <= 0 {
		opts.Timings.ClickTimeout = DefaultTimings().ClickTimeout
	}
	if opts.JankThresholdMs <= 0 {
		opts.JankThresholdMs = metrics.DefaultJankThresholdMs
	}
	if opts.FrameCap < 2 {
		opts.FrameCap = metrics.DefaultFrameCap
	}
	return &Orchestrator{opener: opener, opts: opts}
}

// run is the per-trial state threaded through the steps.
type run struct {
	o    *Orchestrator
	spec Spec
	// target is the session context every step derives its deadline from.
	target context.Context
}

// Run executes one trial. Steps run strictly in order; the session is always
// closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, spec Spec) (metrics.TrialResult, error) {
	result := metrics.TrialResult{Mode: spec.Mode}
	logging.LogTrial(spec.Phase, string(spec.Mode), "start", o.opts.TargetURL)

	session, err := o.opener.NewIsolatedContext(ctx)
	if err != nil {
		return result, &TrialError{Mode: spec.Mode, Step: "session", Err: err}
	}
	defer session.Close()

	r := &run{o: o, spec: spec, target: session.Context()}
	t := o.opts.Timings

	if err := r.step("performance", collect.EnablePerformance); err != nil {
		return result, err
	}

	if err := r.step("navigate", func(ctx context.Context) error {
		return chromedp.Run(ctx,
			chromedp.Navigate(o.opts.TargetURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	}); err != nil {
		return result, err
	}

	if err := r.step("set-mode", func(ctx context.Context) error {
		return chromedp.Run(ctx, chromedp.Evaluate(setModeScript(spec.Mode), nil))
	}); err != nil {
		return result, err
	}

	if err := r.step("reload", func(ctx context.Context) error {
		if err := chromedp.Run(ctx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
			return err
		}
		return pause(ctx, t.ReloadSettle)
	}); err != nil {
		return result, err
	}

	tracing := false
	if spec.CaptureTrace {
		if err := r.bestEffort("trace-start", func(ctx context.Context) error {
			if err := collect.StartTracing(ctx); err != nil {
				return err
			}
			tracing = true
			return nil
		}); err != nil {
			return result, err
		}
	}

	var before metrics.Counters
	if err := r.step("snapshot-before", func(ctx context.Context) (err error) {
		before, err = collect.Snapshot(ctx)
		return err
	}); err != nil {
		return result, err
	}

	if err := r.step("scroll", func(ctx context.Context) error {
		return scrollPage(ctx, t)
	}); err != nil {
		return result, err
	}

	if err := r.step("snapshot-after", func(ctx context.Context) error {
		after, err := collect.Snapshot(ctx)
		if err != nil {
			return err
		}
		result.ScrollDelta = metrics.Delta(before, after)
		return nil
	}); err != nil {
		return result, err
	}

	if err := r.bestEffort("frames", func(ctx context.Context) error {
		samples, err := sampleFrames(ctx, o.opts.FrameCap, t)
		if err != nil {
			return err
		}
		result.FPS = metrics.ComputeFrameStats(samples, o.opts.JankThresholdMs)
		return nil
	}); err != nil {
		return result, err
	}

	vitals := collect.NewVitalsObserver()
	interactions := collect.NewInteractionObserver()
	if err := r.bestEffort("vitals-arm", vitals.Arm); err != nil {
		return result, err
	}
	if err := r.bestEffort("inp-arm", interactions.Arm); err != nil {
		return result, err
	}

	if err := r.step("interact", func(ctx context.Context) error {
		r.clickTargets(ctx)
		return pause(ctx, t.PostClickSettle)
	}); err != nil {
		return result, err
	}

	if err := r.bestEffort("layers", func(ctx context.Context) error {
		sub, err := collect.EnableLayerTracking(ctx)
		if err != nil {
			return err
		}
		result.Layers, err = sub.AwaitSample(ctx, t.LayerWindow)
		return err
	}); err != nil {
		return result, err
	}

	if err := r.bestEffort("vitals", func(ctx context.Context) (err error) {
		result.Vitals, err = vitals.Collect(ctx, t.VitalsSettle)
		return err
	}); err != nil {
		return result, err
	}

	if err := r.bestEffort("inp", func(ctx context.Context) error {
		inp, err := interactions.Collect(ctx)
		if err != nil {
			return err
		}
		result.Vitals.INP = inp
		return nil
	}); err != nil {
		return result, err
	}

	if err := r.step("snapshot-final", func(ctx context.Context) (err error) {
		result.Absolute, err = collect.Snapshot(ctx)
		return err
	}); err != nil {
		return result, err
	}

	if tracing {
		path := filepath.Join(o.opts.ResultsDir, fmt.Sprintf("trace-%s.json", spec.Mode))
		r.diagnostic("trace-stop", func(ctx context.Context) error {
			n, err := collect.StopTracing(ctx, path)
			if err == nil {
				logging.LogTrial(spec.Phase, string(spec.Mode), "trace-written", map[string]any{"path": path, "events": n})
			}
			return err
		})
	}

	r.diagnostic("screenshot", func(ctx context.Context) error {
		var buf []byte
		if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
			return err
		}
		return util.WriteFile(filepath.Join(o.opts.ResultsDir, fmt.Sprintf("screenshot-%s.png", spec.Mode)), buf)
	})

	logging.LogTrial(spec.Phase, string(spec.Mode), "done", map[string]any{
		"layers": result.Layers,
		"fps":    result.FPS.FPS,
	})
	return result, nil
}

// step runs fn under the step timeout; any error is fatal to the trial.
func (r *run) step(name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(r.target, r.o.opts.StepTimeout)
	defer cancel()
	logging.LogTrial(r.spec.Phase, string(r.spec.Mode), name, nil)
	if err := fn(ctx); err != nil {
		return &TrialError{Mode: r.spec.Mode, Step: name, Err: err}
	}
	return nil
}

// bestEffort runs a collector step. Collector errors are logged and leave
// the zero value in place; an expired step deadline or cancelled trial is
// still fatal.
func (r *run) bestEffort(name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(r.target, r.o.opts.StepTimeout)
	defer cancel()
	logging.LogTrial(r.spec.Phase, string(r.spec.Mode), name, nil)
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &TrialError{Mode: r.spec.Mode, Step: name, Err: err}
	}
	logging.LogTrial(r.spec.Phase, string(r.spec.Mode), name+"-degraded", err)
	return nil
}

// diagnostic runs a step whose failure never affects the trial outcome.
func (r *run) diagnostic(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.target, r.o.opts.StepTimeout)
	defer cancel()
	logging.LogTrial(r.spec.Phase, string(r.spec.Mode), name, nil)
	if err := fn(ctx); err != nil {
		logging.LogTrial(r.spec.Phase, string(r.spec.Mode), name+"-failed", err)
	}
}
