package collect

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/mwiater/modebench/internal/metrics"
)

// armFramesJS starts a rAF loop keyed by a token. The first callback only
// records a timestamp; each later one pushes the interval since the previous
// callback. The loop ends at the cap or when the token is cancelled.
const armFramesJS = `(() => {
  const key = %q;
  const cap = %d;
  const registry = (window.__modebenchFrames = window.__modebenchFrames || {});
  const state = { cancelled: false, frames: [] };
  state.done = new Promise((resolve) => {
    state.finish = () => resolve(state.frames);
    let last = null;
    const tick = (now) => {
      if (state.cancelled) return;
      if (last !== null) state.frames.push(now - last);
      last = now;
      if (state.frames.length < cap) {
        requestAnimationFrame(tick);
      } else {
        state.finish();
      }
    };
    requestAnimationFrame(tick);
  });
  registry[key] = state;
  return true;
})()`

const stopFramesJS = `(() => {
  const state = (window.__modebenchFrames || {})[%q];
  if (!state) return false;
  state.cancelled = true;
  state.finish();
  return true;
})()`

const collectFramesJS = `(() => {
  const registry = window.__modebenchFrames || {};
  const state = registry[%q];
  if (!state) return [];
  return state.done.then((frames) => {
    delete registry[%q];
    return frames;
  });
})()`

// FrameSamplerOptions configures a FrameSampler.
type FrameSamplerOptions struct {
	// Cap bounds the number of recorded intervals (default 180).
	Cap int
}

// FrameSampler records requestAnimationFrame intervals inside the page.
type FrameSampler struct {
	cap int
}

// FrameToken identifies one armed sampling pass.
type FrameToken struct {
	id string
}

func NewFrameSampler(opts FrameSamplerOptions) *FrameSampler {
	c := opts.Cap
	if c < 2 {
		c = metrics.DefaultFrameCap
	}
	return &FrameSampler{cap: c}
}

// Arm installs the sampling loop under a fresh cancellation token and returns
// immediately; sampling continues while the caller drives the page.
func (s *FrameSampler) Arm(ctx context.Context) (*FrameToken, error) {
	tok := &FrameToken{id: uuid.NewString()}
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(armFramesJS, tok.id, s.cap), nil)); err != nil {
		return nil, fmt.Errorf("arm frame sampler: %w", err)
	}
	return tok, nil
}

// Stop cancels the sampling loop. Stopping a loop that already reached its
// cap is a no-op.
func (t *FrameToken) Stop(ctx context.Context) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(stopFramesJS, t.id), nil)); err != nil {
		return fmt.Errorf("stop frame sampler: %w", err)
	}
	return nil
}

// Collect waits for the loop to finish and returns the raw intervals in
// milliseconds. A token the page no longer knows (e.g. after navigation)
// yields no samples.
func (t *FrameToken) Collect(ctx context.Context) ([]float64, error) {
	var samples []float64
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(collectFramesJS, t.id, t.id), &samples, awaitPromise))
	if err != nil {
		return nil, fmt.Errorf("collect frame samples: %w", err)
	}
	return samples, nil
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
