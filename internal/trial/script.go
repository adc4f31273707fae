package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/collect"
	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/metrics"
)

// ModeAttribute and ModeStorageKey are the page's mode switches.
const (
	ModeAttribute  = "data-performance"
	ModeStorageKey = "performance-mode"
)

// setModeScript tags <html> with the mode and persists it so the page keeps
// the mode across the following reload. Storage may be unavailable.
func setModeScript(mode metrics.Mode) string {
	return fmt.Sprintf(`(() => {
  document.documentElement.setAttribute(%q, %q);
  try { localStorage.setItem(%q, %q); } catch (e) {}
  return true;
})()`, ModeAttribute, string(mode), ModeStorageKey, string(mode))
}

// scrollPage steps down the page to its full height, then returns to the top.
func scrollPage(ctx context.Context, t Timings) error {
	var height int64
	if err := chromedp.Run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &height)); err != nil {
		return fmt.Errorf("read scroll height: %w", err)
	}
	for y := int64(0); y < height; y += int64(t.ScrollStep) {
		if err := scrollTo(ctx, y); err != nil {
			return err
		}
		if err := pause(ctx, t.ScrollDelay); err != nil {
			return err
		}
	}
	if err := scrollTo(ctx, 0); err != nil {
		return err
	}
	return pause(ctx, t.ScrollReturn)
}

func scrollTo(ctx context.Context, y int64) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`window.scrollTo(0, %d)`, y), nil)); err != nil {
		return fmt.Errorf("scroll to %d: %w", y, err)
	}
	return nil
}

// sampleFrames records rAF intervals during a second scroll pass.
func sampleFrames(ctx context.Context, frameCap int, t Timings) ([]float64, error) {
	if err := scrollTo(ctx, 0); err != nil {
		return nil, err
	}
	if err := pause(ctx, t.FrameSettle); err != nil {
		return nil, err
	}

	token, err := collect.NewFrameSampler(collect.FrameSamplerOptions{Cap: frameCap}).Arm(ctx)
	if err != nil {
		return nil, err
	}
	scrollErr := scrollPage(ctx, t)
	if err := token.Stop(ctx); err != nil {
		return nil, err
	}
	if scrollErr != nil {
		return nil, scrollErr
	}
	return token.Collect(ctx)
}

// clickTargets clicks the first match of every ClickTargets selector.
// Missing elements and failed clicks are ignored.
func (r *run) clickTargets(ctx context.Context) {
	t := r.o.opts.Timings
	for _, sel := range ClickTargets {
		var present bool
		probe := fmt.Sprintf(`document.querySelector(%q) !== null`, sel)
		if err := chromedp.Run(ctx, chromedp.Evaluate(probe, &present)); err != nil || !present {
			continue
		}

		clickCtx, cancel := context.WithTimeout(ctx, t.ClickTimeout)
		err := chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.ByQuery))
		cancel()
		if err != nil {
			logging.LogTrial(r.spec.Phase, string(r.spec.Mode), "click-skipped", map[string]any{"selector": sel, "error": err.Error()})
		}
		if pause(ctx, t.ClickSettle) != nil {
			return
		}
	}
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
