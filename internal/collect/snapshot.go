// internal/collect/snapshot.go
// Package collect gathers performance signals from a page target: CDP
// performance counters, requestAnimationFrame frame intervals, Web Vitals,
// compositor layer counts and protocol traces.
package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/metrics"
)

// EnablePerformance turns on the Performance domain for the target in ctx.
func EnablePerformance(ctx context.Context) error {
	if err := chromedp.Run(ctx, performance.Enable()); err != nil {
		return fmt.Errorf("enable performance domain: %w", err)
	}
	return nil
}

// Snapshot reads the current Performance.getMetrics counters.
func Snapshot(ctx context.Context) (metrics.Counters, error) {
	var list []*performance.Metric
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		list, err = performance.GetMetrics().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("read performance metrics: %w", err)
	}
	return countersFrom(list), nil
}

func countersFrom(list []*performance.Metric) metrics.Counters {
	out := make(metrics.Counters, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		out[m.Name] = m.Value
	}
	return out
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
