package collect

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/metrics"
)

const (
	// DefaultVitalsSettle is how long Collect lets buffered entries drain.
	DefaultVitalsSettle = 500 * time.Millisecond
	// longTaskBudgetMs is the share of a long task that does not count as blocking.
	longTaskBudgetMs = 50
)

// ErrVitalsNotArmed is returned by Collect when Arm was never called.
var ErrVitalsNotArmed = errors.New("vitals observer not armed")

// Every registration is wrapped separately so an unsupported entry type only
// leaves its own field unset.
const armVitalsJS = `(() => {
  const v = { lcp: null, fcp: null, cls: 0, longTaskCount: 0, tbt: 0 };
  window.__modebenchVitals = v;
  const observe = (type, onEntries) => {
    try {
      new PerformanceObserver((list) => onEntries(list.getEntries())).observe({ type, buffered: true });
    } catch (e) {}
  };
  observe("largest-contentful-paint", (entries) => {
    if (entries.length) v.lcp = entries[entries.length - 1].startTime;
  });
  observe("layout-shift", (entries) => {
    for (const e of entries) if (!e.hadRecentInput) v.cls += e.value;
  });
  observe("paint", (entries) => {
    if (entries.length && v.fcp === null) v.fcp = entries[0].startTime;
  });
  observe("longtask", (entries) => {
    for (const e of entries) {
      v.longTaskCount++;
      v.tbt += Math.max(e.duration - %d, 0);
    }
  });
  return true;
})()`

const collectVitalsJS = `(() => {
  const v = window.__modebenchVitals;
  if (!v) return null;
  return { lcp: v.lcp, fcp: v.fcp, cls: v.cls, longTaskCount: v.longTaskCount, tbt: v.tbt };
})()`

const armInteractionJS = `(() => {
  window.__modebenchINP = null;
  try {
    new PerformanceObserver((list) => {
      for (const e of list.getEntries()) {
        const d = e.processingEnd - e.startTime;
        if (window.__modebenchINP === null || d > window.__modebenchINP) window.__modebenchINP = d;
      }
    }).observe({ type: "event", buffered: true, durationThreshold: 0 });
  } catch (e) {}
  return true;
})()`

const collectInteractionJS = `(() => window.__modebenchINP === undefined ? null : window.__modebenchINP)()`

type vitalsPayload struct {
	LCP           *float64 `json:"lcp"`
	FCP           *float64 `json:"fcp"`
	CLS           *float64 `json:"cls"`
	LongTaskCount *float64 `json:"longTaskCount"`
	TBT           *float64 `json:"tbt"`
}

func (p *vitalsPayload) toVitals() metrics.Vitals {
	if p == nil {
		return metrics.Vitals{}
	}
	return metrics.Vitals{
		LCP:           roundPtr(p.LCP, 2),
		FCP:           roundPtr(p.FCP, 2),
		CLS:           roundPtr(p.CLS, 4),
		LongTaskCount: p.LongTaskCount,
		TBT:           roundPtr(p.TBT, 2),
	}
}

// VitalsObserver accumulates LCP, FCP, CLS and long-task entries in the page.
type VitalsObserver struct {
	mu    sync.Mutex
	armed bool
}

func NewVitalsObserver() *VitalsObserver {
	return &VitalsObserver{}
}

// Arm registers the observers. It must run before any interaction the
// caller wants attributed.
func (o *VitalsObserver) Arm(ctx context.Context) error {
	js := fmt.Sprintf(armVitalsJS, longTaskBudgetMs)
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("arm vitals observer: %w", err)
	}
	o.mu.Lock()
	o.armed = true
	o.mu.Unlock()
	return nil
}

// Collect waits settle and returns the accumulated vitals. INP is left unset;
// it comes from an InteractionObserver.
func (o *VitalsObserver) Collect(ctx context.Context, settle time.Duration) (metrics.Vitals, error) {
	o.mu.Lock()
	armed := o.armed
	o.mu.Unlock()
	if !armed {
		return metrics.Vitals{}, ErrVitalsNotArmed
	}

	if err := sleep(ctx, settle); err != nil {
		return metrics.Vitals{}, err
	}

	var payload *vitalsPayload
	if err := chromedp.Run(ctx, chromedp.Evaluate(collectVitalsJS, &payload)); err != nil {
		return metrics.Vitals{}, fmt.Errorf("collect vitals: %w", err)
	}
	return payload.toVitals(), nil
}

// InteractionObserver tracks the slowest event's processingEnd - startTime,
// the interaction-to-next-paint estimate.
type InteractionObserver struct{}

func NewInteractionObserver() *InteractionObserver {
	return &InteractionObserver{}
}

func (InteractionObserver) Arm(ctx context.Context) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(armInteractionJS, nil)); err != nil {
		return fmt.Errorf("arm interaction observer: %w", err)
	}
	return nil
}

// Collect returns the INP estimate rounded to 2dp, or nil when no event
// entry was observed.
func (InteractionObserver) Collect(ctx context.Context) (*float64, error) {
	var inp *float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(collectInteractionJS, &inp)); err != nil {
		return nil, fmt.Errorf("collect interaction latency: %w", err)
	}
	return roundPtr(inp, 2), nil
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	scale := math.Pow(10, float64(places))
	r := math.Round(*v*scale) / scale
	return &r
}
