package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/tracing"
	"github.com/chromedp/chromedp"

	"github.com/mwiater/modebench/internal/util"
)

// TraceCategories are the trace categories recorded by StartTracing.
var TraceCategories = []string{
	"devtools.timeline",
	"blink.user_timing",
	"blink",
	"cc",
	"gpu",
	"viz",
}

// traceStartParams requests streamed events with JS stack sampling. Tracing.start
// has no sampling-frequency field, so Chrome's default sampling interval applies.
func traceStartParams() *tracing.StartParams {
	return tracing.Start().
		WithTransferMode(tracing.TransferModeReportEvents).
		WithTraceConfig(&tracing.TraceConfig{
			RecordMode:         tracing.RecordModeRecordUntilFull,
			IncludedCategories: TraceCategories,
			EnableSampling:     true,
		})
}

// StartTracing begins a protocol trace with JS sampling enabled.
func StartTracing(ctx context.Context) error {
	if err := chromedp.Run(ctx, traceStartParams()); err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	return nil
}

// traceBuffer accumulates dataCollected chunks until tracingComplete.
type traceBuffer struct {
	mu     sync.Mutex
	events []json.RawMessage
	done   chan struct{}
	once   sync.Once
}

func newTraceBuffer() *traceBuffer {
	return &traceBuffer{done: make(chan struct{})}
}

func (b *traceBuffer) handle(ev any) {
	switch e := ev.(type) {
	case *tracing.EventDataCollected:
		b.mu.Lock()
		for _, v := range e.Value {
			b.events = append(b.events, json.RawMessage(v))
		}
		b.mu.Unlock()
	case *tracing.EventTracingComplete:
		b.once.Do(func() { close(b.done) })
	}
}

func (b *traceBuffer) snapshot() []json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]json.RawMessage, len(b.events))
	copy(out, b.events)
	return out
}

// StopTracing ends the trace, waits for every buffered chunk and writes the
// events to path as one JSON array. It returns the number of events written.
func StopTracing(ctx context.Context, path string) (int, error) {
	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	buf := newTraceBuffer()
	chromedp.ListenTarget(listenCtx, buf.handle)

	if err := chromedp.Run(ctx, tracing.End()); err != nil {
		return 0, fmt.Errorf("end tracing: %w", err)
	}

	select {
	case <-buf.done:
	case <-ctx.Done():
		return 0, fmt.Errorf("await trace completion: %w", ctx.Err())
	}

	events := buf.snapshot()
	data, err := json.Marshal(events)
	if err != nil {
		return 0, fmt.Errorf("encode trace: %w", err)
	}
	if err := util.WriteFile(path, data); err != nil {
		return 0, fmt.Errorf("write trace %s: %w", path, err)
	}
	return len(events), nil
}
