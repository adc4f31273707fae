package collect

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/performance"
	"github.com/chromedp/cdproto/tracing"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/modebench/internal/metrics"
)

func TestCountersFrom(t *testing.T) {
	got := countersFrom([]*performance.Metric{
		{Name: "LayoutCount", Value: 12},
		nil,
		{Name: "JSHeapUsedSize", Value: 4_194_304},
	})
	assert.Equal(t, metrics.Counters{"LayoutCount": 12, "JSHeapUsedSize": 4_194_304}, got)
	assert.Empty(t, countersFrom(nil))
}

func TestVitalsPayloadRounding(t *testing.T) {
	var p *vitalsPayload
	require.NoError(t, json.Unmarshal([]byte(`{"lcp":1234.5678,"fcp":null,"cls":0.123456,"longTaskCount":3,"tbt":87.456}`), &p))

	v := p.toVitals()
	require.NotNil(t, v.LCP)
	assert.Equal(t, 1234.57, *v.LCP)
	assert.Nil(t, v.FCP)
	require.NotNil(t, v.CLS)
	assert.Equal(t, 0.1235, *v.CLS)
	require.NotNil(t, v.LongTaskCount)
	assert.Equal(t, 3.0, *v.LongTaskCount)
	require.NotNil(t, v.TBT)
	assert.Equal(t, 87.46, *v.TBT)
	assert.Nil(t, v.INP)
}

func TestVitalsPayloadMissingState(t *testing.T) {
	var p *vitalsPayload
	assert.Equal(t, metrics.Vitals{}, p.toVitals())
}

func TestVitalsCollectRequiresArm(t *testing.T) {
	_, err := NewVitalsObserver().Collect(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrVitalsNotArmed))
}

func TestRoundPtr(t *testing.T) {
	assert.Nil(t, roundPtr(nil, 2))
	assert.Equal(t, 16.67, *roundPtr(metrics.Float(16.666), 2))
}

func TestFrameSamplerDefaultCap(t *testing.T) {
	assert.Equal(t, metrics.DefaultFrameCap, NewFrameSampler(FrameSamplerOptions{}).cap)
	assert.Equal(t, 60, NewFrameSampler(FrameSamplerOptions{Cap: 60}).cap)
}

func TestTraceBufferCollectsUntilComplete(t *testing.T) {
	buf := newTraceBuffer()
	buf.handle(&tracing.EventDataCollected{Value: []jsontext.Value{
		jsontext.Value(`{"name":"Layout","ph":"X"}`),
		jsontext.Value(`{"name":"Paint","ph":"X"}`),
	}})
	buf.handle(&tracing.EventDataCollected{Value: []jsontext.Value{jsontext.Value(`{"name":"Commit"}`)}})
	buf.handle("unrelated")

	select {
	case <-buf.done:
		t.Fatal("buffer completed early")
	default:
	}

	buf.handle(&tracing.EventTracingComplete{})
	buf.handle(&tracing.EventTracingComplete{})

	select {
	case <-buf.done:
	case <-time.After(time.Second):
		t.Fatal("expected completion")
	}

	events := buf.snapshot()
	require.Len(t, events, 3)
	data, err := json.Marshal(events)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Layout","ph":"X"},{"name":"Paint","ph":"X"},{"name":"Commit"}]`, string(data))
}

func TestTraceStartParams(t *testing.T) {
	p := traceStartParams()
	require.NotNil(t, p.TraceConfig)
	assert.Equal(t, tracing.TransferModeReportEvents, p.TransferMode)
	assert.True(t, p.TraceConfig.EnableSampling)
	assert.Equal(t, TraceCategories, p.TraceConfig.IncludedCategories)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"enableSampling":true`)
	assert.Contains(t, string(raw), `"transferMode":"ReportEvents"`)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleep(ctx, time.Minute), context.Canceled)
	assert.NoError(t, sleep(context.Background(), 0))
}
