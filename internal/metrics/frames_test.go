package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeFrameStatsDegenerate(t *testing.T) {
	for _, samples := range [][]float64{nil, {}, {12.5}} {
		stats := ComputeFrameStats(samples, DefaultJankThresholdMs)
		assert.Equal(t, FrameStats{}, stats, "expected zero stats for %v", samples)
		assert.False(t, math.IsNaN(stats.AvgFrameTime))
	}
}

func TestComputeFrameStatsKnownSequence(t *testing.T) {
	stats := ComputeFrameStats([]float64{10, 20, 30}, DefaultJankThresholdMs)

	assert.Equal(t, 3.0, stats.FrameCount)
	assert.Equal(t, 20.0, stats.AvgFrameTime)
	assert.Equal(t, 10.0, stats.MinFrameTime)
	assert.Equal(t, 30.0, stats.MaxFrameTime)
	assert.Equal(t, 50.0, stats.FPS)
	assert.Equal(t, 30.0, stats.P95FrameTime)
	assert.Equal(t, 30.0, stats.P99FrameTime)
	assert.Equal(t, 66.67, stats.FrameTimeVariance)
	assert.Equal(t, 66.67, stats.JankPercentage)
}

func TestComputeFrameStatsPercentilesUseRank(t *testing.T) {
	samples := make([]float64, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, float64(i))
	}
	stats := ComputeFrameStats(samples, DefaultJankThresholdMs)

	assert.Equal(t, 96.0, stats.P95FrameTime)
	assert.Equal(t, 100.0, stats.P99FrameTime)
	assert.Equal(t, 1.0, stats.MinFrameTime)
	assert.Equal(t, 100.0, stats.MaxFrameTime)
}

func TestComputeFrameStatsThreshold(t *testing.T) {
	samples := []float64{16, 17, 16, 34}

	assert.Equal(t, 50.0, ComputeFrameStats(samples, DefaultJankThresholdMs).JankPercentage)
	assert.Equal(t, 25.0, ComputeFrameStats(samples, 20).JankPercentage)
	assert.Equal(t, 50.0, ComputeFrameStats(samples, 0).JankPercentage, "non-positive threshold falls back to the default")
}

func TestDelta(t *testing.T) {
	before := Counters{"LayoutCount": 4, "TaskDuration": 1.25, "Stale": 9}
	after := Counters{"LayoutCount": 10, "TaskDuration": 2.5, "Nodes": 300}

	delta := Delta(before, after)

	assert.Equal(t, Counters{"LayoutCount": 6, "TaskDuration": 1.25, "Nodes": 300}, delta)
	_, ok := delta["Stale"]
	assert.False(t, ok, "keys absent from after must not appear")
}
