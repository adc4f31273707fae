package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trialWith(layout float64, layers int, lcp *float64) TrialResult {
	return TrialResult{
		Mode:        ModeFull,
		ScrollDelta: Counters{"LayoutCount": layout},
		Absolute:    Counters{"Nodes": 100},
		FPS:         FrameStats{FPS: 60, AvgFrameTime: layout},
		Layers:      layers,
		Vitals:      Vitals{LCP: lcp, CLS: Float(0.1)},
	}
}

func TestAggregateMeanAndPopulationStdDev(t *testing.T) {
	trials := []TrialResult{
		trialWith(10, 3, nil),
		trialWith(20, 4, nil),
		trialWith(30, 4, nil),
	}

	avg, sd, err := Aggregate(trials)
	require.NoError(t, err)

	assert.Equal(t, ModeFull, avg.Mode)
	assert.Equal(t, 3, avg.Trials)
	assert.InDelta(t, 20.0, avg.ScrollDelta["LayoutCount"], 1e-9)
	assert.InDelta(t, math.Sqrt(200.0/3.0), sd.ScrollDelta["LayoutCount"], 1e-9)
	assert.InDelta(t, 8.16, sd.ScrollDelta["LayoutCount"], 0.01)
	assert.InDelta(t, 20.0, avg.FPS.AvgFrameTime, 1e-9)
	assert.Equal(t, 0.0, sd.FPS.FPS)
	assert.Equal(t, 4, avg.Layers, "layer mean 3.67 rounds to 4")
}

func TestAggregateSingleTrialHasZeroStdDev(t *testing.T) {
	avg, sd, err := Aggregate([]TrialResult{trialWith(12, 5, Float(900))})
	require.NoError(t, err)

	assert.Equal(t, 12.0, avg.ScrollDelta["LayoutCount"])
	for key, v := range sd.ScrollDelta {
		assert.Equal(t, 0.0, v, key)
	}
	for key, v := range sd.Absolute {
		assert.Equal(t, 0.0, v, key)
	}
	assert.Equal(t, 0.0, sd.Layers)
	require.NotNil(t, sd.Vitals.LCP)
	assert.Equal(t, 0.0, *sd.Vitals.LCP)
	assert.False(t, math.IsNaN(sd.FPS.AvgFrameTime))
}

func TestAggregateSkipsNullVitals(t *testing.T) {
	trials := []TrialResult{
		trialWith(1, 1, nil),
		trialWith(1, 1, Float(100)),
		trialWith(1, 1, Float(200)),
	}

	avg, sd, err := Aggregate(trials)
	require.NoError(t, err)

	require.NotNil(t, avg.Vitals.LCP)
	assert.Equal(t, 150.0, *avg.Vitals.LCP)
	assert.Equal(t, 50.0, *sd.Vitals.LCP)
	assert.Nil(t, avg.Vitals.INP, "never-reported vitals stay null")
	assert.Nil(t, sd.Vitals.INP)
	assert.Nil(t, avg.Vitals.FCP)
}

func TestAggregateCounterKeyUnion(t *testing.T) {
	first := trialWith(10, 1, nil)
	second := trialWith(20, 1, nil)
	second.ScrollDelta["ScriptDuration"] = 0.4

	avg, sd, err := Aggregate([]TrialResult{first, second})
	require.NoError(t, err)

	assert.Equal(t, 0.4, avg.ScrollDelta["ScriptDuration"], "reduced only over trials that report the key")
	assert.Equal(t, 0.0, sd.ScrollDelta["ScriptDuration"])
	assert.Len(t, sd.ScrollDelta, len(avg.ScrollDelta))
	for key := range avg.ScrollDelta {
		_, ok := sd.ScrollDelta[key]
		assert.True(t, ok, "stddev missing key %s", key)
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, _, err := Aggregate(nil)
	assert.ErrorIs(t, err, ErrNoTrials)
}
