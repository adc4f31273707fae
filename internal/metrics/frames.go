package metrics

import (
	"math"
	"sort"
)

const (
	// DefaultJankThresholdMs is the frame budget at 60fps.
	DefaultJankThresholdMs = 16.67
	// DefaultFrameCap bounds how many intervals one sampling pass records.
	DefaultFrameCap = 180
)

// ComputeFrameStats derives FrameStats from raw inter-frame intervals in
// milliseconds. Fewer than two samples yield zero stats.
func ComputeFrameStats(samples []float64, jankThresholdMs float64) FrameStats {
	if len(samples) < 2 {
		return FrameStats{}
	}
	if jankThresholdMs <= 0 {
		jankThresholdMs = DefaultJankThresholdMs
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	var rs RunningStat
	jank := 0
	for _, s := range samples {
		updateRunningStat(&rs, s)
		if s > jankThresholdMs {
			jank++
		}
	}
	avg := rs.Mean
	variance := rs.populationVariance()

	var fps float64
	if avg > 0 {
		fps = math.Round(1000 / avg)
	}

	return FrameStats{
		FPS:               fps,
		FrameCount:        float64(len(samples)),
		AvgFrameTime:      round2(avg),
		MinFrameTime:      round2(sorted[0]),
		MaxFrameTime:      round2(sorted[len(sorted)-1]),
		P95FrameTime:      round2(rankPercentile(sorted, 0.95)),
		P99FrameTime:      round2(rankPercentile(sorted, 0.99)),
		FrameTimeVariance: round2(variance),
		JankPercentage:    round2(float64(jank) / float64(len(samples)) * 100),
	}
}

// rankPercentile picks sorted[floor(n*q)], clamped to the last element.
func rankPercentile(sorted []float64, q float64) float64 {
	idx := int(math.Floor(float64(len(sorted)) * q))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
