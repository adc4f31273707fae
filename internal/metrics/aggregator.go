// internal/metrics/aggregator.go
package metrics

import (
	"errors"
	"math"
	"sort"
)

// ErrNoTrials is returned when aggregating an empty trial set.
var ErrNoTrials = errors.New("aggregate requires at least one trial")

// Aggregate reduces the trials of one mode into per-metric means and
// population standard deviations. Counter keys are reduced over the trials that
// report them; nil vitals are skipped rather than counted as zero.
func Aggregate(trials []TrialResult) (AggregateResult, StdDevResult, error) {
	if len(trials) == 0 {
		return AggregateResult{}, StdDevResult{}, ErrNoTrials
	}

	avg := AggregateResult{Mode: trials[0].Mode, Trials: len(trials)}
	sd := StdDevResult{}

	avg.ScrollDelta, sd.ScrollDelta = reduceCounters(trials, func(t TrialResult) Counters { return t.ScrollDelta })
	avg.Absolute, sd.Absolute = reduceCounters(trials, func(t TrialResult) Counters { return t.Absolute })

	for _, field := range frameFields {
		var rs RunningStat
		for _, t := range trials {
			updateRunningStat(&rs, *field(&t.FPS))
		}
		*field(&avg.FPS) = rs.Mean
		*field(&sd.FPS) = rs.stddev()
	}

	var layers RunningStat
	for _, t := range trials {
		updateRunningStat(&layers, float64(t.Layers))
	}
	avg.Layers = int(math.Round(layers.Mean))
	sd.Layers = layers.stddev()

	for _, field := range vitalFields {
		var rs RunningStat
		for _, t := range trials {
			if v := *field(&t.Vitals); v != nil {
				updateRunningStat(&rs, *v)
			}
		}
		if rs.Count == 0 {
			continue
		}
		*field(&avg.Vitals) = Float(rs.Mean)
		*field(&sd.Vitals) = Float(rs.stddev())
	}

	return avg, sd, nil
}

// reduceCounters aggregates the union of counter keys across trials.
func reduceCounters(trials []TrialResult, pick func(TrialResult) Counters) (Counters, Counters) {
	stats := make(map[string]*RunningStat)
	for _, t := range trials {
		for key, value := range pick(t) {
			rs, ok := stats[key]
			if !ok {
				rs = &RunningStat{}
				stats[key] = rs
			}
			updateRunningStat(rs, value)
		}
	}

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	means := make(Counters, len(keys))
	devs := make(Counters, len(keys))
	for _, key := range keys {
		means[key] = stats[key].Mean
		devs[key] = stats[key].stddev()
	}
	return means, devs
}

var frameFields = []func(*FrameStats) *float64{
	func(f *FrameStats) *float64 { return &f.FPS },
	func(f *FrameStats) *float64 { return &f.FrameCount },
	func(f *FrameStats) *float64 { return &f.AvgFrameTime },
	func(f *FrameStats) *float64 { return &f.MinFrameTime },
	func(f *FrameStats) *float64 { return &f.MaxFrameTime },
	func(f *FrameStats) *float64 { return &f.P95FrameTime },
	func(f *FrameStats) *float64 { return &f.P99FrameTime },
	func(f *FrameStats) *float64 { return &f.FrameTimeVariance },
	func(f *FrameStats) *float64 { return &f.JankPercentage },
}

var vitalFields = []func(*Vitals) **float64{
	func(v *Vitals) **float64 { return &v.LCP },
	func(v *Vitals) **float64 { return &v.FCP },
	func(v *Vitals) **float64 { return &v.CLS },
	func(v *Vitals) **float64 { return &v.LongTaskCount },
	func(v *Vitals) **float64 { return &v.TBT },
	func(v *Vitals) **float64 { return &v.INP },
}

// updateRunningStat updates a single running statistic using Welford's online algorithm.
func updateRunningStat(rs *RunningStat, value float64) {
	rs.Count++
	if rs.Count == 1 {
		rs.Min = value
		rs.Max = value
	} else {
		if value < rs.Min {
			rs.Min = value
		}
		if value > rs.Max {
			rs.Max = value
		}
	}

	delta := value - rs.Mean
	rs.Mean += delta / float64(rs.Count)
	delta2 := value - rs.Mean
	rs.M2 += delta * delta2
}

// populationVariance divides by n, not n-1.
func (rs RunningStat) populationVariance() float64 {
	if rs.Count < 2 {
		return 0
	}
	v := rs.M2 / float64(rs.Count)
	if v < 0 {
		return 0
	}
	return v
}

func (rs RunningStat) stddev() float64 {
	return math.Sqrt(rs.populationVariance())
}
