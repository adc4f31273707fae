// internal/metrics/types.go
package metrics

// Mode is the page performance mode a trial runs under.
type Mode string

const (
	ModeFull Mode = "full"
	ModeLite Mode = "lite"
)

// Modes lists the modes in the fixed order every round runs them.
var Modes = []Mode{ModeFull, ModeLite}

// Counters maps a CDP performance counter name to its value.
type Counters map[string]float64

// FrameStats summarizes the inter-frame intervals sampled during a scroll.
// Time fields are in milliseconds.
type FrameStats struct {
	FPS               float64 `json:"fps"`
	FrameCount        float64 `json:"frameCount"`
	AvgFrameTime      float64 `json:"avgFrameTime"`
	MinFrameTime      float64 `json:"minFrameTime"`
	MaxFrameTime      float64 `json:"maxFrameTime"`
	P95FrameTime      float64 `json:"p95FrameTime"`
	P99FrameTime      float64 `json:"p99FrameTime"`
	FrameTimeVariance float64 `json:"frameTimeVariance"`
	JankPercentage    float64 `json:"jankPercentage"`
}

// Vitals holds the Web Vitals observed during a trial. A nil field means the
// browser never reported an entry for it.
type Vitals struct {
	LCP           *float64 `json:"lcp"`
	FCP           *float64 `json:"fcp"`
	CLS           *float64 `json:"cls"`
	LongTaskCount *float64 `json:"longTaskCount"`
	TBT           *float64 `json:"tbt"`
	INP           *float64 `json:"inp"`
}

// TrialResult is the outcome of one orchestrated trial for one mode.
type TrialResult struct {
	Mode        Mode       `json:"mode"`
	ScrollDelta Counters   `json:"scrollDelta"`
	Absolute    Counters   `json:"absolute"`
	FPS         FrameStats `json:"fps"`
	Layers      int        `json:"layers"`
	Vitals      Vitals     `json:"vitals"`
}

// AggregateResult holds per-metric means over the trials of one mode.
type AggregateResult struct {
	Mode        Mode       `json:"mode"`
	Trials      int        `json:"trials"`
	ScrollDelta Counters   `json:"scrollDelta"`
	Absolute    Counters   `json:"absolute"`
	FPS         FrameStats `json:"fps"`
	Layers      int        `json:"layers"`
	Vitals      Vitals     `json:"vitals"`
}

// StdDevResult mirrors AggregateResult with population standard deviations.
type StdDevResult struct {
	ScrollDelta Counters   `json:"scrollDelta"`
	Absolute    Counters   `json:"absolute"`
	FPS         FrameStats `json:"fps"`
	Layers      float64    `json:"layers"`
	Vitals      Vitals     `json:"vitals"`
}

// RunningStat holds the values needed for an online mean and variance.
type RunningStat struct {
	Count int64   `json:"-"`
	Mean  float64 `json:"mean"`
	M2    float64 `json:"-"` // Sum of squares of differences from the current mean
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ComparisonRow is one metric compared across the two modes.
type ComparisonRow struct {
	Name          string   `json:"name"`
	Full          string   `json:"full"`
	Lite          string   `json:"lite"`
	Improvement   string   `json:"improvement"`
	LowerIsBetter bool     `json:"lowerIsBetter"`
	ChangePct     *float64 `json:"changePct"`
	Improved      *bool    `json:"improved"`
	HighVariance  bool     `json:"highVariance"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
