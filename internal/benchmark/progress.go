package benchmark

import (
	"strings"

	"github.com/mwiater/modebench/internal/logging"
	"github.com/mwiater/modebench/internal/metrics"
)

// EventKind classifies a progress Event.
type EventKind int

const (
	EventTrialStarted EventKind = iota
	EventTrialDone
	EventTrialFailed
	EventFinished
)

// Event is one progress notification from a Runner.
type Event struct {
	Kind      EventKind
	Phase     string
	Mode      metrics.Mode
	Completed int
	Total     int
	Result    *metrics.TrialResult
	Err       error
}

// Warmup reports whether the event belongs to an unmeasured round.
func (e Event) Warmup() bool {
	return strings.HasPrefix(e.Phase, "warmup")
}

// Progress receives run progress. Report is called from the goroutine
// executing Runner.Run.
type Progress interface {
	Report(Event)
}

// LogProgress writes progress to the application log.
type LogProgress struct{}

func (LogProgress) Report(e Event) {
	switch e.Kind {
	case EventTrialStarted:
		suffix := ""
		if e.Warmup() {
			suffix = " (not measured)"
		}
		logging.LogEvent("[%d/%d] %s: %s mode...%s", e.Completed+1, e.Total, e.Phase, e.Mode, suffix)
	case EventTrialDone:
		if e.Result != nil {
			logging.LogEvent("[%d/%d] %s: %s mode done (layers=%d fps=%.0f)", e.Completed, e.Total, e.Phase, e.Mode, e.Result.Layers, e.Result.FPS.FPS)
		}
	case EventTrialFailed:
		logging.LogEvent("%s: %s mode failed: %v", e.Phase, e.Mode, e.Err)
	case EventFinished:
		logging.LogEvent("all %d trials complete", e.Total)
	}
}
