package metrics

import (
	"fmt"
	"math"
	"strconv"
)

// HighVarianceCV is the coefficient of variation, in percent, above which a
// comparison is flagged as unreliable.
const HighVarianceCV = 20.0

const bytesPerMB = 1024 * 1024

// metricSpec describes how one comparison row reads and scales its values.
type metricSpec struct {
	name          string
	unit          string
	lowerIsBetter bool
	value         func(AggregateResult) *float64
	stddev        func(StdDevResult) *float64
}

var comparisonMetrics = []metricSpec{
	counterMetric("Layout Count (scroll)", "", scrollDelta, "LayoutCount", 1),
	counterMetric("Layout Duration", "ms", scrollDelta, "LayoutDuration", 1000),
	counterMetric("Style Recalc Count", "", scrollDelta, "RecalcStyleCount", 1),
	counterMetric("Style Recalc Duration", "ms", scrollDelta, "RecalcStyleDuration", 1000),
	counterMetric("Script Duration", "ms", scrollDelta, "ScriptDuration", 1000),
	counterMetric("Task Duration", "ms", scrollDelta, "TaskDuration", 1000),
	counterMetric("JS Heap Used", "MB", absolute, "JSHeapUsedSize", 1.0/bytesPerMB),
	counterMetric("JS Heap Total", "MB", absolute, "JSHeapTotalSize", 1.0/bytesPerMB),
	counterMetric("DOM Nodes", "", absolute, "Nodes", 1),
	counterMetric("JS Event Listeners", "", absolute, "JSEventListeners", 1),
	counterMetric("Process Time", "ms", absolute, "ProcessTime", 1000),
	counterMetric("V8 Compile Duration", "ms", absolute, "V8CompileDuration", 1000),
	{
		name:          "Compositor Layers",
		lowerIsBetter: true,
		value:         func(a AggregateResult) *float64 { return Float(float64(a.Layers)) },
		stddev:        func(s StdDevResult) *float64 { return Float(s.Layers) },
	},
	frameMetric("FPS (scroll)", "", false, func(f *FrameStats) *float64 { return &f.FPS }),
	frameMetric("Avg Frame Time", "ms", true, func(f *FrameStats) *float64 { return &f.AvgFrameTime }),
	frameMetric("P95 Frame Time", "ms", true, func(f *FrameStats) *float64 { return &f.P95FrameTime }),
	frameMetric("P99 Frame Time", "ms", true, func(f *FrameStats) *float64 { return &f.P99FrameTime }),
	frameMetric("Max Frame Time", "ms", true, func(f *FrameStats) *float64 { return &f.MaxFrameTime }),
	frameMetric("Jank (>16.67ms)", "%", true, func(f *FrameStats) *float64 { return &f.JankPercentage }),
	vitalMetric("FCP", "ms", func(v *Vitals) **float64 { return &v.FCP }),
	vitalMetric("LCP", "ms", func(v *Vitals) **float64 { return &v.LCP }),
	vitalMetric("CLS", "", func(v *Vitals) **float64 { return &v.CLS }),
	vitalMetric("TBT", "ms", func(v *Vitals) **float64 { return &v.TBT }),
	vitalMetric("INP", "ms", func(v *Vitals) **float64 { return &v.INP }),
	vitalMetric("Long Tasks", "", func(v *Vitals) **float64 { return &v.LongTaskCount }),
}

// MetricNames returns the comparison row names in report order.
func MetricNames() []string {
	names := make([]string, len(comparisonMetrics))
	for i, m := range comparisonMetrics {
		names[i] = m.name
	}
	return names
}

// Compare builds one row per named metric, in a fixed order.
func Compare(full, lite AggregateResult, fullSD, liteSD StdDevResult) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(comparisonMetrics))
	for _, m := range comparisonMetrics {
		rows = append(rows, buildRow(m, m.value(full), m.value(lite), m.stddev(fullSD), m.stddev(liteSD)))
	}
	return rows
}

func buildRow(m metricSpec, full, lite, fullSD, liteSD *float64) ComparisonRow {
	row := ComparisonRow{
		Name:          m.name,
		Full:          "N/A",
		Lite:          "N/A",
		Improvement:   "N/A",
		LowerIsBetter: m.lowerIsBetter,
	}

	fSD, lSD := roundedOrZero(fullSD), roundedOrZero(liteSD)
	if full != nil {
		row.Full = formatValue(round2(*full), fSD, m.unit)
	}
	if lite != nil {
		row.Lite = formatValue(round2(*lite), lSD, m.unit)
	}
	if full == nil || lite == nil {
		return row
	}

	fv, lv := round2(*full), round2(*lite)
	row.HighVariance = coefficientOfVariation(fSD, fv) > HighVarianceCV || coefficientOfVariation(lSD, lv) > HighVarianceCV
	if fv == 0 {
		return row
	}

	pct := (fv - lv) / fv * 100
	improved := pct <= 0
	if m.lowerIsBetter {
		improved = pct >= 0
	}
	row.ChangePct = Float(pct)
	row.Improved = &improved
	row.Improvement = formatChange(pct, improved)
	if row.HighVariance {
		row.Improvement += " [CV]"
	}
	return row
}

// coefficientOfVariation returns stddev/|mean| as a percentage; 0 for a zero mean.
func coefficientOfVariation(stddev, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return stddev / math.Abs(mean) * 100
}

func formatValue(v, sd float64, unit string) string {
	if sd > 0 {
		return fmt.Sprintf("%s±%s%s", formatNumber(v), formatNumber(sd), unit)
	}
	return formatNumber(v) + unit
}

// formatChange shows a reduction with a leading minus and an increase with a plus.
func formatChange(pct float64, improved bool) string {
	sign := "+"
	if pct >= 0 {
		sign = "-"
	}
	marker := "⚠️"
	if improved {
		marker = "✅"
	}
	return fmt.Sprintf("%s%s%% %s", sign, formatNumber(math.Abs(math.Round(pct*10)/10)), marker)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func roundedOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return round2(*v)
}

// counterSource selects which counter map a metric reads.
type counterSource int

const (
	scrollDelta counterSource = iota
	absolute
)

func (src counterSource) mean(a AggregateResult) Counters {
	if src == scrollDelta {
		return a.ScrollDelta
	}
	return a.Absolute
}

func (src counterSource) stddev(s StdDevResult) Counters {
	if src == scrollDelta {
		return s.ScrollDelta
	}
	return s.Absolute
}

func counterMetric(name, unit string, src counterSource, key string, scale float64) metricSpec {
	scaled := func(c Counters) *float64 {
		v, ok := c.Lookup(key)
		if !ok {
			return nil
		}
		return Float(v * scale)
	}
	return metricSpec{
		name:          name,
		unit:          unit,
		lowerIsBetter: true,
		value:         func(a AggregateResult) *float64 { return scaled(src.mean(a)) },
		stddev:        func(s StdDevResult) *float64 { return scaled(src.stddev(s)) },
	}
}

func frameMetric(name, unit string, lowerIsBetter bool, field func(*FrameStats) *float64) metricSpec {
	return metricSpec{
		name:          name,
		unit:          unit,
		lowerIsBetter: lowerIsBetter,
		value:         func(a AggregateResult) *float64 { return Float(*field(&a.FPS)) },
		stddev:        func(s StdDevResult) *float64 { return Float(*field(&s.FPS)) },
	}
}

func vitalMetric(name, unit string, field func(*Vitals) **float64) metricSpec {
	return metricSpec{
		name:          name,
		unit:          unit,
		lowerIsBetter: true,
		value:         func(a AggregateResult) *float64 { return *field(&a.Vitals) },
		stddev:        func(s StdDevResult) *float64 { return *field(&s.Vitals) },
	}
}
