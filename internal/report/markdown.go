package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mwiater/modebench/internal/metrics"
)

// vsyncTolerance is the FPS gap below which both modes count as capped.
const vsyncTolerance = 2

// Markdown renders the REPORT.md content for doc.
func Markdown(doc *Document) string {
	var b strings.Builder
	cfg := doc.Config

	env := "Headless Chromium (no GPU)"
	if cfg.Headed {
		env = "Headed Chromium (no GPU)"
	}

	b.WriteString("# Performance Mode Benchmark Report\n\n")
	fmt.Fprintf(&b, "**Run:** %s\n", doc.RunID)
	fmt.Fprintf(&b, "**Date:** %s\n", doc.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Environment:** %s\n", env)
	fmt.Fprintf(&b, "**URL:** %s\n", cfg.URL)
	fmt.Fprintf(&b, "**Iterations:** %d (+ %d warmup)\n", cfg.Iterations, cfg.Warmup)
	fmt.Fprintf(&b, "**Viewport:** %s\n\n", cfg.Viewport)

	b.WriteString("## Results\n\n")
	b.WriteString("| Metric | Full Mode | Lite Mode | Improvement |\n")
	b.WriteString("|--------|-----------|-----------|-------------|\n")
	for _, row := range doc.Comparison {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Name, row.Full, row.Lite, row.Improvement)
	}

	b.WriteString("\n## Key Takeaways\n\n")
	for _, line := range Takeaways(doc) {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	b.WriteString("\n## How to Reproduce\n\n")
	b.WriteString("```bash\n")
	b.WriteString("# Serve the page under test, then in another terminal:\n")
	fmt.Fprintf(&b, "modebench --port %d --path %s --iterations %d --warmup %d", cfg.Port, cfg.Path, cfg.Iterations, cfg.Warmup)
	if cfg.Headed {
		b.WriteString(" --headed")
	}
	b.WriteString("\n\n# Re-render this report from the saved results\n")
	fmt.Fprintf(&b, "modebench report --resultsDir %s\n", cfg.ResultsDir)
	b.WriteString("```\n\n")

	b.WriteString("## Output Files\n\n")
	files := []struct{ name, desc string }{
		{ResultsFile, "Raw metric data"},
		{MarkdownFile, "This report"},
		{"trace-full.json", "Chrome DevTools trace (full mode, last iteration)"},
		{"trace-lite.json", "Chrome DevTools trace (lite mode, last iteration)"},
		{"screenshot-full.png", "Full mode screenshot"},
		{"screenshot-lite.png", "Lite mode screenshot"},
	}
	for _, f := range files {
		fmt.Fprintf(&b, "- `%s/%s` (%s)\n", strings.TrimSuffix(cfg.ResultsDir, "/"), f.name, f.desc)
	}
	b.WriteString("\nTrace files can be loaded in Chrome DevTools (Performance tab) or [Perfetto UI](https://ui.perfetto.dev/).\n")

	return b.String()
}

// Takeaways summarizes the headline differences between the two modes.
func Takeaways(doc *Document) []string {
	full, lite := doc.Full, doc.Lite
	var out []string

	if pct, ok := reduction(float64(full.Layers), float64(lite.Layers)); ok && pct > 0 {
		out = append(out, fmt.Sprintf("**Compositor layers reduced** from %d to %d (%d%% reduction)", full.Layers, lite.Layers, pct))
	} else {
		out = append(out, fmt.Sprintf("**Compositor layers**: %d (full) vs %d (lite). Headless layer counts reflect layer promotion only; timing metrics carry the compositing cost.", full.Layers, lite.Layers))
	}

	counterLines := []struct {
		label string
		src   metrics.Counters
		key   string
	}{
		{"Task duration", full.ScrollDelta, "TaskDuration"},
		{"Script duration", full.ScrollDelta, "ScriptDuration"},
		{"Style recalc duration", full.ScrollDelta, "RecalcStyleDuration"},
		{"Layout duration", full.ScrollDelta, "LayoutDuration"},
		{"DOM nodes", full.Absolute, "Nodes"},
	}
	for _, c := range counterLines {
		liteSrc := lite.ScrollDelta
		if c.key == "Nodes" {
			liteSrc = lite.Absolute
		}
		fv, okFull := c.src.Lookup(c.key)
		lv, okLite := liteSrc.Lookup(c.key)
		if !okFull || !okLite {
			continue
		}
		out = append(out, changeLine(c.label, fv, lv))
	}

	if full.FPS.FPS > 0 && lite.FPS.FPS > 0 {
		line := fmt.Sprintf("**Scroll FPS**: %s -> %s", num(math.Round(full.FPS.FPS)), num(math.Round(lite.FPS.FPS)))
		switch {
		case math.Abs(full.FPS.FPS-lite.FPS.FPS) < vsyncTolerance:
			line += " (both at vsync cap; jank % and P95/P99 frame times show the real difference)"
		case lite.FPS.FPS > full.FPS.FPS:
			line += " (improved)"
		default:
			line += " (degraded)"
		}
		out = append(out, line)

		threshold := doc.Config.JankThreshold
		if threshold <= 0 {
			threshold = metrics.DefaultJankThresholdMs
		}
		out = append(out,
			fmt.Sprintf("**Jank frames (>%sms)**: %s%% -> %s%%", num(threshold), num(full.FPS.JankPercentage), num(lite.FPS.JankPercentage)),
			fmt.Sprintf("**P95 frame time**: %sms -> %sms", num(full.FPS.P95FrameTime), num(lite.FPS.P95FrameTime)),
		)
	}
	return out
}

func changeLine(label string, full, lite float64) string {
	pct, ok := reduction(full, lite)
	switch {
	case !ok:
		return fmt.Sprintf("**%s**: no full-mode baseline (lite %s)", label, num(lite))
	case pct >= 0:
		return fmt.Sprintf("**%s reduced** by %d%%", label, pct)
	default:
		return fmt.Sprintf("**%s increased** by %d%%", label, -pct)
	}
}

// reduction returns round((full-lite)/full*100); ok is false without a
// positive baseline.
func reduction(full, lite float64) (int, bool) {
	if full <= 0 {
		return 0, false
	}
	return int(math.Round((full - lite) / full * 100)), true
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
