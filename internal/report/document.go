// internal/report/document.go
// Package report assembles, validates and renders the results of a run.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/util"
)

const (
	// ResultsFile is the JSON document written to the results directory.
	ResultsFile = "benchmark-results.json"
	// MarkdownFile is the human-readable report written next to it.
	MarkdownFile = "REPORT.md"
)

// RunConfig records the parameters a run was made with.
type RunConfig struct {
	Host          string  `json:"host"`
	Port          int     `json:"port"`
	Path          string  `json:"path"`
	URL           string  `json:"url"`
	Iterations    int     `json:"iterations"`
	Warmup        int     `json:"warmup"`
	Headed        bool    `json:"headed"`
	Viewport      string  `json:"viewport"`
	FrameCap      int     `json:"frameCap"`
	JankThreshold float64 `json:"jankThreshold"`
	ResultsDir    string  `json:"resultsDir"`
}

// RawTrials keeps every measured trial, in run order.
type RawTrials struct {
	Full []metrics.TrialResult `json:"full"`
	Lite []metrics.TrialResult `json:"lite"`
}

// Document is the complete result of one run.
type Document struct {
	RunID      string                  `json:"runId"`
	Timestamp  time.Time               `json:"timestamp"`
	Config     RunConfig               `json:"config"`
	Full       metrics.AggregateResult `json:"full"`
	Lite       metrics.AggregateResult `json:"lite"`
	FullStdDev metrics.StdDevResult    `json:"fullStdDev"`
	LiteStdDev metrics.StdDevResult    `json:"liteStdDev"`
	Comparison []metrics.ComparisonRow `json:"comparison"`
	Raw        RawTrials               `json:"raw"`
}

// Build aggregates both modes and compares them.
func Build(runID string, ts time.Time, cfg RunConfig, full, lite []metrics.TrialResult) (*Document, error) {
	fullAgg, fullSD, err := metrics.Aggregate(full)
	if err != nil {
		return nil, fmt.Errorf("aggregate full mode: %w", err)
	}
	liteAgg, liteSD, err := metrics.Aggregate(lite)
	if err != nil {
		return nil, fmt.Errorf("aggregate lite mode: %w", err)
	}
	return &Document{
		RunID:      runID,
		Timestamp:  ts.UTC(),
		Config:     cfg,
		Full:       fullAgg,
		Lite:       liteAgg,
		FullStdDev: fullSD,
		LiteStdDev: liteSD,
		Comparison: metrics.Compare(fullAgg, liteAgg, fullSD, liteSD),
		Raw:        RawTrials{Full: full, Lite: lite},
	}, nil
}

// Encode renders doc as indented JSON and validates it.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write validates doc and writes the JSON document and the Markdown report
// into dir. Nothing is written when validation fails.
func Write(dir string, doc *Document) (jsonPath, mdPath string, err error) {
	data, err := Encode(doc)
	if err != nil {
		return "", "", err
	}
	jsonPath = filepath.Join(dir, ResultsFile)
	mdPath = filepath.Join(dir, MarkdownFile)
	if err := util.WriteFile(jsonPath, data); err != nil {
		return "", "", fmt.Errorf("write %s: %w", jsonPath, err)
	}
	if err := util.WriteFile(mdPath, []byte(Markdown(doc))); err != nil {
		return "", "", fmt.Errorf("write %s: %w", mdPath, err)
	}
	return jsonPath, mdPath, nil
}

// Load reads and validates a results document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &doc, nil
}
