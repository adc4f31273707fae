package benchmark

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/modebench/internal/appconfig"
	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/report"
	"github.com/mwiater/modebench/internal/trial"
)

type fakeRunner struct {
	calls  []trial.Spec
	failAt int
}

func (f *fakeRunner) Run(_ context.Context, spec trial.Spec) (metrics.TrialResult, error) {
	f.calls = append(f.calls, spec)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return metrics.TrialResult{Mode: spec.Mode}, &trial.TrialError{Mode: spec.Mode, Step: "navigate", Err: errors.New("net::ERR_CONNECTION_REFUSED")}
	}
	layers := 10
	if spec.Mode == metrics.ModeLite {
		layers = 4
	}
	return metrics.TrialResult{
		Mode:        spec.Mode,
		ScrollDelta: metrics.Counters{"TaskDuration": float64(layers) / 10},
		Absolute:    metrics.Counters{"Nodes": float64(layers * 100)},
		FPS:         metrics.FrameStats{FPS: 60, FrameCount: 120},
		Layers:      layers,
	}, nil
}

type recordingProgress struct{ events []Event }

func (p *recordingProgress) Report(e Event) { p.events = append(p.events, e) }

func testConfig(t *testing.T) appconfig.Config {
	t.Helper()
	cfg := appconfig.Defaults()
	cfg.Iterations = 3
	cfg.Warmup = 1
	cfg.ResultsDir = filepath.Join(t.TempDir(), "results")
	return cfg
}

func stubSeams(t *testing.T, runner TrialRunner) *int {
	t.Helper()
	prevProbe, prevRunner, prevID, prevNow := probeServer, newTrialRunner, newRunID, now
	closed := 0
	probeServer = func(context.Context, string) error { return nil }
	newTrialRunner = func(context.Context, appconfig.Config) (TrialRunner, func(), error) {
		return runner, func() { closed++ }, nil
	}
	newRunID = func() string { return "run-test" }
	now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() {
		probeServer, newTrialRunner, newRunID, now = prevProbe, prevRunner, prevID, prevNow
	})
	return &closed
}

func TestRunSequencesTrials(t *testing.T) {
	fake := &fakeRunner{}
	closed := stubSeams(t, fake)
	cfg := testConfig(t)
	progress := &recordingProgress{}

	doc, err := NewRunner(cfg, progress).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantPhases := []string{"warmup-1", "warmup-1", "iteration-1", "iteration-1", "iteration-2", "iteration-2", "iteration-3", "iteration-3"}
	if len(fake.calls) != len(wantPhases) {
		t.Fatalf("expected %d trials, got %d", len(wantPhases), len(fake.calls))
	}
	for i, call := range fake.calls {
		wantMode := metrics.ModeFull
		if i%2 == 1 {
			wantMode = metrics.ModeLite
		}
		if call.Mode != wantMode || call.Phase != wantPhases[i] {
			t.Fatalf("trial %d: got %s/%s, want %s/%s", i, call.Phase, call.Mode, wantPhases[i], wantMode)
		}
		wantTrace := call.Phase == "iteration-3"
		if call.CaptureTrace != wantTrace {
			t.Fatalf("trial %d (%s): CaptureTrace=%v", i, call.Phase, call.CaptureTrace)
		}
	}

	if len(doc.Raw.Full) != 3 || len(doc.Raw.Lite) != 3 {
		t.Fatalf("warmup must not be recorded: full=%d lite=%d", len(doc.Raw.Full), len(doc.Raw.Lite))
	}
	if doc.RunID != "run-test" || doc.Full.Layers != 10 || doc.Lite.Layers != 4 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Comparison) != len(metrics.MetricNames()) {
		t.Fatalf("expected %d comparison rows, got %d", len(metrics.MetricNames()), len(doc.Comparison))
	}
	if *closed == 0 {
		t.Fatalf("expected the trial runner to be closed")
	}

	for _, name := range []string{report.ResultsFile, report.MarkdownFile} {
		if _, err := os.Stat(filepath.Join(cfg.ResultsDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	last := progress.events[len(progress.events)-1]
	if last.Kind != EventFinished || last.Completed != 8 || last.Total != 8 {
		t.Fatalf("unexpected final event %+v", last)
	}
}

func TestRunAbortsOnTrialFailure(t *testing.T) {
	fake := &fakeRunner{failAt: 4}
	stubSeams(t, fake)
	cfg := testConfig(t)
	progress := &recordingProgress{}

	_, err := NewRunner(cfg, progress).Run(context.Background())
	var te *trial.TrialError
	if !errors.As(err, &te) {
		t.Fatalf("expected *trial.TrialError, got %v", err)
	}
	if len(fake.calls) != 4 {
		t.Fatalf("expected the run to stop at the failing trial, got %d calls", len(fake.calls))
	}
	if _, err := os.Stat(filepath.Join(cfg.ResultsDir, report.ResultsFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no results file after a failed run, got %v", err)
	}

	failed := false
	for _, e := range progress.events {
		if e.Kind == EventTrialFailed && e.Mode == metrics.ModeLite && e.Phase == "iteration-1" {
			failed = true
		}
	}
	if !failed {
		t.Fatalf("expected a failure event, got %+v", progress.events)
	}
}

func TestRunStopsWhenServerUnavailable(t *testing.T) {
	fake := &fakeRunner{}
	stubSeams(t, fake)
	probeServer = probe

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	cfg := testConfig(t)
	cfg.Host = "127.0.0.1"
	cfg.Port = srv.Listener.Addr().(*net.TCPAddr).Port
	_, err := NewRunner(cfg, &recordingProgress{}).Run(context.Background())
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("expected ErrServerUnavailable, got %v", err)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("expected no trials, got %d", len(fake.calls))
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	stubSeams(t, &fakeRunner{})
	cfg := testConfig(t)
	cfg.Iterations = 0
	if _, err := NewRunner(cfg, nil).Run(context.Background()); err == nil || !strings.Contains(err.Error(), "iterations") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	if err := probe(context.Background(), ok.URL+"/"); err != nil {
		t.Fatalf("expected probe success, got %v", err)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()
	err := probe(context.Background(), broken.URL+"/")
	if !errors.Is(err, ErrServerUnavailable) || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestRunBenchmarkPrintsTable(t *testing.T) {
	stubSeams(t, &fakeRunner{})
	cfg := testConfig(t)
	var out bytes.Buffer

	if _, err := RunBenchmark(context.Background(), &cfg, &recordingProgress{}, &out); err != nil {
		t.Fatalf("RunBenchmark: %v", err)
	}
	if !strings.Contains(out.String(), "Compositor Layers") {
		t.Fatalf("expected comparison table, got:\n%s", out.String())
	}

	if _, err := RunBenchmark(context.Background(), nil, nil, nil); err == nil {
		t.Fatalf("expected nil config error")
	}
}

func TestEventWarmup(t *testing.T) {
	if !(Event{Phase: "warmup-1"}).Warmup() || (Event{Phase: "iteration-1"}).Warmup() {
		t.Fatalf("unexpected warmup classification")
	}
}
