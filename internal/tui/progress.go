// internal/tui/progress.go
// Package tui renders benchmark progress as an interactive terminal view.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/mwiater/modebench/internal/benchmark"
	"github.com/mwiater/modebench/internal/metrics"
	"github.com/mwiater/modebench/internal/report"
	"github.com/mwiater/modebench/internal/util"
)

const (
	maxRecent    = 6
	maxBarWidth  = 60
	maxLineRunes = 72
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	phaseStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	warmupStyle  = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	modeBadgeFor = map[metrics.Mode]lipgloss.Style{
		metrics.ModeFull: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("33")).Padding(0, 1),
		metrics.ModeLite: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("34")).Padding(0, 1),
	}
)

type eventMsg benchmark.Event

type doneMsg struct {
	doc *report.Document
	err error
}

// Model is the bubbletea model for a running benchmark.
type Model struct {
	spinner   spinner.Model
	bar       progress.Model
	target    string
	total     int
	completed int
	phase     string
	mode      metrics.Mode
	recent    []string
	started   time.Time
	cancel    context.CancelFunc
	aborted   bool
	finished  bool
	err       error
}

// NewModel builds a model for total trials against target. cancel is invoked
// when the user aborts with q or Ctrl+C.
func NewModel(target string, total int, cancel context.CancelFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		target:  target,
		total:   total,
		started: time.Now(),
		cancel:  cancel,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.finished {
				m.aborted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		w := msg.Width - 4
		if w > maxBarWidth {
			w = maxBarWidth
		}
		if w > 10 {
			m.bar.Width = w
		}
	case eventMsg:
		m.apply(benchmark.Event(msg))
		if m.finished {
			return m, tea.Quit
		}
	case doneMsg:
		m.finished = true
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) apply(e benchmark.Event) {
	if e.Total > 0 {
		m.total = e.Total
	}
	m.completed = e.Completed
	switch e.Kind {
	case benchmark.EventTrialStarted:
		m.phase, m.mode = e.Phase, e.Mode
	case benchmark.EventTrialDone:
		line := fmt.Sprintf("%s %s", e.Phase, e.Mode)
		if e.Result != nil {
			line += fmt.Sprintf("  layers=%d fps=%.0f", e.Result.Layers, e.Result.FPS.FPS)
		}
		line = util.TruncateRunes(line, maxLineRunes)
		if e.Warmup() {
			line = warmupStyle.Render(line + " (warmup)")
		} else {
			line = doneStyle.Render("✓ ") + line
		}
		m.recent = append(m.recent, line)
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}
	case benchmark.EventTrialFailed:
		m.err = e.Err
		m.finished = true
	case benchmark.EventFinished:
		m.finished = true
	}
}

// Percent is the completed share of all trials.
func (m *Model) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.completed) / float64(m.total)
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("modebench: " + m.target))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(failStyle.Render("FAILED"))
		b.WriteString(" " + util.TruncateRunes(m.err.Error(), maxLineRunes))
	case m.finished:
		b.WriteString(doneStyle.Render(fmt.Sprintf("All %d trials complete", m.total)))
	case m.phase == "":
		b.WriteString(fmt.Sprintf("%s Checking server...", m.spinner.View()))
	default:
		badge, ok := modeBadgeFor[m.mode]
		if !ok {
			badge = lipgloss.NewStyle()
		}
		b.WriteString(fmt.Sprintf("%s %s %s", m.spinner.View(), phaseStyle.Render(m.phase), badge.Render(string(m.mode))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(fmt.Sprintf("  %d/%d  %s", m.completed, m.total, time.Since(m.started).Round(time.Second)))

	if len(m.recent) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(m.recent, "\n"))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("q/ctrl+c abort"))
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

// Reporter forwards runner progress into a running program.
type Reporter struct {
	program *tea.Program
}

func NewReporter(p *tea.Program) Reporter { return Reporter{program: p} }

func (r Reporter) Report(e benchmark.Event) {
	r.program.Send(eventMsg(e))
}

// RunFunc executes a benchmark, reporting through progress.
type RunFunc func(ctx context.Context, progress benchmark.Progress) (*report.Document, error)

type runResult struct {
	doc *report.Document
	err error
}

// Run renders the progress view on the calling goroutine while fn runs in a
// worker goroutine. Run returns only after fn has returned, so the browser is
// torn down even when the user aborts.
func Run(ctx context.Context, target string, total int, fn RunFunc, opts ...tea.ProgramOption) (*report.Document, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(target, total, cancel)
	p := tea.NewProgram(m, opts...)

	results := make(chan runResult, 1)
	go func() {
		doc, err := fn(ctx, NewReporter(p))
		results <- runResult{doc: doc, err: err}
		p.Send(doneMsg{doc: doc, err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-results
		return nil, fmt.Errorf("progress view: %w", err)
	}
	if m.aborted {
		cancel()
	}
	res := <-results
	if m.aborted && res.err == nil {
		res.err = context.Canceled
	}
	return res.doc, res.err
}

// Interactive reports whether f is a terminal the progress view can own.
func Interactive(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
