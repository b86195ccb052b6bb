package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"dynobench/internal/bench"
	"dynobench/internal/tui/styles"
)

// ErrAborted is returned when the user quits before the run finishes.
// Workers are abandoned with the process; there is no graceful drain.
var ErrAborted = errors.New("benchmark aborted")

type snapshotMsg bench.Snapshot

type resultMsg struct {
	res bench.Result
}

type model struct {
	snap bench.Snapshot

	progress progress.Model
	spinner  spinner.Model

	updates chan bench.Snapshot
	results chan bench.Result

	start  time.Time
	result *bench.Result

	width int
}

func newModel(updates chan bench.Snapshot, results chan bench.Result) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Active

	return model{
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
		updates:  updates,
		results:  results,
		start:    time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitSnapshot(), m.waitResult())
}

func (m model) waitSnapshot() tea.Cmd {
	return func() tea.Msg { return snapshotMsg(<-m.updates) }
}

func (m model) waitResult() tea.Cmd {
	return func() tea.Msg { return resultMsg{res: <-m.results} }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = bench.Snapshot(msg)
		pct := 0.0
		if m.snap.Total > 0 {
			pct = float64(m.snap.Done) / float64(m.snap.Total)
		}
		cmd := m.progress.SetPercent(pct)
		return m, tea.Batch(cmd, m.waitSnapshot())

	case resultMsg:
		res := msg.res
		m.result = &res
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		prog, cmd := m.progress.Update(msg)
		m.progress = prog.(progress.Model)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.result != nil {
		return ""
	}

	s := strings.Builder{}
	s.WriteString(styles.Title.Render("dynobench") + "\n\n")

	phase := m.snap.Phase.String()
	if m.snap.Phase == bench.PhaseWarmup {
		phase = m.spinner.View() + " " + phase
	}

	col1 := fmt.Sprintf("PHASE: %s\nELAPSED: %s",
		phase, time.Since(m.start).Round(time.Second))
	col2 := fmt.Sprintf("DONE: %d/%d\nINFLIGHT: %d",
		m.snap.Done, m.snap.Total, m.snap.Inflight)

	failStyle := styles.Value
	if m.snap.Failed > 0 {
		failStyle = styles.Error
	}
	col3 := fmt.Sprintf("FAILED: %s\nMAX: %.1f ms",
		failStyle.Render(fmt.Sprintf("%d", m.snap.Failed)), m.snap.MaxMs)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	lat := fmt.Sprintf("P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms",
		m.snap.P50Ms, m.snap.P90Ms, m.snap.P99Ms)
	s.WriteString(styles.Box.Render(lat))
	s.WriteString("\n\n")

	s.WriteString("  " + m.progress.View() + "\n\n")
	s.WriteString(styles.Subtle.Render("  q: abort") + "\n")
	return s.String()
}

// Run drives a benchmark behind a live dashboard and returns its
// result once the run completes. Quitting mid-run returns ErrAborted.
func Run(ctx context.Context, cfg bench.RunConfig, spec bench.QuerySpec, exec bench.Executor) (bench.Result, error) {
	updates := make(chan bench.Snapshot, 100)
	b := bench.New(cfg, spec, exec, updates)

	results := make(chan bench.Result, 1)
	go func() { results <- b.Run(ctx) }()

	p := tea.NewProgram(newModel(updates, results))
	out, err := p.Run()
	if err != nil {
		return bench.Result{}, errors.Wrap(err, "running dashboard")
	}

	final := out.(model)
	if final.result == nil {
		return bench.Result{}, ErrAborted
	}
	return *final.result, nil
}
