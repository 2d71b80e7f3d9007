package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/veilmark/veilmark/internal/batch"
	"github.com/veilmark/veilmark/internal/service"
)

const tickInterval = 100 * time.Millisecond

// palette carries the styles shared by the progress UI, batch summaries and
// detection reports: accent for counters, ok/fail for settled outcomes, dim
// for hints and unconfirmed state.
type palette struct {
	accent lipgloss.Style
	ok     lipgloss.Style
	fail   lipgloss.Style
	dim    lipgloss.Style
}

var colors = palette{
	accent: lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7")),
	ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787")).Bold(true),
	fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF005F")).Bold(true),
	dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C")).Italic(true),
}

// tickMsg triggers reading the next batch snapshot
type tickMsg time.Time

// batchModel is the bubbletea model for live batch progress. Unlike a
// remote job poller it reads the local session store the scheduler writes
// into.
type batchModel struct {
	session  *service.Session
	finished <-chan struct{}
	snap     batch.RunSnapshot
	progress progress.Model
	done     bool
	quitting bool
}

func newBatchModel(session *service.Session, finished <-chan struct{}) batchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return batchModel{
		session:  session,
		finished: finished,
		progress: prog,
	}
}

// Init returns the initial command (start ticking).
func (m batchModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = m.session.Snapshot()

		// The workflow goroutine signals completion; the snapshot alone
		// is not enough because a batch may fail before it begins.
		select {
		case <-m.finished:
			m.snap = m.session.Snapshot()
			m.done = true
			return m, tea.Quit
		default:
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m batchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m batchModel) renderContent() string {
	if m.done || m.quitting {
		return ""
	}
	if m.snap.Total == 0 {
		return "Starting batch...\n"
	}

	var pct float64
	if m.snap.Total > 0 {
		pct = float64(m.snap.Done) / float64(m.snap.Total)
	}

	status := colors.accent.Render(fmt.Sprintf("[%d/%d]", m.snap.Done, m.snap.Total))
	bar := m.progress.ViewAs(pct)

	line := fmt.Sprintf("%s %s", status, bar)
	if m.snap.Errors > 0 {
		line += " " + colors.fail.Render(fmt.Sprintf("%d failed", m.snap.Errors))
	}
	current := m.snap.CurrentName
	if current == "" {
		current = "..."
	}
	hint := colors.dim.Render("Press Ctrl+C to detach; the batch runs to completion")

	return fmt.Sprintf("%s\n%s\n%s\n", line, current, hint)
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runBatchProgress shows the interactive progress UI until the batch
// signals completion (or the user detaches). The batch itself keeps running
// either way; outcomes are read from the session afterwards.
func runBatchProgress(session *service.Session, finished <-chan struct{}) error {
	model := newBatchModel(session, finished)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}
