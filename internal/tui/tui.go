package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/vpatch.go/internal/diag"
	"github.com/sokinpui/vpatch.go/model"
	"github.com/sokinpui/vpatch.go/vpatch"
)

// --- Styles ---
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))  // Mauve
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))             // Green
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))             // Blue
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))            // Red
	pathStyle    = lipgloss.NewStyle()
	faintStyle   = lipgloss.NewStyle().Faint(true)
	contextStyle = lipgloss.NewStyle().Faint(true).PaddingLeft(6)
)

// --- Messages ---
type summaryMsg struct {
	model.Summary
}

type errorMsg struct{ err error }

func (e errorMsg) Error() string { return e.err.Error() }

// ProgressMsg reports how many target files have been processed.
type ProgressMsg struct {
	Current, Total int
}

// Runner executes a run and returns its summary.
type Runner interface {
	Execute() (model.Summary, error)
}

// --- Model ---
type Model struct {
	app      Runner
	spinner  spinner.Model
	state    state
	progress ProgressMsg
	summary  model.Summary
	err      error
}

type state int

const (
	stateProcessing state = iota
	stateSummary
	stateError
)

func New(app Runner) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		app:     app,
		spinner: s,
		state:   stateProcessing,
	}
}

// Result returns the outcome once the program has finished.
func (m Model) Result() (model.Summary, error) {
	return m.summary, m.err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runApp)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case ProgressMsg:
		m.progress = msg
		return m, nil

	case summaryMsg:
		m.state = stateSummary
		m.summary = msg.Summary
		return m, tea.Quit

	case errorMsg:
		m.state = stateError
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		if m.state == stateProcessing {
			m.spinner, cmd = m.spinner.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.state {
	case stateProcessing:
		if m.progress.Total > 0 {
			return fmt.Sprintf("%s Patching files %d/%d...", m.spinner.View(), m.progress.Current, m.progress.Total)
		}
		return fmt.Sprintf("%s Processing...", m.spinner.View())
	case stateError:
		return errorStyle.Render("Error: ", m.err.Error()) + "\n"
	case stateSummary:
		return RenderSummary(m.summary)
	default:
		return ""
	}
}

// RenderSummary formats a run summary: one line per operation, diagnostic
// windows under failures, then the files written.
func RenderSummary(s model.Summary) string {
	var b strings.Builder

	if s.Message != "" {
		b.WriteString(headerStyle.Render(s.Message))
		b.WriteString("\n\n")
	}

	for _, r := range s.Results {
		label := fmt.Sprintf("%-8s %s", r.Status, r.ID)
		switch r.Status {
		case model.Applied:
			b.WriteString(successStyle.Render(label))
		case model.SkippedAlreadyApplied:
			b.WriteString(skippedStyle.Render(label))
		case model.Failed:
			b.WriteString(errorStyle.Render(fmt.Sprintf("%s  %s: %s", label, r.Failure, r.Reason)))
		}
		b.WriteString(faintStyle.Render(fmt.Sprintf("  %s", r.Kind)))
		b.WriteString("\n")
		if r.Status == model.Failed && len(r.Context) > 0 {
			b.WriteString(contextStyle.Render(strings.TrimRight(diag.Render(r.Context), "\n")))
			b.WriteString("\n")
		}
	}

	if len(s.Results) > 0 {
		b.WriteString(faintStyle.Render(fmt.Sprintf("\n%d applied, %d skipped, %d failed",
			s.Count(model.Applied), s.Count(model.SkippedAlreadyApplied), s.Count(model.Failed))))
		b.WriteString("\n")
	}

	writeFiles := func(title string, style lipgloss.Style, files []string) {
		if len(files) == 0 {
			return
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
		for _, f := range files {
			b.WriteString(fmt.Sprintf("  %s\n", pathStyle.Render(f)))
		}
	}
	writeFiles("Written:", successStyle, s.Written)
	writeFiles("Unchanged:", faintStyle, s.Unchanged)
	if len(s.Previews) > 0 {
		b.WriteString(skippedStyle.Render(fmt.Sprintf("Dry run: %d file(s) would change.", len(s.Previews))))
		b.WriteString("\n")
	}
	if s.Aborted {
		b.WriteString(errorStyle.Render("Run aborted; remaining files were not written."))
		b.WriteString("\n")
	}

	if len(s.Results) == 0 && s.Message == "" {
		b.WriteString(faintStyle.Render("Nothing to do."))
	}

	return b.String()
}

func (m Model) runApp() tea.Msg {
	summary, err := m.app.Execute()
	if err != nil {
		// Check for detailed error to print stack
		if e, ok := err.(*vpatch.DetailedError); ok {
			// The TUI will exit, so we can print to stderr here for the stack trace.
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return errorMsg{err}
	}
	return summaryMsg{
		Summary: summary,
	}
}
