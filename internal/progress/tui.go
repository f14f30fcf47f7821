package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	statusStyle  = lipgloss.NewStyle().Faint(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// message types sent from the pipeline goroutine.
type (
	beginMsg    Event
	doneMsg     Event
	statusMsg   string
	finishedMsg struct{ err error }
)

type tuiModel struct {
	title   string
	spinner spinner.Model
	cancel  context.CancelFunc

	current   *Event
	started   time.Time
	lines     []string
	width     int
	finished  bool
	err       error
	cancelled bool
}

func newTUIModel(title string, cancel context.CancelFunc) *tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return &tuiModel{title: title, spinner: s, cancel: cancel}
}

// Init satisfies the tea.Model interface.
func (m *tuiModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update routes pipeline and keyboard messages.
func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case beginMsg:
		ev := Event(msg)
		m.current = &ev
		m.started = time.Now()
		return m, nil

	case doneMsg:
		m.current = nil
		m.lines = append(m.lines, doneStyle.Render("✓ ")+describe(Event(msg)))
		return m, nil

	case statusMsg:
		m.current = nil
		m.lines = append(m.lines, statusStyle.Render(string(msg)))
		return m, nil

	case finishedMsg:
		m.finished = true
		m.current = nil
		m.err = msg.err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the finished files followed by the call in flight.
func (m *tuiModel) View() string {
	var b []string
	b = append(b, titleStyle.Render(m.title))
	b = append(b, m.lines...)

	switch {
	case m.current != nil:
		elapsed := fmt.Sprintf("%.1fs", time.Since(m.started).Seconds())
		b = append(b, fmt.Sprintf("%s %s %s", m.spinner.View(), pending(*m.current), statusStyle.Render(elapsed)))
	case !m.finished && m.cancelled:
		b = append(b, statusStyle.Render("Cancelling..."))
	}

	style := lipgloss.NewStyle().Margin(1, 2)
	if m.width > 4 {
		style = style.MaxWidth(m.width)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, b...)) + "\n"
}

func describe(ev Event) string {
	switch ev.Stage {
	case StageOutput:
		return fmt.Sprintf("%s -> %s", filepath.Base(ev.Source), filepath.Base(ev.Path))
	case StageAssessment:
		return fmt.Sprintf("assessment for %s -> %s", filepath.Base(ev.Source), filepath.Base(ev.Path))
	default:
		return fmt.Sprintf("cross-prompt assessment for %s -> %s", ev.Model, filepath.Base(ev.Path))
	}
}

func pending(ev Event) string {
	switch ev.Stage {
	case StageOutput:
		return fmt.Sprintf("%s is answering %s", ev.Model, filepath.Base(ev.Source))
	case StageAssessment:
		return fmt.Sprintf("%s is assessing outputs for %s", ev.Model, filepath.Base(ev.Source))
	default:
		return fmt.Sprintf("comparing prompt styles for %s", ev.Model)
	}
}

// programReporter forwards events to a running Bubble Tea program.
type programReporter struct {
	p *tea.Program
}

func (r programReporter) Begin(ev Event)    { r.p.Send(beginMsg(ev)) }
func (r programReporter) Done(ev Event)     { r.p.Send(doneMsg(ev)) }
func (r programReporter) Status(msg string) { r.p.Send(statusMsg(msg)) }

// RunTUI runs work on a separate goroutine while an interactive spinner view
// shows its progress on out. Quitting the view cancels the context passed to
// work; the view stays up until work returns. RunTUI returns work's error
// once both have finished.
func RunTUI(ctx context.Context, out io.Writer, title string, work func(context.Context, Reporter) error) error {
	return runTUI(ctx, os.Stdin, out, title, work)
}

func runTUI(ctx context.Context, in io.Reader, out io.Writer, title string, work func(context.Context, Reporter) error) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The program follows the parent context only, so cancelling from the
	// view leaves it running until work has wound down.
	m := newTUIModel(title, cancel)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithContext(ctx))

	workErr := make(chan error, 1)
	go func() {
		err := work(workCtx, programReporter{p: p})
		workErr <- err
		p.Send(finishedMsg{err: err})
	}()

	_, runErr := p.Run()
	cancel()
	err := <-workErr
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("progress view: %w", runErr)
	}
	return err
}
