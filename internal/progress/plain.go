package progress

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Plain writes one line per finished file.
type Plain struct {
	mu  sync.Mutex
	out io.Writer

	verb  lipgloss.Style
	file  lipgloss.Style
	arrow lipgloss.Style
}

// NewPlain returns a Plain reporter writing to out. Colors are only emitted
// when out is a terminal.
func NewPlain(out io.Writer) *Plain {
	r := lipgloss.NewRenderer(out)
	return &Plain{
		out:   out,
		verb:  r.NewStyle().Foreground(lipgloss.Color("40")),
		file:  r.NewStyle().Bold(true),
		arrow: r.NewStyle().Faint(true),
	}
}

func (p *Plain) Begin(Event) {}

func (p *Plain) Done(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.line(ev))
}

func (p *Plain) Status(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, msg)
}

func (p *Plain) line(ev Event) string {
	target := p.file.Render(filepath.Base(ev.Path))
	switch ev.Stage {
	case StageOutput:
		return fmt.Sprintf("%s %s %s %s", p.verb.Render("Processed"), filepath.Base(ev.Source), p.arrow.Render("->"), target)
	case StageAssessment:
		return fmt.Sprintf("%s %s %s %s", p.verb.Render("Created assessment for"), filepath.Base(ev.Source), p.arrow.Render("->"), target)
	default:
		return fmt.Sprintf("%s %s %s %s", p.verb.Render("Created cross-prompt assessment for"), ev.Model, p.arrow.Render("->"), target)
	}
}
