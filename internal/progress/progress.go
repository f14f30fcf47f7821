// Package progress reports pipeline progress to the terminal, either as plain
// styled lines or through an interactive spinner view.
package progress

// Stage identifies the kind of file a pipeline step produces.
type Stage int

const (
	StageOutput Stage = iota
	StageAssessment
	StageCrossAssessment
)

func (s Stage) String() string {
	switch s {
	case StageOutput:
		return "output"
	case StageAssessment:
		return "assessment"
	case StageCrossAssessment:
		return "cross-prompt assessment"
	default:
		return "unknown"
	}
}

// Event describes one model call and the file it produces. Source is the
// prompt file for outputs and assessments and empty for cross-prompt
// assessments.
type Event struct {
	Stage  Stage
	Model  string
	Source string
	Path   string
}

// Reporter receives pipeline progress. Begin is called before the model call,
// Done after the resulting file has been written.
type Reporter interface {
	Begin(Event)
	Done(Event)
	Status(msg string)
}

type discard struct{}

func (discard) Begin(Event)   {}
func (discard) Done(Event)    {}
func (discard) Status(string) {}

// Discard is a Reporter that drops every event.
var Discard Reporter = discard{}

// OrDiscard returns r, or Discard when r is nil.
func OrDiscard(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}
