// Package assessment sends prompt files to models, writes their outputs and
// has a judge model compare them.
package assessment

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/sanitize"
	"github.com/mwiater/assessor/internal/storage"
)

// OutputSet maps each prompt file to the output files generated for it.
// Sources keep the order in which they were first added.
type OutputSet struct {
	sources []string
	outputs map[string][]string
}

// NewOutputSet returns an empty set.
func NewOutputSet() *OutputSet {
	return &OutputSet{outputs: make(map[string][]string)}
}

// Add appends output to the outputs of source.
func (s *OutputSet) Add(source, output string) {
	if _, ok := s.outputs[source]; !ok {
		s.sources = append(s.sources, source)
	}
	s.outputs[source] = append(s.outputs[source], output)
}

// Sources returns the prompt files in insertion order.
func (s *OutputSet) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Outputs returns the outputs recorded for source.
func (s *OutputSet) Outputs(source string) []string {
	return append([]string(nil), s.outputs[source]...)
}

// Len returns the number of output files in the set.
func (s *OutputSet) Len() int {
	n := 0
	for _, outs := range s.outputs {
		n += len(outs)
	}
	return n
}

// Merge appends every entry of other, keeping first-seen source order.
func (s *OutputSet) Merge(other *OutputSet) {
	if other == nil {
		return
	}
	for _, source := range other.sources {
		for _, output := range other.outputs[source] {
			s.Add(source, output)
		}
	}
}

// GenerateOutputs sends every prompt file in dir, optionally restricted to
// styles, to each model in turn and writes the sanitized responses next to the
// prompts. The first failure aborts the run.
func GenerateOutputs(ctx context.Context, gen providers.Generator, models []string, store storage.Store, dir string, styles []string, report progress.Reporter) (*OutputSet, error) {
	report = progress.OrDiscard(report)

	files, err := prompts.PromptFiles(store, dir, styles)
	if err != nil {
		return nil, err
	}

	set := NewOutputSet()
	for _, model := range models {
		for _, file := range files {
			text, err := store.Read(file)
			if err != nil {
				return set, fmt.Errorf("read %s: %w", file, err)
			}

			output := prompts.OutputPath(file, model)
			ev := progress.Event{Stage: progress.StageOutput, Model: model, Source: file, Path: output}
			report.Begin(ev)

			response, err := gen.Generate(ctx, model, providers.Request{Prompt: text})
			if err != nil {
				return set, fmt.Errorf("generate output for %s with %s: %w", filepath.Base(file), model, err)
			}
			if err := store.Write(output, sanitize.StripThinking(response)); err != nil {
				return set, fmt.Errorf("write %s: %w", output, err)
			}
			logging.LogEvent("Processed %s -> %s", file, output)

			set.Add(file, output)
			report.Done(ev)
		}
	}
	return set, nil
}
