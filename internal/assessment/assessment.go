package assessment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/sanitize"
	"github.com/mwiater/assessor/internal/storage"
)

// ErrNothingToAssess is returned when a source has no outputs to compare.
var ErrNothingToAssess = errors.New("nothing to assess")

// AssessmentInstruction is the judge instruction for the outputs of source.
func AssessmentInstruction(source string) string {
	return fmt.Sprintf("Please assess the quality and differences between the following outputs "+
		"generated for the source document '%s'. In the assessment refer to each output by its filename.",
		filepath.Base(source))
}

// GenerateAssessment asks judgeModel to compare outputs for source. The
// source and every output are attached as documents named by file name.
func GenerateAssessment(ctx context.Context, judge providers.Generator, judgeModel string, store storage.Store, source string, outputs []string) (string, error) {
	if len(outputs) == 0 {
		return "", ErrNothingToAssess
	}

	docs, err := readDocuments(store, append([]string{source}, outputs...))
	if err != nil {
		return "", err
	}

	response, err := judge.Generate(ctx, judgeModel, providers.Request{
		Prompt:    AssessmentInstruction(source),
		Documents: docs,
	})
	if err != nil {
		return "", fmt.Errorf("assess outputs for %s: %w", filepath.Base(source), err)
	}
	return sanitize.StripThinking(response), nil
}

// WriteAssessments writes one assessment per source in set, in insertion
// order, and returns the written paths. Sources without outputs are skipped,
// as are empty judge responses.
func WriteAssessments(ctx context.Context, judge providers.Generator, judgeModel string, store storage.Store, set *OutputSet, report progress.Reporter) ([]string, error) {
	report = progress.OrDiscard(report)

	var written []string
	for _, source := range set.Sources() {
		outputs := set.Outputs(source)
		if len(outputs) == 0 {
			continue
		}

		path := prompts.AssessmentPath(source)
		ev := progress.Event{Stage: progress.StageAssessment, Model: judgeModel, Source: source, Path: path}
		report.Begin(ev)

		text, err := GenerateAssessment(ctx, judge, judgeModel, store, source, outputs)
		if err != nil {
			return written, err
		}
		if strings.TrimSpace(text) == "" {
			logging.LogEvent("Empty assessment for %s; no file written", source)
			report.Status(fmt.Sprintf("Skipped empty assessment for %s", filepath.Base(source)))
			continue
		}
		if err := store.Write(path, text); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		logging.LogEvent("Created assessment for %s -> %s", source, path)

		written = append(written, path)
		report.Done(ev)
	}
	return written, nil
}

func readDocuments(store storage.Store, paths []string) ([]providers.Document, error) {
	docs := make([]providers.Document, 0, len(paths))
	for _, path := range paths {
		content, err := store.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, providers.Document{Name: filepath.Base(path), Content: content})
	}
	return docs, nil
}
