package assessment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/sanitize"
	"github.com/mwiater/assessor/internal/storage"
)

// ErrTooFewStyles is returned when fewer than two distinct styles are given
// for a cross-prompt comparison.
var ErrTooFewStyles = errors.New("at least two prompt styles are required for comparison")

// UniqueStyles drops blank and repeated styles, keeping first occurrences.
func UniqueStyles(styles []string) []string {
	seen := make(map[string]bool, len(styles))
	var out []string
	for _, style := range styles {
		style = strings.TrimSpace(style)
		if style == "" || seen[style] {
			continue
		}
		seen[style] = true
		out = append(out, style)
	}
	return out
}

// CrossPromptInstruction is the judge instruction comparing one model's
// outputs across styles.
func CrossPromptInstruction(modelKey string, styles []string) string {
	return fmt.Sprintf("Please compare how the model '%s' responded to the prompt styles %s. "+
		"Does a particular prompt style give better results than the others? "+
		"Assess how well the model followed the directives of each prompt. "+
		"In the assessment refer to each output by its filename.",
		modelKey, strings.Join(styles, ", "))
}

// GenerateCrossPromptAssessments compares, for every model with outputs under
// at least two of styles, how that model answered each style. Outputs are
// discovered in dir by file name. The result maps model key to the written
// assessment file.
func GenerateCrossPromptAssessments(ctx context.Context, judge providers.Generator, judgeModel string, store storage.Store, dir string, styles []string, report progress.Reporter) (map[string]string, error) {
	report = progress.OrDiscard(report)

	styles = UniqueStyles(styles)
	if len(styles) < 2 {
		return nil, ErrTooFewStyles
	}
	if err := prompts.EnsureDir(store, dir); err != nil {
		return nil, err
	}

	promptFiles, err := prompts.PromptFiles(store, dir, styles)
	if err != nil {
		return nil, err
	}
	promptByStyle := make(map[string]string, len(promptFiles))
	for _, file := range promptFiles {
		if style, ok := prompts.StyleOf(file); ok {
			promptByStyle[style] = file
		}
	}

	// model key -> style -> output file
	byModel := make(map[string]map[string]string)
	for _, style := range styles {
		outputs, err := prompts.OutputsByModel(store, dir, style)
		if err != nil {
			return nil, fmt.Errorf("discover outputs for %s: %w", style, err)
		}
		for key, path := range outputs {
			if byModel[key] == nil {
				byModel[key] = make(map[string]string)
			}
			byModel[key][style] = path
		}
	}

	keys := make([]string, 0, len(byModel))
	for key := range byModel {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	written := make(map[string]string)
	for _, key := range keys {
		var present []string
		for _, style := range styles {
			if _, ok := byModel[key][style]; ok {
				present = append(present, style)
			}
		}
		if len(present) < 2 {
			logging.LogEvent("Skipping cross-prompt assessment for %s: outputs for %d style(s)", key, len(present))
			continue
		}

		var paths []string
		for _, style := range present {
			if file, ok := promptByStyle[style]; ok {
				paths = append(paths, file)
			}
			paths = append(paths, byModel[key][style])
		}
		docs, err := readDocuments(store, paths)
		if err != nil {
			return written, err
		}

		path := prompts.CrossAssessmentPath(dir, present, key)
		ev := progress.Event{Stage: progress.StageCrossAssessment, Model: key, Path: path}
		report.Begin(ev)

		response, err := judge.Generate(ctx, judgeModel, providers.Request{
			Prompt:    CrossPromptInstruction(key, present),
			Documents: docs,
		})
		if err != nil {
			return written, fmt.Errorf("cross-prompt assessment for %s: %w", key, err)
		}
		if err := store.Write(path, sanitize.StripThinking(response)); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		logging.LogEvent("Created cross-prompt assessment for %s -> %s", key, path)

		written[key] = path
		report.Done(ev)
	}
	return written, nil
}
