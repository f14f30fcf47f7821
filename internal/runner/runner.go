// Package runner drives a full assessment run: outputs from every model set,
// per-prompt assessments and cross-prompt assessments.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mwiater/assessor/internal/assessment"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/storage"
)

// ModelSet is one backend and the models to run on it.
type ModelSet struct {
	Backend   string
	Generator providers.Generator
	Models    []string
}

// Options carries every dependency of a run.
type Options struct {
	Store      storage.Store
	Folder     string
	ModelSets  []ModelSet
	Judge      providers.Generator
	JudgeModel string
	Reporter   progress.Reporter

	// Styles restricts the prompt files sent to the model sets.
	Styles []string

	// Compare lists the styles to cross-compare. Empty falls back to Styles,
	// then to every style in Folder.
	Compare []string

	// SkipOutputs only runs cross-prompt assessment over outputs already on disk.
	SkipOutputs bool
}

// Result summarizes the files a run wrote.
type Result struct {
	Outputs          *assessment.OutputSet
	Assessments      []string
	ComparedStyles   []string
	CrossAssessments map[string]string
}

// Run executes the pipeline. The folder is validated before any model call
// and the first failure stops the run.
func Run(ctx context.Context, opts Options) (Result, error) {
	report := progress.OrDiscard(opts.Reporter)
	result := Result{Outputs: assessment.NewOutputSet()}

	if opts.Store == nil {
		return result, errors.New("runner: no store configured")
	}
	if opts.Judge == nil {
		return result, errors.New("runner: no judge configured")
	}
	if err := prompts.EnsureDir(opts.Store, opts.Folder); err != nil {
		return result, err
	}

	if !opts.SkipOutputs {
		for _, set := range opts.ModelSets {
			if len(set.Models) == 0 {
				continue
			}
			logging.LogEvent("Generating outputs with %s models: %s", set.Backend, strings.Join(set.Models, ", "))
			outputs, err := assessment.GenerateOutputs(ctx, set.Generator, set.Models, opts.Store, opts.Folder, opts.Styles, report)
			result.Outputs.Merge(outputs)
			if err != nil {
				return result, fmt.Errorf("%s: %w", set.Backend, err)
			}
		}

		written, err := assessment.WriteAssessments(ctx, opts.Judge, opts.JudgeModel, opts.Store, result.Outputs, report)
		result.Assessments = written
		if err != nil {
			return result, err
		}
		report.Status(fmt.Sprintf("Successfully processed files in %s", opts.Folder))
	}

	styles, err := ResolveStyles(opts.Store, opts.Folder, opts.Compare, opts.Styles)
	if err != nil {
		return result, err
	}
	result.ComparedStyles = styles
	if len(styles) < 2 {
		return result, assessment.ErrTooFewStyles
	}

	report.Status(fmt.Sprintf("Generating cross-prompt assessments for styles: %s", strings.Join(styles, ", ")))
	cross, err := assessment.GenerateCrossPromptAssessments(ctx, opts.Judge, opts.JudgeModel, opts.Store, opts.Folder, styles, report)
	result.CrossAssessments = cross
	if err != nil {
		return result, err
	}

	if len(cross) == 0 {
		report.Status("No cross-prompt assessments were generated")
	} else {
		report.Status(fmt.Sprintf("Created %d cross-prompt assessments", len(cross)))
		keys := make([]string, 0, len(cross))
		for key := range cross {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			report.Status(fmt.Sprintf("  - %s: %s", key, filepath.Base(cross[key])))
		}
	}
	report.Status("Cross-prompt assessments completed")
	return result, nil
}

// ResolveStyles picks the styles to cross-compare: the explicit compare list,
// else the prompt filter, else every style found in folder. Duplicates are
// removed.
func ResolveStyles(store storage.Store, folder string, compare, filter []string) ([]string, error) {
	switch {
	case len(compare) > 0:
		return assessment.UniqueStyles(compare), nil
	case len(filter) > 0:
		return assessment.UniqueStyles(filter), nil
	}
	styles, err := prompts.ListStyles(store, folder)
	if err != nil {
		return nil, err
	}
	return assessment.UniqueStyles(styles), nil
}
