// Package prompts implements the file naming conventions that tie prompt
// files to the outputs and assessments generated from them. The directory
// listing is the only index: styles, outputs and assessments are all derived
// from file names.
package prompts

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mwiater/assessor/internal/storage"
)

const (
	promptExt        = ".md"
	promptPrefix     = "prompt-"
	outputMarker     = "-output-"
	assessmentMarker = "-assessment"
	styleSeparator   = "-vs-"
)

// ErrNotDirectory is returned when the prompt folder is missing or is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// excludedSubstrings removes generated files from the prompt listing. The test
// is a plain substring match on the whole path.
var excludedSubstrings = []string{"output", "assessment"}

// stylePattern extracts the style token from a prompt file name.
var stylePattern = regexp.MustCompile(`^prompt-(.+)\.md$`)

// ListStyles returns the style token of every prompt file in dir, in listing order.
// Files that do not follow the prompt-<style>.md convention are skipped.
func ListStyles(store storage.Store, dir string) ([]string, error) {
	files, err := eligibleFiles(store, dir)
	if err != nil {
		return nil, err
	}
	var styles []string
	for _, file := range files {
		if style, ok := StyleOf(file); ok {
			styles = append(styles, style)
		}
	}
	return styles, nil
}

// PromptFiles returns the prompt files in dir. When styles is not empty only
// files named prompt-<style> for one of the styles are returned.
func PromptFiles(store storage.Store, dir string, styles []string) ([]string, error) {
	if err := EnsureDir(store, dir); err != nil {
		return nil, err
	}
	files, err := eligibleFiles(store, dir)
	if err != nil {
		return nil, err
	}
	if len(styles) == 0 {
		return files, nil
	}

	var selected []string
	for _, file := range files {
		stem := stemOf(file)
		for _, style := range styles {
			if stem == promptPrefix+style {
				selected = append(selected, file)
				break
			}
		}
	}
	return selected, nil
}

// EnsureDir fails with ErrNotDirectory unless dir is an existing directory.
func EnsureDir(store storage.Store, dir string) error {
	ok, err := store.DirExists(dir)
	if err != nil {
		return fmt.Errorf("check folder %s: %w", dir, err)
	}
	if !ok {
		return fmt.Errorf("the path %s does not exist or is not a directory: %w", dir, ErrNotDirectory)
	}
	return nil
}

// StyleOf returns the style encoded in a prompt file name.
func StyleOf(path string) (string, bool) {
	match := stylePattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return "", false
	}
	return match[1], true
}

// ParseStyles splits a comma-separated style list, dropping blank entries.
func ParseStyles(csv string) []string {
	var styles []string
	for _, part := range strings.Split(csv, ",") {
		if style := strings.TrimSpace(part); style != "" {
			styles = append(styles, style)
		}
	}
	return styles
}

// ModelKey makes a model identifier safe for use in a file name.
func ModelKey(modelID string) string {
	return strings.ReplaceAll(modelID, ":", "-")
}

// OutputPath derives the file that holds modelID's response to source.
func OutputPath(source, modelID string) string {
	return withStem(source, stemOf(source)+outputMarker+ModelKey(modelID))
}

// AssessmentPath derives the file that holds the judge's assessment of source's outputs.
func AssessmentPath(source string) string {
	return withStem(source, stemOf(source)+assessmentMarker)
}

// CrossAssessmentPath derives the file that holds the judge's comparison of
// one model's outputs across styles, e.g. plain-vs-fancy-assessment-gpt-4o.md.
func CrossAssessmentPath(dir string, styles []string, modelKey string) string {
	name := strings.Join(styles, styleSeparator) + assessmentMarker + "-" + modelKey + promptExt
	return filepath.Join(dir, name)
}

// OutputsByModel finds the output files generated for the prompt of the given
// style, keyed by the model key embedded in their names.
func OutputsByModel(store storage.Store, dir, style string) (map[string]string, error) {
	files, err := store.List(dir)
	if err != nil {
		return nil, err
	}
	prefix := promptPrefix + style + outputMarker
	outputs := make(map[string]string)
	for _, file := range files {
		if !strings.EqualFold(filepath.Ext(file), promptExt) {
			continue
		}
		stem := stemOf(file)
		if !strings.HasPrefix(stem, prefix) {
			continue
		}
		key := strings.TrimPrefix(stem, prefix)
		if key == "" {
			continue
		}
		outputs[key] = file
	}
	return outputs, nil
}

// eligibleFiles lists the markdown files in dir that are not generated outputs or assessments.
func eligibleFiles(store storage.Store, dir string) ([]string, error) {
	files, err := store.List(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var eligible []string
	for _, file := range files {
		if !strings.EqualFold(filepath.Ext(file), promptExt) {
			continue
		}
		if isGenerated(file) {
			continue
		}
		eligible = append(eligible, file)
	}
	return eligible, nil
}

func isGenerated(path string) bool {
	for _, s := range excludedSubstrings {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func withStem(path, stem string) string {
	return filepath.Join(filepath.Dir(path), stem+filepath.Ext(path))
}
