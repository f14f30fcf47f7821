package runner

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mwiater/assessor/internal/assessment"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/providers/providertest"
	"github.com/mwiater/assessor/internal/storage"
)

func newStore(t *testing.T, dir string, files ...string) *storage.FS {
	t.Helper()
	store := storage.NewMemory()
	if err := store.Fs().MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range files {
		if err := store.Write(filepath.Join(dir, name), "body of "+name); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return store
}

type statusRecorder struct {
	lines []string
}

func (r *statusRecorder) Begin(progress.Event) {}
func (r *statusRecorder) Done(progress.Event)  {}
func (r *statusRecorder) Status(msg string)    { r.lines = append(r.lines, msg) }

func TestRunFullPipeline(t *testing.T) {
	store := newStore(t, "prompts", "prompt-plain.md", "prompt-fancy.md")
	cloud := &providertest.Generator{RespondFn: func(model string, req providers.Request) (string, error) {
		return "cloud " + model, nil
	}}
	local := &providertest.Generator{RespondFn: func(model string, req providers.Request) (string, error) {
		return "<think>...</think>local " + model, nil
	}}
	judge := &providertest.Generator{Response: "verdict"}
	rec := &statusRecorder{}

	result, err := Run(context.Background(), Options{
		Store:  store,
		Folder: "prompts",
		ModelSets: []ModelSet{
			{Backend: "openai", Generator: cloud, Models: []string{"gpt-4o"}},
			{Backend: "ollama", Generator: local, Models: []string{"qwen3:32b"}},
			{Backend: "gemini", Generator: local},
		},
		Judge:      judge,
		JudgeModel: "o1",
		Reporter:   rec,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Outputs.Len() != 4 {
		t.Fatalf("expected 4 outputs, got %d", result.Outputs.Len())
	}
	wantOutputs := []string{"prompts/prompt-fancy-output-gpt-4o.md", "prompts/prompt-fancy-output-qwen3-32b.md"}
	if got := result.Outputs.Outputs("prompts/prompt-fancy.md"); !reflect.DeepEqual(got, wantOutputs) {
		t.Fatalf("fancy outputs = %v, want %v", got, wantOutputs)
	}
	if got, _ := store.Read("prompts/prompt-plain-output-qwen3-32b.md"); got != "local qwen3:32b" {
		t.Fatalf("unexpected output %q", got)
	}

	wantAssessments := []string{"prompts/prompt-fancy-assessment.md", "prompts/prompt-plain-assessment.md"}
	if !reflect.DeepEqual(result.Assessments, wantAssessments) {
		t.Fatalf("assessments = %v, want %v", result.Assessments, wantAssessments)
	}
	if want := []string{"fancy", "plain"}; !reflect.DeepEqual(result.ComparedStyles, want) {
		t.Fatalf("compared styles = %v, want %v", result.ComparedStyles, want)
	}
	wantCross := map[string]string{
		"gpt-4o":    "prompts/fancy-vs-plain-assessment-gpt-4o.md",
		"qwen3-32b": "prompts/fancy-vs-plain-assessment-qwen3-32b.md",
	}
	if !reflect.DeepEqual(result.CrossAssessments, wantCross) {
		t.Fatalf("cross = %v, want %v", result.CrossAssessments, wantCross)
	}

	// two per-source assessments plus two cross-prompt assessments
	if len(judge.Calls()) != 4 {
		t.Fatalf("expected 4 judge calls, got %d", len(judge.Calls()))
	}
	if len(local.Calls()) != 2 {
		t.Fatalf("expected the empty model set to make no calls, got %d local calls", len(local.Calls()))
	}

	wantStatus := []string{
		"Successfully processed files in prompts",
		"Generating cross-prompt assessments for styles: fancy, plain",
		"Created 2 cross-prompt assessments",
		"  - gpt-4o: fancy-vs-plain-assessment-gpt-4o.md",
		"  - qwen3-32b: fancy-vs-plain-assessment-qwen3-32b.md",
		"Cross-prompt assessments completed",
	}
	if !reflect.DeepEqual(rec.lines, wantStatus) {
		t.Fatalf("status = %q, want %q", rec.lines, wantStatus)
	}
}

func TestRunInvalidFolderMakesNoCalls(t *testing.T) {
	store := storage.NewMemory()
	gen := &providertest.Generator{Response: "x"}
	judge := &providertest.Generator{Response: "x"}

	_, err := Run(context.Background(), Options{
		Store:      store,
		Folder:     "missing",
		ModelSets:  []ModelSet{{Backend: "openai", Generator: gen, Models: []string{"gpt-4o"}}},
		Judge:      judge,
		JudgeModel: "o1",
	})
	if !errors.Is(err, prompts.ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
	if len(gen.Calls())+len(judge.Calls()) != 0 {
		t.Fatal("expected no model calls")
	}
}

func TestRunTooFewStyles(t *testing.T) {
	store := newStore(t, "prompts", "prompt-plain.md", "prompt-fancy.md")
	gen := &providertest.Generator{Response: "out"}
	judge := &providertest.Generator{Response: "verdict"}

	result, err := Run(context.Background(), Options{
		Store:      store,
		Folder:     "prompts",
		ModelSets:  []ModelSet{{Backend: "ollama", Generator: gen, Models: []string{"m1"}}},
		Judge:      judge,
		JudgeModel: "o1",
		Styles:     []string{"plain"},
	})
	if !errors.Is(err, assessment.ErrTooFewStyles) {
		t.Fatalf("expected ErrTooFewStyles, got %v", err)
	}
	for _, call := range gen.Calls() {
		if strings.Contains(call.Request.Prompt, "fancy") {
			t.Fatal("filtered style must not be sent")
		}
	}
	if len(result.CrossAssessments) != 0 {
		t.Fatalf("expected no cross-prompt files, got %v", result.CrossAssessments)
	}
	files, _ := store.List("prompts")
	for _, f := range files {
		if strings.Contains(f, "-vs-") {
			t.Fatalf("unexpected cross-prompt file %s", f)
		}
	}
}

func TestRunAssessOnly(t *testing.T) {
	store := newStore(t, "prompts",
		"prompt-a.md",
		"prompt-b.md",
		"prompt-a-output-m.md",
		"prompt-b-output-m.md",
	)
	gen := &providertest.Generator{Response: "out"}
	judge := &providertest.Generator{Response: "verdict"}
	rec := &statusRecorder{}

	result, err := Run(context.Background(), Options{
		Store:       store,
		Folder:      "prompts",
		ModelSets:   []ModelSet{{Backend: "ollama", Generator: gen, Models: []string{"m"}}},
		Judge:       judge,
		JudgeModel:  "o1",
		Compare:     []string{"b", "a", "b"},
		SkipOutputs: true,
		Reporter:    rec,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.Calls()) != 0 {
		t.Fatal("expected no output generation")
	}
	if got := result.CrossAssessments["m"]; got != "prompts/b-vs-a-assessment-m.md" {
		t.Fatalf("unexpected cross-prompt file %q", got)
	}
	if rec.lines[0] != "Generating cross-prompt assessments for styles: b, a" {
		t.Fatalf("unexpected first status %q", rec.lines[0])
	}
}

func TestRunStopsOnModelFailure(t *testing.T) {
	store := newStore(t, "prompts", "prompt-a.md", "prompt-b.md")
	boom := errors.New("model failed")
	gen := &providertest.Generator{RespondFn: func(string, providers.Request) (string, error) { return "", boom }}
	judge := &providertest.Generator{Response: "verdict"}

	_, err := Run(context.Background(), Options{
		Store:      store,
		Folder:     "prompts",
		ModelSets:  []ModelSet{{Backend: "openai", Generator: gen, Models: []string{"gpt-4o"}}},
		Judge:      judge,
		JudgeModel: "o1",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "openai: ") {
		t.Fatalf("expected backend prefix, got %q", err.Error())
	}
	if len(judge.Calls()) != 0 {
		t.Fatal("judge must not run after a failed output")
	}
}

func TestResolveStyles(t *testing.T) {
	store := newStore(t, "prompts", "prompt-plain.md", "prompt-fancy.md")

	tests := []struct {
		name    string
		compare []string
		filter  []string
		want    []string
	}{
		{name: "compare wins", compare: []string{"x", "y"}, filter: []string{"plain"}, want: []string{"x", "y"}},
		{name: "filter fallback", filter: []string{"plain", "plain"}, want: []string{"plain"}},
		{name: "discovered", want: []string{"fancy", "plain"}},
	}
	for _, tt := range tests {
		got, err := ResolveStyles(store, "prompts", tt.compare, tt.filter)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
