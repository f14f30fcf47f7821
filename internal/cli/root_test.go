// internal/cli/root_test.go
package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/assessment"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/metrics"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/providers/providertest"
	"github.com/mwiater/assessor/internal/storage"
)

// resetFlags restores every persistent flag to its default and marks it unchanged.
func resetFlags() {
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// useConfig points the command tree at configPath and logs into a temp file
// for the duration of the test.
func useConfig(t *testing.T, configPath string) {
	t.Helper()
	prevCfgFile := cfgFile
	cfgFile = configPath
	// drop values read by earlier tests
	viper.SetConfigType("json")
	_ = viper.ReadConfig(strings.NewReader("{}"))
	viper.SetConfigFile(configPath)
	resetFlags()
	_ = rootCmd.PersistentFlags().Set("logFile", filepath.Join(t.TempDir(), "assessor.log"))
	t.Cleanup(func() {
		cfgFile = prevCfgFile
		viper.SetConfigFile(prevCfgFile)
		resetFlags()
		rootCmd.SetArgs([]string{})
		_ = logging.Close()
	})
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	useConfig(t, writeTempConfig(t, "{}"))

	b := new(bytes.Buffer)
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs([]string{"nonexistent"})

	_, err := rootCmd.ExecuteC()
	if err == nil {
		t.Fatal("expected an error for a nonexistent command, but got none")
	}
	expected := "unknown command \"nonexistent\" for \"assessor\""
	if !strings.Contains(err.Error(), expected) {
		t.Errorf("expected error to contain '%s', but got '%s'", expected, err.Error())
	}
}

func TestPersistentPreRunEMergesConfigAndFlags(t *testing.T) {
	configPath := writeTempConfig(t, `{
  "folder": "from-config",
  "useOllama": false,
  "useGemini": true,
  "ollama": {"models": ["qwen3:32b"]},
  "judge": {"backend": "ollama", "model": "qwen3:32b"},
  "timeout": 42
}`)
	useConfig(t, configPath)

	_ = rootCmd.PersistentFlags().Set("folder", "from-flag")
	_ = rootCmd.PersistentFlags().Set("debug", "true")

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil || cfg.ConfigPath != configPath {
		t.Fatalf("expected config loaded with path %s", configPath)
	}
	if cfg.Folder != "from-flag" {
		t.Fatalf("expected flag to override config folder, got %s", cfg.Folder)
	}
	if !cfg.Debug || !logging.DebugEnabled() {
		t.Fatalf("expected debug enabled")
	}
	if !cfg.UseOpenAI || cfg.UseOllama || !cfg.UseGemini || cfg.UseAnthropic {
		t.Fatalf("unexpected backend selection: %+v", cfg)
	}
	if cfg.Judge.Backend != "ollama" || cfg.Judge.Model != "qwen3:32b" {
		t.Fatalf("expected judge from config, got %+v", cfg.Judge)
	}
	if cfg.TimeoutSecs != 42 {
		t.Fatalf("expected timeout 42, got %d", cfg.TimeoutSecs)
	}
	if len(cfg.Ollama.Models) != 1 || cfg.Ollama.Models[0] != "qwen3:32b" {
		t.Fatalf("expected configured ollama models, got %v", cfg.Ollama.Models)
	}
	if len(cfg.OpenAI.Models) != len(appconfig.DefaultOpenAIModels) {
		t.Fatalf("expected default openai models, got %v", cfg.OpenAI.Models)
	}
	if cfg.Ollama.URL == "" {
		t.Fatal("expected an ollama URL")
	}
}

func TestPersistentPreRunEDefaultsWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	useConfig(t, appconfig.DefaultConfigPath)

	if err := rootCmd.PersistentPreRunE(rootCmd, []string{}); err != nil {
		t.Fatalf("PersistentPreRunE error: %v", err)
	}
	cfg := GetConfig()
	if cfg.ConfigPath != "" {
		t.Fatalf("expected no config file, got %q", cfg.ConfigPath)
	}
	if cfg.Folder != appconfig.DefaultFolder || cfg.Judge.Model != appconfig.DefaultJudgeModel || cfg.Judge.Backend != appconfig.BackendOpenAI {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if !cfg.UseOpenAI || !cfg.UseOllama {
		t.Fatalf("expected openai and ollama enabled by default")
	}
	if cfg.AnthropicMaxTokens() <= 0 {
		t.Fatalf("expected anthropic max tokens default")
	}
}

func TestPersistentPreRunERejectsMissingNamedConfig(t *testing.T) {
	useConfig(t, filepath.Join(t.TempDir(), "typo.json"))

	err := rootCmd.PersistentPreRunE(rootCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "failed to load config") {
		t.Fatalf("expected load error for a missing named config, got %v", err)
	}
	if loadedFile != "" {
		t.Fatalf("expected no config file recorded, got %q", loadedFile)
	}
}

func TestPersistentPreRunERejectsInvalidConfig(t *testing.T) {
	useConfig(t, writeTempConfig(t, `{"timeout": "ten"}`))

	err := rootCmd.PersistentPreRunE(rootCmd, []string{})
	if !errors.Is(err, appconfig.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPersistentPreRunERejectsUnknownJudgeBackend(t *testing.T) {
	useConfig(t, writeTempConfig(t, "{}"))
	_ = rootCmd.PersistentFlags().Set("judge-backend", "llamafile")

	err := rootCmd.PersistentPreRunE(rootCmd, []string{})
	if !errors.Is(err, appconfig.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestShowConfigCommandOutput(t *testing.T) {
	configPath := writeTempConfig(t, `{"openai": {"apiKey": "sk-secret-value"}}`)
	useConfig(t, configPath)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"show", "config"})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Config file: "+configPath) {
		t.Fatalf("expected config file path in output, got %s", out)
	}
	if !strings.Contains(out, "Judge:           openai/o1") {
		t.Fatalf("expected judge in output, got %s", out)
	}
	if strings.Contains(out, "sk-secret-value") {
		t.Fatalf("api key must be redacted, got %s", out)
	}
}

func TestListStylesCommand(t *testing.T) {
	useConfig(t, writeTempConfig(t, "{}"))

	dir := t.TempDir()
	for _, name := range []string{"prompt-plain.md", "prompt-fancy.md", "prompt-plain-output-gpt-4o.md", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"list", "styles", "--folder", dir})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}
	if got := buf.String(); got != "fancy\nplain\n" {
		t.Fatalf("unexpected styles output %q", got)
	}
}

func TestListStylesInvalidFolder(t *testing.T) {
	err := listStyles(new(bytes.Buffer), filepath.Join(t.TempDir(), "missing"))
	if err == nil || !strings.Contains(err.Error(), "does not exist or is not a directory") {
		t.Fatalf("expected invalid folder error, got %v", err)
	}
}

func TestListModelsMarksMissingOllamaModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen3:32b"},{"name":"mistral:latest"}]}`))
	}))
	defer server.Close()

	cfg := appconfig.Default()
	cfg.UseOpenAI = false
	cfg.Ollama.URL = server.URL
	cfg.Ollama.Models = []string{"qwen3:32b", "qwen3:30b", "mistral"}

	var buf bytes.Buffer
	listModels(context.Background(), &buf, &cfg)

	want := "ollama (" + server.URL + "):\n  qwen3:32b\n  qwen3:30b (not installed)\n  mistral\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestListModelsNoBackends(t *testing.T) {
	cfg := appconfig.Config{}
	var buf bytes.Buffer
	listModels(context.Background(), &buf, &cfg)
	if buf.String() != "No backends enabled.\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

// fakeBackends swaps the store and provider factory for in-memory fakes.
func fakeBackends(t *testing.T, store storage.Store, gens map[string]*providertest.Generator) {
	t.Helper()
	prevStore, prevGenerator := newStore, newGenerator
	newStore = func() storage.Store { return store }
	newGenerator = func(ctx context.Context, cfg *appconfig.Config, backend string, agg *metrics.Aggregator) (providers.Generator, error) {
		gen, ok := gens[backend]
		if !ok {
			return nil, errors.New("no fake for " + backend)
		}
		if agg != nil {
			return metrics.NewProvider(gen, backend, agg), nil
		}
		return gen, nil
	}
	t.Cleanup(func() {
		newStore, newGenerator = prevStore, prevGenerator
	})
}

func memoryFolder(t *testing.T, files ...string) *storage.FS {
	t.Helper()
	store := storage.NewMemory()
	if err := store.Fs().MkdirAll("prompts", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range files {
		if err := store.Write(filepath.Join("prompts", name), "body of "+name); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return store
}

func TestRunAssessmentEndToEnd(t *testing.T) {
	store := memoryFolder(t, "prompt-plain.md", "prompt-fancy.md")
	openai := &providertest.Generator{RespondFn: func(model string, req providers.Request) (string, error) {
		if len(req.Documents) > 0 {
			return "judged", nil
		}
		return "answer from " + model, nil
	}}
	fakeBackends(t, store, map[string]*providertest.Generator{appconfig.BackendOpenAI: openai})

	cfg := appconfig.Default()
	cfg.UseOllama = false
	cfg.OpenAI.Models = []string{"gpt-4o"}
	cfg.Metrics = true
	cfg.MetricsFile = "metrics.json"

	var buf bytes.Buffer
	if err := runAssessment(context.Background(), &buf, &cfg); err != nil {
		t.Fatalf("runAssessment: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"prompt-fancy.md",
		"prompt-plain-output-gpt-4o.md",
		"Successfully processed files in prompts",
		"Generating cross-prompt assessments for styles: fancy, plain",
		"Created 1 cross-prompt assessments",
		"Cross-prompt assessments completed",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if got, _ := store.Read("prompts/fancy-vs-plain-assessment-gpt-4o.md"); got != "judged" {
		t.Fatalf("unexpected cross-prompt assessment %q", got)
	}
	if ok, _ := store.FileExists("metrics.json"); !ok {
		t.Fatal("expected metrics file to be written")
	}
}

func TestRunAssessmentTooFewStyles(t *testing.T) {
	store := memoryFolder(t, "prompt-plain.md", "prompt-fancy.md")
	gen := &providertest.Generator{Response: "ok"}
	fakeBackends(t, store, map[string]*providertest.Generator{appconfig.BackendOpenAI: gen, appconfig.BackendOllama: gen})

	cfg := appconfig.Default()
	cfg.OpenAI.Models = []string{"gpt-4o"}
	cfg.Ollama.Models = nil
	cfg.Compare = []string{"plain"}

	err := runAssessment(context.Background(), new(bytes.Buffer), &cfg)
	if !errors.Is(err, assessment.ErrTooFewStyles) {
		t.Fatalf("expected ErrTooFewStyles, got %v", err)
	}
	if msg := userMessage(err); msg != "At least two prompt styles are required for comparison." {
		t.Fatalf("unexpected user message %q", msg)
	}
}

func TestRunAssessmentAssessOnlySkipsBackends(t *testing.T) {
	store := memoryFolder(t, "prompt-a.md", "prompt-b.md", "prompt-a-output-m.md", "prompt-b-output-m.md")
	judge := &providertest.Generator{Response: "verdict"}
	fakeBackends(t, store, map[string]*providertest.Generator{appconfig.BackendOpenAI: judge})

	cfg := appconfig.Default()
	cfg.AssessOnly = true

	if err := runAssessment(context.Background(), new(bytes.Buffer), &cfg); err != nil {
		t.Fatalf("runAssessment: %v", err)
	}
	if len(judge.Calls()) != 1 {
		t.Fatalf("expected only the cross-prompt judge call, got %d", len(judge.Calls()))
	}
}

func TestRootCmdCompareTakesSeveralStyles(t *testing.T) {
	useConfig(t, writeTempConfig(t, "{}"))
	store := memoryFolder(t, "prompt-plain.md", "prompt-fancy.md", "prompt-terse.md")
	openai := &providertest.Generator{RespondFn: func(model string, req providers.Request) (string, error) {
		if len(req.Documents) > 0 {
			return "judged", nil
		}
		return "answer from " + model, nil
	}}
	fakeBackends(t, store, map[string]*providertest.Generator{appconfig.BackendOpenAI: openai})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--ollama=false", "--compare", "plain", "fancy"})
	if _, err := rootCmd.ExecuteC(); err != nil {
		t.Fatalf("ExecuteC error: %v", err)
	}

	if !strings.Contains(buf.String(), "Generating cross-prompt assessments for styles: plain, fancy") {
		t.Fatalf("expected both styles compared:\n%s", buf.String())
	}
	if ok, _ := store.FileExists("prompts/plain-vs-fancy-assessment-gpt-4o.md"); !ok {
		t.Fatal("expected plain-vs-fancy cross-prompt assessment")
	}
	if ok, _ := store.FileExists("prompts/plain-vs-fancy-vs-terse-assessment-gpt-4o.md"); ok {
		t.Fatal("terse must not be compared")
	}
}

func TestRootCmdRejectsStylesWithoutCompare(t *testing.T) {
	useConfig(t, writeTempConfig(t, "{}"))

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"--ollama=false", "plain"})
	_, err := rootCmd.ExecuteC()
	if err == nil || !strings.Contains(err.Error(), `unknown command "plain" for "assessor"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestCompareStyles(t *testing.T) {
	got := compareStyles([]string{"plain,fancy", " terse "})
	want := []string{"plain", "fancy", "terse"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("compareStyles() = %v, want %v", got, want)
	}
}
