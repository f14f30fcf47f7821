// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"strings"
	"time"
)

// Backend names accepted in the configuration and on the command line.
const (
	BackendOpenAI    = "openai"
	BackendOllama    = "ollama"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// DefaultFolder is the folder scanned for prompt files when none is given.
	DefaultFolder = "prompts"
	// DefaultJudgeModel is the model that writes assessments.
	DefaultJudgeModel = "o1"
	// DefaultOllamaURL is where a local Ollama server listens.
	DefaultOllamaURL = "http://localhost:11434"
	// defaultRequestTimeout is the default timeout for a single model call.
	defaultRequestTimeout = 600 * time.Second
	// defaultAnthropicMaxTokens bounds Anthropic responses, which require an explicit limit.
	defaultAnthropicMaxTokens = 8192
)

// BackendOrder is the order in which enabled backends generate outputs.
var BackendOrder = []string{BackendOpenAI, BackendOllama, BackendAnthropic, BackendGemini}

// Default model sets.
var (
	DefaultOpenAIModels = []string{
		"gpt-4o",
		"gpt-4.1",
		"gpt-4.1-mini",
		"gpt-4.1-nano",
		"o3-mini",
		"o4-mini",
	}
	DefaultOllamaModels = []string{
		"qwen3:32b",
		"qwen3:30b",
		"qwen3:30b-a3b-q4_K_M",
		"qwen2.5:32b",
		"qwen2.5-coder:32b",
		"qwen2.5-coder:7b",
		"qwen2.5:72b",
		"llama3.3-70b-32k",
	}
	DefaultAnthropicModels = []string{"claude-sonnet-4-20250514"}
	DefaultGeminiModels    = []string{"gemini-2.5-flash"}
)

// Config represents the top-level application configuration.
type Config struct {
	Folder       string   `json:"folder" mapstructure:"folder"`
	UseOpenAI    bool     `json:"useOpenAI" mapstructure:"useOpenAI"`
	UseOllama    bool     `json:"useOllama" mapstructure:"useOllama"`
	UseAnthropic bool     `json:"useAnthropic" mapstructure:"useAnthropic"`
	UseGemini    bool     `json:"useGemini" mapstructure:"useGemini"`
	OpenAI       Backend  `json:"openai" mapstructure:"openai"`
	Ollama       Backend  `json:"ollama" mapstructure:"ollama"`
	Anthropic    Backend  `json:"anthropic" mapstructure:"anthropic"`
	Gemini       Backend  `json:"gemini" mapstructure:"gemini"`
	Judge        Judge    `json:"judge" mapstructure:"judge"`
	Prompt       string   `json:"prompt,omitempty" mapstructure:"prompt"`
	Compare      []string `json:"compare,omitempty" mapstructure:"compare"`
	AssessOnly   bool     `json:"assessOnly" mapstructure:"assessOnly"`
	TUI          bool     `json:"tui" mapstructure:"tui"`
	Debug        bool     `json:"debug" mapstructure:"debug"`
	TimeoutSecs  int      `json:"timeout,omitempty" mapstructure:"timeout"`
	LogFile      string   `json:"logFile,omitempty" mapstructure:"logFile"`
	Metrics      bool     `json:"metrics" mapstructure:"metrics"`
	MetricsFile  string   `json:"metricsFile,omitempty" mapstructure:"metricsFile"`
	ConfigPath   string   `json:"-" mapstructure:"-"`
}

// Backend holds the connection settings and model set of one model backend.
type Backend struct {
	URL       string   `json:"url,omitempty" mapstructure:"url"`
	APIKey    string   `json:"apiKey,omitempty" mapstructure:"apiKey"`
	Models    []string `json:"models" mapstructure:"models"`
	MaxTokens int      `json:"maxTokens,omitempty" mapstructure:"maxTokens"`
}

// Judge selects the model that writes assessments.
type Judge struct {
	Backend string `json:"backend" mapstructure:"backend"`
	Model   string `json:"model" mapstructure:"model"`
}

// Default returns the configuration used when no file, flag or environment
// variable overrides a value.
func Default() Config {
	return Config{
		Folder:      DefaultFolder,
		UseOpenAI:   true,
		UseOllama:   true,
		OpenAI:      Backend{Models: append([]string(nil), DefaultOpenAIModels...)},
		Ollama:      Backend{URL: DefaultOllamaURL, Models: append([]string(nil), DefaultOllamaModels...)},
		Anthropic:   Backend{Models: append([]string(nil), DefaultAnthropicModels...), MaxTokens: defaultAnthropicMaxTokens},
		Gemini:      Backend{Models: append([]string(nil), DefaultGeminiModels...)},
		Judge:       Judge{Backend: BackendOpenAI, Model: DefaultJudgeModel},
		TimeoutSecs: int(defaultRequestTimeout.Seconds()),
	}
}

// RequestTimeout returns the timeout for a single model call, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "assessor.log"
}

// MetricsFilePath returns where per-model call statistics are written.
func (c Config) MetricsFilePath() string {
	if path := c.MetricsFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "assessor-metrics.json"
}

// AnthropicMaxTokens returns the response token limit for Anthropic calls.
func (c Config) AnthropicMaxTokens() int64 {
	if c.Anthropic.MaxTokens <= 0 {
		return defaultAnthropicMaxTokens
	}
	return int64(c.Anthropic.MaxTokens)
}

// BackendSettings returns the settings block for the named backend.
func (c Config) BackendSettings(name string) (Backend, bool) {
	switch name {
	case BackendOpenAI:
		return c.OpenAI, true
	case BackendOllama:
		return c.Ollama, true
	case BackendAnthropic:
		return c.Anthropic, true
	case BackendGemini:
		return c.Gemini, true
	default:
		return Backend{}, false
	}
}

// Enabled reports whether the named backend takes part in output generation.
func (c Config) Enabled(name string) bool {
	switch name {
	case BackendOpenAI:
		return c.UseOpenAI
	case BackendOllama:
		return c.UseOllama
	case BackendAnthropic:
		return c.UseAnthropic
	case BackendGemini:
		return c.UseGemini
	default:
		return false
	}
}

// EnabledBackends lists the enabled backends in BackendOrder.
func (c Config) EnabledBackends() []string {
	var names []string
	for _, name := range BackendOrder {
		if c.Enabled(name) {
			names = append(names, name)
		}
	}
	return names
}

// Redacted returns a copy of the configuration with API keys masked.
func (c Config) Redacted() Config {
	out := c
	out.OpenAI.APIKey = redact(c.OpenAI.APIKey)
	out.Ollama.APIKey = redact(c.Ollama.APIKey)
	out.Anthropic.APIKey = redact(c.Anthropic.APIKey)
	out.Gemini.APIKey = redact(c.Gemini.APIKey)
	return out
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
