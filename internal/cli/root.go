// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/assessment"
	"github.com/mwiater/assessor/internal/logging"
)

var (
	cfgFile       string
	loadedFile    string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// flagKeys maps each persistent flag to the configuration key it overrides.
var flagKeys = map[string]string{
	"folder":        "folder",
	"openai":        "useOpenAI",
	"ollama":        "useOllama",
	"anthropic":     "useAnthropic",
	"gemini":        "useGemini",
	"prompt":        "prompt",
	"compare":       "compare",
	"judge-backend": "judge.backend",
	"judge-model":   "judge.model",
	"assess-only":   "assessOnly",
	"tui":           "tui",
	"debug":         "debug",
	"logFile":       "logFile",
	"timeout":       "timeout",
	"metrics":       "metrics",
	"metricsFile":   "metricsFile",
}

var (
	boolFlags   = []string{"openai", "ollama", "anthropic", "gemini", "assess-only", "tui", "debug", "metrics"}
	stringFlags = []string{"folder", "prompt", "judge-backend", "judge-model", "logFile", "metricsFile"}
)

// envKeys binds API credentials and the Ollama host from the environment.
var envKeys = map[string]string{
	"openai.apiKey":    "OPENAI_API_KEY",
	"anthropic.apiKey": "ANTHROPIC_API_KEY",
	"gemini.apiKey":    "GEMINI_API_KEY",
	"ollama.url":       "OLLAMA_HOST",
}

// rootCmd runs the assessment when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assessor",
	Short: "Compare how prompt styles fare across LLMs",
	Long: `assessor sends every prompt-<style>.md file in a folder to the configured
OpenAI, Ollama, Anthropic and Gemini models, writes each answer next to the
prompt, has a judge model assess the answers per prompt, and finally compares
how each model responded to the different prompt styles.`,
	Args:          compareArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		for _, name := range boolFlags {
			if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(flagKeys[name])))
			}
		}
		for _, name := range stringFlags {
			if f := cmd.Flags().Lookup(name); f != nil && !f.Changed {
				_ = cmd.Flags().Set(name, viper.GetString(flagKeys[name]))
			}
		}
		if f := cmd.Flags().Lookup("timeout"); f != nil && !f.Changed {
			_ = cmd.Flags().Set("timeout", strconv.Itoa(viper.GetInt("timeout")))
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = loadedFile
		if _, ok := cfg.BackendSettings(cfg.Judge.Backend); !ok {
			return fmt.Errorf("%w: unknown judge backend %q", appconfig.ErrInvalidConfig, cfg.Judge.Backend)
		}
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath(), currentConfig.Debug); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.LogEvent("assessor %s starting (config: %q)", appVersion, loadedFile)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg != nil && len(args) > 0 {
			merged := *cfg
			merged.Compare = append(append([]string(nil), cfg.Compare...), args...)
			cfg = &merged
		}
		return runAssessment(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

// compareArgs accepts positional arguments only as further styles after
// --compare, so that "--compare plain fancy" compares both styles.
func compareArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || cmd.Flags().Changed("compare") {
		return nil
	}
	return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}

// Execute adds all child commands to the root command and runs it. Errors are
// printed in red and the process exits with status 1.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()

	if err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		_, _ = errorColor.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
		os.Exit(1)
	}
}

// userMessage renders err for the terminal.
func userMessage(err error) string {
	if errors.Is(err, assessment.ErrTooFewStyles) {
		return "At least two prompt styles are required for comparison."
	}
	return err.Error()
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := appconfig.Default()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	flags.String("folder", defaults.Folder, "folder containing prompt-<style>.md files")
	flags.Bool("openai", defaults.UseOpenAI, "include the OpenAI model set")
	flags.Bool("ollama", defaults.UseOllama, "include the Ollama model set")
	flags.Bool("anthropic", defaults.UseAnthropic, "include the Anthropic model set")
	flags.Bool("gemini", defaults.UseGemini, "include the Gemini model set")
	flags.String("prompt", "", "comma-separated prompt styles to process (e.g., plain,fancy)")
	flags.StringSlice("compare", nil, "prompt styles to cross-compare, e.g. --compare plain fancy (defaults to --prompt, then all styles)")
	flags.String("judge-backend", defaults.Judge.Backend, "backend of the judge model (openai, ollama, anthropic, gemini)")
	flags.String("judge-model", defaults.Judge.Model, "model that writes assessments")
	flags.Bool("assess-only", false, "skip output generation and only run cross-prompt assessments")
	flags.Bool("tui", false, "show an interactive progress view")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("logFile", "", "path to the log file")
	flags.Int("timeout", defaults.TimeoutSecs, "seconds allowed for a single model call")
	flags.Bool("metrics", false, "record per-model call statistics")
	flags.String("metricsFile", "", "path to the metrics JSON file")

	for name, key := range flagKeys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
	for key, env := range envKeys {
		_ = viper.BindEnv(key, env)
	}
}

// initConfig points viper at the config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads and validates the config file. A missing default
// config file is not an error: defaults, flags and the environment still
// apply. A missing file named with --config is.
func ensureConfigLoaded() error {
	setDefaults(appconfig.Default())
	loadedFile = ""

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) && cfgFile == appconfig.DefaultConfigPath {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	loadedFile = viper.ConfigFileUsed()
	if err := appconfig.ValidateFile(loadedFile); err != nil {
		return err
	}
	return nil
}

// setDefaults registers the values not covered by a flag default.
func setDefaults(d appconfig.Config) {
	for _, name := range appconfig.BackendOrder {
		settings, _ := d.BackendSettings(name)
		viper.SetDefault(name+".models", settings.Models)
		if settings.URL != "" {
			viper.SetDefault(name+".url", settings.URL)
		}
		if settings.MaxTokens != 0 {
			viper.SetDefault(name+".maxTokens", settings.MaxTokens)
		}
	}
	viper.SetDefault("timeout", d.TimeoutSecs)
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
