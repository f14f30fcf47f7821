// internal/cli/list.go
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providers/ollama"
)

// listCmd groups the 'list' subcommands.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompt styles or configured models",
}

// listStylesCmd implements 'list styles', which prints the prompt styles found in --folder.
var listStylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the prompt styles in the prompt folder",
	Long:  `The 'styles' subcommand lists the style of every prompt-<style>.md file in --folder, skipping generated outputs and assessments.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listStyles(cmd.OutOrStdout(), GetConfig().Folder)
	},
}

// listModelsCmd implements 'list models', which prints the model set of every
// enabled backend and flags Ollama models that are not installed on the host.
var listModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models of each enabled backend",
	Long:  `The 'models' subcommand lists the configured models of each enabled backend. Ollama models missing from the host are marked as not installed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		listModels(cmd.Context(), cmd.OutOrStdout(), GetConfig())
		return nil
	},
}

func init() {
	listCmd.AddCommand(listStylesCmd)
	listCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(listCmd)
}

func listStyles(out io.Writer, folder string) error {
	store := newStore()
	if err := prompts.EnsureDir(store, folder); err != nil {
		return err
	}
	styles, err := prompts.ListStyles(store, folder)
	if err != nil {
		return err
	}
	if len(styles) == 0 {
		fmt.Fprintf(out, "No prompt styles found in %s\n", folder)
		return nil
	}
	for _, style := range styles {
		fmt.Fprintln(out, style)
	}
	return nil
}

func listModels(ctx context.Context, out io.Writer, cfg *appconfig.Config) {
	backends := cfg.EnabledBackends()
	if len(backends) == 0 {
		fmt.Fprintln(out, "No backends enabled.")
		return
	}

	for _, name := range backends {
		settings, _ := cfg.BackendSettings(name)

		installed := map[string]bool{}
		header := name
		if name == appconfig.BackendOllama {
			provider := ollama.New(cfg)
			header = fmt.Sprintf("%s (%s)", name, provider.BaseURL())
			models, err := provider.ListModels(ctx)
			if err != nil {
				header += fmt.Sprintf(" [unreachable: %v]", err)
				installed = nil
			} else {
				for _, m := range models {
					installed[m] = true
				}
			}
		}

		fmt.Fprintln(out, header+":")
		if len(settings.Models) == 0 {
			fmt.Fprintln(out, "  (no models configured)")
			continue
		}
		for _, model := range settings.Models {
			line := "  " + model
			if name == appconfig.BackendOllama && installed != nil && !installed[model] && !installed[withLatestTag(model)] {
				line += " (not installed)"
			}
			fmt.Fprintln(out, line)
		}
	}
}

// withLatestTag returns model with Ollama's implicit ":latest" tag.
func withLatestTag(model string) string {
	if strings.Contains(model, ":") {
		return model
	}
	return model + ":latest"
}
