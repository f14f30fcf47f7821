// internal/cli/show.go
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/assessor/internal/appconfig"
)

// showCmd groups the 'show' subcommands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show details about the current setup",
}

// showConfigCmd implements the 'show config' command, which displays the merged configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON config is loaded properly and overridden by flags and environment variables accordingly. API keys are redacted.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		appconfig.ShowConfig(cmd.OutOrStdout(), loadedFile, *GetConfig())
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(showCmd)
}
