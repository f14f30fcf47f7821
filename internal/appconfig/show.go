package appconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/k0kubun/pp"
)

// ShowConfig prints the current configuration summary. In debug mode the full
// structure is dumped as well. API keys are never printed.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	cfg = cfg.Redacted()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Folder:          %s\n", cfg.Folder)
	fmt.Fprintf(out, "  Backends:        %s\n", strings.Join(cfg.EnabledBackends(), ", "))
	for _, name := range BackendOrder {
		settings, _ := cfg.BackendSettings(name)
		fmt.Fprintf(out, "  %-16s %s\n", name+":", strings.Join(settings.Models, ", "))
	}
	fmt.Fprintf(out, "  Judge:           %s/%s\n", cfg.Judge.Backend, cfg.Judge.Model)
	if cfg.Prompt != "" {
		fmt.Fprintf(out, "  Prompt filter:   %s\n", cfg.Prompt)
	}
	if len(cfg.Compare) > 0 {
		fmt.Fprintf(out, "  Compare:         %s\n", strings.Join(cfg.Compare, ", "))
	}
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Metrics:         %v\n", cfg.Metrics)
	if cfg.Metrics {
		fmt.Fprintf(out, "  Metrics File:    %s\n", cfg.MetricsFilePath())
	}

	if cfg.Debug {
		fmt.Fprintln(out)
		pp.Fprintln(out, cfg)
	}
}
