// internal/cli/run.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/metrics"
	"github.com/mwiater/assessor/internal/progress"
	"github.com/mwiater/assessor/internal/prompts"
	"github.com/mwiater/assessor/internal/providerfactory"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/runner"
	"github.com/mwiater/assessor/internal/storage"
)

// newStore is replaced in tests.
var newStore = func() storage.Store { return storage.NewOS() }

// newGenerator is replaced in tests.
var newGenerator = func(ctx context.Context, cfg *appconfig.Config, backend string, agg *metrics.Aggregator) (providers.Generator, error) {
	return providerfactory.NewGenerator(ctx, cfg, backend, agg)
}

// runAssessment builds the model sets and judge from cfg and runs the pipeline.
func runAssessment(ctx context.Context, out io.Writer, cfg *appconfig.Config) (err error) {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	store := newStore()

	var agg *metrics.Aggregator
	if cfg.Metrics {
		agg = metrics.NewAggregator(store, cfg.MetricsFilePath())
		defer func() {
			if cerr := agg.Close(); cerr != nil {
				logging.LogEvent("[METRICS] %v", cerr)
				if err == nil {
					err = cerr
				}
			}
		}()
	}

	opts := runner.Options{
		Store:       store,
		Folder:      cfg.Folder,
		JudgeModel:  cfg.Judge.Model,
		Styles:      prompts.ParseStyles(cfg.Prompt),
		Compare:     compareStyles(cfg.Compare),
		SkipOutputs: cfg.AssessOnly,
	}

	if !cfg.AssessOnly {
		for _, name := range cfg.EnabledBackends() {
			settings, _ := cfg.BackendSettings(name)
			gen, err := newGenerator(ctx, cfg, name, agg)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			opts.ModelSets = append(opts.ModelSets, runner.ModelSet{Backend: name, Generator: gen, Models: settings.Models})
		}
	}

	judge, err := newGenerator(ctx, cfg, cfg.Judge.Backend, agg)
	if err != nil {
		return fmt.Errorf("judge: %w", err)
	}
	opts.Judge = judge

	if cfg.TUI {
		return progress.RunTUI(ctx, out, "assessor", func(ctx context.Context, r progress.Reporter) error {
			opts.Reporter = r
			_, err := runner.Run(ctx, opts)
			return err
		})
	}
	opts.Reporter = progress.NewPlain(out)
	_, err = runner.Run(ctx, opts)
	return err
}

// compareStyles accepts repeated --compare flags as well as comma-separated lists.
func compareStyles(values []string) []string {
	var styles []string
	for _, v := range values {
		styles = append(styles, prompts.ParseStyles(v)...)
	}
	return styles
}
