// internal/providerfactory/factory.go
package providerfactory

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/metrics"
	"github.com/mwiater/assessor/internal/providers"
	"github.com/mwiater/assessor/internal/providers/anthropic"
	"github.com/mwiater/assessor/internal/providers/gemini"
	"github.com/mwiater/assessor/internal/providers/ollama"
	"github.com/mwiater/assessor/internal/providers/openai"
)

// ErrUnknownBackend is returned for a backend name no provider implements.
var ErrUnknownBackend = errors.New("unknown backend")

// NewGenerator builds the provider for backend from the application
// configuration. When aggregator is non-nil the provider is wrapped with
// metrics collection.
func NewGenerator(ctx context.Context, cfg *appconfig.Config, backend string, aggregator *metrics.Aggregator) (providers.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var provider providers.Generator
	switch backend {
	case appconfig.BackendOpenAI:
		provider = openai.New(cfg)
	case appconfig.BackendOllama:
		provider = ollama.New(cfg)
	case appconfig.BackendAnthropic:
		provider = anthropic.New(cfg)
	case appconfig.BackendGemini:
		p, err := gemini.New(ctx, cfg)
		if err != nil {
			logging.LogEvent("Gemini provider unavailable: %v", err)
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	logging.LogEvent("%s provider ready", backend)

	if aggregator != nil {
		provider = metrics.NewProvider(provider, backend, aggregator)
	}
	return provider, nil
}
