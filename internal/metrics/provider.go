// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/providers"
)

// Provider is a decorator that wraps a Generator to record call metrics.
type Provider struct {
	wrapped    providers.Generator
	backend    string
	aggregator *Aggregator
}

// NewProvider wraps a Generator for backend so that every call is recorded in aggregator.
func NewProvider(wrapped providers.Generator, backend string, aggregator *Aggregator) *Provider {
	logging.LogEvent("[METRICS] Wrapping %s provider with metrics provider", backend)
	return &Provider{wrapped: wrapped, backend: backend, aggregator: aggregator}
}

// Generate times the wrapped call and records its sizes and outcome.
func (p *Provider) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	start := time.Now()
	out, err := p.wrapped.Generate(ctx, model, req)
	if p.aggregator != nil {
		p.aggregator.Record(Sample{
			Backend:       p.backend,
			Model:         model,
			PromptChars:   utf8.RuneCountInString(providers.Render(req)),
			ResponseChars: utf8.RuneCountInString(out),
			Duration:      time.Since(start),
			Err:           err,
		})
	}
	return out, err
}
