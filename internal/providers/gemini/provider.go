// Package gemini provides a Generator backed by the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/providers"
)

const backendName = appconfig.BackendGemini

// Provider implements providers.Generator with the genai SDK.
type Provider struct {
	client *genai.Client
}

// New creates a Gemini API client. The API key falls back to the SDK's
// environment lookup when the configuration leaves it empty.
func New(ctx context.Context, cfg *appconfig.Config) (*Provider, error) {
	timeout := cfg.RequestTimeout()
	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.Gemini.APIKey),
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			Timeout: &timeout,
		},
	}
	if url := strings.TrimSpace(cfg.Gemini.URL); url != "" {
		clientCfg.HTTPOptions.BaseURL = url
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Provider{client: client}, nil
}

// Generate sends the rendered request as a single user content.
func (p *Provider) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	prompt := providers.Render(req)
	logging.LogRequest("ASSESSOR->LLM", backendName, model, prompt)

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	result, err := p.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %s: %w", model, err)
	}

	content := result.Text()
	logging.LogRequest("LLM->ASSESSOR", backendName, model, content)
	return content, nil
}
