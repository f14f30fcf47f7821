// Package anthropic provides a Generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/providers"
)

const backendName = appconfig.BackendAnthropic

// Provider implements providers.Generator with the official Anthropic SDK.
type Provider struct {
	client    anthropicsdk.Client
	maxTokens int64
}

// New builds a client from the Anthropic section of the configuration.
func New(cfg *appconfig.Config) *Provider {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.RequestTimeout()),
	}
	if key := strings.TrimSpace(cfg.Anthropic.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if url := strings.TrimSpace(cfg.Anthropic.URL); url != "" {
		opts = append(opts, option.WithBaseURL(url))
	}
	return &Provider{
		client:    anthropicsdk.NewClient(opts...),
		maxTokens: cfg.AnthropicMaxTokens(),
	}
}

// Generate sends the rendered request as one user turn and concatenates the
// text blocks of the reply.
func (p *Provider) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	prompt := providers.Render(req)
	logging.LogRequest("ASSESSOR->LLM", backendName, model, prompt)

	msg, err := p.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: p.maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: %s: %w", model, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	content := b.String()
	logging.LogRequest("LLM->ASSESSOR", backendName, model, content)
	return content, nil
}
