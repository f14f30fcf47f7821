// Package openai provides a Generator backed by the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/providers"
)

const backendName = appconfig.BackendOpenAI

// Provider implements providers.Generator with the official OpenAI SDK.
type Provider struct {
	client openaisdk.Client
}

// New builds a client from the OpenAI section of the configuration. The SDK's
// own retries are disabled: a failed call aborts the run.
func New(cfg *appconfig.Config) *Provider {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.RequestTimeout()),
	}
	if key := strings.TrimSpace(cfg.OpenAI.APIKey); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if url := strings.TrimSpace(cfg.OpenAI.URL); url != "" {
		opts = append(opts, option.WithBaseURL(url))
	}
	return &Provider{client: openaisdk.NewClient(opts...)}
}

// Generate sends the rendered request as a single user message.
func (p *Provider) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	prompt := providers.Render(req)
	logging.LogRequest("ASSESSOR->LLM", backendName, model, prompt)

	completion, err := p.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %s: %w", model, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: %s: no completion returned", model)
	}

	content := completion.Choices[0].Message.Content
	logging.LogRequest("LLM->ASSESSOR", backendName, model, content)
	return content, nil
}
