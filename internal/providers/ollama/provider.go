// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/assessor/internal/appconfig"
	"github.com/mwiater/assessor/internal/logging"
	"github.com/mwiater/assessor/internal/providers"
)

const backendName = appconfig.BackendOllama

// Provider implements providers.Generator using the Ollama HTTP API.
type Provider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Ollama.URL), "/")
	if baseURL == "" {
		baseURL = appconfig.DefaultOllamaURL
	}
	// OLLAMA_HOST is commonly set as host:port.
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: baseURL,
		timeout: timeout,
	}
}

// BaseURL returns the Ollama host the provider talks to.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the non-streaming body returned by /api/chat.
type chatResponse struct {
	Model         string      `json:"model"`
	Message       chatMessage `json:"message"`
	Done          bool        `json:"done"`
	TotalDuration int64       `json:"total_duration"`
	EvalCount     int         `json:"eval_count"`
	Error         string      `json:"error,omitempty"`
}

// tagsResponse defines the structure of the response from the /api/tags endpoint.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate issues a single non-streaming chat request and returns the assistant message.
func (p *Provider) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	payload := chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: providers.Render(req)}},
		Stream:   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	logging.LogRequest("ASSESSOR->LLM", backendName, model, body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: %s: %w", model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	logging.LogRequest("LLM->ASSESSOR", backendName, model, respBody)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama: decode /api/chat response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama: %s: %s", model, result.Error)
	}
	return result.Message.Content, nil
}

// ListModels returns the models installed on the Ollama server.
func (p *Provider) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := p.baseURL + "/api/tags"
	logging.LogRequest("ASSESSOR->LLM", backendName, "", map[string]string{"method": http.MethodGet, "url": endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: /api/tags returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("LLM->ASSESSOR", backendName, "", body)

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, err
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}
