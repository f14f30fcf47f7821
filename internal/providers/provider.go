// internal/providers/provider.go

// Package providers defines the model-invocation capability shared by every
// backend. A backend turns a Request into a single completion for a named
// model; which service answers is decided by which Generator is passed in.
package providers

import (
	"context"
	"strings"
)

// Document is a named piece of context attached to a request, such as a
// prompt file or a model output being assessed.
type Document struct {
	Name    string
	Content string
}

// Request is the input for one model call: an instruction plus any number of
// attached documents.
type Request struct {
	Prompt    string
	Documents []Document
}

// Generator is the interface that all model backends implement.
type Generator interface {
	// Generate sends the request to model and returns the raw response text.
	Generate(ctx context.Context, model string, req Request) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, model string, req Request) (string, error)

// Generate calls f(ctx, model, req).
func (f GeneratorFunc) Generate(ctx context.Context, model string, req Request) (string, error) {
	return f(ctx, model, req)
}

// Render flattens a request into the single user message sent to a backend.
// Each document follows the instruction as a fenced block headed by its name.
func Render(req Request) string {
	if len(req.Documents) == 0 {
		return req.Prompt
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	for _, doc := range req.Documents {
		b.WriteString("\n\nFile: ")
		b.WriteString(doc.Name)
		b.WriteString("\n```\n")
		b.WriteString(doc.Content)
		if !strings.HasSuffix(doc.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```")
	}
	return b.String()
}
