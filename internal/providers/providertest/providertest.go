// Package providertest provides a scripted providers.Generator for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/mwiater/assessor/internal/providers"
)

// Compile-time interface verification.
var _ providers.Generator = (*Generator)(nil)

// Call records one Generate invocation.
type Call struct {
	Model   string
	Request providers.Request
}

// Generator records every call and answers with RespondFn, or with Response
// when RespondFn is nil.
type Generator struct {
	RespondFn func(model string, req providers.Request) (string, error)
	Response  string

	mu    sync.Mutex
	calls []Call
}

func (g *Generator) Generate(ctx context.Context, model string, req providers.Request) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, Call{Model: model, Request: req})
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.RespondFn != nil {
		return g.RespondFn(model, req)
	}
	return g.Response, nil
}

// Calls returns a copy of the recorded calls in order.
func (g *Generator) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}
