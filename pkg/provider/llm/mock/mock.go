// Package mock provides a scriptable llm.Provider for tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/netscout/pkg/provider/llm"
	"github.com/MrWong99/netscout/pkg/types"
)

// Provider is a scriptable llm.Provider. Responses are returned in order;
// when the script runs out the last response repeats. All methods are safe
// for concurrent use.
type Provider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []llm.CompletionRequest
}

// Compile-time check: Provider must implement llm.Provider.
var _ llm.Provider = (*Provider)(nil)

// New creates a mock that replies with the given responses in order.
func New(responses ...string) *Provider {
	return &Provider{responses: responses}
}

// FailWith makes every call return err instead of a response.
func (p *Provider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns the requests seen so far.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}

// next pops the scripted response for one call.
func (p *Provider) next(req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) == 0 {
		return "", fmt.Errorf("mock: no scripted responses")
	}
	resp := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return resp, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := p.next(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: content}, nil
}

// StreamCompletion implements llm.Provider, emitting the scripted response
// as a single chunk.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	content, err := p.next(req)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.Chunk, 2)
	ch <- llm.Chunk{Text: content}
	ch <- llm.Chunk{FinishReason: "stop"}
	close(ch)
	return ch, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() types.ModelCapabilities {
	return types.ModelCapabilities{SupportsStreaming: true, MaxContextTokens: 8192, MaxOutputTokens: 1024}
}
