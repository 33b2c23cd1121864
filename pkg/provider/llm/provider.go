// Package llm defines the Provider interface for the chat backends driving
// the conversational path.
//
// A provider wraps a remote or local model API (a local Ollama instance by
// default, or a hosted endpoint) behind a uniform completion interface so
// the orchestrator never couples to a specific SDK.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import (
	"context"

	"github.com/MrWong99/netscout/pkg/types"
)

// Usage holds token accounting returned by the backend.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input.
	PromptTokens int

	// CompletionTokens is the number of tokens generated.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// CompletionRequest carries everything the model needs to respond. Messages
// must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history.
	Messages []types.Message

	// SystemPrompt is a high-priority instruction injected before the
	// history. Providers without native system-prompt support prepend it as
	// a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0].
	Temperature float64

	// MaxTokens caps completion length; zero means the provider default.
	MaxTokens int
}

// CompletionResponse is the full model reply.
type CompletionResponse struct {
	// Content is the assistant's text.
	Content string

	// Usage contains token accounting for the round trip.
	Usage Usage
}

// Chunk is one fragment of a streaming completion.
type Chunk struct {
	// Text is the incremental content. May be empty on the final chunk.
	Text string

	// FinishReason is set on the final chunk: "stop", "length", or "error".
	FinishReason string
}

// Provider is the abstraction over any chat backend.
type Provider interface {
	// Complete sends req and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// StreamCompletion sends req and returns a channel of chunks. The
	// implementation closes the channel when generation ends or ctx is
	// cancelled; callers must drain it. The channel is never nil when the
	// error is nil.
	StreamCompletion(ctx context.Context, req CompletionRequest) (<-chan Chunk, error)

	// Capabilities returns static metadata about the underlying model.
	Capabilities() types.ModelCapabilities
}
