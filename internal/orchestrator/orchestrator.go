package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/observe"
	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/resilience"
	"github.com/MrWong99/netscout/internal/tools"
	"github.com/MrWong99/netscout/pkg/provider/llm"
	"github.com/MrWong99/netscout/pkg/types"
)

// systemPromptHeader is the fixed role instruction ahead of the tool catalog.
const systemPromptHeader = `You are a network diagnostics and pentesting assistant running on the user's machine.

You can run local diagnostic tools. For ANY question about network state, connectivity, addresses, DNS, ports, certificates or scanning you MUST call a tool — never fabricate tool output or answer from memory.

To call a tool, reply with exactly:
TOOL: tool_name
ARGS: {"arg_name": "value"}

Use ARGS: {} when no arguments are needed. Call at most one tool per reply and wait for its result before answering the user.`

// ToolUse records one tool execution performed during a turn.
type ToolUse struct {
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args"`
	Success bool           `json:"success"`
}

// Response is the outcome of one orchestrated turn.
type Response struct {
	// Content is the user-facing answer.
	Content string

	// Thinking is the model's extracted reasoning block, if any.
	Thinking string

	// ToolsUsed lists the tools executed during the turn.
	ToolsUsed []ToolUse

	// History is the updated conversation history after the turn.
	History []types.Message
}

// Config tunes an [Orchestrator].
type Config struct {
	// Provider is the chat backend. Required.
	Provider llm.Provider

	// Registry executes tool calls. Required.
	Registry *registry.Registry

	// NetworkKeywords overrides the protocol-violation keyword list.
	NetworkKeywords []string

	// TurnTimeout bounds a whole turn including both inferences and the
	// tool execution. Default: 60s.
	TurnTimeout time.Duration

	// Metrics records inference latency; nil disables recording.
	Metrics *observe.Metrics
}

// Orchestrator drives the single-shot tool-call protocol against the chat
// backend. All exported methods are safe for concurrent use; per-session
// turn serialization is the session manager's job.
type Orchestrator struct {
	provider llm.Provider
	registry *registry.Registry
	keywords []string
	timeout  time.Duration
	metrics  *observe.Metrics

	// breaker fails LLM calls fast while the backend is down instead of
	// eating the turn timeout on every message.
	breaker *resilience.CircuitBreaker
}

// New creates an Orchestrator from cfg.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("orchestrator: provider is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator: registry is required")
	}
	keywords := cfg.NetworkKeywords
	if keywords == nil {
		keywords = DefaultNetworkKeywords
	}
	timeout := cfg.TurnTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		provider: cfg.Provider,
		registry: cfg.Registry,
		keywords: keywords,
		timeout:  timeout,
		metrics:  cfg.Metrics,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name: "llm-backend",
		}),
	}, nil
}

// systemPrompt renders the role header plus the conversational tool catalog
// (name, signature, first-line description).
func (o *Orchestrator) systemPrompt() string {
	catalog := o.registry.List(registry.ListFilter{Mode: tools.ModeConversational})

	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\nAvailable tools:\n")
	for _, t := range catalog {
		b.WriteString("- ")
		b.WriteString(t.Metadata.Name)
		b.WriteString("(")
		b.WriteString(signature(t.Metadata))
		b.WriteString(") — ")
		desc, _, _ := strings.Cut(t.Metadata.Description, "\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}

// signature renders a compact parameter signature, required parameters
// first.
func signature(md tools.Metadata) string {
	names := make([]string, 0, len(md.Parameters))
	for name := range md.Parameters {
		if name == "silent" {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri := md.Parameters[names[i]].Required
		rj := md.Parameters[names[j]].Required
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		if !md.Parameters[name].Required {
			names[i] = name + "?"
		}
	}
	return strings.Join(names, ", ")
}

// ProcessTurn runs one full turn: inference, optional tool execution, and
// the follow-up inference producing the user-facing answer. The returned
// history is the caller's history plus the turn's new messages (the user
// turn is appended here). On turn timeout a stub response is returned.
func (o *Orchestrator) ProcessTurn(ctx context.Context, history []types.Message, userMessage string) (*Response, error) {
	turnCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	history = append(history, types.Message{Role: "user", Content: userMessage})

	reply, err := o.complete(turnCtx, history)
	if err != nil {
		if turnCtx.Err() == context.DeadlineExceeded {
			return o.timeoutStub(history), nil
		}
		return nil, fmt.Errorf("orchestrator: initial inference: %w", err)
	}

	thinking, visible := ExtractThinking(reply)

	toolName, args, hasCall := ParseToolCall(visible)
	if !hasCall {
		// No tool call. A network question answered without a tool is a
		// protocol violation: drop the reply, inject a corrective note, and
		// end the turn.
		if isNetworkQuestion(userMessage, o.keywords) {
			slog.Warn("orchestrator: model answered a network question without a tool call")
			history = append(history, types.Message{
				Role:    "system",
				Content: "Protocol violation: network questions must be answered by calling a tool. Reply again using the TOOL:/ARGS: format.",
			})
			return &Response{
				Content:  "I need to run a diagnostic tool to answer that — please ask again.",
				Thinking: thinking,
				History:  history,
			}, nil
		}

		history = append(history, types.Message{Role: "assistant", Content: visible})
		return &Response{Content: visible, Thinking: thinking, History: history}, nil
	}

	// Execute the tool and feed the result back for the final answer.
	result := o.registry.ExecuteTool(turnCtx, toolName, args, tools.ModeConversational)
	used := ToolUse{Tool: toolName, Args: args, Success: result.Success}

	history = append(history, types.Message{Role: "assistant", Content: reply})
	history = append(history, types.Message{
		Role:    "system",
		Content: "Tool result: " + renderResult(result.ToolName, result.Success, result.Stdout, result.ErrorMessage, result.ParsedData),
	})

	answer, err := o.streamFollowup(turnCtx, history)
	if err != nil {
		if turnCtx.Err() == context.DeadlineExceeded {
			resp := o.timeoutStub(history)
			resp.ToolsUsed = []ToolUse{used}
			return resp, nil
		}
		return nil, fmt.Errorf("orchestrator: follow-up inference: %w", err)
	}

	followThinking, followVisible := ExtractThinking(answer)
	if thinking == "" {
		thinking = followThinking
	}
	history = append(history, types.Message{Role: "assistant", Content: followVisible})

	return &Response{
		Content:   followVisible,
		Thinking:  thinking,
		ToolsUsed: []ToolUse{used},
		History:   history,
	}, nil
}

// complete runs one non-streaming inference through the circuit breaker.
func (o *Orchestrator) complete(ctx context.Context, history []types.Message) (string, error) {
	var content string
	start := time.Now()
	err := o.breaker.Execute(func() error {
		resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: o.systemPrompt(),
			Messages:     history,
		})
		if err != nil {
			return err
		}
		content = resp.Content
		return nil
	})
	o.metrics.RecordLLMDuration(ctx, "initial", time.Since(start))
	return content, err
}

// streamFollowup streams the follow-up inference, accumulating the full
// answer. Streaming keeps the session loop responsive on slow local models.
func (o *Orchestrator) streamFollowup(ctx context.Context, history []types.Message) (string, error) {
	var b strings.Builder
	start := time.Now()
	err := o.breaker.Execute(func() error {
		chunks, err := o.provider.StreamCompletion(ctx, llm.CompletionRequest{
			SystemPrompt: o.systemPrompt(),
			Messages:     history,
		})
		if err != nil {
			return err
		}
		for chunk := range chunks {
			if chunk.FinishReason == "error" {
				return fmt.Errorf("stream error: %s", chunk.Text)
			}
			b.WriteString(chunk.Text)
		}
		return nil
	})
	o.metrics.RecordLLMDuration(ctx, "followup", time.Since(start))
	return b.String(), err
}

// renderResult renders a tool envelope for injection into the conversation.
func renderResult(tool string, success bool, stdout, errMessage string, parsed map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ", tool)
	if success {
		b.WriteString("succeeded.")
	} else {
		fmt.Fprintf(&b, "failed: %s.", errMessage)
	}
	if stdout != "" {
		fmt.Fprintf(&b, "\nOutput:\n%s", truncate(stdout, 2000))
	} else if len(parsed) > 0 {
		fmt.Fprintf(&b, "\nData: %v", parsed)
	}
	return b.String()
}

// timeoutStub is the bounded-turn fallback response.
func (o *Orchestrator) timeoutStub(history []types.Message) *Response {
	return &Response{
		Content:  "Request timed out. Please try again with a simpler query.",
		Thinking: "Turn exceeded the configured timeout",
		History:  history,
	}
}

// truncate bounds s to n bytes with an ellipsis marker.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
