package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/tools"
	"github.com/MrWong99/netscout/pkg/provider/llm/mock"
)

// testRegistry builds a registry with a stub get_external_ip tool.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	err := r.Register(tools.Tool{
		Metadata: tools.Metadata{
			Name:        "get_external_ip",
			Description: "Get the external IP address",
			Category:    tools.CategoryNetworkDiagnostics,
		},
		Handler: func(_ context.Context, args map[string]any) *envelope.Result {
			return envelope.NewSuccess(envelope.SuccessParams{
				Tool:    "get_external_ip",
				Stdout:  "203.0.113.5",
				Elapsed: time.Millisecond,
				Parsed:  map[string]any{"external_ip": "203.0.113.5"},
			})
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

// TestTurnWithToolCall drives a full turn: tool-call reply, execution, and
// the follow-up answer.
func TestTurnWithToolCall(t *testing.T) {
	t.Parallel()
	provider := mock.New(
		"TOOL: get_external_ip\nARGS: {}",
		"Your external IP address is 203.0.113.5.",
	)
	o, err := New(Config{Provider: provider, Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := o.ProcessTurn(context.Background(), nil, "what is my external ip?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if len(resp.ToolsUsed) != 1 || resp.ToolsUsed[0].Tool != "get_external_ip" {
		t.Fatalf("tools used = %+v", resp.ToolsUsed)
	}
	if !resp.ToolsUsed[0].Success {
		t.Error("tool marked failed")
	}
	if !strings.Contains(resp.Content, "203.0.113.5") {
		t.Errorf("answer %q lacks the tool result", resp.Content)
	}

	// History: user, assistant (tool call), system (tool result),
	// assistant (answer).
	if len(resp.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(resp.History))
	}
	if resp.History[2].Role != "system" || !strings.Contains(resp.History[2].Content, "Tool result:") {
		t.Errorf("tool-result turn = %+v", resp.History[2])
	}
}

// TestProtocolViolation verifies that a tool-free answer to a network
// question is dropped and a corrective note injected.
func TestProtocolViolation(t *testing.T) {
	t.Parallel()
	provider := mock.New("Your IP is probably 192.168.1.7.")
	o, err := New(Config{Provider: provider, Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := o.ProcessTurn(context.Background(), nil, "what is my external ip?")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if len(resp.ToolsUsed) != 0 {
		t.Errorf("tools used = %+v, want none", resp.ToolsUsed)
	}
	// The fabricated reply must not be recorded as an assistant turn.
	for _, m := range resp.History {
		if m.Role == "assistant" {
			t.Errorf("fabricated assistant reply recorded: %q", m.Content)
		}
	}
	last := resp.History[len(resp.History)-1]
	if last.Role != "system" || !strings.Contains(last.Content, "Protocol violation") {
		t.Errorf("corrective note missing, last turn = %+v", last)
	}
}

// TestNonNetworkChat verifies plain conversation passes through untouched.
func TestNonNetworkChat(t *testing.T) {
	t.Parallel()
	provider := mock.New("Hello! How can I help?")
	o, err := New(Config{Provider: provider, Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := o.ProcessTurn(context.Background(), nil, "hi there")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.Content != "Hello! How can I help?" {
		t.Errorf("content = %q", resp.Content)
	}
	if len(resp.History) != 2 {
		t.Errorf("history length = %d, want user + assistant", len(resp.History))
	}
}

// TestThinkingExtraction verifies the reasoning block is separated from the
// visible reply.
func TestThinkingExtraction(t *testing.T) {
	t.Parallel()
	provider := mock.New("<think>user greets me</think>Hello!")
	o, err := New(Config{Provider: provider, Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := o.ProcessTurn(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	if resp.Thinking != "user greets me" {
		t.Errorf("thinking = %q", resp.Thinking)
	}
	if resp.Content != "Hello!" {
		t.Errorf("content = %q", resp.Content)
	}
}

// TestSystemPromptListsTools verifies the catalog makes it into the prompt.
func TestSystemPromptListsTools(t *testing.T) {
	t.Parallel()
	o, err := New(Config{Provider: mock.New("x"), Registry: testRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prompt := o.systemPrompt()
	if !strings.Contains(prompt, "get_external_ip") {
		t.Errorf("system prompt lacks the tool catalog:\n%s", prompt)
	}
	if !strings.Contains(prompt, "TOOL:") {
		t.Error("system prompt lacks the call format instruction")
	}
}
