// Package mcpserver exposes the tool registry to machine clients over the
// Model Context Protocol: a stdio JSON request/response loop with two
// endpoints (list tools, call tool), JSON Schema export per tool, output
// sanitization on every string that leaves the process, and an optional
// constant-time API-key gate.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/sanitize"
	"github.com/MrWong99/netscout/internal/session"
	"github.com/MrWong99/netscout/internal/tools"
)

// Server speaks MCP over stdio on behalf of the registry and the session
// manager.
type Server struct {
	registry *registry.Registry
	sessions *session.Manager
	auth     *Authenticator

	server *mcpsdk.Server
}

// Config assembles a [Server].
type Config struct {
	// Registry supplies and executes the tools. It should be constructed
	// with registry.WithSanitizedOutput so envelopes are cleaned on egress.
	Registry *registry.Registry

	// Sessions backs the chat and start_session endpoints. Optional; when
	// nil those endpoints are not exported.
	Sessions *session.Manager

	// Auth gates every request when enabled. Required (use a disabled
	// authenticator to run open).
	Auth *Authenticator
}

// New builds the server and registers every conversational-mode tool plus
// the session endpoints.
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("mcpserver: registry is required")
	}
	if cfg.Auth == nil {
		return nil, fmt.Errorf("mcpserver: authenticator is required")
	}
	if cfg.Auth.KeyTooShort() {
		slog.Warn("mcpserver: API key is shorter than the recommended minimum", "minimum", minKeyLength)
	}

	s := &Server{
		registry: cfg.Registry,
		sessions: cfg.Sessions,
		auth:     cfg.Auth,
	}
	s.server = mcpsdk.NewServer(
		&mcpsdk.Implementation{Name: "netscout", Version: "1.0.0"},
		nil,
	)

	s.registerTools()
	s.registerSessionTools()
	return s, nil
}

// Run serves MCP over stdio until ctx is cancelled or the peer disconnects.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("mcp server listening on stdio", "auth_enabled", s.auth.Enabled())
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools exports every conversational-mode registry tool.
func (s *Server) registerTools() {
	for _, t := range s.registry.List(registry.ListFilter{Mode: tools.ModeConversational}) {
		md := t.Metadata
		s.server.AddTool(
			&mcpsdk.Tool{
				Name:        md.Name,
				Description: md.Description,
				InputSchema: schemaFromMap(ExportSchema(md)),
			},
			func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
				return s.handleToolCall(ctx, md.Name, req)
			},
		)
	}
}

// registerSessionTools exports the chat and start_session endpoints when a
// session manager is wired.
func (s *Server) registerSessionTools() {
	if s.sessions == nil {
		return
	}

	s.server.AddTool(
		&mcpsdk.Tool{
			Name:        "chat",
			Description: "Send a message to the network diagnostics assistant",
			InputSchema: schemaFromMap(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"prompt": map[string]any{
						"type":        "string",
						"description": "User message to process",
					},
					"session_id": map[string]any{
						"type":        "string",
						"description": "Optional session ID for conversation continuity",
					},
					"include_thinking": map[string]any{
						"type":        "boolean",
						"description": "Include LLM reasoning in the response",
						"default":     true,
					},
				},
				"required": []string{"prompt"},
			}),
		},
		s.handleChat,
	)

	s.server.AddTool(
		&mcpsdk.Tool{
			Name:        "start_session",
			Description: "Initialize a new assistant session",
			InputSchema: schemaFromMap(map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}),
		},
		s.handleStartSession,
	)
}

// decodeArgs unmarshals a request's arguments into a map.
func decodeArgs(req *mcpsdk.CallToolRequest) map[string]any {
	args := map[string]any{}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			slog.Warn("mcp: undecodable tool arguments", "err", err)
		}
	}
	return args
}

// requestMeta extracts the request metadata map for authentication.
func requestMeta(req *mcpsdk.CallToolRequest) map[string]any {
	if req.Params.Meta == nil {
		return nil
	}
	return map[string]any(req.Params.Meta)
}

// textResult wraps body as an MCP text result.
func textResult(body string, isError bool) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: body}},
		IsError: isError,
	}
}

// handleToolCall executes one registry tool on behalf of the client.
func (s *Server) handleToolCall(ctx context.Context, name string, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if ok, reason := s.auth.Authenticate(requestMeta(req)); !ok {
		return textResult(AuthErrorBody(reason), true), nil
	}

	result := s.registry.ExecuteTool(ctx, name, decodeArgs(req), tools.ModeConversational)

	// Security-restricted refusals with a prepared manual-commands block
	// pass that block through verbatim.
	if !result.Success && result.ErrorType == "security_restriction" {
		if manual, ok := result.ParsedData["manual_commands_markdown"].(string); ok && manual != "" {
			body := fmt.Sprintf("**Tool-** %s\n**Security Restriction Detected**\n\n%s", name, manual)
			return textResult(body, true), nil
		}
	}

	return textResult(formatResult(name, result.Success, result.Stdout, result.ErrorMessage,
		string(result.ErrorType), result.Stderr, result.ExitCode, result.ParsedData), !result.Success), nil
}

// formatResult renders the structured text block for a tool outcome. The
// registry has already sanitized the envelope; headings avoid colons for the
// same downstream-client reason the sanitizer exists.
func formatResult(tool string, success bool, stdout, errMessage, errType, stderr string, exitCode int, parsed map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Tool-** %s\n", tool)

	if success {
		b.WriteString("**Result-** Success\n")
		switch {
		case stdout != "":
			fmt.Fprintf(&b, "**Output-**\n```\n%s\n```", stdout)
		case len(parsed) > 0:
			if data, err := json.MarshalIndent(sanitize.Value(parsed), "", "  "); err == nil {
				fmt.Fprintf(&b, "**Data-**\n```json\n%s\n```", data)
			} else {
				fmt.Fprintf(&b, "**Data-** %v", parsed)
			}
		}
		return b.String()
	}

	b.WriteString("**Error-**\n")
	var details []string
	if errMessage != "" {
		details = append(details, "Message - "+errMessage)
	}
	if errType != "" {
		details = append(details, "Type - "+errType)
	}
	if stderr != "" {
		details = append(details, "Details - "+stderr)
	}
	details = append(details, fmt.Sprintf("Exit Code - %d", exitCode))
	b.WriteString(strings.Join(details, "\n"))
	return b.String()
}

// handleChat processes one conversational turn through the session manager.
func (s *Server) handleChat(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if ok, reason := s.auth.Authenticate(requestMeta(req)); !ok {
		return textResult(AuthErrorBody(reason), true), nil
	}

	args := decodeArgs(req)
	prompt, _ := args["prompt"].(string)
	if prompt == "" {
		return textResult("Error - prompt is required", true), nil
	}
	sessionID, _ := args["session_id"].(string)
	includeThinking := true
	if v, ok := args["include_thinking"].(bool); ok {
		includeThinking = v
	}

	sess := s.sessions.GetOrCreate(sessionID)
	resp, err := sess.ProcessMessage(ctx, prompt, includeThinking, 0)
	if err != nil {
		return textResult(sanitize.String(fmt.Sprintf("Chat error - %v", err)), true), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Response-** %s\n", sanitize.String(resp.Content))
	if includeThinking && resp.Thinking != "" {
		fmt.Fprintf(&b, "\n**Thinking-** %s\n", sanitize.String(resp.Thinking))
	}
	if len(resp.ToolsUsed) > 0 {
		names := make([]string, len(resp.ToolsUsed))
		for i, use := range resp.ToolsUsed {
			names[i] = use.Tool
		}
		fmt.Fprintf(&b, "\n**Tools Used-** %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "\n**Session ID-** %s", sess.ID)
	return textResult(b.String(), false), nil
}

// handleStartSession creates a fresh session.
func (s *Server) handleStartSession(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if ok, reason := s.auth.Authenticate(requestMeta(req)); !ok {
		return textResult(AuthErrorBody(reason), true), nil
	}

	sess := s.sessions.Create()
	return textResult(fmt.Sprintf("**Session Created-** %s", sess.ID), false), nil
}
