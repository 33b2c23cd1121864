// Package orchestrator implements the LLM-driven tool path: single-shot
// TOOL:/ARGS extraction from model replies, prompt assembly with the tool
// catalog, the protocol-violation correction for unanswered network
// questions, and the follow-up inference with the injected tool result.
package orchestrator

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// ParseToolCall extracts a tool invocation from a model reply using the
// single-shot protocol:
//
//	TOOL: <tool_name>
//	ARGS: <one-line JSON object>
//
// Returns ("", nil, false) when no TOOL: anchor is present. Only the first
// line after ARGS: is considered, so hallucinated "Tool result:" text below
// the call can never be parsed as arguments. A trailing parenthesized
// section on the tool name is discarded. Malformed JSON degrades to empty
// args with a logged diagnostic rather than failing the turn.
func ParseToolCall(content string) (name string, args map[string]any, ok bool) {
	_, after, found := strings.Cut(content, "TOOL:")
	if !found {
		return "", nil, false
	}
	toolPart := strings.TrimSpace(after)

	var argsText string
	if namePart, rest, hasArgs := strings.Cut(toolPart, "ARGS:"); hasArgs {
		name = strings.TrimSpace(namePart)
		argsText = rest
	} else {
		name, _, _ = strings.Cut(toolPart, "\n")
		name = strings.TrimSpace(name)
	}

	// Models sometimes render the call as a function invocation.
	if paren := strings.IndexByte(name, '('); paren >= 0 {
		name = strings.TrimSpace(name[:paren])
	}
	name = strings.Trim(name, "`*")
	if name == "" {
		return "", nil, false
	}

	args = map[string]any{}
	if argsText != "" {
		firstLine, _, _ := strings.Cut(strings.TrimSpace(argsText), "\n")
		open := strings.IndexByte(firstLine, '{')
		closing := strings.LastIndexByte(firstLine, '}')
		if open >= 0 && closing > open {
			raw := firstLine[open : closing+1]
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				slog.Warn("orchestrator: invalid JSON in tool args, using empty args",
					"tool", name, "args", raw, "err", err)
				args = map[string]any{}
			}
		}
	}

	return name, args, true
}

// ExtractThinking splits an optional reasoning block out of a model reply.
// Two syntaxes are recognized: <think>…</think> and [thinking]…[/thinking].
// The returned content has the block removed.
func ExtractThinking(content string) (thinking, rest string) {
	for _, markers := range [][2]string{
		{"<think>", "</think>"},
		{"[thinking]", "[/thinking]"},
	} {
		openIdx := strings.Index(content, markers[0])
		if openIdx < 0 {
			continue
		}
		closeIdx := strings.Index(content[openIdx:], markers[1])
		if closeIdx < 0 {
			continue
		}
		closeIdx += openIdx

		thinking = strings.TrimSpace(content[openIdx+len(markers[0]) : closeIdx])
		rest = strings.TrimSpace(content[:openIdx] + content[closeIdx+len(markers[1]):])
		return thinking, rest
	}
	return "", content
}

// DefaultNetworkKeywords is the configurable keyword list that marks a user
// message as a network question for the protocol-violation check.
var DefaultNetworkKeywords = []string{
	"ping", "network", "connectivity", "internet", "dns", "ip", "connection",
	"latency", "speed", "bandwidth", "traceroute", "route", "packet", "loss",
	"nat", "firewall", "port", "external", "local", "scan", "nmap", "host",
	"server", "socket", "tcp", "udp", "http", "https", "ssl", "tls",
}

// isNetworkQuestion reports whether the user message matches the keyword
// heuristic.
func isNetworkQuestion(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
