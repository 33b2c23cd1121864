// Package sanitize cleans tool output before it leaves the process on the
// machine protocol channel.
//
// Two passes run over every string field: first ANSI escape sequences and C0
// control bytes (except tab and newline) are stripped; then embedded colons
// are rewritten to work around a known rendering defect in a downstream
// protocol client — MAC-looking strings (six or more colon-separated tokens)
// get hyphens, IPv6 "::" becomes "--" (any other colon in such a string
// becomes "-"), and bare colons elsewhere become " -". Sanitization is idempotent and is applied only on protocol egress,
// never to parsed_data consumed internally.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/MrWong99/netscout/internal/envelope"
)

var (
	ansiEscape   = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	controlBytes = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`)
)

// String sanitizes a single string value.
func String(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	s = controlBytes.ReplaceAllString(s, "")
	return replaceColons(s)
}

// replaceColons applies the client-workaround colon rules.
func replaceColons(s string) string {
	if !strings.Contains(s, ":") {
		return s
	}
	if strings.Count(s, ":") >= 5 && len(strings.Split(s, ":")) >= 6 {
		// MAC-address shaped: colons become hyphens wholesale.
		return strings.ReplaceAll(s, ":", "-")
	}
	if strings.Contains(s, "::") {
		s = strings.ReplaceAll(s, "::", "--")
		return strings.ReplaceAll(s, ":", "-")
	}
	return strings.ReplaceAll(s, ":", " -")
}

// Value sanitizes an arbitrary decoded-JSON-shaped value recursively:
// strings are cleaned, maps and slices are walked, every other type passes
// through unchanged.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Value(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Value(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = String(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = Value(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// Result returns a sanitized copy of a tool envelope. The input is not
// modified; envelopes are immutable after return.
func Result(r *envelope.Result) *envelope.Result {
	if r == nil {
		return nil
	}
	clean := *r
	clean.Timestamp = String(r.Timestamp)
	clean.ToolName = String(r.ToolName)
	clean.ErrorType = envelope.ErrorType(String(string(r.ErrorType)))
	clean.ErrorCode = envelope.ErrorCode(String(string(r.ErrorCode)))
	clean.Target = String(r.Target)
	clean.CommandExecuted = String(r.CommandExecuted)
	clean.Stdout = String(r.Stdout)
	clean.Stderr = String(r.Stderr)
	clean.ErrorMessage = String(r.ErrorMessage)
	if r.Suggestions != nil {
		clean.Suggestions = Value(r.Suggestions).([]string)
	}
	if r.ParsedData != nil {
		clean.ParsedData = Value(r.ParsedData).(map[string]any)
	}
	if r.OptionsUsed != nil {
		clean.OptionsUsed = Value(r.OptionsUsed).(map[string]any)
	}
	return &clean
}
