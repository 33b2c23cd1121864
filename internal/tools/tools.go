// Package tools defines the shared [Tool] type used by all netscout probe
// packages. Each probe package exports a Tools() constructor returning a
// slice of [Tool] values ready for registration with the tool registry, and
// the registry invokes probes exclusively through [Tool.Handler].
//
// The argument helpers (StringArg, IntArg, …) implement the uniform coercion
// rules probes rely on: JSON numbers arrive as float64, LLM-produced args may
// stringify numbers and booleans, and absent keys fall back to the declared
// default.
package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/MrWong99/netscout/internal/envelope"
)

// ParameterType is the declared type tag of a tool parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeInteger ParameterType = "integer"
	TypeFloat   ParameterType = "float"
	TypeBoolean ParameterType = "boolean"
	TypeList    ParameterType = "list"
	TypeDict    ParameterType = "dict"
)

// Category tags a tool for listing and filtering. The set is closed.
type Category string

const (
	CategoryNetworkDiagnostics Category = "network_diagnostics"
	CategoryPentesting         Category = "pentesting"
	CategorySystemInfo         Category = "system_info"
	CategoryDNS                Category = "dns"
	CategoryWeb                Category = "web"
	CategorySecurity           Category = "security"
	CategoryEmailDiagnostics   Category = "email_diagnostics"
)

// Mode is a caller channel a tool is offered in.
type Mode string

const (
	// ModeInteractive is a human at the terminal.
	ModeInteractive Mode = "interactive"

	// ModeConversational is the LLM or protocol-driven channel.
	ModeConversational Mode = "conversational"
)

// AllModes is the default mode set for tools usable from every channel.
var AllModes = []Mode{ModeInteractive, ModeConversational}

// ParameterInfo describes one tool parameter.
type ParameterInfo struct {
	// Type is the declared parameter type.
	Type ParameterType

	// Required marks parameters without a default. Required parameters
	// never declare one.
	Required bool

	// Default is the value used when the caller omits the parameter.
	Default any

	// Description is the human- and LLM-facing parameter description.
	Description string

	// Choices restricts string parameters to an enumerated set.
	Choices []string

	// Minimum and Maximum bound numeric parameters when non-nil.
	Minimum *float64
	Maximum *float64

	// Elem hints the element type of list parameters. The protocol export
	// requires it; internal callers may ignore it.
	Elem ParameterType
}

// Metadata is the immutable description of a registered tool.
type Metadata struct {
	// Name is the canonical tool name. Must be unique across the registry.
	Name string

	// Description is the one-line human description.
	Description string

	// Category tags the tool for listing.
	Category Category

	// Parameters maps parameter name to its declaration.
	Parameters map[string]ParameterInfo

	// Modes lists the caller channels the tool is offered in. Empty means
	// all modes.
	Modes []Mode

	// RequiresExternalTool marks tools backed by an external binary, named
	// by ExternalToolName.
	RequiresExternalTool bool
	ExternalToolName     string

	// PrivilegeRequired marks tools needing elevated rights for full
	// functionality.
	PrivilegeRequired bool

	// Aliases are alternative names resolving to this tool.
	Aliases []string

	// Examples are usage examples shown in help output.
	Examples []string
}

// OfferedIn reports whether the tool is available in the given mode.
func (m Metadata) OfferedIn(mode Mode) bool {
	if len(m.Modes) == 0 {
		return true
	}
	for _, md := range m.Modes {
		if md == mode {
			return true
		}
	}
	return false
}

// Handler executes a tool against validated arguments and returns the result
// envelope. Handlers never return Go errors and never panic across this
// boundary — failures are envelopes. Implementations must respect ctx.
type Handler func(ctx context.Context, args map[string]any) *envelope.Result

// Tool pairs a tool's metadata with its implementation.
type Tool struct {
	Metadata Metadata
	Handler  Handler
}

// ── Argument helpers ──────────────────────────────────────────────────────────

// StringArg returns args[key] as a string, or fallback when absent, empty or
// not a string.
func StringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// IntArg returns args[key] coerced to int, accepting JSON float64, int and
// numeric strings.
func IntArg(args map[string]any, key string, fallback int) int {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

// FloatArg returns args[key] coerced to float64.
func FloatArg(args map[string]any, key string, fallback float64) float64 {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// BoolArg returns args[key] coerced to bool, accepting "true"/"false"
// strings.
func BoolArg(args map[string]any, key string, fallback bool) bool {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	}
	return fallback
}

// StringListArg returns args[key] as a string slice, accepting []string,
// []any of strings, and comma-separated strings. Returns fallback when the
// key is absent or empty.
func StringListArg(args map[string]any, key string, fallback []string) []string {
	v, ok := args[key]
	if !ok || v == nil {
		return fallback
	}
	switch list := v.(type) {
	case []string:
		if len(list) == 0 {
			return fallback
		}
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return fallback
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return fallback
		}
		return out
	}
	return fallback
}

// SilentParam is the shared declaration of the ubiquitous silent flag.
func SilentParam() ParameterInfo {
	return ParameterInfo{
		Type:        TypeBoolean,
		Default:     false,
		Description: "Suppress console output",
	}
}

// TimeoutParam declares a timeout parameter defaulting to the centralized
// table entry for operation.
func TimeoutParam(operation string) ParameterInfo {
	return ParameterInfo{
		Type:        TypeInteger,
		Default:     int(envelope.Timeout(operation).Seconds()),
		Description: "Timeout in seconds",
	}
}
