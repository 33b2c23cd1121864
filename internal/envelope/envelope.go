// Package envelope defines the standardized result object returned by every
// netscout tool invocation, together with the two-level error taxonomy, the
// message/suggestion templates and the centralized timeout table.
//
// Every probe — successful or failed — produces a [Result] with the same set
// of fields. Success envelopes carry structured output in ParsedData; failure
// envelopes carry exactly one (ErrorType, ErrorCode) pair plus a human message
// and remediation suggestions. Probes never return Go errors across the
// registry boundary; failures are data.
package envelope

import (
	"encoding/json"
	"time"
)

// ErrorType is the coarse error category of a failed tool invocation.
type ErrorType string

const (
	// ErrNetwork covers connectivity failures: timeouts, refused connections,
	// DNS resolution problems, unreachable targets.
	ErrNetwork ErrorType = "network"

	// ErrSystem covers the local machine: missing binaries, permissions,
	// unsupported platforms.
	ErrSystem ErrorType = "system"

	// ErrInput covers caller mistakes: malformed targets, invalid ports,
	// missing required parameters.
	ErrInput ErrorType = "input"

	// ErrExecution covers runtime failures inside a probe: command failures,
	// parser breakdowns, unexpected panics.
	ErrExecution ErrorType = "execution"

	// ErrConfiguration covers bad or missing configuration artifacts.
	ErrConfiguration ErrorType = "configuration"
)

// ErrorCode is the specific error condition within an [ErrorType].
type ErrorCode string

const (
	// Network codes.
	CodeConnectionFailed ErrorCode = "connection_failed"
	CodeTimeout          ErrorCode = "timeout"
	CodeDNSResolution    ErrorCode = "dns_resolution"
	CodeUnreachable      ErrorCode = "unreachable"

	// System codes.
	CodePermissionDenied ErrorCode = "permission_denied"
	CodeToolMissing      ErrorCode = "tool_missing"
	CodeInvalidPlatform  ErrorCode = "invalid_platform"

	// Input codes.
	CodeInvalidTarget    ErrorCode = "invalid_target"
	CodeInvalidPort      ErrorCode = "invalid_port"
	CodeInvalidFormat    ErrorCode = "invalid_format"
	CodeMissingParameter ErrorCode = "missing_parameter"

	// Execution codes.
	CodeCommandFailed   ErrorCode = "command_failed"
	CodeParsingError    ErrorCode = "parsing_error"
	CodeUnexpectedError ErrorCode = "unexpected_error"

	// Configuration codes.
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeInvalidConfig   ErrorCode = "invalid_config"
	CodePermissionError ErrorCode = "permission_error"
)

// Result is the uniform envelope returned by every tool invocation.
//
// The invariant holding across all probes: Success is true if and only if
// ErrorType and ErrorMessage are empty. Successful results populate
// ParsedData; failed results populate ErrorType, ErrorMessage and
// Suggestions. Envelopes are immutable after return.
type Result struct {
	// Success reports whether the invocation achieved its goal.
	Success bool `json:"success"`

	// ExitCode is 0 iff Success unless a probe documents otherwise
	// (external commands echo their real exit status here).
	ExitCode int `json:"exit_code"`

	// ExecutionTime is the wall-clock duration of the invocation in seconds.
	ExecutionTime float64 `json:"execution_time"`

	// Timestamp is the invocation start time in ISO-8601 form.
	Timestamp string `json:"timestamp"`

	// ToolName is the canonical name of the executed tool.
	ToolName string `json:"tool_name"`

	// Target is the probed target, or empty when the tool has none.
	Target string `json:"target"`

	// CommandExecuted is a human-readable description of what ran, possibly
	// the literal external command line.
	CommandExecuted string `json:"command_executed"`

	// OptionsUsed echoes the effective parameters after defaulting and
	// filtering. Keys not declared by the tool never appear here.
	OptionsUsed map[string]any `json:"options_used"`

	// Stdout is the raw primary textual output. May be empty.
	Stdout string `json:"stdout"`

	// Stderr is the raw error text. May be empty.
	Stderr string `json:"stderr"`

	// ParsedData is the tool-specific structured output map.
	ParsedData map[string]any `json:"parsed_data"`

	// ErrorType is empty on success, otherwise one of the five categories.
	ErrorType ErrorType `json:"error_type"`

	// ErrorCode is empty on success, otherwise the specific code within
	// ErrorType.
	ErrorCode ErrorCode `json:"error_code,omitempty"`

	// ErrorMessage is empty on success, otherwise a formatted human message.
	ErrorMessage string `json:"error_message"`

	// Suggestions lists remediation hints for failures. May be empty.
	Suggestions []string `json:"suggestions,omitempty"`
}

// resultJSON mirrors Result but renders the null-on-success fields as real
// JSON nulls, matching the documented wire shape.
type resultJSON struct {
	Success         bool           `json:"success"`
	ExitCode        int            `json:"exit_code"`
	ExecutionTime   float64        `json:"execution_time"`
	Timestamp       string         `json:"timestamp"`
	ToolName        string         `json:"tool_name"`
	Target          *string        `json:"target"`
	CommandExecuted string         `json:"command_executed"`
	OptionsUsed     map[string]any `json:"options_used"`
	Stdout          string         `json:"stdout"`
	Stderr          string         `json:"stderr"`
	ParsedData      map[string]any `json:"parsed_data"`
	ErrorType       *string        `json:"error_type"`
	ErrorCode       *string        `json:"error_code,omitempty"`
	ErrorMessage    *string        `json:"error_message"`
	Suggestions     []string       `json:"suggestions,omitempty"`
}

// MarshalJSON renders Target, ErrorType, ErrorCode and ErrorMessage as null
// when empty so that machine consumers see the documented envelope shape.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Success:         r.Success,
		ExitCode:        r.ExitCode,
		ExecutionTime:   r.ExecutionTime,
		Timestamp:       r.Timestamp,
		ToolName:        r.ToolName,
		CommandExecuted: r.CommandExecuted,
		OptionsUsed:     r.OptionsUsed,
		Stdout:          r.Stdout,
		Stderr:          r.Stderr,
		ParsedData:      r.ParsedData,
		Suggestions:     r.Suggestions,
	}
	if r.Target != "" {
		t := r.Target
		out.Target = &t
	}
	if r.ErrorType != "" {
		s := string(r.ErrorType)
		out.ErrorType = &s
	}
	if r.ErrorCode != "" {
		s := string(r.ErrorCode)
		out.ErrorCode = &s
	}
	if r.ErrorMessage != "" {
		s := r.ErrorMessage
		out.ErrorMessage = &s
	}
	if out.OptionsUsed == nil {
		out.OptionsUsed = map[string]any{}
	}
	if out.ParsedData == nil {
		out.ParsedData = map[string]any{}
	}
	return json.Marshal(out)
}

// SuccessParams carries the inputs for [NewSuccess].
type SuccessParams struct {
	// Tool is the canonical tool name.
	Tool string

	// Target is the probed target, if any.
	Target string

	// Command is the human-readable command description.
	Command string

	// Stdout is the raw primary output.
	Stdout string

	// Elapsed is the invocation duration.
	Elapsed time.Duration

	// Parsed is the structured output map. A nil map becomes an empty one.
	Parsed map[string]any

	// Options echoes the effective parameters.
	Options map[string]any
}

// NewSuccess builds a success envelope. ParsedData and OptionsUsed are never
// nil in the returned Result.
func NewSuccess(p SuccessParams) *Result {
	parsed := p.Parsed
	if parsed == nil {
		parsed = map[string]any{}
	}
	options := p.Options
	if options == nil {
		options = map[string]any{}
	}
	return &Result{
		Success:         true,
		ExitCode:        0,
		ExecutionTime:   p.Elapsed.Seconds(),
		Timestamp:       time.Now().Format(time.RFC3339),
		ToolName:        p.Tool,
		Target:          p.Target,
		CommandExecuted: p.Command,
		OptionsUsed:     options,
		Stdout:          p.Stdout,
		ParsedData:      parsed,
	}
}

// ErrorParams carries the inputs for [NewError] and the per-category helpers.
type ErrorParams struct {
	// Tool is the canonical tool name.
	Tool string

	// Target is the probed target, if any.
	Target string

	// Command is the human-readable command description.
	Command string

	// Stderr is the raw error text (external command stderr or an exception
	// message).
	Stderr string

	// Message overrides the taxonomy template when non-empty.
	Message string

	// Elapsed is the time spent before the failure.
	Elapsed time.Duration

	// ExitCode defaults to 1 when zero.
	ExitCode int

	// Options echoes the effective parameters.
	Options map[string]any

	// Context supplies values for the template placeholders ({target},
	// {tool}, {timeout}, {command}, …). Target and Tool are injected
	// automatically.
	Context map[string]string
}

// NewError builds a failure envelope for the given (category, code) pair.
// When p.Message is empty the taxonomy template for the pair is formatted
// against p.Context; placeholders with no matching context value stay
// literal rather than failing.
func (t ErrorType) NewError(code ErrorCode, p ErrorParams) *Result {
	return NewError(t, code, p)
}

// NewError is the function form of [ErrorType.NewError].
func NewError(errType ErrorType, code ErrorCode, p ErrorParams) *Result {
	ctx := map[string]string{}
	for k, v := range p.Context {
		ctx[k] = v
	}
	if p.Target != "" {
		ctx["target"] = p.Target
	}
	if p.Tool != "" {
		ctx["tool_name"] = p.Tool
	}

	message := p.Message
	suggestions := lookupSuggestions(errType, code, ctx)
	if message == "" {
		message = lookupMessage(errType, code, ctx)
	}

	exitCode := p.ExitCode
	if exitCode == 0 {
		exitCode = 1
	}
	options := p.Options
	if options == nil {
		options = map[string]any{}
	}

	return &Result{
		Success:         false,
		ExitCode:        exitCode,
		ExecutionTime:   p.Elapsed.Seconds(),
		Timestamp:       time.Now().Format(time.RFC3339),
		ToolName:        p.Tool,
		Target:          p.Target,
		CommandExecuted: p.Command,
		OptionsUsed:     options,
		Stderr:          p.Stderr,
		ParsedData:      map[string]any{},
		ErrorType:       errType,
		ErrorCode:       code,
		ErrorMessage:    message,
		Suggestions:     suggestions,
	}
}

// NetworkError builds a network-category failure envelope.
func NetworkError(code ErrorCode, p ErrorParams) *Result {
	return NewError(ErrNetwork, code, p)
}

// SystemError builds a system-category failure envelope.
func SystemError(code ErrorCode, p ErrorParams) *Result {
	return NewError(ErrSystem, code, p)
}

// InputError builds an input-category failure envelope.
func InputError(code ErrorCode, p ErrorParams) *Result {
	return NewError(ErrInput, code, p)
}

// ExecutionError builds an execution-category failure envelope.
func ExecutionError(code ErrorCode, p ErrorParams) *Result {
	return NewError(ErrExecution, code, p)
}

// ConfigurationError builds a configuration-category failure envelope.
func ConfigurationError(code ErrorCode, p ErrorParams) *Result {
	return NewError(ErrConfiguration, code, p)
}
