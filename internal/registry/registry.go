// Package registry implements the in-memory tool catalog: registration with
// alias indexing, filtered listing, external-binary availability tracking and
// the single execution entry point every caller surface goes through.
//
// Registration happens explicitly: each probe package exports a Tools()
// constructor and the composition root hands the results to [Registry.
// Register]. Only linked-in packages can register, which makes the
// discovery whitelist implicit.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/observe"
	"github.com/MrWong99/netscout/internal/sanitize"
	"github.com/MrWong99/netscout/internal/tools"
)

// maxSuggestionDistance is the largest Damerau-Levenshtein distance still
// offered as a "did you mean" candidate.
const maxSuggestionDistance = 3

// entry pairs a registered tool with its resolution state.
type entry struct {
	tool tools.Tool

	// canonical is false for alias keys, which point at the same tool
	// value as the canonical entry.
	canonical bool
}

// Registry is the central tool catalog. It is written during startup and on
// explicit refresh, and read concurrently by every caller surface.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]entry            // name and alias → entry
	categories map[tools.Category][]string // category → canonical names
	binaries   map[string]BinaryStatus     // binary name → availability

	// sanitizeOutput forces protocol-egress sanitization of every envelope
	// returned by ExecuteTool. Enabled by the protocol server.
	sanitizeOutput bool

	metrics *observe.Metrics
}

// Option configures a [Registry] during construction.
type Option func(*Registry)

// WithSanitizedOutput makes ExecuteTool sanitize every returned envelope.
// The protocol server sets this; interactive callers see raw output.
func WithSanitizedOutput() Option {
	return func(r *Registry) { r.sanitizeOutput = true }
}

// WithMetrics wires a metrics instance; nil disables recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:    make(map[string]entry),
		categories: make(map[tools.Category][]string),
		binaries:   make(map[string]BinaryStatus),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a batch of tools to the catalog, indexing each under its
// canonical name and every alias. Entries with an empty name or nil handler
// are rejected; an alias that collides with an existing canonical name is
// skipped with a warning rather than shadowing it.
func (r *Registry) Register(batch ...tools.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range batch {
		if t.Metadata.Name == "" {
			return fmt.Errorf("registry: tool with empty name rejected")
		}
		if t.Handler == nil {
			return fmt.Errorf("registry: tool %q has no handler", t.Metadata.Name)
		}
		if existing, ok := r.entries[t.Metadata.Name]; ok && existing.canonical {
			return fmt.Errorf("registry: tool %q already registered", t.Metadata.Name)
		}

		r.entries[t.Metadata.Name] = entry{tool: t, canonical: true}
		r.categories[t.Metadata.Category] = append(r.categories[t.Metadata.Category], t.Metadata.Name)

		for _, alias := range t.Metadata.Aliases {
			if existing, ok := r.entries[alias]; ok && existing.canonical {
				slog.Warn("registry: alias collides with a canonical tool name, skipped",
					"alias", alias, "tool", t.Metadata.Name)
				continue
			}
			r.entries[alias] = entry{tool: t}
		}
	}
	return nil
}

// Get resolves a tool by canonical name or alias.
func (r *Registry) Get(name string) (tools.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.tool, ok
}

// ListFilter narrows [Registry.List] output.
type ListFilter struct {
	// Mode keeps only tools offered in the given mode when non-empty.
	Mode tools.Mode

	// Category keeps only tools in the given category when non-empty.
	Category tools.Category

	// ExternalOnly keeps only tools backed by an external binary.
	ExternalOnly bool
}

// List returns an alias-free, name-sorted view of the catalog matching the
// filter. Tools whose external binary is absent are omitted.
func (r *Registry) List(filter ListFilter) []tools.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []tools.Tool
	for _, e := range r.entries {
		if !e.canonical {
			continue
		}
		md := e.tool.Metadata
		if filter.Mode != "" && !md.OfferedIn(filter.Mode) {
			continue
		}
		if filter.Category != "" && md.Category != filter.Category {
			continue
		}
		if filter.ExternalOnly && !md.RequiresExternalTool {
			continue
		}
		if md.RequiresExternalTool && !r.binaryPresentLocked(md.ExternalToolName) {
			continue
		}
		out = append(out, e.tool)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.Name < out[j].Metadata.Name
	})
	return out
}

// CategoryNames returns the canonical tool names registered under category.
func (r *Registry) CategoryNames(category tools.Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.categories[category]...)
}

// Suggest returns the closest registered tool name for an unknown input, or
// "" when nothing is close enough.
func (r *Registry) Suggest(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestDist := maxSuggestionDistance + 1
	for candidate, e := range r.entries {
		if !e.canonical {
			continue
		}
		dist := matchr.DamerauLevenshtein(strings.ToLower(name), candidate)
		if dist < bestDist {
			bestDist = dist
			best = candidate
		}
	}
	return best
}

// ExecuteTool resolves name (or alias), validates args against the tool's
// declared parameters, and invokes the handler. It never returns a Go error
// and never lets a handler panic escape: every outcome is an envelope.
//
// The validation pipeline: unknown tool → input.invalid_target (with a
// "did you mean" suggestion when close); mode not offered →
// input.invalid_target; missing external binary → system.tool_missing;
// undeclared arg keys are dropped; missing required keys →
// input.missing_parameter; declared defaults fill absent keys.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any, mode tools.Mode) *envelope.Result {
	start := time.Now()
	result := r.executeTool(ctx, name, args, mode)

	r.metrics.RecordToolExecution(ctx, name, string(mode), time.Since(start), result.Success)

	if r.sanitizeOutput {
		result = sanitize.Result(result)
	}
	return result
}

// executeTool is ExecuteTool without the egress concerns.
func (r *Registry) executeTool(ctx context.Context, name string, args map[string]any, mode tools.Mode) (result *envelope.Result) {
	tool, ok := r.Get(name)
	if !ok {
		message := fmt.Sprintf("Tool %q not found", name)
		if suggestion := r.Suggest(name); suggestion != "" && suggestion != name {
			message = fmt.Sprintf("Tool %q not found. Did you mean %q?", name, suggestion)
		}
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "tool_registry", Message: message,
		})
	}
	md := tool.Metadata

	if !md.OfferedIn(mode) {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool:    "tool_registry",
			Message: fmt.Sprintf("Tool %q not available in %s mode", md.Name, mode),
		})
	}

	if md.RequiresExternalTool && !r.BinaryPresent(md.ExternalToolName) {
		return envelope.SystemError(envelope.CodeToolMissing, envelope.ErrorParams{
			Tool:    md.Name,
			Context: map[string]string{"tool": md.ExternalToolName},
		})
	}

	// Drop undeclared keys, then enforce required ones and apply defaults.
	filtered := make(map[string]any, len(md.Parameters))
	for key, value := range args {
		if _, declared := md.Parameters[key]; declared {
			filtered[key] = value
		}
	}
	for key, info := range md.Parameters {
		if _, present := filtered[key]; present {
			continue
		}
		if info.Required {
			return envelope.InputError(envelope.CodeMissingParameter, envelope.ErrorParams{
				Tool:    md.Name,
				Context: map[string]string{"parameter": key},
			})
		}
		if info.Default != nil {
			filtered[key] = info.Default
		}
	}

	// On the protocol channel, console-writing probes are always muted.
	if r.sanitizeOutput {
		if _, declared := md.Parameters["silent"]; declared {
			filtered["silent"] = true
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool handler panicked", "tool", md.Name, "panic", rec)
			result = envelope.ExecutionError(envelope.CodeCommandFailed, envelope.ErrorParams{
				Tool:    md.Name,
				Message: fmt.Sprintf("Tool execution failed: %v", rec),
				Options: filtered,
			})
		}
	}()

	result = tool.Handler(ctx, filtered)
	if result == nil {
		result = envelope.ExecutionError(envelope.CodeUnexpectedError, envelope.ErrorParams{
			Tool:    md.Name,
			Message: "Tool returned no result",
			Options: filtered,
		})
	}
	return result
}
