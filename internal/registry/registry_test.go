package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/tools"
)

// echoTool returns a tool that echoes its filtered args into parsed_data.
func echoTool(name string, params map[string]tools.ParameterInfo, aliases ...string) tools.Tool {
	return tools.Tool{
		Metadata: tools.Metadata{
			Name:        name,
			Description: "echoes args",
			Category:    tools.CategoryNetworkDiagnostics,
			Parameters:  params,
			Aliases:     aliases,
		},
		Handler: func(_ context.Context, args map[string]any) *envelope.Result {
			parsed := map[string]any{}
			for k, v := range args {
				parsed[k] = v
			}
			return envelope.NewSuccess(envelope.SuccessParams{
				Tool: name, Elapsed: time.Millisecond, Parsed: parsed, Options: args,
			})
		},
	}
}

func TestRegisterAndAliasIdentity(t *testing.T) {
	t.Parallel()
	r := New()
	if err := r.Register(echoTool("ping_host", nil, "ping", "ping_target")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	canonical, ok := r.Get("ping_host")
	if !ok {
		t.Fatal("canonical name not resolvable")
	}
	for _, alias := range []string{"ping", "ping_target"} {
		viaAlias, ok := r.Get(alias)
		if !ok {
			t.Fatalf("alias %q not resolvable", alias)
		}
		if viaAlias.Metadata.Name != canonical.Metadata.Name {
			t.Errorf("alias %q resolves to %q, want %q", alias, viaAlias.Metadata.Name, canonical.Metadata.Name)
		}
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	t.Parallel()
	r := New()
	err := r.Register(tools.Tool{Handler: func(context.Context, map[string]any) *envelope.Result { return nil }})
	if err == nil {
		t.Fatal("empty name accepted")
	}
}

func TestListIsAliasFree(t *testing.T) {
	t.Parallel()
	r := New()
	if err := r.Register(
		echoTool("ping_host", nil, "ping"),
		echoTool("get_external_ip", nil, "external_ip"),
	); err != nil {
		t.Fatalf("Register: %v", err)
	}

	listed := r.List(ListFilter{})
	if len(listed) != 2 {
		t.Fatalf("List returned %d entries, want 2 (aliases excluded)", len(listed))
	}
}

func TestExecuteUnknownToolSuggests(t *testing.T) {
	t.Parallel()
	r := New()
	if err := r.Register(echoTool("ping_host", nil)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "ping_hots", nil, tools.ModeInteractive)
	if res.Success {
		t.Fatal("unknown tool executed successfully")
	}
	if res.ErrorType != envelope.ErrInput || res.ErrorCode != envelope.CodeInvalidTarget {
		t.Errorf("taxonomy = (%s, %s), want input.invalid_target", res.ErrorType, res.ErrorCode)
	}
	if want := "ping_host"; !strings.Contains(res.ErrorMessage, want) {
		t.Errorf("error %q lacks suggestion %q", res.ErrorMessage, want)
	}
}

func TestExecuteFiltersUndeclaredArgs(t *testing.T) {
	t.Parallel()
	r := New()
	params := map[string]tools.ParameterInfo{
		"target": {Type: tools.TypeString, Required: true},
		"count":  {Type: tools.TypeInteger, Default: 4},
	}
	if err := r.Register(echoTool("ping_host", params)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "ping_host", map[string]any{
		"target":    "1.1.1.1",
		"evil_flag": true,
	}, tools.ModeInteractive)

	if !res.Success {
		t.Fatalf("execution failed: %s", res.ErrorMessage)
	}
	if _, leaked := res.OptionsUsed["evil_flag"]; leaked {
		t.Error("undeclared arg leaked into options_used")
	}
	if res.OptionsUsed["count"] != 4 {
		t.Errorf("default not applied: count = %v", res.OptionsUsed["count"])
	}
}

func TestExecuteMissingRequired(t *testing.T) {
	t.Parallel()
	r := New()
	params := map[string]tools.ParameterInfo{
		"target": {Type: tools.TypeString, Required: true},
	}
	if err := r.Register(echoTool("ping_host", params)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "ping_host", nil, tools.ModeInteractive)
	if res.Success || res.ErrorCode != envelope.CodeMissingParameter {
		t.Errorf("envelope = success=%v code=%s, want input.missing_parameter", res.Success, res.ErrorCode)
	}
}

func TestExecuteModeGate(t *testing.T) {
	t.Parallel()
	r := New()
	tool := echoTool("interactive_only", nil)
	tool.Metadata.Modes = []tools.Mode{tools.ModeInteractive}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "interactive_only", nil, tools.ModeConversational)
	if res.Success || res.ErrorCode != envelope.CodeInvalidTarget {
		t.Errorf("mode gate failed: success=%v code=%s", res.Success, res.ErrorCode)
	}
}

func TestExecutePanicBecomesEnvelope(t *testing.T) {
	t.Parallel()
	r := New()
	panicky := tools.Tool{
		Metadata: tools.Metadata{Name: "boom", Category: tools.CategoryNetworkDiagnostics},
		Handler: func(context.Context, map[string]any) *envelope.Result {
			panic("kaboom")
		},
	}
	if err := r.Register(panicky); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "boom", nil, tools.ModeInteractive)
	if res == nil {
		t.Fatal("panic escaped as nil result")
	}
	if res.Success || res.ErrorType != envelope.ErrExecution {
		t.Errorf("envelope = success=%v type=%s, want execution failure", res.Success, res.ErrorType)
	}
}

func TestSanitizedOutputForcesSilent(t *testing.T) {
	t.Parallel()
	r := New(WithSanitizedOutput())
	params := map[string]tools.ParameterInfo{
		"silent": {Type: tools.TypeBoolean, Default: false},
	}
	if err := r.Register(echoTool("chatty", params)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res := r.ExecuteTool(context.Background(), "chatty", map[string]any{"silent": false}, tools.ModeConversational)
	if !res.Success {
		t.Fatalf("execution failed: %s", res.ErrorMessage)
	}
	if res.OptionsUsed["silent"] != true {
		t.Errorf("silent = %v, want forced true on the protocol channel", res.OptionsUsed["silent"])
	}
}

func TestExternalBinaryGate(t *testing.T) {
	t.Parallel()
	r := New()
	external := echoTool("run_scanner", nil)
	external.Metadata.RequiresExternalTool = true
	external.Metadata.ExternalToolName = "no-such-binary-xyz"
	if err := r.Register(external); err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.DetectBinaries(context.Background(), "no-such-binary-xyz")

	res := r.ExecuteTool(context.Background(), "run_scanner", nil, tools.ModeInteractive)
	if res.Success || res.ErrorCode != envelope.CodeToolMissing {
		t.Errorf("envelope = success=%v code=%s, want system.tool_missing", res.Success, res.ErrorCode)
	}

	if got := r.List(ListFilter{}); len(got) != 0 {
		t.Errorf("List includes a tool whose binary is absent: %d entries", len(got))
	}
}
