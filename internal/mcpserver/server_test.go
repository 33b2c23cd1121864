package mcpserver

import (
	"strings"
	"testing"

	"github.com/MrWong99/netscout/internal/tools"
	"github.com/MrWong99/netscout/internal/tools/dnsdiag"
	"github.com/MrWong99/netscout/internal/tools/iplayer"
)

// TestExportSchemaShape verifies the wire schema for a representative tool
// set: object type, wire type names, items on every array, required lists.
func TestExportSchemaShape(t *testing.T) {
	t.Parallel()

	catalog := append(iplayer.Tools(), dnsdiag.Tools()...)
	wantNames := map[string]bool{
		"ping_host": false, "traceroute_host": false,
		"get_external_ip": false, "check_dns_resolvers": false,
	}

	for _, tool := range catalog {
		if _, tracked := wantNames[tool.Metadata.Name]; tracked {
			wantNames[tool.Metadata.Name] = true
		}

		schema := ExportSchema(tool.Metadata)
		if schema["type"] != "object" {
			t.Errorf("%s: schema type = %v", tool.Metadata.Name, schema["type"])
		}

		properties := schema["properties"].(map[string]any)
		for name, info := range tool.Metadata.Parameters {
			prop, ok := properties[name].(map[string]any)
			if !ok {
				t.Errorf("%s: parameter %q missing from schema", tool.Metadata.Name, name)
				continue
			}
			if prop["type"] == "array" {
				items, ok := prop["items"].(map[string]any)
				if !ok {
					t.Errorf("%s: array parameter %q lacks items", tool.Metadata.Name, name)
				} else if items["type"] == "" {
					t.Errorf("%s: parameter %q items lacks a type", tool.Metadata.Name, name)
				}
			}
			if info.Required {
				required, _ := schema["required"].([]string)
				found := false
				for _, r := range required {
					if r == name {
						found = true
					}
				}
				if !found {
					t.Errorf("%s: required parameter %q not listed", tool.Metadata.Name, name)
				}
			}
		}
	}

	for name, seen := range wantNames {
		if !seen {
			t.Errorf("catalog lacks %s", name)
		}
	}
}

// TestWireTypeNames verifies the canonical wire names.
func TestWireTypeNames(t *testing.T) {
	t.Parallel()
	tests := map[tools.ParameterType]string{
		tools.TypeString:  "string",
		tools.TypeInteger: "integer",
		tools.TypeFloat:   "number",
		tools.TypeBoolean: "boolean",
		tools.TypeList:    "array",
		tools.TypeDict:    "object",
	}
	for in, want := range tests {
		if got := wireType(in); got != want {
			t.Errorf("wireType(%s) = %s, want %s", in, got, want)
		}
	}
}

// TestInferItemType verifies the name-driven items inference rules.
func TestInferItemType(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"servers":     "string",
		"dns_servers": "string",
		"urls":        "string",
		"endpoints":   "string",
		"targets":     "object",
		"tools":       "string",
		"ports":       "integer",
		"port_list":   "integer",
		"mystery":     "string",
	}
	for name, want := range tests {
		if got := InferItemType(name); got != want {
			t.Errorf("InferItemType(%q) = %s, want %s", name, got, want)
		}
	}
}

// TestAuthenticator covers the gate's accept and reject paths.
func TestAuthenticator(t *testing.T) {
	t.Parallel()

	open := NewAuthenticator("")
	if ok, _ := open.Authenticate(nil); !ok {
		t.Error("disabled gate rejected a request")
	}

	gated := NewAuthenticator("super-secret-key-of-sufficient-len")
	if ok, reason := gated.Authenticate(nil); ok || reason == "" {
		t.Error("missing key accepted")
	}
	if ok, _ := gated.Authenticate(map[string]any{"api_key": "wrong"}); ok {
		t.Error("wrong key accepted")
	}
	if ok, _ := gated.Authenticate(map[string]any{"api_key": "super-secret-key-of-sufficient-len"}); !ok {
		t.Error("correct key rejected")
	}
}

// TestFormatResult verifies the success and error text blocks.
func TestFormatResult(t *testing.T) {
	t.Parallel()

	success := formatResult("ping_host", true, "2 packets transmitted", "", "", "", 0, nil)
	if !strings.Contains(success, "**Result-** Success") || !strings.Contains(success, "```") {
		t.Errorf("success block = %q", success)
	}

	parsed := formatResult("get_external_ip", true, "", "", "", "", 0, map[string]any{"external_ip": "203.0.113.5"})
	if !strings.Contains(parsed, "```json") || !strings.Contains(parsed, "203.0.113.5") {
		t.Errorf("parsed-data block = %q", parsed)
	}

	failure := formatResult("ping_host", false, "", "host unreachable", "network", "stderr text", 1, nil)
	for _, want := range []string{"**Error-**", "Message - host unreachable", "Type - network", "Exit Code - 1"} {
		if !strings.Contains(failure, want) {
			t.Errorf("error block lacks %q:\n%s", want, failure)
		}
	}
}
