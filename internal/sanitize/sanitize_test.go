package sanitize

import (
	"testing"

	"github.com/MrWong99/netscout/internal/envelope"
)

func TestStringStripsANSI(t *testing.T) {
	t.Parallel()
	in := "\x1b[92mOK\x1b[0m done"
	if got := String(in); got != "OK done" {
		t.Errorf("String(%q) = %q", in, got)
	}
}

func TestStringStripsControlBytes(t *testing.T) {
	t.Parallel()
	// Bell and carriage return are C0; only tab and newline survive.
	in := "a\x00b\x07c\td\ne\rf"
	if got := String(in); got != "abc\td\nef" {
		t.Errorf("String(%q) = %q, want tab and newline preserved only", in, got)
	}
}

func TestColonRules(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"aa:bb:cc:dd:ee:ff", "aa-bb-cc-dd-ee-ff"},
		{"fe80::1%en0 gateway", "fe80--1%en0 gateway"},
		{"status: open", "status - open"},
		{"no colons here", "no colons here"},
	}
	for _, tc := range tests {
		if got := String(tc.in); got != tc.want {
			t.Errorf("String(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestIdempotence verifies sanitize(sanitize(x)) == sanitize(x) across
// representative inputs.
func TestIdempotence(t *testing.T) {
	t.Parallel()
	inputs := []string{
		"aa:bb:cc:dd:ee:ff extra: tokens: here: and: more:",
		"\x1b[31merror:\x1b[0m something",
		"2001:db8::1",
		"port 443: open",
		"plain text",
	}
	for _, in := range inputs {
		once := String(in)
		twice := String(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestResultRecursion(t *testing.T) {
	t.Parallel()
	r := &envelope.Result{
		Success: true,
		Stdout:  "\x1b[32mgateway: 192.168.1.1\x1b[0m",
		ParsedData: map[string]any{
			"mac": "a4:83:e7:2e:11:92",
			"nested": map[string]any{
				"note": "time: now",
			},
			"hosts": []any{"ip: 10.0.0.1", 42},
		},
	}

	clean := Result(r)
	if clean.Stdout != "gateway - 192.168.1.1" {
		t.Errorf("Stdout = %q", clean.Stdout)
	}
	if got := clean.ParsedData["mac"]; got != "a4-83-e7-2e-11-92" {
		t.Errorf("mac = %v", got)
	}
	nested := clean.ParsedData["nested"].(map[string]any)
	if nested["note"] != "time - now" {
		t.Errorf("nested note = %v", nested["note"])
	}
	hosts := clean.ParsedData["hosts"].([]any)
	if hosts[0] != "ip - 10.0.0.1" || hosts[1] != 42 {
		t.Errorf("hosts = %v", hosts)
	}

	// Original envelope untouched.
	if r.Stdout == clean.Stdout {
		t.Error("sanitizer modified the input envelope")
	}
}
