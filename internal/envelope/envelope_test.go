package envelope

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestSuccessShape verifies the success-envelope invariant: success implies
// empty error fields and non-nil maps.
func TestSuccessShape(t *testing.T) {
	t.Parallel()
	r := NewSuccess(SuccessParams{
		Tool:    "ping_host",
		Target:  "127.0.0.1",
		Command: "ping -c 2 127.0.0.1",
		Elapsed: 120 * time.Millisecond,
	})

	if !r.Success {
		t.Fatal("expected Success=true")
	}
	if r.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", r.ExitCode)
	}
	if r.ErrorType != "" || r.ErrorMessage != "" {
		t.Errorf("success envelope carries error fields: %q %q", r.ErrorType, r.ErrorMessage)
	}
	if r.ParsedData == nil || r.OptionsUsed == nil {
		t.Error("ParsedData and OptionsUsed must never be nil")
	}
	if r.ExecutionTime <= 0 {
		t.Errorf("ExecutionTime = %v, want > 0", r.ExecutionTime)
	}
}

// TestErrorShape verifies the failure-envelope invariant and the template
// fallback for unknown messages.
func TestErrorShape(t *testing.T) {
	t.Parallel()
	r := NetworkError(CodeTimeout, ErrorParams{
		Tool:    "ping_host",
		Target:  "10.0.0.99",
		Context: map[string]string{"timeout": "5"},
	})

	if r.Success {
		t.Fatal("expected Success=false")
	}
	if r.ErrorType != ErrNetwork || r.ErrorCode != CodeTimeout {
		t.Errorf("taxonomy pair = (%s, %s)", r.ErrorType, r.ErrorCode)
	}
	if want := "Operation timed out after 5s"; r.ErrorMessage != want {
		t.Errorf("ErrorMessage = %q, want %q", r.ErrorMessage, want)
	}
	if r.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", r.ExitCode)
	}
	if len(r.Suggestions) == 0 {
		t.Error("expected remediation suggestions for network.timeout")
	}
}

// TestTemplateMissingPlaceholder verifies that unresolved placeholders stay
// literal instead of breaking the message.
func TestTemplateMissingPlaceholder(t *testing.T) {
	t.Parallel()
	r := SystemError(CodePermissionDenied, ErrorParams{Tool: "nmap_scan"})
	if !strings.Contains(r.ErrorMessage, "{operation}") {
		t.Errorf("missing placeholder should stay literal, got %q", r.ErrorMessage)
	}
}

// TestTemplateToolAlias verifies that the tool_missing message names the
// binary supplied as the "tool" context value.
func TestTemplateToolAlias(t *testing.T) {
	t.Parallel()
	r := SystemError(CodeToolMissing, ErrorParams{
		Tool:    "run_nmap_scan",
		Context: map[string]string{"tool": "nmap"},
	})
	if !strings.Contains(r.ErrorMessage, "nmap") {
		t.Errorf("ErrorMessage = %q, want it to name the missing binary", r.ErrorMessage)
	}
}

// TestMarshalNulls verifies the wire shape: null target/error fields on
// success, populated on failure.
func TestMarshalNulls(t *testing.T) {
	t.Parallel()
	ok := NewSuccess(SuccessParams{Tool: "get_external_ip"})
	data, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"target", "error_type", "error_message"} {
		v, present := m[key]
		if !present {
			t.Errorf("key %q absent from wire envelope", key)
		}
		if v != nil {
			t.Errorf("key %q = %v, want null", key, v)
		}
	}
	for _, key := range []string{"success", "exit_code", "execution_time", "timestamp", "tool_name", "command_executed", "options_used", "stdout", "stderr", "parsed_data"} {
		if _, present := m[key]; !present {
			t.Errorf("required key %q absent from wire envelope", key)
		}
	}
}

// TestTimeoutTable verifies known and fallback timeout lookups.
func TestTimeoutTable(t *testing.T) {
	t.Parallel()
	if got := Timeout("ping"); got != 5*time.Second {
		t.Errorf("Timeout(ping) = %v, want 5s", got)
	}
	if got := Timeout("comprehensive_scan"); got != 600*time.Second {
		t.Errorf("Timeout(comprehensive_scan) = %v, want 600s", got)
	}
	if got := Timeout("no_such_operation"); got != defaultTimeout {
		t.Errorf("Timeout(unknown) = %v, want %v", got, defaultTimeout)
	}
}

// TestSummarizeBands verifies the success/partial/error banding.
func TestSummarizeBands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		total, ok int
		status    BatchStatus
		rate      float64
	}{
		{4, 4, StatusSuccess, 1.0},
		{5, 4, StatusSuccess, 0.8},
		{4, 3, StatusPartial, 0.75},
		{4, 0, StatusError, 0},
		{0, 0, StatusError, 0},
	}
	for _, tc := range tests {
		s := Summarize("ntp", tc.total, tc.ok)
		if s.Status != tc.status {
			t.Errorf("Summarize(%d, %d).Status = %s, want %s", tc.total, tc.ok, s.Status, tc.status)
		}
		if s.SuccessRate != tc.rate {
			t.Errorf("Summarize(%d, %d).SuccessRate = %v, want %v", tc.total, tc.ok, s.SuccessRate, tc.rate)
		}
		if s.Failed != tc.total-tc.ok {
			t.Errorf("Summarize(%d, %d).Failed = %d", tc.total, tc.ok, s.Failed)
		}
	}
}
