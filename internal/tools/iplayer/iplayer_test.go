package iplayer

import (
	"context"
	"testing"

	"github.com/MrWong99/netscout/internal/envelope"
)

// TestClassifyNAT covers the three classification outcomes.
func TestClassifyNAT(t *testing.T) {
	t.Parallel()
	tests := []struct {
		local, external string
		want            NATClassification
	}{
		{"192.168.1.10", "203.0.113.5", NATTrue},
		{"10.0.0.2", "198.51.100.7", NATTrue},
		{"172.16.5.5", "203.0.113.5", NATTrue},
		{"203.0.113.5", "203.0.113.5", NATFalse},
		{"8.8.8.8", "203.0.113.5", NATUncertain},
	}
	for _, tc := range tests {
		if got := ClassifyNAT(tc.local, tc.external); got != tc.want {
			t.Errorf("ClassifyNAT(%s, %s) = %s, want %s", tc.local, tc.external, got, tc.want)
		}
	}
}

// TestPortClosedEnvelope verifies the closed/filtered envelope shape against
// a port that nothing listens on.
func TestPortClosedEnvelope(t *testing.T) {
	t.Parallel()
	res := testPortConnectivity(context.Background(), map[string]any{
		"host": "127.0.0.1", "port": 1, "timeout": 1,
	})
	if res.Success {
		t.Skip("something answers on 127.0.0.1:1 in this environment")
	}
	if res.ParsedData["status"] != "closed/filtered" {
		t.Errorf("status = %v, want closed/filtered", res.ParsedData["status"])
	}
	if res.ErrorType != envelope.ErrNetwork {
		t.Errorf("error_type = %s, want network", res.ErrorType)
	}
}

// TestPortValidation verifies the input-taxonomy envelope for bad ports.
func TestPortValidation(t *testing.T) {
	t.Parallel()
	res := testPortConnectivity(context.Background(), map[string]any{
		"host": "127.0.0.1", "port": 70000,
	})
	if res.Success || res.ErrorCode != envelope.CodeInvalidPort {
		t.Errorf("envelope = success=%v code=%s, want input.invalid_port", res.Success, res.ErrorCode)
	}
}

// TestPingMissingTarget verifies required-parameter behaviour at the probe
// boundary.
func TestPingMissingTarget(t *testing.T) {
	t.Parallel()
	res := pingHost(context.Background(), map[string]any{})
	if res.Success || res.ErrorType != envelope.ErrInput {
		t.Errorf("envelope = success=%v type=%s, want input failure", res.Success, res.ErrorType)
	}
}

// TestLooksLikeDNSFailure covers the platform resolution-error phrasings.
func TestLooksLikeDNSFailure(t *testing.T) {
	t.Parallel()
	positives := []string{
		"ping: cannot resolve no.such.host.invalid.: Unknown host",
		"ping: no.such.host: Name or service not known",
		"ping: no.such.host: Temporary failure in name resolution",
	}
	for _, s := range positives {
		if !looksLikeDNSFailure(s) {
			t.Errorf("looksLikeDNSFailure(%q) = false", s)
		}
	}
	if looksLikeDNSFailure("64 bytes from 1.1.1.1: icmp_seq=0") {
		t.Error("false positive on normal ping output")
	}
}
