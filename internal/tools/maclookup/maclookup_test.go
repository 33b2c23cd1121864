package maclookup

import "testing"

// TestNormalize covers the supported separator formats and the invalid
// sentinel, including the round-trip property: every accepted spelling of
// the same address normalizes identically.
func TestNormalize(t *testing.T) {
	t.Parallel()

	want := "AABBCCDDEEFF"
	equivalents := []string{
		"AA:BB:CC:DD:EE:FF",
		"aa-bb-cc-dd-ee-ff",
		"AABB.CCDD.EEFF",
		"aabbccddeeff",
		"  aa bb cc dd ee ff  ",
	}
	for _, in := range equivalents {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	invalid := []string{
		"",
		"AA:BB:CC:DD:EE",       // too short
		"AA:BB:CC:DD:EE:FF:00", // too long
		"GG:BB:CC:DD:EE:FF",    // non-hex
		"not a mac",
	}
	for _, in := range invalid {
		if got := Normalize(in); got != InvalidMAC {
			t.Errorf("Normalize(%q) = %q, want the invalid sentinel", in, got)
		}
	}
}

// TestNormalizeIdempotent verifies Normalize(Normalize(x)) == Normalize(x).
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()
	once := Normalize("a4:83:e7:2e:11:92")
	if got := Normalize(once); got != once {
		t.Errorf("not idempotent: %q != %q", got, once)
	}
}
