package extip

import (
	"path/filepath"
	"testing"
	"time"
)

// TestRecordSequence drives the change-tracking state machine with the
// sequence [A, A, B, B, A]: change events fire only on the 3rd and 5th
// observations, and previous_ip ends up as B.
func TestRecordSequence(t *testing.T) {
	t.Parallel()

	const a, b = "203.0.113.5", "198.51.100.7"
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var h History
	var changed bool
	wantChanges := []bool{false, false, true, false, true}
	sequence := []string{a, a, b, b, a}

	for i, ip := range sequence {
		now = now.Add(time.Minute)
		h, changed = Record(h, ip, now)
		if changed != wantChanges[i] {
			t.Errorf("observation %d (%s): changed = %v, want %v", i+1, ip, changed, wantChanges[i])
		}
	}

	if h.CurrentIP != a {
		t.Errorf("current_ip = %s, want %s", h.CurrentIP, a)
	}
	if h.PreviousIP != b {
		t.Errorf("previous_ip = %s, want %s", h.PreviousIP, b)
	}
}

// TestRecordFirstRun verifies that the first observation records without
// claiming a change and leaves previous empty.
func TestRecordFirstRun(t *testing.T) {
	t.Parallel()
	h, changed := Record(History{}, "203.0.113.5", time.Now())
	if changed {
		t.Error("first run must not claim a change")
	}
	if h.CurrentIP != "203.0.113.5" || h.PreviousIP != "" {
		t.Errorf("history after first run = %+v", h)
	}
}

// TestRecordRefreshesObservationTime verifies that a no-change observation
// refreshes the current timestamp but leaves previous untouched.
func TestRecordRefreshesObservationTime(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h, _ := Record(History{}, "203.0.113.5", t0)
	first := h.CurrentTimestamp

	h, changed := Record(h, "203.0.113.5", t0.Add(time.Hour))
	if changed {
		t.Error("same IP must not be a change")
	}
	if h.CurrentTimestamp == first {
		t.Error("observation timestamp should refresh on no-change")
	}
	if h.PreviousIP != "" || h.PreviousTimestamp != "" {
		t.Errorf("previous fields moved on no-change: %+v", h)
	}
}

// TestHistoryRoundTrip verifies atomic save + load, and that a missing file
// reads as the uninitialized state.
func TestHistoryRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.json")

	if got := LoadHistory(path); got.Initialized() {
		t.Errorf("missing file should load as uninitialized, got %+v", got)
	}

	want := History{
		CurrentIP:         "203.0.113.5",
		CurrentTimestamp:  "2026-03-01T12:00:00Z",
		PreviousIP:        "198.51.100.7",
		PreviousTimestamp: "2026-02-27T08:30:00Z",
	}
	if err := SaveHistory(path, want); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if got := LoadHistory(path); got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
