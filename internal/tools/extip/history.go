// Package extip implements the external-IP tracking and reputation probes:
// change detection against a per-user JSON history file, optional AbuseIPDB
// scoring and Spamhaus DNSBL checks.
package extip

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/MrWong99/netscout/internal/netops"
)

// historyFileName is the JSON document under the user config directory.
const historyFileName = "external_ip_history.json"

// History is the persisted external-IP record. A missing file reads as the
// zero value (the uninitialized state).
type History struct {
	CurrentIP         string `json:"current_ip"`
	CurrentTimestamp  string `json:"current_timestamp"`
	PreviousIP        string `json:"previous_ip"`
	PreviousTimestamp string `json:"previous_timestamp"`
}

// Initialized reports whether any IP has been recorded yet.
func (h History) Initialized() bool {
	return h.CurrentIP != ""
}

// HistoryPath returns the history file location.
func HistoryPath() (string, error) {
	dir, err := netops.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFileName), nil
}

// LoadHistory reads the history file at path. Missing or corrupt files read
// as the zero history so first runs and damaged state both start clean.
func LoadHistory(path string) History {
	data, err := os.ReadFile(path)
	if err != nil {
		return History{}
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}
	}
	return h
}

// SaveHistory writes the history atomically (temp file + rename) so
// concurrent readers never observe a torn document.
func SaveHistory(path string, h History) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	return netops.WriteFileAtomic(path, data, 0o644)
}

// Record folds a freshly observed IP into the history and reports whether it
// constitutes a change event.
//
// The state machine: an uninitialized history stores the IP without claiming
// a change; a matching IP refreshes only the observation timestamp (previous
// untouched); a differing IP shifts current to previous and stores the new
// current. The "last observed" timestamp always refreshes — it is distinct
// from the change event itself.
func Record(h History, observedIP string, now time.Time) (History, bool) {
	timestamp := now.Format(time.RFC3339)

	if !h.Initialized() {
		h.CurrentIP = observedIP
		h.CurrentTimestamp = timestamp
		return h, false
	}

	if h.CurrentIP == observedIP {
		h.CurrentTimestamp = timestamp
		return h, false
	}

	h.PreviousIP = h.CurrentIP
	h.PreviousTimestamp = h.CurrentTimestamp
	h.CurrentIP = observedIP
	h.CurrentTimestamp = timestamp
	return h, true
}
