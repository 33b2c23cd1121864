package registry

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
)

// BinaryStatus records the detection outcome for one external binary.
type BinaryStatus struct {
	Name        string    `json:"name"`
	Present     bool      `json:"present"`
	Path        string    `json:"path,omitempty"`
	Version     string    `json:"version,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// binaryPaths lists the fixed candidate paths checked per binary before
// falling back to a PATH lookup. Wrappers for binaries not in this table are
// still detectable through PATH.
var binaryPaths = map[string][]string{
	"nmap": {
		"/usr/bin/nmap", "/usr/local/bin/nmap", "/opt/local/bin/nmap",
		"/snap/bin/nmap", "/opt/homebrew/bin/nmap",
		`C:\Program Files\Nmap\nmap.exe`, `C:\Program Files (x86)\Nmap\nmap.exe`,
	},
	"traceroute": {
		"/usr/bin/traceroute", "/usr/local/bin/traceroute", "/bin/traceroute", "/sbin/traceroute",
		`C:\Windows\System32\tracert.exe`,
	},
	"dig": {
		"/usr/bin/dig", "/usr/local/bin/dig", "/opt/homebrew/bin/dig",
	},
	"tshark": {
		"/usr/bin/tshark", "/usr/local/bin/tshark", "/opt/homebrew/bin/tshark",
		`C:\Program Files\Wireshark\tshark.exe`,
	},
	"nuclei":      {"/usr/bin/nuclei", "/usr/local/bin/nuclei", "/opt/homebrew/bin/nuclei"},
	"httpx":       {"/usr/bin/httpx", "/usr/local/bin/httpx", "/opt/homebrew/bin/httpx"},
	"feroxbuster": {"/usr/bin/feroxbuster", "/usr/local/bin/feroxbuster", "/opt/homebrew/bin/feroxbuster"},
	"gobuster":    {"/usr/bin/gobuster", "/usr/local/bin/gobuster", "/opt/homebrew/bin/gobuster"},
}

// installHints maps binary and GOOS to an installation suggestion.
var installHints = map[string]map[string]string{
	"nmap": {
		"linux":   "sudo apt install nmap",
		"darwin":  "brew install nmap",
		"windows": "Download from https://nmap.org/download.html",
	},
	"traceroute": {
		"linux":  "sudo apt install traceroute",
		"darwin": "traceroute ships with macOS",
	},
	"dig": {
		"linux":  "sudo apt install dnsutils",
		"darwin": "dig ships with macOS",
	},
	"tshark": {
		"linux":  "sudo apt install tshark",
		"darwin": "brew install wireshark",
	},
}

// InstallHint returns the installation suggestion for a binary on the
// current platform.
func InstallHint(binary string) string {
	if hints, ok := installHints[binary]; ok {
		if hint, ok := hints[runtime.GOOS]; ok {
			return hint
		}
	}
	return "Install " + binary + " with your platform's package manager"
}

// DetectBinaries probes for every named binary (the fixed path table first,
// PATH second), captures a version banner where cheap, and caches the
// outcome. Call again to refresh.
func (r *Registry) DetectBinaries(ctx context.Context, names ...string) {
	for _, name := range names {
		status := detectBinary(ctx, name)
		r.mu.Lock()
		r.binaries[name] = status
		r.mu.Unlock()
	}
}

// detectBinary performs one detection pass.
func detectBinary(ctx context.Context, name string) BinaryStatus {
	status := BinaryStatus{Name: name, LastChecked: time.Now()}

	for _, candidate := range binaryPaths[name] {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			status.Present = true
			status.Path = candidate
			break
		}
	}
	if !status.Present {
		if path, err := exec.LookPath(name); err == nil {
			status.Present = true
			status.Path = path
		}
	}
	if !status.Present {
		return status
	}

	if res, err := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), status.Path, "--version"); err == nil && res.ExitCode == 0 {
		if line, _, found := strings.Cut(res.Stdout, "\n"); found || line != "" {
			status.Version = strings.TrimSpace(line)
		}
	}
	return status
}

// BinaryPresent reports whether a binary was detected as available.
func (r *Registry) BinaryPresent(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.binaryPresentLocked(name)
}

// binaryPresentLocked is BinaryPresent with r.mu already held.
func (r *Registry) binaryPresentLocked(name string) bool {
	status, checked := r.binaries[name]
	if !checked {
		// Undetected binaries are treated as present so tests and embedders
		// that skip detection still see the full catalog; ExecuteTool on a
		// truly absent binary surfaces the start error as tool_missing.
		return true
	}
	return status.Present
}

// Binaries returns a snapshot of the availability cache.
func (r *Registry) Binaries() []BinaryStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BinaryStatus, 0, len(r.binaries))
	for _, status := range r.binaries {
		out = append(out, status)
	}
	return out
}
