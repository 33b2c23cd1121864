package envelope

import "time"

// timeouts is the centralized per-operation timeout table. Probes that need a
// timeout consult [Timeout] instead of hard-coding one, so tuning happens in
// one place.
var timeouts = map[string]time.Duration{
	"ping":               5 * time.Second,
	"dns_query":          10 * time.Second,
	"web_request":        15 * time.Second,
	"port_scan":          30 * time.Second,
	"network_discovery":  120 * time.Second,
	"comprehensive_scan": 600 * time.Second,
	"traceroute":         30 * time.Second,
	"ntp_query":          5 * time.Second,
	"tool_detection":     5 * time.Second,
	"whois_probe":        10 * time.Second,
	"nmap_basic":         60 * time.Second,
	"nmap_service":       120 * time.Second,
	"nmap_os":            180 * time.Second,
}

// defaultTimeout is used for operation types with no table entry.
const defaultTimeout = 30 * time.Second

// Timeout returns the standardized timeout for the given operation type,
// falling back to a 30-second default for unknown types.
func Timeout(operation string) time.Duration {
	if d, ok := timeouts[operation]; ok {
		return d
	}
	return defaultTimeout
}
