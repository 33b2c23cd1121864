package parse

import (
	"regexp"
	"strings"
)

var (
	macInARP       = regexp.MustCompile(`(?:at\s+|\s)([0-9a-fA-F]{1,2}(?::[0-9a-fA-F]{1,2}){5})(?:\s|$)`)
	winMACInARP    = regexp.MustCompile(`([0-9a-fA-F]{2}(?:-[0-9a-fA-F]{2}){5})`)
	ipRouteDefault = regexp.MustCompile(`default via ([\d.]+)`)
	netstatGateway = regexp.MustCompile(`(?m)^(?:default|0\.0\.0\.0)\s+([\d.]+)`)
	winGateway     = regexp.MustCompile(`0\.0\.0\.0\s+0\.0\.0\.0\s+([\d.]+)`)
)

// ARPMACAddress extracts the MAC address from arp output for a queried IP.
// Returns an empty string when no MAC is present (incomplete entries).
func ARPMACAddress(output, goos string) string {
	if goos == "windows" {
		if m := winMACInARP.FindStringSubmatch(output); m != nil {
			return strings.ToLower(strings.ReplaceAll(m[1], "-", ":"))
		}
		return ""
	}
	if strings.Contains(output, "incomplete") {
		return ""
	}
	if m := macInARP.FindStringSubmatch(output); m != nil {
		return strings.ToLower(normalizeMACOctets(m[1]))
	}
	return ""
}

// normalizeMACOctets left-pads single-digit octets, which BSD arp prints
// unpadded.
func normalizeMACOctets(mac string) string {
	parts := strings.Split(mac, ":")
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	return strings.Join(parts, ":")
}

// DefaultGateway extracts the default gateway IP from routing table output
// (`ip route`, `netstat -rn` or `route print` depending on goos).
func DefaultGateway(output, goos string) string {
	if goos == "windows" {
		if m := winGateway.FindStringSubmatch(output); m != nil {
			return m[1]
		}
		return ""
	}
	if m := ipRouteDefault.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	if m := netstatGateway.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	return ""
}
