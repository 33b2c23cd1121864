package parse

import (
	"regexp"
	"strings"
)

// Interface is a single network interface extracted from platform tool
// output.
type Interface struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	IP     string `json:"ip"`
	MAC    string `json:"mac"`
}

var (
	ifconfigHeader = regexp.MustCompile(`^([a-zA-Z0-9]+):?\s+flags=.*<([A-Z,]*)>`)
	ipAddrHeader   = regexp.MustCompile(`^\d+:\s+([a-zA-Z0-9@.]+):\s+<([A-Z,_-]*)>`)
	inetLine       = regexp.MustCompile(`inet\s+([\d.]+)`)
	macLine        = regexp.MustCompile(`(?:ether|HWaddr|link/ether)\s+([0-9a-fA-F:]{17})`)
	winAdapter     = regexp.MustCompile(`adapter\s+(.+):`)
	winIPv4        = regexp.MustCompile(`IPv4 Address[ .]*:\s*([\d.]+)`)
	winMAC         = regexp.MustCompile(`Physical Address[ .]*:\s*([0-9A-Fa-f-]{17})`)
)

// Interfaces parses ifconfig, `ip addr` or ipconfig output (per goos) into
// an interface list.
func Interfaces(output, goos string) []Interface {
	if goos == "windows" {
		return windowsInterfaces(output)
	}
	return unixInterfaces(output)
}

// unixInterfaces handles both ifconfig and `ip addr` block formats: a header
// line naming the interface followed by indented detail lines.
func unixInterfaces(output string) []Interface {
	var result []Interface
	var current *Interface

	flush := func() {
		if current != nil && current.Name != "" {
			result = append(result, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(output, "\n") {
		header := ifconfigHeader.FindStringSubmatch(line)
		if header == nil {
			header = ipAddrHeader.FindStringSubmatch(line)
		}
		if header != nil {
			flush()
			status := "down"
			if strings.Contains(header[2], "UP") {
				status = "up"
			}
			name := strings.TrimSuffix(header[1], ":")
			// `ip addr` appends "@parent" for virtual links.
			if at := strings.IndexByte(name, '@'); at >= 0 {
				name = name[:at]
			}
			current = &Interface{Name: name, Status: status}
			continue
		}
		if current == nil {
			continue
		}
		if m := inetLine.FindStringSubmatch(line); m != nil && current.IP == "" {
			current.IP = m[1]
		}
		if m := macLine.FindStringSubmatch(line); m != nil && current.MAC == "" {
			current.MAC = strings.ToLower(m[1])
		}
	}
	flush()
	return result
}

// windowsInterfaces handles ipconfig /all adapter sections.
func windowsInterfaces(output string) []Interface {
	var result []Interface
	var current *Interface

	flush := func() {
		if current != nil && current.Name != "" {
			result = append(result, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(output, "\n") {
		if m := winAdapter.FindStringSubmatch(line); m != nil {
			flush()
			current = &Interface{Name: strings.TrimSpace(m[1]), Status: "unknown"}
			continue
		}
		if current == nil {
			continue
		}
		if m := winIPv4.FindStringSubmatch(line); m != nil && current.IP == "" {
			current.IP = m[1]
			current.Status = "up"
		}
		if m := winMAC.FindStringSubmatch(line); m != nil && current.MAC == "" {
			current.MAC = strings.ToLower(strings.ReplaceAll(m[1], "-", ":"))
		}
		if strings.Contains(line, "Media disconnected") {
			current.Status = "down"
		}
	}
	flush()
	return result
}

// InterfaceMaps renders the interface list as parsed_data-ready maps.
func InterfaceMaps(ifaces []Interface) []map[string]any {
	out := make([]map[string]any, len(ifaces))
	for i, itf := range ifaces {
		out[i] = map[string]any{
			"name":   itf.Name,
			"status": itf.Status,
			"ip":     itf.IP,
			"mac":    itf.MAC,
		}
	}
	return out
}
