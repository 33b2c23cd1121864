package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// Hop is a single traceroute hop.
type Hop struct {
	Number   int     `json:"hop_number"`
	IP       string  `json:"ip"`
	Hostname string  `json:"hostname"`
	AvgTime  float64 `json:"avg_time"`
}

var (
	unixHop   = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+\(([\d.]+)\)\s+([\d.]+)`)
	unixTime  = regexp.MustCompile(`([\d.]+)\s*ms`)
	winHop    = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(.+)$`)
	bracketIP = regexp.MustCompile(`\[([\d.]+)\]`)
)

// Traceroute parses traceroute (unix) or tracert (windows) output into an
// ordered hop list. Unanswered hops ("* * *") are skipped.
func Traceroute(output, goos string) []Hop {
	var hops []Hop
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if goos == "windows" {
			m := winHop.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			num, _ := strconv.Atoi(m[1])
			hostField := strings.TrimSpace(m[5])
			ip := hostField
			hostname := hostField
			if b := bracketIP.FindStringSubmatch(hostField); b != nil {
				ip = b[1]
				hostname = strings.TrimSpace(strings.Split(hostField, "[")[0])
			}
			var times []float64
			for _, t := range []string{m[2], m[3], m[4]} {
				if strings.HasSuffix(t, "ms") {
					if v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSuffix(t, "ms"), "<"), 64); err == nil {
						times = append(times, v)
					}
				}
			}
			avg := 0.0
			if len(times) > 0 {
				sum := 0.0
				for _, v := range times {
					sum += v
				}
				avg = sum / float64(len(times))
			}
			hops = append(hops, Hop{Number: num, IP: ip, Hostname: hostname, AvgTime: avg})
			continue
		}

		m := unixHop.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		hostname := m[2]
		ip := m[3]
		// Average every probe time on the line, starting at the first one.
		sum, n := 0.0, 0
		for _, t := range unixTime.FindAllStringSubmatch(line[len(m[0])-len(m[4]):], -1) {
			if v, err := strconv.ParseFloat(t[1], 64); err == nil {
				sum += v
				n++
			}
		}
		timeMs := 0.0
		if n > 0 {
			timeMs = sum / float64(n)
		}
		if hostname == ip {
			hostname = ""
		}
		hops = append(hops, Hop{Number: num, IP: ip, Hostname: hostname, AvgTime: timeMs})
	}
	return hops
}

// HopMaps renders the hop list as parsed_data-ready maps.
func HopMaps(hops []Hop) []map[string]any {
	out := make([]map[string]any, len(hops))
	for i, h := range hops {
		out[i] = map[string]any{
			"hop_number": h.Number,
			"ip":         h.IP,
			"hostname":   h.Hostname,
			"avg_time":   h.AvgTime,
		}
	}
	return out
}
