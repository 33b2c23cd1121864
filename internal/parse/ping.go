// Package parse contains the text parsers for platform diagnostic tool
// output: ping, traceroute/tracert, ifconfig / ip addr / ipconfig, arp,
// routing tables, DNS tool output and the Wireshark manufacturer database.
//
// Parsers never fail: unrecognized input yields an empty or partial result,
// and the owning probe decides whether sparse data matters. Every parser
// takes the originating GOOS tag so foreign output can be parsed in tests.
package parse

import (
	"regexp"
	"strconv"
)

// PingStats is the structured summary of a ping run.
type PingStats struct {
	PacketsSent     int     `json:"packets_sent"`
	PacketsReceived int     `json:"packets_received"`
	PacketLoss      float64 `json:"packet_loss"`
	MinTime         float64 `json:"min_time"`
	AvgTime         float64 `json:"avg_time"`
	MaxTime         float64 `json:"max_time"`
}

var (
	unixPingStats   = regexp.MustCompile(`(\d+) packets transmitted, (\d+)(?: packets)? received, ([\d.]+)% packet loss`)
	unixPingTiming  = regexp.MustCompile(`min/avg/max/(?:stddev|mdev) = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)
	winPingSent     = regexp.MustCompile(`Packets: Sent = (\d+)`)
	winPingReceived = regexp.MustCompile(`Received = (\d+)`)
	winPingLoss     = regexp.MustCompile(`Lost = \d+ \((\d+)% loss\)`)
	winPingTimes    = regexp.MustCompile(`time[<=](\d+)ms`)
)

// Ping parses ping output produced on the given GOOS. Missing sections leave
// the corresponding zero values; loss defaults to 100% until a statistics
// line is seen.
func Ping(output, goos string) PingStats {
	stats := PingStats{PacketLoss: 100}

	if goos == "windows" {
		if m := winPingSent.FindStringSubmatch(output); m != nil {
			stats.PacketsSent, _ = strconv.Atoi(m[1])
		}
		if m := winPingReceived.FindStringSubmatch(output); m != nil {
			stats.PacketsReceived, _ = strconv.Atoi(m[1])
		}
		if m := winPingLoss.FindStringSubmatch(output); m != nil {
			stats.PacketLoss, _ = strconv.ParseFloat(m[1], 64)
		}
		times := winPingTimes.FindAllStringSubmatch(output, -1)
		if len(times) > 0 {
			min, max, sum := -1.0, 0.0, 0.0
			for _, t := range times {
				v, _ := strconv.ParseFloat(t[1], 64)
				if min < 0 || v < min {
					min = v
				}
				if v > max {
					max = v
				}
				sum += v
			}
			stats.MinTime = min
			stats.MaxTime = max
			stats.AvgTime = sum / float64(len(times))
		}
		return stats
	}

	if m := unixPingStats.FindStringSubmatch(output); m != nil {
		stats.PacketsSent, _ = strconv.Atoi(m[1])
		stats.PacketsReceived, _ = strconv.Atoi(m[2])
		stats.PacketLoss, _ = strconv.ParseFloat(m[3], 64)
	}
	if m := unixPingTiming.FindStringSubmatch(output); m != nil {
		stats.MinTime, _ = strconv.ParseFloat(m[1], 64)
		stats.AvgTime, _ = strconv.ParseFloat(m[2], 64)
		stats.MaxTime, _ = strconv.ParseFloat(m[3], 64)
	}
	return stats
}

// Map renders the stats as a parsed_data-ready map.
func (p PingStats) Map() map[string]any {
	return map[string]any{
		"packets_sent":     p.PacketsSent,
		"packets_received": p.PacketsReceived,
		"packet_loss":      p.PacketLoss,
		"min_time":         p.MinTime,
		"avg_time":         p.AvgTime,
		"max_time":         p.MaxTime,
	}
}
