// Package ntpdiag implements the time-layer probes: single NTP server
// queries, the concurrent multi-server sweep with retry, and offset-spread
// synchronization analysis.
package ntpdiag

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"sort"
	"time"

	"github.com/beevik/ntp"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/resilience"
	"github.com/MrWong99/netscout/internal/tools"
)

// defaultServers are the well-known public NTP servers swept by
// check_ntp_servers.
var defaultServers = []string{
	"time.google.com",
	"time.cloudflare.com",
	"time.apple.com",
	"pool.ntp.org",
	"time.nist.gov",
	"time.windows.com",
}

const (
	// defaultVersion is the NTP protocol version used for queries.
	defaultVersion = 3

	// maxParallelChecks bounds sweep concurrency (W for the NTP sweep).
	maxParallelChecks = 10

	// syncThresholdMs is the default offset magnitude considered drifted.
	syncThresholdMs = 100.0
)

// queryServer performs one NTP query and renders the per-server record.
func queryServer(server string, port, version int, timeout time.Duration) (map[string]any, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{
		Timeout: timeout,
		Version: version,
		Port:    port,
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}

	offsetMs := float64(resp.ClockOffset.Microseconds()) / 1000
	return map[string]any{
		"server":             server,
		"port":               port,
		"server_time":        time.Now().Add(resp.ClockOffset).UTC().Format(time.RFC3339Nano),
		"offset_ms":          round3(offsetMs),
		"stratum":            int(resp.Stratum),
		"reference_id":       refIDString(resp.ReferenceID, resp.Stratum),
		"precision":          resp.Precision.String(),
		"root_delay_ms":      round3(float64(resp.RootDelay.Microseconds()) / 1000),
		"root_dispersion_ms": round3(float64(resp.RootDispersion.Microseconds()) / 1000),
		"response_time_ms":   round3(float64(resp.RTT.Microseconds()) / 1000),
		"version":            version,
	}, nil
}

// refIDString renders the 32-bit reference identifier: four ASCII characters
// at stratum ≤ 1, a dotted quad otherwise.
func refIDString(refID uint32, stratum uint8) string {
	var raw [4]byte
	binary.BigEndian.PutUint32(raw[:], refID)
	if stratum <= 1 {
		printable := make([]byte, 0, 4)
		for _, b := range raw {
			if b >= 32 && b < 127 {
				printable = append(printable, b)
			}
		}
		if len(printable) > 0 {
			return string(printable)
		}
	}
	return net.IPv4(raw[0], raw[1], raw[2], raw[3]).String()
}

// classifyNTPError maps an NTP query error to the network taxonomy.
func classifyNTPError(err error) envelope.ErrorCode {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return envelope.CodeDNSResolution
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return envelope.CodeTimeout
	}
	return envelope.CodeConnectionFailed
}

// testNTPServer implements the test_ntp_server tool.
func testNTPServer(_ context.Context, args map[string]any) *envelope.Result {
	server := tools.StringArg(args, "server", tools.StringArg(args, "target", ""))
	port := tools.IntArg(args, "port", 123)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("ntp_query").Seconds()))
	version := tools.IntArg(args, "version", defaultVersion)
	options := map[string]any{"server": server, "port": port, "timeout": timeoutSec, "version": version}
	start := time.Now()
	command := fmt.Sprintf("NTP query to %s:%d (version %d)", server, port, version)

	if server == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "test_ntp_server", Message: "test_ntp_server requires a server", Options: options,
		})
	}
	if version < 2 || version > 4 {
		return envelope.InputError(envelope.CodeInvalidFormat, envelope.ErrorParams{
			Tool: "test_ntp_server", Target: server, Command: command, Options: options,
			Message: fmt.Sprintf("Invalid NTP version %d. Must be 2, 3 or 4", version),
		})
	}
	if port < 1 || port > 65535 {
		return envelope.InputError(envelope.CodeInvalidPort, envelope.ErrorParams{
			Tool: "test_ntp_server", Target: server, Command: command, Options: options,
			Context: map[string]string{"port": fmt.Sprintf("%d", port)},
		})
	}

	record, err := queryServer(server, port, version, time.Duration(timeoutSec)*time.Second)
	elapsed := time.Since(start)
	if err != nil {
		return envelope.NetworkError(classifyNTPError(err), envelope.ErrorParams{
			Tool: "test_ntp_server", Target: server, Command: command,
			Stderr: err.Error(), Elapsed: elapsed, Options: options,
			Context: map[string]string{"timeout": fmt.Sprintf("%d", timeoutSec)},
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "test_ntp_server", Target: server, Command: command,
		Stdout: fmt.Sprintf("NTP server %s responded with stratum %v, offset %+.1fms",
			server, record["stratum"], record["offset_ms"]),
		Elapsed: elapsed, Options: options,
		Parsed: record,
	})
}

// checkNTPServers implements the check_ntp_servers tool: a bounded
// concurrent sweep with one retry round for failed servers, ranked by
// absolute offset.
func checkNTPServers(ctx context.Context, args map[string]any) *envelope.Result {
	servers := tools.StringListArg(args, "servers", defaultServers)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("ntp_query").Seconds()))
	retryFailed := tools.BoolArg(args, "retry_failed", true)
	options := map[string]any{"servers": servers, "timeout": timeoutSec, "retry_failed": retryFailed}
	start := time.Now()
	command := fmt.Sprintf("NTP batch check of %d servers", len(servers))

	timeout := time.Duration(timeoutSec) * time.Second
	retry := resilience.Policy{MaxAttempts: 1}
	if retryFailed {
		retry = resilience.Policy{MaxAttempts: 2, BaseDelay: 2 * time.Second, Multiplier: 1}
	}

	runner := batch.New(batch.Config{
		Parallelism:      min(maxParallelChecks, len(servers)),
		PerTargetTimeout: timeout + 2*time.Second,
		Retry:            retry,
	})

	reachable, unreachable, summary := runner.Run(ctx, "ntp", servers, func(_ context.Context, server string) batch.Outcome {
		record, err := queryServer(server, 123, defaultVersion, timeout)
		if err != nil {
			return batch.Outcome{Target: server, ErrCode: classifyNTPError(err), ErrMessage: err.Error()}
		}
		return batch.Outcome{Target: server, Data: record}
	})

	// Rank reachable servers by absolute offset, best first.
	sort.Slice(reachable, func(i, j int) bool {
		return math.Abs(reachable[i].Data["offset_ms"].(float64)) < math.Abs(reachable[j].Data["offset_ms"].(float64))
	})

	parsed := map[string]any{
		"reachable_servers":   batch.OutcomeMaps(reachable),
		"unreachable_servers": batch.OutcomeMaps(unreachable),
		"summary":             summary.Map(),
	}
	if len(reachable) > 0 {
		parsed["best_server"] = reachable[0].Target
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_ntp_servers", Command: command,
			Message: "No NTP servers reachable - check connectivity and UDP 123 egress",
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_ntp_servers", Command: command,
		Stdout:  summary.Text,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// SyncStats holds the offset statistics computed by AnalyzeOffsets.
type SyncStats struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Range  float64
	StdDev float64
}

// AnalyzeOffsets computes the spread statistics over per-server offsets (ms).
func AnalyzeOffsets(offsets []float64) SyncStats {
	if len(offsets) == 0 {
		return SyncStats{}
	}

	sorted := append([]float64(nil), offsets...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	stddev := 0.0
	if len(sorted) > 1 {
		variance := 0.0
		for _, v := range sorted {
			variance += (v - mean) * (v - mean)
		}
		stddev = math.Sqrt(variance / float64(len(sorted)-1))
	}

	return SyncStats{
		Mean:   round3(mean),
		Median: round3(median),
		Min:    round3(sorted[0]),
		Max:    round3(sorted[len(sorted)-1]),
		Range:  round3(sorted[len(sorted)-1] - sorted[0]),
		StdDev: round3(stddev),
	}
}

// QualityBand classifies the offset range against the drift threshold.
func QualityBand(offsetRange, thresholdMs float64) (band string, score int) {
	switch {
	case offsetRange <= thresholdMs:
		return "excellent", 95
	case offsetRange <= thresholdMs*2:
		return "good", 80
	case offsetRange <= thresholdMs*5:
		return "moderate", 60
	default:
		return "poor", 30
	}
}

// analyzeNTPSync implements the analyze_ntp_sync tool.
func analyzeNTPSync(ctx context.Context, args map[string]any) *envelope.Result {
	servers := tools.StringListArg(args, "servers", defaultServers)
	thresholdMs := tools.FloatArg(args, "threshold_ms", syncThresholdMs)
	options := map[string]any{"servers": servers, "threshold_ms": thresholdMs}
	start := time.Now()
	command := fmt.Sprintf("NTP synchronization analysis of %d servers", len(servers))

	sweep := checkNTPServers(ctx, map[string]any{"servers": servers, "silent": true})
	reachableAny, _ := sweep.ParsedData["reachable_servers"].([]map[string]any)
	if !sweep.Success || len(reachableAny) == 0 {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "analyze_ntp_sync", Command: command,
			Message: "No NTP servers reachable for synchronization analysis",
			Elapsed: time.Since(start), Options: options,
		})
	}

	offsets := make([]float64, 0, len(reachableAny))
	var synchronized, drifted []map[string]any
	for _, record := range reachableAny {
		offset, _ := record["offset_ms"].(float64)
		offsets = append(offsets, offset)
		entry := map[string]any{"server": record["server"], "offset_ms": offset}
		if math.Abs(offset) > thresholdMs {
			severity := "moderate"
			if math.Abs(offset) > thresholdMs*2 {
				severity = "high"
			}
			entry["drift_severity"] = severity
			drifted = append(drifted, entry)
		} else {
			synchronized = append(synchronized, entry)
		}
	}

	stats := AnalyzeOffsets(offsets)
	band, score := QualityBand(stats.Range, thresholdMs)

	var recommendations []string
	switch {
	case len(drifted) == 0:
		recommendations = append(recommendations, "All servers show good time synchronization")
	case len(drifted) == len(reachableAny):
		recommendations = append(recommendations,
			"All servers show significant time drift - check the local system clock",
			"Consider enabling NTP synchronization on this host")
	default:
		recommendations = append(recommendations,
			fmt.Sprintf("%d servers show significant time drift", len(drifted)),
			"Investigate servers with large offsets for reliability")
	}
	if stats.Range > thresholdMs*3 {
		recommendations = append(recommendations, "Large variation between servers detected - potential reliability issues")
	}
	if stats.StdDev > thresholdMs {
		recommendations = append(recommendations, "High standard deviation indicates inconsistent server responses")
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "analyze_ntp_sync", Command: command,
		Stdout:  fmt.Sprintf("Synchronization analysis complete: %s quality (%d%%)", band, score),
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{
			"total_analyzed": len(reachableAny),
			"threshold_ms":   thresholdMs,
			"statistics": map[string]any{
				"mean_offset_ms":   stats.Mean,
				"median_offset_ms": stats.Median,
				"min_offset_ms":    stats.Min,
				"max_offset_ms":    stats.Max,
				"offset_range_ms":  stats.Range,
				"std_deviation_ms": stats.StdDev,
			},
			"synchronized_servers": synchronized,
			"drifted_servers":      drifted,
			"sync_quality":         band,
			"quality_score":        score,
			"recommendations":      recommendations,
		},
	})
}

// round3 rounds to three decimal places, the precision used for all
// millisecond figures.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
