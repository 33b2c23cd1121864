// Package iplayer implements the layer-3 diagnostic probes: external IP
// discovery, ping, traceroute, TCP port connectivity, a sparse local-network
// ping sweep and NAT classification.
package iplayer

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"runtime"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/parse"
	"github.com/MrWong99/netscout/internal/tools"
)

// ipEchoServices is the ordered list of HTTP services tried by
// get_external_ip; the first that returns a valid IPv4 address wins.
var ipEchoServices = []string{
	"https://ipinfo.io/ip",
	"https://api.ipify.org",
	"https://icanhazip.com",
	"https://ident.me",
	"https://checkip.amazonaws.com",
}

// sparseSampleHosts are the final octets probed by scan_local_network. A full
// /24 sweep takes minutes; these addresses catch routers, servers and common
// DHCP assignments.
var sparseSampleHosts = []int{1, 10, 20, 50, 100, 150, 200, 254}

// FetchExternalIP returns the current external IPv4 address and the echo
// service that supplied it. Shared with the external-IP tracking and
// reputation probes.
func FetchExternalIP(ctx context.Context, timeout time.Duration) (ip, service string, err error) {
	var lastErr error
	for _, svc := range ipEchoServices {
		res, getErr := netops.Get(ctx, svc, netops.HTTPOptions{Timeout: timeout})
		if getErr != nil {
			lastErr = getErr
			continue
		}
		if res.StatusCode != 200 {
			lastErr = fmt.Errorf("iplayer: %s returned HTTP %d", svc, res.StatusCode)
			continue
		}
		candidate := strings.TrimSpace(res.BodySnippet)
		if isValidIPv4(candidate) {
			return candidate, svc, nil
		}
		lastErr = fmt.Errorf("iplayer: %s returned %q, not an IPv4 address", svc, candidate)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("iplayer: no external IP services configured")
	}
	return "", "", lastErr
}

// getExternalIP implements the get_external_ip tool.
func getExternalIP(ctx context.Context, args map[string]any) *envelope.Result {
	timeout := time.Duration(tools.IntArg(args, "timeout", 10)) * time.Second
	start := time.Now()
	command := "GET external IP echo services"
	options := map[string]any{"timeout": int(timeout.Seconds())}

	ip, service, err := FetchExternalIP(ctx, timeout)
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool:    "get_external_ip",
			Command: command,
			Stderr:  err.Error(),
			Message: "All external IP detection services failed",
			Elapsed: time.Since(start),
			Options: options,
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool:    "get_external_ip",
		Command: command,
		Stdout:  ip,
		Elapsed: time.Since(start),
		Options: options,
		Parsed: map[string]any{
			"external_ip":  ip,
			"service_used": service,
		},
	})
}

// pingHost implements the ping_host tool.
func pingHost(ctx context.Context, args map[string]any) *envelope.Result {
	target := tools.StringArg(args, "target", "")
	count := tools.IntArg(args, "count", 4)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("ping").Seconds()))
	options := map[string]any{"target": target, "count": count, "timeout": timeoutSec}
	start := time.Now()

	if target == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "ping_host", Message: "ping_host requires a target", Options: options,
		})
	}

	argv := netops.PingCommand(target, count, timeoutSec)
	command := strings.Join(argv, " ")
	// The whole run is bounded above the per-packet budget to cover DNS
	// resolution and scheduling.
	overall := time.Duration(timeoutSec*count+10) * time.Second

	res, err := netops.RunCommand(ctx, overall, argv...)
	if err != nil {
		return envelope.SystemError(envelope.CodeToolMissing, envelope.ErrorParams{
			Tool: "ping_host", Target: target, Command: command,
			Stderr: err.Error(), Elapsed: time.Since(start), Options: options,
			Context: map[string]string{"tool": "ping"},
		})
	}
	if res.TimedOut {
		return envelope.NetworkError(envelope.CodeTimeout, envelope.ErrorParams{
			Tool: "ping_host", Target: target, Command: command,
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
			Context: map[string]string{"timeout": fmt.Sprintf("%d", int(overall.Seconds()))},
		})
	}

	stats := parse.Ping(res.Stdout, runtime.GOOS)
	if res.ExitCode != 0 || stats.PacketsReceived == 0 {
		code := envelope.CodeUnreachable
		message := fmt.Sprintf("Ping to %s failed: no replies received", target)
		if looksLikeDNSFailure(res.Stderr + res.Stdout) {
			code = envelope.CodeDNSResolution
			message = fmt.Sprintf("Ping to %s failed: hostname resolution error", target)
		}
		out := envelope.NetworkError(code, envelope.ErrorParams{
			Tool: "ping_host", Target: target, Command: command,
			Stderr: res.Stderr, Message: message,
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
		})
		out.Stdout = res.Stdout
		out.ParsedData = stats.Map()
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "ping_host", Target: target, Command: command,
		Stdout: res.Stdout, Elapsed: res.Elapsed, Options: options,
		Parsed: stats.Map(),
	})
}

// looksLikeDNSFailure scans ping output for the platform resolution-failure
// phrasings.
func looksLikeDNSFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range []string{
		"cannot resolve", "unknown host", "name or service not known",
		"could not find host", "temporary failure in name resolution",
		"failure in name resolution", "no address associated",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// tracerouteHost implements the traceroute_host tool.
func tracerouteHost(ctx context.Context, args map[string]any) *envelope.Result {
	target := tools.StringArg(args, "target", "")
	maxHops := tools.IntArg(args, "max_hops", 30)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("traceroute").Seconds()))
	options := map[string]any{"target": target, "max_hops": maxHops, "timeout": timeoutSec}
	start := time.Now()

	if target == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "traceroute_host", Message: "traceroute_host requires a target", Options: options,
		})
	}

	argv := netops.TracerouteCommand(target, maxHops)
	command := strings.Join(argv, " ")

	res, err := netops.RunCommand(ctx, time.Duration(timeoutSec)*time.Second, argv...)
	if err != nil {
		return envelope.SystemError(envelope.CodeToolMissing, envelope.ErrorParams{
			Tool: "traceroute_host", Target: target, Command: command,
			Stderr: err.Error(), Elapsed: time.Since(start), Options: options,
			Context: map[string]string{"tool": argv[0]},
		})
	}
	if res.TimedOut {
		return envelope.NetworkError(envelope.CodeTimeout, envelope.ErrorParams{
			Tool: "traceroute_host", Target: target, Command: command,
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
			Context: map[string]string{"timeout": fmt.Sprintf("%d", timeoutSec)},
		})
	}

	hops := parse.Traceroute(res.Stdout, runtime.GOOS)
	if res.ExitCode != 0 && len(hops) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "traceroute_host", Target: target, Command: command,
			Stderr: res.Stderr, Message: fmt.Sprintf("Traceroute to %s failed", target),
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
		})
		out.Stdout = res.Stdout
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "traceroute_host", Target: target, Command: command,
		Stdout: res.Stdout, Elapsed: res.Elapsed, Options: options,
		Parsed: map[string]any{
			"hops":      parse.HopMaps(hops),
			"hop_count": len(hops),
		},
	})
}

// testPortConnectivity implements the test_port_connectivity tool.
func testPortConnectivity(ctx context.Context, args map[string]any) *envelope.Result {
	host := tools.StringArg(args, "host", tools.StringArg(args, "target", ""))
	port := tools.IntArg(args, "port", 0)
	timeoutSec := tools.IntArg(args, "timeout", 5)
	options := map[string]any{"host": host, "port": port, "timeout": timeoutSec}
	start := time.Now()
	target := fmt.Sprintf("%s:%d", host, port)
	command := fmt.Sprintf("tcp connect %s", target)

	if host == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "test_port_connectivity", Message: "test_port_connectivity requires a host", Options: options,
		})
	}
	if port < 1 || port > 65535 {
		return envelope.InputError(envelope.CodeInvalidPort, envelope.ErrorParams{
			Tool: "test_port_connectivity", Target: target, Options: options,
			Context: map[string]string{"port": fmt.Sprintf("%d", port)},
		})
	}

	probe := netops.ProbeTCP(ctx, host, port, time.Duration(timeoutSec)*time.Second)
	elapsed := time.Since(start)

	if probe.ErrCode == envelope.CodeDNSResolution {
		return envelope.NetworkError(envelope.CodeDNSResolution, envelope.ErrorParams{
			Tool: "test_port_connectivity", Target: target, Command: command,
			Stderr: probe.Err.Error(), Elapsed: elapsed, Options: options,
			Context: map[string]string{"target": host},
		})
	}

	status := "open"
	if !probe.Open {
		status = "closed/filtered"
	}
	parsed := map[string]any{
		"host":     host,
		"port":     port,
		"protocol": "tcp",
		"status":   status,
	}
	if probe.Open {
		parsed["connection_time_ms"] = float64(probe.ConnectTime.Microseconds()) / 1000
		return envelope.NewSuccess(envelope.SuccessParams{
			Tool: "test_port_connectivity", Target: target, Command: command,
			Stdout:  fmt.Sprintf("Port %d/tcp: open", port),
			Elapsed: elapsed, Options: options, Parsed: parsed,
		})
	}

	out := envelope.NetworkError(probe.ErrCode, envelope.ErrorParams{
		Tool: "test_port_connectivity", Target: target, Command: command,
		Message: fmt.Sprintf("Port %d/tcp on %s: %s", port, host, status),
		Elapsed: elapsed, Options: options,
	})
	out.Stdout = fmt.Sprintf("Port %d/tcp: %s", port, status)
	out.ParsedData = parsed
	return out
}

// scanLocalNetwork implements the scan_local_network tool: a sparse ping
// sweep of the auto-detected (or supplied) /24.
func scanLocalNetwork(ctx context.Context, args map[string]any) *envelope.Result {
	network := tools.StringArg(args, "network", "")
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"network": network, "timeout": timeoutSec}
	start := time.Now()

	if network == "" {
		detected, err := DetectLocalNetwork()
		if err != nil {
			return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
				Tool: "scan_local_network", Stderr: err.Error(),
				Message: "Could not auto-detect the local network",
				Elapsed: time.Since(start), Options: options,
			})
		}
		network = detected
	}
	if !strings.Contains(network, "/") {
		network += "/24"
	}
	options["network"] = network
	command := fmt.Sprintf("sparse ping sweep of %s", network)

	prefix, err := netip.ParsePrefix(network)
	if err != nil || !prefix.Addr().Is4() {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "scan_local_network", Target: network, Options: options,
			Elapsed: time.Since(start),
		})
	}

	base := prefix.Addr().As4()
	targets := make([]string, 0, len(sparseSampleHosts))
	for _, last := range sparseSampleHosts {
		targets = append(targets, fmt.Sprintf("%d.%d.%d.%d", base[0], base[1], base[2], last))
	}

	runner := batch.New(batch.Config{
		Parallelism:      len(targets),
		PerTargetTimeout: 4 * time.Second,
	})
	alive, _, _ := runner.Run(ctx, "ping", targets, func(ctx context.Context, ip string) batch.Outcome {
		res := pingHost(ctx, map[string]any{"target": ip, "count": 1, "timeout": 2})
		if !res.Success {
			return batch.Outcome{Target: ip, ErrCode: envelope.CodeUnreachable, ErrMessage: "no reply"}
		}
		data := map[string]any{"ip": ip, "response_time": res.ParsedData["avg_time"]}
		if name := reverseName(ip); name != "" {
			data["hostname"] = name
		}
		return batch.Outcome{Target: ip, Data: data}
	})

	hosts := batch.OutcomeMaps(alive)
	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "scan_local_network", Target: network, Command: command,
		Stdout:  fmt.Sprintf("Found %d active hosts", len(hosts)),
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{
			"network":      network,
			"hosts_found":  len(hosts),
			"active_hosts": hosts,
		},
	})
}

// NATClassification is the outcome of comparing local and external
// addresses.
type NATClassification string

const (
	NATTrue      NATClassification = "nat"
	NATFalse     NATClassification = "direct"
	NATUncertain NATClassification = "uncertain"
)

// ClassifyNAT compares the local and external addresses: a private local
// address differing from the external one means NAT; identical addresses
// mean a direct connection; a public local address that still differs from
// the external one cannot be classified.
func ClassifyNAT(localIP, externalIP string) NATClassification {
	if localIP == externalIP {
		return NATFalse
	}
	if isPrivateIP(localIP) {
		return NATTrue
	}
	return NATUncertain
}

// checkNATStatus implements the check_nat_status tool.
func checkNATStatus(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()
	command := "compare local and external addresses"

	localIP, err := netops.LocalAddrViaUDP("8.8.8.8:80")
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_nat_status", Command: command, Stderr: err.Error(),
			Message: "Could not determine the local IP address",
			Elapsed: time.Since(start), Options: options,
		})
	}

	externalIP, service, err := FetchExternalIP(ctx, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_nat_status", Command: command, Stderr: err.Error(),
			Message: "Could not determine the external IP address",
			Elapsed: time.Since(start), Options: options,
		})
	}

	classification := ClassifyNAT(localIP, externalIP)
	var explanation string
	switch classification {
	case NATTrue:
		explanation = fmt.Sprintf("Device has a private address (%s) behind external address %s: NAT in use", localIP, externalIP)
	case NATFalse:
		explanation = fmt.Sprintf("Local and external addresses match (%s): direct connection", localIP)
	default:
		explanation = fmt.Sprintf("Local address %s is public but differs from external address %s: cannot classify", localIP, externalIP)
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_nat_status", Command: command,
		Stdout:  explanation,
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{
			"local_ip":         localIP,
			"external_ip":      externalIP,
			"external_service": service,
			"nat":              classification == NATTrue,
			"classification":   string(classification),
		},
	})
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// isValidIPv4 reports whether s parses as a dotted-quad IPv4 address.
func isValidIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// isPrivateIP reports whether s falls in the RFC 1918 ranges.
func isPrivateIP(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return addr.IsPrivate()
}

// DetectLocalNetwork derives the local /24 from the outbound interface
// address.
func DetectLocalNetwork() (string, error) {
	ip, err := netops.LocalAddrViaUDP("8.8.8.8:80")
	if err != nil {
		return "", err
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return "", fmt.Errorf("iplayer: unexpected local address %q", ip)
	}
	b := addr.As4()
	return fmt.Sprintf("%d.%d.%d.0/24", b[0], b[1], b[2]), nil
}

// reverseName does a best-effort PTR lookup with a short budget.
func reverseName(ip string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	names, err := net.DefaultResolver.LookupAddr(ctx, ip)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.TrimSuffix(names[0], ".")
}
