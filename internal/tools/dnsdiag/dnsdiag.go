// Package dnsdiag implements the DNS diagnostic probes: record-type-aware
// resolution, resolver sweeps, reverse lookups and propagation checks.
//
// Plain A lookups go through the system resolver; everything else queries
// resolvers directly with github.com/miekg/dns. None of these probes runs dig
// or parses its output.
package dnsdiag

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/tools"
)

// defaultTestServers are the public resolvers used by the sweep probes.
var defaultTestServers = []string{"8.8.8.8", "1.1.1.1", "208.67.222.222", "9.9.9.9"}

// propagationServers is the wider resolver set used by the propagation check.
var propagationServers = []string{"8.8.8.8", "1.1.1.1", "208.67.222.222", "9.9.9.9", "8.8.4.4"}

// canaryDomain is the name resolved during resolver health sweeps.
const canaryDomain = "google.com"

// recordTypes maps the supported record type names to wire types.
var recordTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"MX":    dns.TypeMX,
	"NS":    dns.TypeNS,
	"TXT":   dns.TypeTXT,
	"CNAME": dns.TypeCNAME,
	"PTR":   dns.TypePTR,
	"SOA":   dns.TypeSOA,
}

// Query sends a single question to server (IP or IP:port) and returns the
// rendered answers plus the round-trip time. Shared with the Spamhaus DNSBL
// probe.
func Query(ctx context.Context, server, name string, qtype uint16, timeout time.Duration) ([]string, time.Duration, error) {
	client := dns.Client{Timeout: timeout}
	if !strings.Contains(server, ":") {
		server += ":53"
	}

	msg := dns.Msg{}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, rtt, err := client.ExchangeContext(ctx, &msg, server)
	if err != nil {
		return nil, rtt, err
	}
	if resp.Rcode == dns.RcodeNameError {
		return nil, rtt, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, rtt, fmt.Errorf("dnsdiag: server %s answered %s", server, dns.RcodeToString[resp.Rcode])
	}

	var answers []string
	for _, rr := range resp.Answer {
		if rendered := renderRR(rr); rendered != "" {
			answers = append(answers, rendered)
		}
	}
	return answers, rtt, nil
}

// renderRR renders the data portion of a resource record.
func renderRR(rr dns.RR) string {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String()
	case *dns.AAAA:
		return r.AAAA.String()
	case *dns.MX:
		return fmt.Sprintf("%d %s", r.Preference, r.Mx)
	case *dns.NS:
		return r.Ns
	case *dns.CNAME:
		return r.Target
	case *dns.PTR:
		return r.Ptr
	case *dns.TXT:
		return strings.Join(r.Txt, "")
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d", r.Ns, r.Mbox, r.Serial)
	default:
		// Fall back to the presentation format minus the header.
		parts := strings.Fields(rr.String())
		if len(parts) > 4 {
			return strings.Join(parts[4:], " ")
		}
		return ""
	}
}

// resolveHostname implements the resolve_hostname tool.
func resolveHostname(ctx context.Context, args map[string]any) *envelope.Result {
	hostname := tools.StringArg(args, "hostname", tools.StringArg(args, "target", ""))
	recordType := strings.ToUpper(tools.StringArg(args, "record_type", "A"))
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("dns_query").Seconds()))
	options := map[string]any{"hostname": hostname, "record_type": recordType, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("resolve %s %s", recordType, hostname)

	if hostname == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "resolve_hostname", Message: "resolve_hostname requires a hostname", Options: options,
		})
	}
	qtype, ok := recordTypes[recordType]
	if !ok {
		return envelope.InputError(envelope.CodeInvalidFormat, envelope.ErrorParams{
			Tool: "resolve_hostname", Target: hostname, Options: options,
			Message: fmt.Sprintf("Unsupported record type %q", recordType),
		})
	}

	timeout := time.Duration(timeoutSec) * time.Second
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var answers []string
	var err error
	if recordType == "A" {
		// The system resolver honours /etc/hosts and local search domains.
		var addrs []net.IP
		addrs, err = net.DefaultResolver.LookupIP(queryCtx, "ip4", hostname)
		for _, a := range addrs {
			answers = append(answers, a.String())
		}
	} else {
		answers, _, err = Query(queryCtx, defaultTestServers[0], hostname, qtype, timeout)
	}

	elapsed := time.Since(start)
	if err != nil {
		return envelope.NetworkError(envelope.CodeDNSResolution, envelope.ErrorParams{
			Tool: "resolve_hostname", Target: hostname, Command: command,
			Stderr: err.Error(), Elapsed: elapsed, Options: options,
		})
	}
	if len(answers) == 0 {
		return envelope.NetworkError(envelope.CodeDNSResolution, envelope.ErrorParams{
			Tool: "resolve_hostname", Target: hostname, Command: command,
			Message: fmt.Sprintf("No %s records found for %s", recordType, hostname),
			Elapsed: elapsed, Options: options,
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "resolve_hostname", Target: hostname, Command: command,
		Stdout:  strings.Join(answers, "\n"),
		Elapsed: elapsed, Options: options,
		Parsed: map[string]any{
			"hostname":           hostname,
			"record_type":        recordType,
			"resolved_records":   answers,
			"record_count":       len(answers),
			"resolution_time_ms": float64(elapsed.Microseconds()) / 1000,
		},
	})
}

// testDNSServers implements the check_dns_resolvers tool: query every resolver
// in the list against the canary name, record per-server timing and identify
// the fastest.
func testDNSServers(ctx context.Context, args map[string]any) *envelope.Result {
	servers := tools.StringListArg(args, "servers", defaultTestServers)
	domain := tools.StringArg(args, "test_domain", canaryDomain)
	timeoutSec := tools.IntArg(args, "timeout", 5)
	options := map[string]any{"servers": servers, "test_domain": domain, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("query %s against %d resolvers", domain, len(servers))

	timeout := time.Duration(timeoutSec) * time.Second
	runner := batch.New(batch.Config{
		Parallelism:      len(servers),
		PerTargetTimeout: timeout + time.Second,
	})

	reachable, unreachable, summary := runner.Run(ctx, "dns", servers, func(ctx context.Context, server string) batch.Outcome {
		answers, rtt, err := Query(ctx, server, domain, dns.TypeA, timeout)
		if err != nil {
			code := envelope.CodeConnectionFailed
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				code = envelope.CodeTimeout
			}
			return batch.Outcome{Target: server, ErrCode: code, ErrMessage: err.Error()}
		}
		if len(answers) == 0 {
			return batch.Outcome{Target: server, ErrCode: envelope.CodeDNSResolution, ErrMessage: "no answer"}
		}
		return batch.Outcome{Target: server, Data: map[string]any{
			"server":           server,
			"resolved_ip":      answers[0],
			"response_time_ms": float64(rtt.Microseconds()) / 1000,
		}}
	})

	var fastestServer string
	fastestMs := -1.0
	for _, out := range reachable {
		if ms, ok := out.Data["response_time_ms"].(float64); ok && (fastestMs < 0 || ms < fastestMs) {
			fastestMs = ms
			fastestServer = out.Target
		}
	}

	parsed := map[string]any{
		"test_domain":         domain,
		"reachable_servers":   batch.OutcomeMaps(reachable),
		"unreachable_servers": batch.OutcomeMaps(unreachable),
		"summary":             summary.Map(),
	}
	if fastestServer != "" {
		parsed["fastest_server"] = fastestServer
		parsed["fastest_time_ms"] = fastestMs
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_dns_resolvers", Command: command,
			Message: "No DNS servers responded", Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_dns_resolvers", Command: command,
		Stdout:  summary.Text,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// reverseDNSLookup implements the reverse_dns_lookup tool.
func reverseDNSLookup(ctx context.Context, args map[string]any) *envelope.Result {
	ip := tools.StringArg(args, "ip_address", tools.StringArg(args, "target", ""))
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("dns_query").Seconds()))
	options := map[string]any{"ip_address": ip, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("reverse lookup %s", ip)

	if net.ParseIP(ip) == nil {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "reverse_dns_lookup", Target: ip, Options: options,
		})
	}

	lookupCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(lookupCtx, ip)
	elapsed := time.Since(start)
	if err != nil || len(names) == 0 {
		stderr := ""
		if err != nil {
			stderr = err.Error()
		}
		return envelope.NetworkError(envelope.CodeDNSResolution, envelope.ErrorParams{
			Tool: "reverse_dns_lookup", Target: ip, Command: command,
			Message: fmt.Sprintf("Reverse DNS lookup failed for %s", ip),
			Stderr:  stderr, Elapsed: elapsed, Options: options,
		})
	}

	hostname := strings.TrimSuffix(names[0], ".")
	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "reverse_dns_lookup", Target: ip, Command: command,
		Stdout:  hostname,
		Elapsed: elapsed, Options: options,
		Parsed: map[string]any{
			"ip_address":     ip,
			"hostname":       hostname,
			"all_hostnames":  names,
			"lookup_time_ms": float64(elapsed.Microseconds()) / 1000,
		},
	})
}

// checkDNSPropagation implements the check_dns_propagation tool: the same
// question against many resolvers, answers grouped; propagation is complete
// iff exactly one answer group exists.
func checkDNSPropagation(ctx context.Context, args map[string]any) *envelope.Result {
	domain := tools.StringArg(args, "domain", tools.StringArg(args, "target", ""))
	recordType := strings.ToUpper(tools.StringArg(args, "record_type", "A"))
	servers := tools.StringListArg(args, "servers", propagationServers)
	timeoutSec := tools.IntArg(args, "timeout", 5)
	options := map[string]any{"domain": domain, "record_type": recordType, "servers": servers, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("propagation check %s %s across %d resolvers", recordType, domain, len(servers))

	if domain == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "check_dns_propagation", Message: "check_dns_propagation requires a domain", Options: options,
		})
	}
	qtype, ok := recordTypes[recordType]
	if !ok {
		return envelope.InputError(envelope.CodeInvalidFormat, envelope.ErrorParams{
			Tool: "check_dns_propagation", Target: domain, Options: options,
			Message: fmt.Sprintf("Unsupported record type %q", recordType),
		})
	}

	timeout := time.Duration(timeoutSec) * time.Second
	runner := batch.New(batch.Config{
		Parallelism:      len(servers),
		PerTargetTimeout: timeout + time.Second,
	})

	answered, failed, summary := runner.Run(ctx, "dns", servers, func(ctx context.Context, server string) batch.Outcome {
		answers, _, err := Query(ctx, server, domain, qtype, timeout)
		if err != nil {
			return batch.Outcome{Target: server, ErrCode: envelope.CodeConnectionFailed, ErrMessage: err.Error()}
		}
		if len(answers) == 0 {
			return batch.Outcome{Target: server, ErrCode: envelope.CodeDNSResolution, ErrMessage: "no answer"}
		}
		return batch.Outcome{Target: server, Data: map[string]any{"response": strings.Join(answers, ",")}}
	})

	// Group servers by the answer set they returned.
	groups := map[string][]string{}
	for _, out := range answered {
		key := out.Data["response"].(string)
		groups[key] = append(groups[key], out.Target)
	}
	groupMaps := map[string]any{}
	for answer, srvs := range groups {
		groupMaps[answer] = srvs
	}

	complete := len(groups) == 1
	status := "incomplete"
	if complete {
		status = "complete"
	}

	parsed := map[string]any{
		"domain":               domain,
		"record_type":          recordType,
		"unique_responses":     groupMaps,
		"response_groups":      len(groups),
		"propagation_complete": complete,
		"propagation_status":   status,
		"failed_servers":       batch.OutcomeMaps(failed),
		"summary":              summary.Map(),
	}

	if len(answered) == 0 {
		out := envelope.NetworkError(envelope.CodeDNSResolution, envelope.ErrorParams{
			Tool: "check_dns_propagation", Target: domain, Command: command,
			Message: fmt.Sprintf("No resolver returned an answer for %s", domain),
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_dns_propagation", Target: domain, Command: command,
		Stdout:  fmt.Sprintf("Propagation %s: %d answer group(s) across %d responding resolvers", status, len(groups), len(answered)),
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}
