// Package whoisdiag implements the WHOIS infrastructure probe: TCP port 43
// reachability across the registry and registrar WHOIS servers.
package whoisdiag

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/resilience"
	"github.com/MrWong99/netscout/internal/tools"
)

const whoisPort = 43

// whoisServers maps WHOIS hostnames to a short description. The probe dials
// the hostname so DNS health is exercised along with port 43 reachability.
var whoisServers = map[string]string{
	"whois.iana.org":         "IANA root zone and global allocation registry",
	"whois.arin.net":         "ARIN - North American IP and ASN allocations",
	"whois.ripe.net":         "RIPE NCC - European IP and ASN registrations",
	"whois.apnic.net":        "APNIC - Asia-Pacific IP and ASN allocation",
	"whois.afrinic.net":      "AFRINIC - African IP address space",
	"whois.lacnic.net":       "LACNIC - Latin American and Caribbean registrations",
	"whois.verisign-grs.com": "Verisign - .com and .net domains",
	"whois.pir.org":          "Public Interest Registry - .org domains",
	"whois.educause.edu":     "EDUCAUSE - .edu domains",
	"whois.nic.io":           ".io domain registry",
	"whois.nic.de":           "DENIC - .de domains",
	"whois.nic.fr":           "AFNIC - .fr domains",
	"whois.nic.uk":           "Nominet - .uk domains",
	"whois.cira.ca":          "CIRA - .ca domains",
	"whois.auda.org.au":      "auDA - .au domains",
	"whois.jprs.jp":          "JPRS - .jp domains",
	"whois.registro.br":      "NIC.br - .br domains",
	"whois.kr":               "KISA - .kr domains",
	"riswhois.ripe.net":      "RIPE RIS - BGP routing information",
}

// checkWHOISServers implements the check_whois_servers tool.
func checkWHOISServers(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("whois_probe").Seconds()))
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("tcp connect port %d across %d WHOIS servers", whoisPort, len(whoisServers))

	hosts := make([]string, 0, len(whoisServers))
	for host := range whoisServers {
		hosts = append(hosts, host)
	}

	timeout := time.Duration(timeoutSec) * time.Second
	runner := batch.New(batch.Config{
		Parallelism:      8,
		PerTargetTimeout: timeout + time.Second,
		// One retry on failure.
		Retry: resilience.Policy{MaxAttempts: 2, BaseDelay: time.Second, Multiplier: 1},
	})

	reachable, unreachable, summary := runner.Run(ctx, "whois", hosts, func(ctx context.Context, host string) batch.Outcome {
		probe := netops.ProbeTCP(ctx, host, whoisPort, timeout)
		if !probe.Open {
			return batch.Outcome{Target: host, ErrCode: probe.ErrCode, ErrMessage: probe.Err.Error()}
		}
		return batch.Outcome{Target: host, Data: map[string]any{
			"server":             host,
			"description":        whoisServers[host],
			"port":               whoisPort,
			"connection_time_ms": float64(probe.ConnectTime.Microseconds()) / 1000,
		}}
	})

	parsed := map[string]any{
		"reachable_servers":   batch.OutcomeMaps(reachable),
		"unreachable_servers": batch.OutcomeMaps(unreachable),
		"summary":             summary.Map(),
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_whois_servers", Command: command,
			Message: "No WHOIS servers reachable on port 43",
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_whois_servers", Command: command,
		Stdout:  summary.Text,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// Tools returns the WHOIS probe set ready for registration.
func Tools() []tools.Tool {
	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "check_whois_servers",
				Description: "Test TCP port 43 reachability of registry and registrar WHOIS servers",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": {Type: tools.TypeInteger, Default: 10, Description: "Connection timeout per server in seconds"},
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"whois_check", "whois_servers"},
				Examples: []string{"check_whois_servers"},
			},
			Handler: checkWHOISServers,
		},
	}
}
