// Package ixpdiag implements the internet-exchange-point reachability probe:
// HTTP checks against the public endpoints of major global IXPs with
// per-endpoint retry and exponential backoff.
package ixpdiag

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

// ixpEndpoints maps major internet exchange points to their public
// status/home pages.
var ixpEndpoints = map[string]string{
	"DE-CIX Frankfurt": "https://www.de-cix.net/",
	"LINX London":      "https://www.linx.net/",
	"AMS-IX Amsterdam": "https://www.ams-ix.net/",
	"NYIIX New York":   "https://www.nyiix.net/",
	"HKIX Hong Kong":   "https://www.hkix.net/",
	"Equinix Global":   "https://status.equinix.com/",
}

// RateIXPHealth maps the success rate onto the reporting band.
func RateIXPHealth(rate float64) string {
	switch {
	case rate >= 1.0:
		return "excellent"
	case rate >= 0.8:
		return "good"
	case rate >= 0.5:
		return "partial"
	default:
		return "poor"
	}
}

// monitorIXPConnectivity implements the monitor_ixp_connectivity tool.
func monitorIXPConnectivity(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds()))
	retries := tools.IntArg(args, "retries", 3)
	insecure := tools.BoolArg(args, "insecure", false)
	userAgent := tools.StringArg(args, "user_agent", "")
	proxy := tools.StringArg(args, "proxy", "")
	if proxy == "" && tools.BoolArg(args, "burp", false) {
		proxy = "http://localhost:8080"
	}
	options := map[string]any{
		"timeout": timeoutSec, "retries": retries,
		"insecure": insecure, "user_agent": userAgent, "proxy": proxy,
	}
	start := time.Now()
	command := fmt.Sprintf("HTTP reachability of %d IXP endpoints", len(ixpEndpoints))

	httpOpts := netops.HTTPOptions{
		Timeout:         time.Duration(timeoutSec) * time.Second,
		FollowRedirects: true,
		Insecure:        insecure,
		ProxyURL:        proxy,
		UserAgent:       userAgent,
	}

	names := make([]string, 0, len(ixpEndpoints))
	for name := range ixpEndpoints {
		names = append(names, name)
	}

	runner := batch.New(batch.Config{
		Parallelism:      len(names),
		PerTargetTimeout: time.Duration(timeoutSec+5) * time.Second,
		Retry: resilience.Policy{
			MaxAttempts: retries + 1,
			BaseDelay:   time.Second,
			Multiplier:  2,
		},
	})

	reachable, unreachable, summary := runner.Run(ctx, "ixp", names, func(ctx context.Context, name string) batch.Outcome {
		url := ixpEndpoints[name]
		res, err := netops.Get(ctx, url, httpOpts)
		if err != nil {
			code, _ := classify(err)
			return batch.Outcome{Target: name, ErrCode: code, ErrMessage: err.Error()}
		}
		if res.StatusCode != 200 {
			return batch.Outcome{
				Target:     name,
				ErrCode:    envelope.CodeConnectionFailed,
				ErrMessage: fmt.Sprintf("HTTP %d", res.StatusCode),
			}
		}
		return batch.Outcome{Target: name, Data: map[string]any{
			"name":             name,
			"url":              url,
			"status_code":      res.StatusCode,
			"response_time_ms": float64(res.ResponseTime.Microseconds()) / 1000,
		}}
	})

	rating := RateIXPHealth(summary.SuccessRate)
	parsed := map[string]any{
		"reachable_ixps":   batch.OutcomeMaps(reachable),
		"unreachable_ixps": batch.OutcomeMaps(unreachable),
		"summary":          summary.Map(),
		"rating":           rating,
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "monitor_ixp_connectivity", Command: command,
			Message: "No IXP endpoints reachable",
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "monitor_ixp_connectivity", Command: command,
		Stdout:  fmt.Sprintf("IXP connectivity %s: %d/%d exchanges reachable", rating, summary.Successful, summary.Total),
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// classify maps HTTP errors to the taxonomy; split out so the retry
// predicate sees timeout/connection codes.
func classify(err error) (envelope.ErrorCode, string) {
	code := netops.ClassifyDialError(err)
	return code, err.Error()
}

// Tools returns the IXP probe set ready for registration.
func Tools() []tools.Tool {
	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "monitor_ixp_connectivity",
				Description: "Monitor reachability of major internet exchange points worldwide",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout":    tools.TimeoutParam("web_request"),
					"retries":    {Type: tools.TypeInteger, Default: 3, Description: "Retry attempts per endpoint"},
					"user_agent": {Type: tools.TypeString, Description: "Custom User-Agent header"},
					"insecure":   {Type: tools.TypeBoolean, Default: false, Description: "Disable TLS certificate verification"},
					"burp":       {Type: tools.TypeBoolean, Default: false, Description: "Route traffic through an intercepting proxy on localhost:8080"},
					"silent":     tools.SilentParam(),
				},
				Aliases:  []string{"ixp_connectivity", "ixp_check", "exchange_points"},
				Examples: []string{"monitor_ixp_connectivity", "monitor_ixp_connectivity --timeout 10 --retries 2"},
			},
			Handler: monitorIXPConnectivity,
		},
	}
}
