// Package emaildiag implements the email infrastructure probes: SMTP and
// IMAP reachability across the major providers, plus the composite
// check_all_email_services rating.
package emaildiag

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/tools"
)

// endpoint is one provider's server and port.
type endpoint struct {
	Host string
	Port int
}

// smtpServers maps provider display names to their SMTP submission
// endpoints (port 587).
var smtpServers = map[string]endpoint{
	"Gmail":        {"smtp.gmail.com", 587},
	"Outlook/O365": {"smtp.office365.com", 587},
	"Yahoo":        {"smtp.mail.yahoo.com", 587},
	"iCloud Mail":  {"smtp.mail.me.com", 587},
	"AOL Mail":     {"smtp.aol.com", 587},
	"Zoho Mail":    {"smtp.zoho.com", 587},
	"Mail.com":     {"smtp.mail.com", 587},
	"GMX Mail":     {"smtp.gmx.com", 587},
	"Fastmail":     {"smtp.fastmail.com", 587},
}

// imapServers maps provider display names to their IMAPS endpoints
// (port 993).
var imapServers = map[string]endpoint{
	"Gmail":        {"imap.gmail.com", 993},
	"Outlook/O365": {"outlook.office365.com", 993},
	"Yahoo":        {"imap.mail.yahoo.com", 993},
	"iCloud Mail":  {"imap.mail.me.com", 993},
	"AOL Mail":     {"imap.aol.com", 993},
	"Zoho Mail":    {"imap.zoho.com", 993},
	"Mail.com":     {"imap.mail.com", 993},
	"GMX Mail":     {"imap.gmx.com", 993},
	"Fastmail":     {"imap.fastmail.com", 993},
}

// sweepProviders TCP-probes every provider endpoint concurrently.
func sweepProviders(ctx context.Context, servers map[string]endpoint, timeout time.Duration) (reachable, unreachable []batch.Outcome, summary envelope.Summary) {
	providers := make([]string, 0, len(servers))
	for name := range servers {
		providers = append(providers, name)
	}

	runner := batch.New(batch.Config{
		Parallelism:      min(len(providers), 6),
		PerTargetTimeout: timeout + time.Second,
	})

	return runner.Run(ctx, "email", providers, func(ctx context.Context, provider string) batch.Outcome {
		ep := servers[provider]
		probe := netops.ProbeTCP(ctx, ep.Host, ep.Port, timeout)
		if !probe.Open {
			return batch.Outcome{
				Target:     provider,
				ErrCode:    probe.ErrCode,
				ErrMessage: fmt.Sprintf("%s:%d unreachable", ep.Host, ep.Port),
			}
		}
		return batch.Outcome{Target: provider, Data: map[string]any{
			"provider":           provider,
			"host":               ep.Host,
			"port":               ep.Port,
			"connection_time_ms": float64(probe.ConnectTime.Microseconds()) / 1000,
		}}
	})
}

// sweepResult assembles the common envelope for one protocol sweep.
func sweepResult(tool, protocol string, start time.Time, options map[string]any, reachable, unreachable []batch.Outcome, summary envelope.Summary) *envelope.Result {
	parsed := map[string]any{
		"protocol":             protocol,
		"reachable_services":   batch.OutcomeMaps(reachable),
		"unreachable_services": batch.OutcomeMaps(unreachable),
		"summary":              summary.Map(),
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: tool, Command: fmt.Sprintf("%s provider sweep", protocol),
			Message: fmt.Sprintf("No %s providers reachable", protocol),
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: tool, Command: fmt.Sprintf("%s provider sweep", protocol),
		Stdout:  summary.Text,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// checkSMTPConnectivity implements the check_smtp_connectivity tool.
func checkSMTPConnectivity(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()

	reachable, unreachable, summary := sweepProviders(ctx, smtpServers, time.Duration(timeoutSec)*time.Second)
	return sweepResult("check_smtp_connectivity", "smtp", start, options, reachable, unreachable, summary)
}

// checkIMAPConnectivity implements the check_imap_connectivity tool.
func checkIMAPConnectivity(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()

	reachable, unreachable, summary := sweepProviders(ctx, imapServers, time.Duration(timeoutSec)*time.Second)
	return sweepResult("check_imap_connectivity", "imap", start, options, reachable, unreachable, summary)
}

// RateEmailHealth maps the combined success rate onto the rating band used
// by check_all_email_services.
func RateEmailHealth(rate float64) string {
	switch {
	case rate >= 0.95:
		return "excellent"
	case rate >= 0.8:
		return "good"
	case rate >= 0.5:
		return "degraded"
	default:
		return "poor"
	}
}

// checkAllEmailServices implements the composite check_all_email_services
// tool.
func checkAllEmailServices(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()
	command := "smtp + imap provider sweeps"
	timeout := time.Duration(timeoutSec) * time.Second

	smtpOK, smtpFail, smtpSummary := sweepProviders(ctx, smtpServers, timeout)
	imapOK, imapFail, imapSummary := sweepProviders(ctx, imapServers, timeout)

	total := smtpSummary.Total + imapSummary.Total
	successful := smtpSummary.Successful + imapSummary.Successful
	overall := envelope.Summarize("email", total, successful)
	rating := RateEmailHealth(overall.SuccessRate)

	parsed := map[string]any{
		"smtp": map[string]any{
			"reachable_services":   batch.OutcomeMaps(smtpOK),
			"unreachable_services": batch.OutcomeMaps(smtpFail),
			"summary":              smtpSummary.Map(),
		},
		"imap": map[string]any{
			"reachable_services":   batch.OutcomeMaps(imapOK),
			"unreachable_services": batch.OutcomeMaps(imapFail),
			"summary":              imapSummary.Map(),
		},
		"summary": overall.Map(),
		"rating":  rating,
	}

	if successful == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_all_email_services", Command: command,
			Message: "No email provider endpoints reachable on 587 or 993",
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_all_email_services", Command: command,
		Stdout:  fmt.Sprintf("Email infrastructure %s: %d/%d endpoints reachable", rating, successful, total),
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// Tools returns the email probe set ready for registration.
func Tools() []tools.Tool {
	timeoutParam := tools.ParameterInfo{Type: tools.TypeInteger, Default: 10, Description: "Connection timeout per server in seconds"}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "check_smtp_connectivity",
				Description: "Test SMTP submission (port 587) reachability across major email providers",
				Category:    tools.CategoryEmailDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": timeoutParam,
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"smtp_check", "test_smtp"},
				Examples: []string{"check_smtp_connectivity"},
			},
			Handler: checkSMTPConnectivity,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_imap_connectivity",
				Description: "Test IMAPS (port 993) reachability across major email providers",
				Category:    tools.CategoryEmailDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": timeoutParam,
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"imap_check", "test_imap"},
				Examples: []string{"check_imap_connectivity"},
			},
			Handler: checkIMAPConnectivity,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_all_email_services",
				Description: "Combined SMTP and IMAP sweep with an overall health rating",
				Category:    tools.CategoryEmailDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": timeoutParam,
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"email_check", "check_email"},
				Examples: []string{"check_all_email_services"},
			},
			Handler: checkAllEmailServices,
		},
	}
}
