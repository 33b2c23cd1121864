package extip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/tools"
	"github.com/MrWong99/netscout/internal/tools/dnsdiag"
	"github.com/MrWong99/netscout/internal/tools/iplayer"
)

// abuseIPDBKeyEnv names the environment variable carrying the optional
// AbuseIPDB API key. No other environment is read by probe code.
const abuseIPDBKeyEnv = "ABUSEIPDB_API_KEY"

// spamhausZones are the DNSBL zones queried for the reputation check, in
// report order.
var spamhausZones = []struct {
	Name     string
	Zone     string
	Severity string
}{
	{"sbl", "sbl.spamhaus.org", "threat"},
	{"css", "css.spamhaus.org", "threat"},
	{"pbl", "pbl.spamhaus.org", "info"},
}

// monitorExternalIPChanges implements the monitor_external_ip_changes tool.
func monitorExternalIPChanges(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()
	command := "fetch external IP and compare against recorded history"

	path, err := HistoryPath()
	if err != nil {
		return envelope.ConfigurationError(envelope.CodePermissionError, envelope.ErrorParams{
			Tool: "monitor_external_ip_changes", Command: command,
			Stderr: err.Error(), Elapsed: time.Since(start), Options: options,
		})
	}

	observed, service, err := iplayer.FetchExternalIP(ctx, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "monitor_external_ip_changes", Command: command,
			Stderr:  err.Error(),
			Message: "Cannot check IP change - unable to determine the current external IP",
			Elapsed: time.Since(start), Options: options,
		})
	}

	before := LoadHistory(path)
	after, changed := Record(before, observed, time.Now())
	if err := SaveHistory(path, after); err != nil {
		return envelope.ConfigurationError(envelope.CodePermissionError, envelope.ErrorParams{
			Tool: "monitor_external_ip_changes", Command: command,
			Stderr: err.Error(), Message: "Failed to persist the IP history",
			Elapsed: time.Since(start), Options: options,
		})
	}

	var message string
	switch {
	case !before.Initialized():
		message = fmt.Sprintf("Initial IP recorded: %s", observed)
	case changed:
		message = fmt.Sprintf("IP changed from %s to %s", before.CurrentIP, observed)
	default:
		message = fmt.Sprintf("IP unchanged: %s", observed)
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "monitor_external_ip_changes", Command: command,
		Stdout:  message,
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{
			"changed":            changed,
			"message":            message,
			"current_ip":         after.CurrentIP,
			"current_timestamp":  after.CurrentTimestamp,
			"previous_ip":        after.PreviousIP,
			"previous_timestamp": after.PreviousTimestamp,
			"external_service":   service,
			"history_file":       path,
		},
	})
}

// SpamhausResult is the outcome of one DNSBL zone query.
type SpamhausResult struct {
	Zone     string `json:"zone"`
	Query    string `json:"query"`
	Listed   bool   `json:"listed"`
	Severity string `json:"severity"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CheckSpamhaus queries the Spamhaus SBL, CSS and PBL zones for ip. A
// successful resolution means the address is listed; NXDOMAIN means clean.
func CheckSpamhaus(ctx context.Context, ip string, timeout time.Duration) ([]SpamhausResult, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return nil, fmt.Errorf("extip: %q is not an IPv4 address", ip)
	}

	octets := strings.Split(ip, ".")
	reversed := octets[3] + "." + octets[2] + "." + octets[1] + "." + octets[0]

	var results []SpamhausResult
	for _, zone := range spamhausZones {
		query := reversed + "." + zone.Zone
		entry := SpamhausResult{Zone: zone.Name, Query: query, Severity: "clean"}

		answers, _, qErr := dnsdiag.Query(ctx, "1.1.1.1", query, dns.TypeA, timeout)
		switch {
		case qErr != nil:
			entry.Severity = "error"
			entry.Error = qErr.Error()
		case len(answers) > 0:
			entry.Listed = true
			entry.Severity = zone.Severity
			entry.Response = answers[0]
		}
		results = append(results, entry)
	}
	return results, nil
}

// abuseIPDBReport is the extracted AbuseIPDB record.
type abuseIPDBReport struct {
	ConfidenceScore int    `json:"confidence_score"`
	TotalReports    int    `json:"total_reports"`
	LastReportedAt  string `json:"last_reported_at"`
	CountryCode     string `json:"country_code"`
	ISP             string `json:"isp"`
	Domain          string `json:"domain"`
}

// queryAbuseIPDB fetches the reputation record for ip, authenticating with
// apiKey. Transport failures, non-200 responses and undecodable bodies are
// returned as errors.
func queryAbuseIPDB(ctx context.Context, ip, apiKey string, timeout time.Duration) (*abuseIPDBReport, error) {
	endpoint := "https://api.abuseipdb.com/api/v2/check?" + url.Values{
		"ipAddress":    {ip},
		"maxAgeInDays": {"90"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Key", apiKey)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("extip: AbuseIPDB returned HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
			TotalReports         int    `json:"totalReports"`
			LastReportedAt       string `json:"lastReportedAt"`
			CountryCode          string `json:"countryCode"`
			ISP                  string `json:"isp"`
			Domain               string `json:"domain"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &abuseIPDBReport{
		ConfidenceScore: payload.Data.AbuseConfidenceScore,
		TotalReports:    payload.Data.TotalReports,
		LastReportedAt:  payload.Data.LastReportedAt,
		CountryCode:     payload.Data.CountryCode,
		ISP:             payload.Data.ISP,
		Domain:          payload.Data.Domain,
	}, nil
}

// checkIPReputation implements the check_ip_reputation tool: external IP
// plus AbuseIPDB (when keyed) and Spamhaus DNSBL lookups.
func checkIPReputation(ctx context.Context, args map[string]any) *envelope.Result {
	timeoutSec := tools.IntArg(args, "timeout", 10)
	options := map[string]any{"timeout": timeoutSec}
	start := time.Now()
	command := "external IP reputation via AbuseIPDB and Spamhaus"
	timeout := time.Duration(timeoutSec) * time.Second

	ip, service, err := iplayer.FetchExternalIP(ctx, timeout)
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_ip_reputation", Command: command,
			Stderr: err.Error(), Message: "Failed to retrieve the external IP",
			Elapsed: time.Since(start), Options: options,
		})
	}

	parsed := map[string]any{
		"external_ip":      ip,
		"external_service": service,
	}

	if apiKey := os.Getenv(abuseIPDBKeyEnv); apiKey != "" {
		if report, abuseErr := queryAbuseIPDB(ctx, ip, apiKey, timeout); abuseErr == nil {
			parsed["abuseipdb"] = map[string]any{
				"confidence_score": report.ConfidenceScore,
				"total_reports":    report.TotalReports,
				"last_reported_at": report.LastReportedAt,
				"country_code":     report.CountryCode,
				"isp":              report.ISP,
				"domain":           report.Domain,
			}
		} else {
			parsed["abuseipdb"] = map[string]any{"error": abuseErr.Error()}
		}
	} else {
		parsed["abuseipdb"] = map[string]any{"skipped": "no API key configured"}
	}

	spamhaus, shErr := CheckSpamhaus(ctx, ip, timeout)
	threatListings := 0
	infoListings := 0
	if shErr == nil {
		entries := make([]map[string]any, len(spamhaus))
		for i, entry := range spamhaus {
			entries[i] = map[string]any{
				"zone":     entry.Zone,
				"query":    entry.Query,
				"listed":   entry.Listed,
				"severity": entry.Severity,
			}
			if entry.Response != "" {
				entries[i]["response"] = entry.Response
			}
			if entry.Error != "" {
				entries[i]["error"] = entry.Error
			}
			if entry.Listed && entry.Severity == "threat" {
				threatListings++
			}
			if entry.Listed && entry.Severity == "info" {
				infoListings++
			}
		}
		parsed["spamhaus"] = entries
	} else {
		parsed["spamhaus"] = map[string]any{"error": shErr.Error()}
	}

	var verdict string
	switch {
	case threatListings > 0:
		verdict = fmt.Sprintf("WARNING: %s listed on %d threat blacklist(s) (SBL/CSS)", ip, threatListings)
	case infoListings > 0:
		verdict = fmt.Sprintf("%s listed on PBL only (normal for residential/dynamic ranges)", ip)
	default:
		verdict = fmt.Sprintf("%s appears clean on Spamhaus blacklists", ip)
	}
	parsed["verdict"] = verdict
	parsed["threat_listings"] = threatListings
	parsed["info_listings"] = infoListings

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_ip_reputation", Target: ip, Command: command,
		Stdout:  verdict,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// Tools returns the external-IP probe set ready for registration.
func Tools() []tools.Tool {
	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "monitor_external_ip_changes",
				Description: "Track external IP changes against a persisted history",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": tools.TimeoutParam("dns_query"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"ip_change_check", "external_ip_monitor", "check_ip_change"},
				Examples: []string{"monitor_external_ip_changes"},
			},
			Handler: monitorExternalIPChanges,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_ip_reputation",
				Description: "Check the external IP against AbuseIPDB (optional key) and Spamhaus blacklists",
				Category:    tools.CategorySecurity,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": tools.TimeoutParam("dns_query"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"external_ip_reputation", "ip_reputation"},
				Examples: []string{"check_ip_reputation"},
			},
			Handler: checkIPReputation,
		},
	}
}
