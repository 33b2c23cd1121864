// Package webdiag implements the web-layer probes: HTTP connectivity, TLS
// certificate inspection, service health checks, endpoint sweeps and the
// composite website accessibility check.
package webdiag

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/batch"
	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/tools"
)

// commonSubdomains are probed by check_website_accessibility in addition to
// the apex.
var commonSubdomains = []string{"www", "mail", "blog", "shop", "api"}

// classifyHTTPError maps an HTTP client error onto the network taxonomy.
func classifyHTTPError(err error) (envelope.ErrorCode, string) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return envelope.CodeDNSResolution, "DNS resolution failed"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return envelope.CodeTimeout, "Request timed out"
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return envelope.CodeConnectionFailed, "TLS certificate verification failed"
	}
	return envelope.CodeConnectionFailed, "Connection failed"
}

// httpOptions assembles netops HTTP options from common tool args.
func httpOptions(args map[string]any, defaultTimeoutSec int) netops.HTTPOptions {
	return netops.HTTPOptions{
		Timeout:         time.Duration(tools.IntArg(args, "timeout", defaultTimeoutSec)) * time.Second,
		FollowRedirects: tools.BoolArg(args, "follow_redirects", true),
		Insecure:        tools.BoolArg(args, "insecure", false),
		ProxyURL:        proxyFromArgs(args),
		UserAgent:       tools.StringArg(args, "user_agent", ""),
	}
}

// proxyFromArgs honours both an explicit proxy URL and the intercepting-proxy
// shorthand flag.
func proxyFromArgs(args map[string]any) string {
	if proxy := tools.StringArg(args, "proxy", ""); proxy != "" {
		return proxy
	}
	if tools.BoolArg(args, "burp", false) {
		return "http://localhost:8080"
	}
	return ""
}

// httpResultMap renders an HTTP probe result for parsed_data.
func httpResultMap(res *netops.HTTPResult) map[string]any {
	m := map[string]any{
		"status_code":      res.StatusCode,
		"final_url":        res.FinalURL,
		"redirect_count":   res.RedirectCount,
		"response_time_ms": float64(res.ResponseTime.Microseconds()) / 1000,
		"server":           res.Server,
		"content_type":     res.ContentType,
		"content_length":   res.ContentLength,
		"body_snippet":     res.BodySnippet,
	}
	if res.Cert != nil {
		m["certificate"] = certMap(res.Cert)
	}
	return m
}

// certMap renders a certificate summary for parsed_data.
func certMap(c *netops.CertSummary) map[string]any {
	return map[string]any{
		"subject":             c.Subject,
		"issuer":              c.Issuer,
		"serial_number":       c.SerialNumber,
		"not_before":          c.NotBefore.Format(time.RFC3339),
		"not_after":           c.NotAfter.Format(time.RFC3339),
		"dns_names":           c.DNSNames,
		"signature_algorithm": c.SignatureAlgorithm,
		"key_bits":            c.KeyBits,
		"self_signed":         c.SelfSigned,
		"days_until_expiry":   c.DaysUntilExpiry,
	}
}

// testHTTPConnectivity implements the test_http_connectivity tool.
func testHTTPConnectivity(ctx context.Context, args map[string]any) *envelope.Result {
	rawURL := tools.StringArg(args, "url", tools.StringArg(args, "target", ""))
	options := map[string]any{
		"url":              rawURL,
		"timeout":          tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds())),
		"follow_redirects": tools.BoolArg(args, "follow_redirects", true),
		"insecure":         tools.BoolArg(args, "insecure", false),
	}
	start := time.Now()

	if rawURL == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "test_http_connectivity", Message: "test_http_connectivity requires a url", Options: options,
		})
	}
	rawURL = netops.EnsureScheme(rawURL)
	options["url"] = rawURL
	command := fmt.Sprintf("GET %s", rawURL)

	res, err := netops.Get(ctx, rawURL, httpOptions(args, int(envelope.Timeout("web_request").Seconds())))
	if err != nil {
		code, label := classifyHTTPError(err)
		return envelope.NetworkError(code, envelope.ErrorParams{
			Tool: "test_http_connectivity", Target: rawURL, Command: command,
			Message: fmt.Sprintf("%s for %s", label, rawURL), Stderr: err.Error(),
			Elapsed: time.Since(start), Options: options,
			Context: map[string]string{"timeout": fmt.Sprintf("%v", options["timeout"])},
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "test_http_connectivity", Target: rawURL, Command: command,
		Stdout:  fmt.Sprintf("HTTP %d from %s in %.1fms", res.StatusCode, res.FinalURL, float64(res.ResponseTime.Microseconds())/1000),
		Elapsed: time.Since(start), Options: options,
		Parsed: httpResultMap(res),
	})
}

// checkSSLCertificate implements the check_ssl_certificate tool.
func checkSSLCertificate(ctx context.Context, args map[string]any) *envelope.Result {
	hostname := tools.StringArg(args, "hostname", tools.StringArg(args, "target", ""))
	port := tools.IntArg(args, "port", 443)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds()))
	options := map[string]any{"hostname": hostname, "port": port, "timeout": timeoutSec}
	start := time.Now()
	target := fmt.Sprintf("%s:%d", hostname, port)
	command := fmt.Sprintf("tls peek %s", target)

	if hostname == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "check_ssl_certificate", Message: "check_ssl_certificate requires a hostname", Options: options,
		})
	}
	// Accept URLs and strip them down to the host.
	if strings.Contains(hostname, "://") {
		if u, err := url.Parse(hostname); err == nil && u.Hostname() != "" {
			hostname = u.Hostname()
			target = fmt.Sprintf("%s:%d", hostname, port)
		}
	}

	cert, tlsVersion, err := netops.PeekTLS(ctx, hostname, port, time.Duration(timeoutSec)*time.Second)
	elapsed := time.Since(start)
	if err != nil {
		code := netops.ClassifyDialError(err)
		return envelope.NetworkError(code, envelope.ErrorParams{
			Tool: "check_ssl_certificate", Target: target, Command: command,
			Stderr: err.Error(), Elapsed: elapsed, Options: options,
			Context: map[string]string{"target": hostname, "timeout": fmt.Sprintf("%d", timeoutSec)},
		})
	}

	parsed := certMap(cert)
	parsed["hostname"] = hostname
	parsed["port"] = port
	parsed["tls_version"] = tlsVersion
	parsed["expired"] = cert.DaysUntilExpiry < 0

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_ssl_certificate", Target: target, Command: command,
		Stdout:  fmt.Sprintf("%s — issued by %s, %d days until expiry", cert.Subject, cert.Issuer, cert.DaysUntilExpiry),
		Elapsed: elapsed, Options: options,
		Parsed: parsed,
	})
}

// testWebServiceHealth implements the test_web_service_health tool.
func testWebServiceHealth(ctx context.Context, args map[string]any) *envelope.Result {
	rawURL := tools.StringArg(args, "url", tools.StringArg(args, "target", ""))
	expected := tools.IntArg(args, "expected_status", 200)
	options := map[string]any{
		"url":             rawURL,
		"expected_status": expected,
		"timeout":         tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds())),
	}
	start := time.Now()

	if rawURL == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "test_web_service_health", Message: "test_web_service_health requires a url", Options: options,
		})
	}
	rawURL = netops.EnsureScheme(rawURL)
	options["url"] = rawURL
	command := fmt.Sprintf("GET %s (expect %d)", rawURL, expected)

	res, err := netops.Get(ctx, rawURL, httpOptions(args, int(envelope.Timeout("web_request").Seconds())))
	if err != nil {
		code, label := classifyHTTPError(err)
		return envelope.NetworkError(code, envelope.ErrorParams{
			Tool: "test_web_service_health", Target: rawURL, Command: command,
			Message: fmt.Sprintf("%s for %s", label, rawURL), Stderr: err.Error(),
			Elapsed: time.Since(start), Options: options,
		})
	}

	healthy := res.StatusCode == expected
	parsed := httpResultMap(res)
	parsed["expected_status"] = expected
	parsed["healthy"] = healthy

	if !healthy {
		out := envelope.NetworkError(envelope.CodeConnectionFailed, envelope.ErrorParams{
			Tool: "test_web_service_health", Target: rawURL, Command: command,
			Message: fmt.Sprintf("Service returned HTTP %d, expected %d", res.StatusCode, expected),
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "test_web_service_health", Target: rawURL, Command: command,
		Stdout:  fmt.Sprintf("Healthy: HTTP %d in %.1fms", res.StatusCode, float64(res.ResponseTime.Microseconds())/1000),
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// checkMultipleEndpoints implements the check_multiple_endpoints tool.
func checkMultipleEndpoints(ctx context.Context, args map[string]any) *envelope.Result {
	urls := tools.StringListArg(args, "urls", nil)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds()))
	options := map[string]any{"urls": urls, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("GET sweep over %d endpoints", len(urls))

	if len(urls) == 0 {
		return envelope.InputError(envelope.CodeMissingParameter, envelope.ErrorParams{
			Tool: "check_multiple_endpoints", Options: options,
			Context: map[string]string{"parameter": "urls"},
		})
	}

	opts := httpOptions(args, timeoutSec)
	runner := batch.New(batch.Config{
		Parallelism:      min(len(urls), 8),
		PerTargetTimeout: opts.Timeout + time.Second,
	})

	reachable, unreachable, summary := runner.Run(ctx, "endpoint", urls, func(ctx context.Context, rawURL string) batch.Outcome {
		res, err := netops.Get(ctx, netops.EnsureScheme(rawURL), opts)
		if err != nil {
			code, _ := classifyHTTPError(err)
			return batch.Outcome{Target: rawURL, ErrCode: code, ErrMessage: err.Error()}
		}
		if res.StatusCode >= 400 {
			return batch.Outcome{
				Target: rawURL, ErrCode: envelope.CodeConnectionFailed,
				ErrMessage: fmt.Sprintf("HTTP %d", res.StatusCode),
			}
		}
		return batch.Outcome{Target: rawURL, Data: map[string]any{
			"url":              rawURL,
			"status_code":      res.StatusCode,
			"response_time_ms": float64(res.ResponseTime.Microseconds()) / 1000,
		}}
	})

	var avgMs float64
	for _, out := range reachable {
		avgMs += out.Data["response_time_ms"].(float64)
	}
	if len(reachable) > 0 {
		avgMs /= float64(len(reachable))
	}

	parsed := map[string]any{
		"reachable_endpoints":   batch.OutcomeMaps(reachable),
		"unreachable_endpoints": batch.OutcomeMaps(unreachable),
		"average_time_ms":       avgMs,
		"summary":               summary.Map(),
	}

	if len(reachable) == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_multiple_endpoints", Command: command,
			Message: "All endpoints failed", Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_multiple_endpoints", Command: command,
		Stdout:  summary.Text,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// checkWebsiteAccessibility implements the composite
// check_website_accessibility tool: HTTP, HTTPS, certificate and a
// common-subdomain sweep for one domain.
func checkWebsiteAccessibility(ctx context.Context, args map[string]any) *envelope.Result {
	domain := tools.StringArg(args, "domain", tools.StringArg(args, "target", ""))
	checkSubdomains := tools.BoolArg(args, "check_subdomains", true)
	timeoutSec := tools.IntArg(args, "timeout", int(envelope.Timeout("web_request").Seconds()))
	options := map[string]any{"domain": domain, "check_subdomains": checkSubdomains, "timeout": timeoutSec}
	start := time.Now()
	command := fmt.Sprintf("accessibility check for %s", domain)

	if domain == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "check_website_accessibility", Message: "check_website_accessibility requires a domain", Options: options,
		})
	}
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimSuffix(domain, "/")

	parsed := map[string]any{"domain": domain}
	checksPassed := 0
	checksTotal := 0

	// HTTP and HTTPS apex checks.
	for _, scheme := range []string{"http", "https"} {
		checksTotal++
		res := testHTTPConnectivity(ctx, map[string]any{
			"url": scheme + "://" + domain, "timeout": timeoutSec, "silent": true,
		})
		entry := map[string]any{"success": res.Success}
		if res.Success {
			checksPassed++
			entry["status_code"] = res.ParsedData["status_code"]
			entry["response_time_ms"] = res.ParsedData["response_time_ms"]
		} else {
			entry["error"] = res.ErrorMessage
		}
		parsed[scheme] = entry
	}

	// Certificate check.
	checksTotal++
	certRes := checkSSLCertificate(ctx, map[string]any{
		"hostname": domain, "timeout": timeoutSec, "silent": true,
	})
	if certRes.Success {
		checksPassed++
		parsed["certificate"] = certRes.ParsedData
	} else {
		parsed["certificate"] = map[string]any{"error": certRes.ErrorMessage}
	}

	// Common subdomain sweep.
	if checkSubdomains {
		targets := make([]string, len(commonSubdomains))
		for i, sub := range commonSubdomains {
			targets[i] = sub + "." + domain
		}
		opts := netops.HTTPOptions{Timeout: time.Duration(timeoutSec) * time.Second, FollowRedirects: true}
		runner := batch.New(batch.Config{Parallelism: len(targets), PerTargetTimeout: opts.Timeout + time.Second})
		alive, _, _ := runner.Run(ctx, "subdomain", targets, func(ctx context.Context, host string) batch.Outcome {
			res, err := netops.Get(ctx, "https://"+host, opts)
			if err != nil || res.StatusCode >= 500 {
				return batch.Outcome{Target: host, ErrCode: envelope.CodeUnreachable, ErrMessage: "unreachable"}
			}
			return batch.Outcome{Target: host, Data: map[string]any{"status_code": res.StatusCode}}
		})
		parsed["subdomains"] = batch.OutcomeMaps(alive)
		parsed["subdomains_reachable"] = len(alive)
	}

	parsed["checks_passed"] = checksPassed
	parsed["checks_total"] = checksTotal

	if checksPassed == 0 {
		out := envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "check_website_accessibility", Target: domain, Command: command,
			Message: fmt.Sprintf("%s failed every accessibility check", domain),
			Elapsed: time.Since(start), Options: options,
		})
		out.ParsedData = parsed
		return out
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_website_accessibility", Target: domain, Command: command,
		Stdout:  fmt.Sprintf("%d/%d checks passed for %s", checksPassed, checksTotal, domain),
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}
