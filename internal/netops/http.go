package netops

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultUserAgent identifies netscout probes to HTTP servers.
const defaultUserAgent = "netscout/1.0"

// bodySnippetLimit caps how much of a response body the HTTP probe retains.
const bodySnippetLimit = 500

// HTTPOptions configures an HTTP GET probe.
type HTTPOptions struct {
	// Timeout bounds the whole request including redirects and body read.
	Timeout time.Duration

	// FollowRedirects enables following 3xx responses. The final URL and
	// redirect count are recorded either way.
	FollowRedirects bool

	// Insecure disables TLS certificate verification.
	Insecure bool

	// ProxyURL routes the request through an upstream HTTP proxy when
	// non-empty (e.g. "http://localhost:8080" for an intercepting proxy).
	ProxyURL string

	// UserAgent overrides the default probe user agent when non-empty.
	UserAgent string
}

// HTTPResult captures the observable outcome of an HTTP GET probe.
type HTTPResult struct {
	StatusCode    int
	FinalURL      string
	RedirectCount int
	ResponseTime  time.Duration

	// Selected response headers.
	Server        string
	ContentType   string
	ContentLength int64

	// BodySnippet is the first ≤500 bytes of the response body.
	BodySnippet string

	// Cert summarizes the peer certificate for HTTPS targets, nil otherwise.
	Cert *CertSummary
}

// Get performs an HTTP or HTTPS GET against rawURL with the supplied options
// and extracts status, selected headers, a bounded body snippet and (for
// HTTPS) the peer certificate summary.
func Get(ctx context.Context, rawURL string, opts HTTPOptions) (*HTTPResult, error) {
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("netops: http probe requires a positive timeout")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.Insecure,
			MinVersion:         tls.VersionTLS12,
		},
	}
	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("netops: invalid proxy URL %q: %w", opts.ProxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	redirects := 0
	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if !opts.FollowRedirects {
				return http.ErrUseLastResponse
			}
			redirects = len(via)
			if len(via) >= 10 {
				return fmt.Errorf("netops: stopped after 10 redirects")
			}
			return nil
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("netops: build request for %q: %w", rawURL, err)
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	elapsed := time.Since(start)

	res := &HTTPResult{
		StatusCode:    resp.StatusCode,
		FinalURL:      resp.Request.URL.String(),
		RedirectCount: redirects,
		ResponseTime:  elapsed,
		Server:        resp.Header.Get("Server"),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		BodySnippet:   strings.ToValidUTF8(string(snippet), "�"),
	}

	if resp.TLS != nil && len(resp.TLS.PeerCertificates) > 0 {
		res.Cert = summarizeCert(resp.TLS.PeerCertificates[0])
	}

	return res, nil
}

// EnsureScheme prefixes rawURL with "https://" when it carries no scheme, the
// convention used by all web probes when handed a bare hostname.
func EnsureScheme(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}
