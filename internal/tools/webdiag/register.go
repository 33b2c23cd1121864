package webdiag

import "github.com/MrWong99/netscout/internal/tools"

// Tools returns the web probe set ready for registration.
func Tools() []tools.Tool {
	insecure := tools.ParameterInfo{Type: tools.TypeBoolean, Default: false, Description: "Disable TLS certificate verification"}
	proxy := tools.ParameterInfo{Type: tools.TypeString, Description: "Upstream HTTP proxy URL"}
	userAgent := tools.ParameterInfo{Type: tools.TypeString, Description: "Custom User-Agent header"}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "test_http_connectivity",
				Description: "Perform an HTTP/HTTPS GET and report status, headers, timing and certificate",
				Category:    tools.CategoryWeb,
				Parameters: map[string]tools.ParameterInfo{
					"url":              {Type: tools.TypeString, Required: true, Description: "URL to request (https:// assumed when no scheme given)"},
					"timeout":          tools.TimeoutParam("web_request"),
					"follow_redirects": {Type: tools.TypeBoolean, Default: true, Description: "Follow 3xx redirects"},
					"insecure":         insecure,
					"proxy":            proxy,
					"user_agent":       userAgent,
					"silent":           tools.SilentParam(),
				},
				Aliases:  []string{"http_check", "web_check"},
				Examples: []string{"test_http_connectivity example.com", "test_http_connectivity https://example.com --insecure"},
			},
			Handler: testHTTPConnectivity,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_ssl_certificate",
				Description: "Inspect a server TLS certificate: subject, issuer, validity, SANs, key size",
				Category:    tools.CategorySecurity,
				Parameters: map[string]tools.ParameterInfo{
					"hostname": {Type: tools.TypeString, Required: true, Description: "Hostname to inspect"},
					"port":     {Type: tools.TypeInteger, Default: 443, Description: "TLS port"},
					"timeout":  tools.TimeoutParam("web_request"),
					"silent":   tools.SilentParam(),
				},
				Aliases:  []string{"ssl_check", "cert_check", "tls_check"},
				Examples: []string{"check_ssl_certificate example.com", "check_ssl_certificate mail.example.com --port 993"},
			},
			Handler: checkSSLCertificate,
		},
		{
			Metadata: tools.Metadata{
				Name:        "test_web_service_health",
				Description: "Check a web service against its expected HTTP status",
				Category:    tools.CategoryWeb,
				Parameters: map[string]tools.ParameterInfo{
					"url":             {Type: tools.TypeString, Required: true, Description: "Service URL"},
					"expected_status": {Type: tools.TypeInteger, Default: 200, Description: "Expected HTTP status code"},
					"timeout":         tools.TimeoutParam("web_request"),
					"silent":          tools.SilentParam(),
				},
				Aliases:  []string{"service_health", "health_check"},
				Examples: []string{"test_web_service_health https://example.com/health", "test_web_service_health https://api.example.com --expected_status 204"},
			},
			Handler: testWebServiceHealth,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_multiple_endpoints",
				Description: "Sweep a list of URLs and report per-endpoint status and average latency",
				Category:    tools.CategoryWeb,
				Parameters: map[string]tools.ParameterInfo{
					"urls":    {Type: tools.TypeList, Elem: tools.TypeString, Required: true, Description: "URLs to check"},
					"timeout": tools.TimeoutParam("web_request"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"endpoint_sweep", "check_endpoints"},
				Examples: []string{"check_multiple_endpoints https://a.example,https://b.example"},
			},
			Handler: checkMultipleEndpoints,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_website_accessibility",
				Description: "Composite accessibility check: HTTP, HTTPS, certificate and common subdomains",
				Category:    tools.CategoryWeb,
				Parameters: map[string]tools.ParameterInfo{
					"domain":           {Type: tools.TypeString, Required: true, Description: "Domain to check"},
					"check_subdomains": {Type: tools.TypeBoolean, Default: true, Description: "Also probe common subdomains"},
					"timeout":          tools.TimeoutParam("web_request"),
					"silent":           tools.SilentParam(),
				},
				Aliases:  []string{"website_check", "site_accessibility"},
				Examples: []string{"check_website_accessibility example.com"},
			},
			Handler: checkWebsiteAccessibility,
		},
	}
}
