package dnsdiag

import "github.com/MrWong99/netscout/internal/tools"

// Tools returns the DNS probe set ready for registration.
func Tools() []tools.Tool {
	serverList := tools.ParameterInfo{
		Type:        tools.TypeList,
		Elem:        tools.TypeString,
		Description: "DNS server IPs to query (well-known public resolvers when omitted)",
	}
	recordType := tools.ParameterInfo{
		Type:        tools.TypeString,
		Default:     "A",
		Choices:     []string{"A", "AAAA", "MX", "NS", "TXT", "CNAME", "PTR", "SOA"},
		Description: "DNS record type",
	}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "resolve_hostname",
				Description: "Resolve a hostname to its records of the requested type",
				Category:    tools.CategoryDNS,
				Parameters: map[string]tools.ParameterInfo{
					"hostname":    {Type: tools.TypeString, Required: true, Description: "Hostname to resolve"},
					"record_type": recordType,
					"timeout":     tools.TimeoutParam("dns_query"),
					"silent":      tools.SilentParam(),
				},
				Aliases:  []string{"resolve", "dns_lookup"},
				Examples: []string{"resolve_hostname example.com", "resolve_hostname example.com --record_type MX"},
			},
			Handler: resolveHostname,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_dns_resolvers",
				Description: "Test response time and health of a list of DNS resolvers",
				Category:    tools.CategoryDNS,
				Parameters: map[string]tools.ParameterInfo{
					"servers":     serverList,
					"test_domain": {Type: tools.TypeString, Default: canaryDomain, Description: "Domain used for the test queries"},
					"timeout":     {Type: tools.TypeInteger, Default: 5, Description: "Timeout per server in seconds"},
					"silent":      tools.SilentParam(),
				},
				Aliases:  []string{"test_dns_servers", "dns_servers", "test_resolvers"},
				Examples: []string{"check_dns_resolvers", "check_dns_resolvers --servers 8.8.8.8,1.1.1.1"},
			},
			Handler: testDNSServers,
		},
		{
			Metadata: tools.Metadata{
				Name:        "reverse_dns_lookup",
				Description: "Resolve an IP address back to its hostname (PTR)",
				Category:    tools.CategoryDNS,
				Parameters: map[string]tools.ParameterInfo{
					"ip_address": {Type: tools.TypeString, Required: true, Description: "IP address to look up"},
					"timeout":    tools.TimeoutParam("dns_query"),
					"silent":     tools.SilentParam(),
				},
				Aliases:  []string{"reverse_dns", "ptr_lookup"},
				Examples: []string{"reverse_dns_lookup 8.8.8.8"},
			},
			Handler: reverseDNSLookup,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_dns_propagation",
				Description: "Check DNS propagation of a record across multiple public resolvers",
				Category:    tools.CategoryDNS,
				Parameters: map[string]tools.ParameterInfo{
					"domain":      {Type: tools.TypeString, Required: true, Description: "Domain to check"},
					"record_type": recordType,
					"servers":     serverList,
					"timeout":     {Type: tools.TypeInteger, Default: 5, Description: "Timeout per server in seconds"},
					"silent":      tools.SilentParam(),
				},
				Aliases:  []string{"dns_propagation", "propagation_check"},
				Examples: []string{"check_dns_propagation example.com", "check_dns_propagation example.com --record_type AAAA"},
			},
			Handler: checkDNSPropagation,
		},
	}
}
