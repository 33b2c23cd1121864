package iplayer

import "github.com/MrWong99/netscout/internal/tools"

// Tools returns the layer-3 probe set ready for registration.
func Tools() []tools.Tool {
	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "get_external_ip",
				Description: "Get the external IP address via public echo services",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": tools.TimeoutParam("dns_query"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"external_ip", "public_ip"},
				Examples: []string{"get_external_ip", "get_external_ip --timeout 5"},
			},
			Handler: getExternalIP,
		},
		{
			Metadata: tools.Metadata{
				Name:        "ping_host",
				Description: "Ping a host to test connectivity and measure latency",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"target":  {Type: tools.TypeString, Required: true, Description: "Host to ping (IP or hostname)"},
					"count":   {Type: tools.TypeInteger, Default: 4, Description: "Number of ping packets to send"},
					"timeout": tools.TimeoutParam("ping"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"ping", "ping_target"},
				Examples: []string{"ping_host google.com", "ping_host 1.1.1.1 --count 2"},
			},
			Handler: pingHost,
		},
		{
			Metadata: tools.Metadata{
				Name:        "traceroute_host",
				Description: "Trace the network route to a host",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"target":   {Type: tools.TypeString, Required: true, Description: "Host to trace (IP or hostname)"},
					"max_hops": {Type: tools.TypeInteger, Default: 30, Description: "Maximum number of hops"},
					"timeout":  tools.TimeoutParam("traceroute"),
					"silent":   tools.SilentParam(),
				},
				RequiresExternalTool: true,
				ExternalToolName:     "traceroute",
				Aliases:              []string{"traceroute", "trace_route"},
				Examples:             []string{"traceroute_host example.com", "traceroute_host 8.8.8.8 --max_hops 15"},
			},
			Handler: tracerouteHost,
		},
		{
			Metadata: tools.Metadata{
				Name:        "test_port_connectivity",
				Description: "Test TCP connectivity to a specific port on a host",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"host":    {Type: tools.TypeString, Required: true, Description: "Host to test (IP or hostname)"},
					"port":    {Type: tools.TypeInteger, Required: true, Description: "Port number to test", Minimum: floatPtr(1), Maximum: floatPtr(65535)},
					"timeout": tools.TimeoutParam("ping"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"port_check", "check_port"},
				Examples: []string{"test_port_connectivity example.com 443", "test_port_connectivity 10.0.0.1 22 --timeout 3"},
			},
			Handler: testPortConnectivity,
		},
		{
			Metadata: tools.Metadata{
				Name:        "scan_local_network",
				Description: "Sparse ping sweep of the local network to find active hosts",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"network": {Type: tools.TypeString, Description: "Network to scan in CIDR notation (auto-detected when omitted)"},
					"timeout": tools.TimeoutParam("port_scan"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"network_scan", "local_scan"},
				Examples: []string{"scan_local_network", "scan_local_network 192.168.1.0/24"},
			},
			Handler: scanLocalNetwork,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_nat_status",
				Description: "Classify the connection as NAT, direct or uncertain by comparing local and external addresses",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"timeout": tools.TimeoutParam("dns_query"),
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"nat_check", "nat_status"},
				Examples: []string{"check_nat_status"},
			},
			Handler: checkNATStatus,
		},
	}
}

func floatPtr(f float64) *float64 { return &f }
