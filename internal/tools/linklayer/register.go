package linklayer

import "github.com/MrWong99/netscout/internal/tools"

// Tools returns the link/host probe set ready for registration.
func Tools() []tools.Tool {
	ifaceParam := tools.ParameterInfo{
		Type:        tools.TypeString,
		Description: "Interface name to filter to (all interfaces when omitted)",
	}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "get_local_ip",
				Description: "Get the local IP address of the outbound interface",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"local_ip"},
				Examples: []string{"get_local_ip"},
			},
			Handler: getLocalIP,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_interface_status",
				Description: "Enumerate network interfaces with status, IP and MAC",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"interface": ifaceParam,
					"silent":    tools.SilentParam(),
				},
				Aliases:  []string{"interface_status", "interfaces"},
				Examples: []string{"check_interface_status", "check_interface_status eth0"},
			},
			Handler: checkInterfaceStatus,
		},
		{
			Metadata: tools.Metadata{
				Name:        "get_system_info",
				Description: "Get hostname, OS, architecture and current user",
				Category:    tools.CategorySystemInfo,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"system_info", "sysinfo"},
				Examples: []string{"get_system_info"},
			},
			Handler: getSystemInfo,
		},
		{
			Metadata: tools.Metadata{
				Name:        "get_gateway_info",
				Description: "Get the default gateway IP and its MAC address when resolvable",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"gateway_info", "default_gateway"},
				Examples: []string{"get_gateway_info"},
			},
			Handler: getGatewayInfo,
		},
		{
			Metadata: tools.Metadata{
				Name:        "get_interface_mac_address",
				Description: "Get the hardware (MAC) address of one or all interfaces",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"interface": ifaceParam,
					"silent":    tools.SilentParam(),
				},
				Aliases:  []string{"interface_mac", "mac_address"},
				Examples: []string{"get_interface_mac_address", "get_interface_mac_address en0"},
			},
			Handler: getInterfaceMACAddress,
		},
		{
			Metadata: tools.Metadata{
				Name:        "get_dns_config",
				Description: "Discover the DNS resolvers configured on this system",
				Category:    tools.CategoryDNS,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"dns_config", "resolver_config"},
				Examples: []string{"get_dns_config"},
			},
			Handler: getDNSConfig,
		},
		{
			Metadata: tools.Metadata{
				Name:        "get_network_config",
				Description: "Get per-interface IP, netmask and derived network address",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"network_config"},
				Examples: []string{"get_network_config"},
			},
			Handler: getNetworkConfig,
		},
	}
}
