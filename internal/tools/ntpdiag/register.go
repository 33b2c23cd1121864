package ntpdiag

import "github.com/MrWong99/netscout/internal/tools"

// Tools returns the NTP probe set ready for registration.
func Tools() []tools.Tool {
	serverList := tools.ParameterInfo{
		Type:        tools.TypeList,
		Elem:        tools.TypeString,
		Description: "NTP servers to test (well-known servers when omitted)",
	}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "test_ntp_server",
				Description: "Test connectivity and synchronization with a single NTP server",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"server":  {Type: tools.TypeString, Required: true, Description: "NTP server hostname or IP address"},
					"port":    {Type: tools.TypeInteger, Default: 123, Description: "UDP port for the NTP service"},
					"timeout": tools.TimeoutParam("ntp_query"),
					"version": {Type: tools.TypeInteger, Default: defaultVersion, Description: "NTP protocol version (2-4)"},
					"silent":  tools.SilentParam(),
				},
				Aliases:  []string{"ntp_test", "query_ntp"},
				Examples: []string{"test_ntp_server time.google.com", "test_ntp_server time.nist.gov --version 4"},
			},
			Handler: testNTPServer,
		},
		{
			Metadata: tools.Metadata{
				Name:        "check_ntp_servers",
				Description: "Concurrently test multiple NTP servers with retry for failures",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"servers":      serverList,
					"timeout":      tools.TimeoutParam("ntp_query"),
					"retry_failed": {Type: tools.TypeBoolean, Default: true, Description: "Retry failed servers once"},
					"silent":       tools.SilentParam(),
				},
				Aliases:  []string{"ntp_check", "check_ntp", "ntp_batch"},
				Examples: []string{"check_ntp_servers", "check_ntp_servers --timeout 10"},
			},
			Handler: checkNTPServers,
		},
		{
			Metadata: tools.Metadata{
				Name:        "analyze_ntp_sync",
				Description: "Analyze time synchronization quality across multiple NTP servers",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"servers":      serverList,
					"threshold_ms": {Type: tools.TypeInteger, Default: int(syncThresholdMs), Description: "Offset magnitude treated as drift, in milliseconds"},
					"silent":       tools.SilentParam(),
				},
				Aliases:  []string{"ntp_sync", "ntp_analysis", "sync_analysis"},
				Examples: []string{"analyze_ntp_sync", "analyze_ntp_sync --threshold_ms 50"},
			},
			Handler: analyzeNTPSync,
		},
	}
}
