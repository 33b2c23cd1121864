// Package linklayer implements the link/host diagnostic probes: local IP,
// interface status and configuration, system info, default gateway, MAC
// addresses and resolver discovery.
package linklayer

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/parse"
	"github.com/MrWong99/netscout/internal/tools"
)

// getLocalIP implements the get_local_ip tool via the connected-UDP trick.
func getLocalIP(_ context.Context, args map[string]any) *envelope.Result {
	start := time.Now()
	command := "udp connect 8.8.8.8:80, read local socket name"
	options := map[string]any{}
	_ = args

	ip, err := netops.LocalAddrViaUDP("8.8.8.8:80")
	if err != nil {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "get_local_ip", Command: command, Stderr: err.Error(),
			Message: "Could not determine the local IP address (no route to the internet)",
			Elapsed: time.Since(start), Options: options,
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_local_ip", Command: command, Stdout: ip,
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{"local_ip": ip},
	})
}

// enumerateInterfaces lists interfaces via the stdlib, with the platform
// command output as the textual transcript.
func enumerateInterfaces(ctx context.Context) ([]parse.Interface, string) {
	var ifaces []parse.Interface
	sysIfaces, err := net.Interfaces()
	if err == nil {
		for _, itf := range sysIfaces {
			status := "down"
			if itf.Flags&net.FlagUp != 0 {
				status = "up"
			}
			entry := parse.Interface{
				Name:   itf.Name,
				Status: status,
				MAC:    itf.HardwareAddr.String(),
			}
			if addrs, err := itf.Addrs(); err == nil {
				for _, a := range addrs {
					if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.To4() != nil {
						entry.IP = ipNet.IP.String()
						break
					}
				}
			}
			ifaces = append(ifaces, entry)
		}
	}

	var transcript string
	if res, cmdErr := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), netops.InterfaceCommand()...); cmdErr == nil {
		transcript = res.Stdout
		if len(ifaces) == 0 {
			ifaces = parse.Interfaces(res.Stdout, runtime.GOOS)
		}
	}
	return ifaces, transcript
}

// checkInterfaceStatus implements the check_interface_status tool.
func checkInterfaceStatus(ctx context.Context, args map[string]any) *envelope.Result {
	wanted := tools.StringArg(args, "interface", "")
	options := map[string]any{"interface": wanted}
	start := time.Now()
	command := strings.Join(netops.InterfaceCommand(), " ")

	ifaces, transcript := enumerateInterfaces(ctx)
	if wanted != "" {
		var filtered []parse.Interface
		for _, itf := range ifaces {
			if itf.Name == wanted {
				filtered = append(filtered, itf)
			}
		}
		if len(filtered) == 0 {
			return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
				Tool: "check_interface_status", Target: wanted, Command: command,
				Message: fmt.Sprintf("Interface %q not found", wanted),
				Elapsed: time.Since(start), Options: options,
			})
		}
		ifaces = filtered
	}

	up := 0
	for _, itf := range ifaces {
		if itf.Status == "up" {
			up++
		}
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "check_interface_status", Target: wanted, Command: command,
		Stdout:  transcript,
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{
			"interfaces":      parse.InterfaceMaps(ifaces),
			"interface_count": len(ifaces),
			"interfaces_up":   up,
		},
	})
}

// getSystemInfo implements the get_system_info tool.
func getSystemInfo(_ context.Context, args map[string]any) *envelope.Result {
	start := time.Now()
	_ = args

	hostname, _ := os.Hostname()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	parsed := map[string]any{
		"hostname":     hostname,
		"os":           runtime.GOOS,
		"architecture": runtime.GOARCH,
		"user":         username,
		"go_version":   runtime.Version(),
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_system_info", Command: "read host and runtime identity",
		Stdout:  fmt.Sprintf("%s (%s/%s)", hostname, runtime.GOOS, runtime.GOARCH),
		Elapsed: time.Since(start), Options: map[string]any{},
		Parsed: parsed,
	})
}

// getGatewayInfo implements the get_gateway_info tool: default gateway IP
// from the routing table plus its ARP-derived MAC when available.
func getGatewayInfo(ctx context.Context, args map[string]any) *envelope.Result {
	start := time.Now()
	_ = args
	argv := netops.RouteCommand()
	command := strings.Join(argv, " ")

	res, err := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), argv...)
	if err != nil {
		return envelope.SystemError(envelope.CodeToolMissing, envelope.ErrorParams{
			Tool: "get_gateway_info", Command: command, Stderr: err.Error(),
			Elapsed: time.Since(start), Options: map[string]any{},
			Context: map[string]string{"tool": argv[0]},
		})
	}

	gateway := parse.DefaultGateway(res.Stdout, runtime.GOOS)
	if gateway == "" {
		return envelope.NetworkError(envelope.CodeUnreachable, envelope.ErrorParams{
			Tool: "get_gateway_info", Command: command,
			Message: "No default gateway found in the routing table",
			Elapsed: time.Since(start), Options: map[string]any{},
		})
	}

	parsed := map[string]any{"gateway_ip": gateway}
	if arpRes, arpErr := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), netops.ArpCommand(gateway)...); arpErr == nil {
		if mac := parse.ARPMACAddress(arpRes.Stdout, runtime.GOOS); mac != "" {
			parsed["gateway_mac"] = mac
		}
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_gateway_info", Command: command,
		Stdout:  res.Stdout,
		Elapsed: time.Since(start), Options: map[string]any{},
		Parsed: parsed,
	})
}

// getInterfaceMACAddress implements the get_interface_mac_address tool.
func getInterfaceMACAddress(ctx context.Context, args map[string]any) *envelope.Result {
	wanted := tools.StringArg(args, "interface", "")
	options := map[string]any{"interface": wanted}
	start := time.Now()
	command := "enumerate interface hardware addresses"

	ifaces, _ := enumerateInterfaces(ctx)
	macs := map[string]string{}
	for _, itf := range ifaces {
		if itf.MAC == "" {
			continue
		}
		if wanted != "" && itf.Name != wanted {
			continue
		}
		macs[itf.Name] = itf.MAC
	}

	if len(macs) == 0 {
		msg := "No interfaces with a hardware address found"
		if wanted != "" {
			msg = fmt.Sprintf("Interface %q not found or has no hardware address", wanted)
		}
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "get_interface_mac_address", Target: wanted, Command: command,
			Message: msg, Elapsed: time.Since(start), Options: options,
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_interface_mac_address", Target: wanted, Command: command,
		Elapsed: time.Since(start), Options: options,
		Parsed: map[string]any{"mac_addresses": macs},
	})
}

// getDNSConfig implements the get_dns_config tool: platform resolver
// discovery.
func getDNSConfig(ctx context.Context, args map[string]any) *envelope.Result {
	start := time.Now()
	_ = args

	var servers []string
	var command, transcript string

	switch runtime.GOOS {
	case "windows":
		command = "ipconfig /all"
		if res, err := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), "ipconfig", "/all"); err == nil {
			transcript = res.Stdout
			inDNS := false
			for _, line := range strings.Split(res.Stdout, "\n") {
				if strings.Contains(line, "DNS Servers") {
					inDNS = true
					if ip := parse.FirstIP(line); ip != "" {
						servers = append(servers, ip)
					}
					continue
				}
				if inDNS {
					if ip := parse.FirstIP(line); ip != "" && strings.HasPrefix(strings.TrimSpace(line), ip) {
						servers = append(servers, ip)
						continue
					}
					inDNS = false
				}
			}
		}
	case "darwin":
		command = "scutil --dns"
		if res, err := netops.RunCommand(ctx, envelope.Timeout("tool_detection"), "scutil", "--dns"); err == nil {
			transcript = res.Stdout
			for _, line := range strings.Split(res.Stdout, "\n") {
				if strings.Contains(line, "nameserver[") {
					if ip := parse.FirstIP(line); ip != "" {
						servers = append(servers, ip)
					}
				}
			}
		}
	default:
		command = "read /etc/resolv.conf"
		if data, err := os.ReadFile("/etc/resolv.conf"); err == nil {
			transcript = string(data)
			for _, line := range strings.Split(transcript, "\n") {
				fields := strings.Fields(line)
				if len(fields) >= 2 && fields[0] == "nameserver" {
					servers = append(servers, fields[1])
				}
			}
		}
	}

	servers = dedupe(servers)
	if len(servers) == 0 {
		return envelope.ConfigurationError(envelope.CodeFileNotFound, envelope.ErrorParams{
			Tool: "get_dns_config", Command: command,
			Message: "No DNS resolvers discovered on this system",
			Elapsed: time.Since(start), Options: map[string]any{},
		})
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_dns_config", Command: command, Stdout: transcript,
		Elapsed: time.Since(start), Options: map[string]any{},
		Parsed: map[string]any{
			"dns_servers":  servers,
			"server_count": len(servers),
		},
	})
}

// getNetworkConfig implements the get_network_config tool: per-interface IP,
// netmask and derived network address.
func getNetworkConfig(_ context.Context, args map[string]any) *envelope.Result {
	start := time.Now()
	_ = args
	command := "enumerate interface addresses and derive networks"

	sysIfaces, err := net.Interfaces()
	if err != nil {
		return envelope.SystemError(envelope.CodeInvalidPlatform, envelope.ErrorParams{
			Tool: "get_network_config", Command: command, Stderr: err.Error(),
			Elapsed: time.Since(start), Options: map[string]any{},
		})
	}

	var configs []map[string]any
	for _, itf := range sysIfaces {
		addrs, err := itf.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			ones, _ := ipNet.Mask.Size()
			network := ipNet.IP.Mask(ipNet.Mask)
			configs = append(configs, map[string]any{
				"interface":       itf.Name,
				"ip":              ipNet.IP.String(),
				"netmask":         net.IP(ipNet.Mask).String(),
				"prefix_length":   ones,
				"network_address": fmt.Sprintf("%s/%d", network, ones),
			})
		}
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "get_network_config", Command: command,
		Elapsed: time.Since(start), Options: map[string]any{},
		Parsed: map[string]any{
			"networks":      configs,
			"network_count": len(configs),
		},
	})
}

// dedupe removes duplicate strings preserving order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		if _, err := netip.ParseAddr(s); err != nil {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
