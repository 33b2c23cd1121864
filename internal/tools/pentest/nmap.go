// Package pentest implements the thin wrappers around external scanner
// binaries. Each wrapper invokes the binary with a fixed profile, captures
// the transcript verbatim, and extracts a structured host/port listing where
// the output allows. The registry offers these tools only while the backing
// binary is present.
package pentest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/tools"
)

// profile describes one fixed nmap invocation shape.
type profile struct {
	args       []string
	timeoutKey string
	privileged bool
}

// scanProfiles maps profile names to their nmap arguments. Profiles needing
// raw sockets are marked privileged; a permission failure from any profile
// gets the connect-scan suggestion.
var scanProfiles = map[string]profile{
	"basic":           {args: []string{"-sT", "--top-ports", "100"}, timeoutKey: "nmap_basic"},
	"quick":           {args: []string{"-sT", "-F", "-T4"}, timeoutKey: "nmap_basic"},
	"service-version": {args: []string{"-sT", "-sV", "--top-ports", "100"}, timeoutKey: "nmap_service"},
	"os-detection":    {args: []string{"-O"}, timeoutKey: "nmap_os", privileged: true},
	"comprehensive":   {args: []string{"-sS", "-sV", "-O", "-p-"}, timeoutKey: "comprehensive_scan", privileged: true},
}

var (
	nmapPortLine = regexp.MustCompile(`^(\d+)/(tcp|udp)\s+(\S+)\s+(\S+)(?:\s+(.*))?$`)
	nmapHostLine = regexp.MustCompile(`^Nmap scan report for (.+?)(?: \(([\d.]+)\))?$`)
)

// parseNmapOutput extracts a host/port listing from plain nmap output.
// Unrecognized output simply yields an empty listing; the transcript is the
// authoritative record.
func parseNmapOutput(output string) []map[string]any {
	var hosts []map[string]any
	var current map[string]any

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := nmapHostLine.FindStringSubmatch(line); m != nil {
			current = map[string]any{"host": m[1], "ports": []map[string]any{}}
			if m[2] != "" {
				current["ip"] = m[2]
			}
			hosts = append(hosts, current)
			continue
		}
		if current == nil {
			continue
		}
		if m := nmapPortLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			port, _ := strconv.Atoi(m[1])
			entry := map[string]any{
				"port":     port,
				"protocol": m[2],
				"state":    m[3],
				"service":  m[4],
			}
			if m[5] != "" {
				entry["version"] = strings.TrimSpace(m[5])
			}
			current["ports"] = append(current["ports"].([]map[string]any), entry)
		}
	}
	return hosts
}

// isPermissionFailure detects nmap's raw-socket permission errors.
func isPermissionFailure(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "requires root privileges") ||
		strings.Contains(lower, "permission denied") ||
		strings.Contains(lower, "operation not permitted") ||
		strings.Contains(lower, "you requested a scan type which requires root")
}

// runNmapScan implements the run_nmap_scan tool.
func runNmapScan(ctx context.Context, args map[string]any) *envelope.Result {
	target := tools.StringArg(args, "target", "")
	profileName := tools.StringArg(args, "profile", "basic")
	ports := tools.StringArg(args, "ports", "")
	options := map[string]any{"target": target, "profile": profileName, "ports": ports}
	start := time.Now()

	if target == "" {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "run_nmap_scan", Message: "run_nmap_scan requires a target", Options: options,
		})
	}
	prof, ok := scanProfiles[profileName]
	if !ok {
		names := make([]string, 0, len(scanProfiles))
		for name := range scanProfiles {
			names = append(names, name)
		}
		return envelope.InputError(envelope.CodeInvalidFormat, envelope.ErrorParams{
			Tool: "run_nmap_scan", Target: target, Options: options,
			Message: fmt.Sprintf("Unknown scan profile %q; available: %s", profileName, strings.Join(names, ", ")),
		})
	}

	argv := append([]string{"nmap"}, prof.args...)
	if ports != "" {
		if !validPortSpec(ports) {
			return envelope.InputError(envelope.CodeInvalidPort, envelope.ErrorParams{
				Tool: "run_nmap_scan", Target: target, Options: options,
				Context: map[string]string{"port": ports},
			})
		}
		argv = append(argv, "-p", ports)
	}
	argv = append(argv, target)
	command := strings.Join(argv, " ")

	res, err := netops.RunCommand(ctx, envelope.Timeout(prof.timeoutKey), argv...)
	if err != nil {
		return envelope.SystemError(envelope.CodeToolMissing, envelope.ErrorParams{
			Tool: "run_nmap_scan", Target: target, Command: command,
			Stderr: err.Error(), Elapsed: time.Since(start), Options: options,
			Context: map[string]string{"tool": "nmap"},
		})
	}
	if res.TimedOut {
		return envelope.NetworkError(envelope.CodeTimeout, envelope.ErrorParams{
			Tool: "run_nmap_scan", Target: target, Command: command,
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
			Context: map[string]string{"timeout": fmt.Sprintf("%d", int(envelope.Timeout(prof.timeoutKey).Seconds()))},
		})
	}
	if res.ExitCode != 0 && isPermissionFailure(res.Stdout+res.Stderr) {
		out := envelope.SystemError(envelope.CodePermissionDenied, envelope.ErrorParams{
			Tool: "run_nmap_scan", Target: target, Command: command,
			Stderr:  res.Stderr,
			Message: fmt.Sprintf("The %q profile needs elevated privileges for raw-socket scans", profileName),
			Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
			Context: map[string]string{"operation": "raw socket scan"},
		})
		out.Suggestions = append(out.Suggestions,
			"Use the 'basic' or 'service-version' profile, which uses a TCP connect scan (-sT)")
		out.Stdout = res.Stdout
		return out
	}
	if res.ExitCode != 0 {
		out := envelope.ExecutionError(envelope.CodeCommandFailed, envelope.ErrorParams{
			Tool: "run_nmap_scan", Target: target, Command: command,
			Stderr: res.Stderr, Elapsed: res.Elapsed, ExitCode: res.ExitCode, Options: options,
			Context: map[string]string{"command": command},
		})
		out.Stdout = res.Stdout
		return out
	}

	hosts := parseNmapOutput(res.Stdout)
	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "run_nmap_scan", Target: target, Command: command,
		Stdout: res.Stdout, Elapsed: res.Elapsed, Options: options,
		Parsed: map[string]any{
			"profile":    profileName,
			"hosts":      hosts,
			"host_count": len(hosts),
		},
	})
}

// validPortSpec accepts single ports, comma lists and dash ranges.
func validPortSpec(spec string) bool {
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		bounds := strings.SplitN(part, "-", 2)
		for _, b := range bounds {
			n, err := strconv.Atoi(b)
			if err != nil || n < 1 || n > 65535 {
				return false
			}
		}
		if len(bounds) == 2 {
			lo, _ := strconv.Atoi(bounds[0])
			hi, _ := strconv.Atoi(bounds[1])
			if lo > hi {
				return false
			}
		}
	}
	return true
}

// Tools returns the scanner wrapper set ready for registration. The registry
// hides these while the nmap binary is absent.
func Tools() []tools.Tool {
	profiles := make([]string, 0, len(scanProfiles))
	for name := range scanProfiles {
		profiles = append(profiles, name)
	}

	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "run_nmap_scan",
				Description: "Run an nmap scan against a target or CIDR using a fixed profile",
				Category:    tools.CategoryPentesting,
				Parameters: map[string]tools.ParameterInfo{
					"target":  {Type: tools.TypeString, Required: true, Description: "Target host or CIDR range"},
					"profile": {Type: tools.TypeString, Default: "basic", Choices: profiles, Description: "Scan profile"},
					"ports":   {Type: tools.TypeString, Description: "Port list or range, e.g. '80,443' or '1-1000'"},
					"silent":  tools.SilentParam(),
				},
				RequiresExternalTool: true,
				ExternalToolName:     "nmap",
				PrivilegeRequired:    true,
				Aliases:              []string{"nmap_scan", "port_scan"},
				Examples:             []string{"run_nmap_scan 192.168.1.1", "run_nmap_scan 10.0.0.0/24 --profile quick"},
			},
			Handler: runNmapScan,
		},
	}
}
