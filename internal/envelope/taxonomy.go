package envelope

import "strings"

// messageTemplate pairs a message template with its remediation suggestions.
// Both support {placeholder} substitution via formatTemplate.
type messageTemplate struct {
	message     string
	suggestions []string
}

// templates maps "<type>.<code>" to its message and suggestion templates.
// Pairs without an entry fall back to a generic message built from the code.
var templates = map[string]messageTemplate{
	"network.timeout": {
		message: "Operation timed out after {timeout}s",
		suggestions: []string{
			"Check your internet connection",
			"Try increasing the timeout value with the appropriate parameter",
			"Verify the target is reachable manually (ping/traceroute)",
			"Check if a firewall is blocking the connection",
		},
	},
	"network.connection_failed": {
		message: "Failed to establish connection to {target}",
		suggestions: []string{
			"Verify the target IP/hostname is correct",
			"Check if the target service is running",
			"Test basic connectivity with ping first",
			"Check firewall and network configuration",
		},
	},
	"network.dns_resolution": {
		message: "Failed to resolve hostname {target}",
		suggestions: []string{
			"Check if the hostname is spelled correctly",
			"Test DNS resolution with 'nslookup' or 'dig'",
			"Try using an IP address instead of a hostname",
			"Check the DNS server configuration",
		},
	},
	"network.unreachable": {
		message: "Target {target} is unreachable",
		suggestions: []string{
			"Verify local network connectivity first",
			"Check the default gateway and routing table",
			"The target may be down or filtered",
		},
	},
	"system.tool_missing": {
		message: "Required tool '{tool}' not found on system",
		suggestions: []string{
			"Install {tool} using your package manager",
			"Verify {tool} is in your PATH environment variable",
			"Run 'netscout selftest' to check tool availability",
		},
	},
	"system.permission_denied": {
		message: "Permission denied for operation: {operation}",
		suggestions: []string{
			"Run the command with appropriate privileges (sudo)",
			"Check file/directory permissions",
			"For network scans, try a TCP connect scan (-sT) instead",
		},
	},
	"system.invalid_platform": {
		message: "Operation not supported on this platform",
		suggestions: []string{
			"Check the per-platform tool documentation",
		},
	},
	"input.invalid_target": {
		message: "Invalid target format: {target}",
		suggestions: []string{
			"Use a valid IP address (e.g., 192.168.1.1)",
			"Use a valid hostname (e.g., google.com)",
			"For network ranges, use CIDR notation (e.g., 192.168.1.0/24)",
		},
	},
	"input.invalid_port": {
		message: "Invalid port specification: {port}",
		suggestions: []string{
			"Use a port number between 1-65535",
			"Use port ranges like '80,443' or '1-1000'",
		},
	},
	"input.missing_parameter": {
		message: "Required parameter '{parameter}' missing",
		suggestions: []string{
			"Check the tool's parameter list with 'netscout run-tool'",
		},
	},
	"execution.command_failed": {
		message: "Command execution failed: {command}",
		suggestions: []string{
			"Check command syntax and parameters",
			"Verify all required tools are installed",
			"Run the command manually to debug the issue",
		},
	},
	"execution.unexpected_error": {
		message: "Unexpected error during {operation}",
		suggestions: []string{
			"Re-run with debug logging enabled",
			"Report the issue if it persists",
		},
	},
	"configuration.file_not_found": {
		message: "Required file not found: {path}",
		suggestions: []string{
			"Verify the file exists and the path is correct",
			"Run the corresponding fetch/initialization tool first",
		},
	},
}

// lookupMessage resolves the template for (errType, code) and formats it
// against ctx. Unknown pairs yield a generic message naming the code.
func lookupMessage(errType ErrorType, code ErrorCode, ctx map[string]string) string {
	tmpl, ok := templates[string(errType)+"."+string(code)]
	if !ok {
		return "Error: " + string(code)
	}
	return formatTemplate(tmpl.message, ctx)
}

// lookupSuggestions resolves and formats the suggestion list for
// (errType, code). Unknown pairs yield nil.
func lookupSuggestions(errType ErrorType, code ErrorCode, ctx map[string]string) []string {
	tmpl, ok := templates[string(errType)+"."+string(code)]
	if !ok || len(tmpl.suggestions) == 0 {
		return nil
	}
	out := make([]string, len(tmpl.suggestions))
	for i, s := range tmpl.suggestions {
		out[i] = formatTemplate(s, ctx)
	}
	return out
}

// formatTemplate substitutes {name} placeholders from ctx. Placeholders with
// no matching key are left literal; formatting never fails.
func formatTemplate(tmpl string, ctx map[string]string) string {
	if len(ctx) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); {
		open := strings.IndexByte(tmpl[i:], '{')
		if open < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		open += i
		closing := strings.IndexByte(tmpl[open:], '}')
		if closing < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		closing += open
		b.WriteString(tmpl[i:open])
		key := tmpl[open+1 : closing]
		if val, ok := ctx[key]; ok {
			b.WriteString(val)
		} else if val, ok := ctx[aliasKey(key)]; ok {
			b.WriteString(val)
		} else {
			b.WriteString(tmpl[open : closing+1])
		}
		i = closing + 1
	}
	return b.String()
}

// aliasKey maps template placeholder spellings that differ between templates
// and caller context ("tool" vs "tool_name").
func aliasKey(key string) string {
	switch key {
	case "tool":
		return "tool_name"
	case "tool_name":
		return "tool"
	default:
		return key
	}
}
