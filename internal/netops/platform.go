package netops

import (
	"runtime"
	"strconv"
)

// Platform command selection. Each chooser returns the argv for the current
// operating system; callers pass the result straight to [RunCommand]. The os
// parameter-less forms key on runtime.GOOS; the *For variants exist so the
// parsers and tests can exercise foreign-platform command shapes.

// PingCommand returns the ping argv for the current OS.
func PingCommand(target string, count int, timeoutSec int) []string {
	return PingCommandFor(runtime.GOOS, target, count, timeoutSec)
}

// PingCommandFor returns the ping argv for the given GOOS value.
func PingCommandFor(goos, target string, count, timeoutSec int) []string {
	switch goos {
	case "windows":
		return []string{"ping", "-n", strconv.Itoa(count), "-w", strconv.Itoa(timeoutSec * 1000), target}
	case "darwin":
		return []string{"ping", "-c", strconv.Itoa(count), "-W", strconv.Itoa(timeoutSec * 1000), target}
	default:
		return []string{"ping", "-c", strconv.Itoa(count), "-W", strconv.Itoa(timeoutSec), target}
	}
}

// TracerouteCommand returns the traceroute argv for the current OS.
func TracerouteCommand(target string, maxHops int) []string {
	return TracerouteCommandFor(runtime.GOOS, target, maxHops)
}

// TracerouteCommandFor returns the traceroute argv for the given GOOS value.
func TracerouteCommandFor(goos, target string, maxHops int) []string {
	if goos == "windows" {
		return []string{"tracert", "-h", strconv.Itoa(maxHops), "-w", "5000", target}
	}
	return []string{"traceroute", "-m", strconv.Itoa(maxHops), "-w", "5", target}
}

// InterfaceCommand returns the argv for enumerating network interfaces.
func InterfaceCommand() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"ipconfig", "/all"}
	case "linux":
		return []string{"ip", "addr"}
	default:
		return []string{"ifconfig"}
	}
}

// RouteCommand returns the argv for reading the routing table, used to find
// the default gateway.
func RouteCommand() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"route", "print", "0.0.0.0"}
	case "linux":
		return []string{"ip", "route", "show", "default"}
	default:
		return []string{"netstat", "-rn"}
	}
}

// ArpCommand returns the argv for querying the ARP cache for ip.
func ArpCommand(ip string) []string {
	return []string{"arp", "-n", ip}
}

// DNSLookupCommand returns the argv for a record-type lookup with the
// platform DNS tool: dig with +short on unix, nslookup on windows.
func DNSLookupCommand(hostname, recordType string) []string {
	if runtime.GOOS == "windows" {
		return []string{"nslookup", "-type=" + recordType, hostname}
	}
	return []string{"dig", "+short", hostname, recordType}
}

// DNSServerQueryCommand returns the argv for querying a specific resolver.
func DNSServerQueryCommand(domain, server, recordType string) []string {
	if runtime.GOOS == "windows" {
		return []string{"nslookup", domain, server}
	}
	return []string{"dig", "@" + server, "+short", domain, recordType}
}
