package parse

import (
	"regexp"
	"strings"
)

// ipv4Pattern matches dotted-quad addresses with strict octet bounds, so
// version strings and timestamps in tool output are not mistaken for IPs.
var ipv4Pattern = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)

// DNSAnswers extracts answers from dig/nslookup output for the given record
// type. A-record queries yield deduplicated IPv4 addresses; other types yield
// the non-comment answer lines verbatim.
func DNSAnswers(output, recordType string) []string {
	if strings.EqualFold(recordType, "A") {
		return dedupe(ipv4Pattern.FindAllString(output, -1))
	}

	var answers []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		answers = append(answers, line)
	}
	return dedupe(answers)
}

// FirstIP extracts the first IPv4 address from DNS tool output, or "".
func FirstIP(output string) string {
	return ipv4Pattern.FindString(output)
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
