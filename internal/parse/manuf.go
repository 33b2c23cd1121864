package parse

import (
	"bufio"
	"io"
	"strings"
)

// ManufEntry is one line of the Wireshark manufacturer database.
type ManufEntry struct {
	// Prefix is the OUI prefix with separators stripped, uppercased.
	// Usually 6 hex digits (24 bits), longer for small allocation blocks.
	Prefix string

	// Manufacturer is the short vendor name.
	Manufacturer string

	// Comment is the optional long vendor name.
	Comment string
}

// ManufLookup scans a manufacturer database stream for the entry best
// matching oui (6 uppercase hex digits). Matching is by longest prefix no
// longer than the input's 24-bit OUI; comment lines and blanks are ignored.
// Returns nil when no entry matches.
func ManufLookup(r io.Reader, oui string) *ManufEntry {
	oui = strings.ToUpper(oui)
	var best *ManufEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}

		prefix := strings.ToUpper(strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(parts[0])))
		// Slash-suffixed prefixes (e.g. "00:1B:C5:00:00/36") mark sub-OUI
		// blocks; match on the hex part only.
		if slash := strings.IndexByte(prefix, '/'); slash >= 0 {
			prefix = prefix[:slash]
		}
		if prefix == "" || len(prefix) > len(oui) {
			continue
		}
		if !strings.HasPrefix(oui, prefix) {
			continue
		}
		if best != nil && len(prefix) <= len(best.Prefix) {
			continue
		}

		entry := ManufEntry{
			Prefix:       prefix,
			Manufacturer: strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			entry.Comment = strings.TrimSpace(parts[2])
		}
		best = &entry
	}

	return best
}
