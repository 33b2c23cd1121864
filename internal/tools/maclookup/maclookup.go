// Package maclookup implements the MAC-to-manufacturer probes: downloading
// the Wireshark manufacturer database and offline OUI lookups against it.
package maclookup

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/netops"
	"github.com/MrWong99/netscout/internal/parse"
	"github.com/MrWong99/netscout/internal/tools"
)

const (
	// primaryURL is the gzipped manufacturer database; fallbackURL the
	// uncompressed copy.
	primaryURL  = "https://www.wireshark.org/download/automated/data/manuf.gz"
	fallbackURL = "https://www.wireshark.org/download/automated/data/manuf"

	// staleAfter is the database age that triggers a refresh warning.
	staleAfter = 7 * 24 * time.Hour

	// UnknownManufacturer is the marker returned for unmatched OUIs.
	UnknownManufacturer = "Unknown"

	// InvalidMAC is the sentinel returned by Normalize for malformed input.
	InvalidMAC = ""
)

var (
	macSeparators = regexp.MustCompile(`[:\-.\s\t]`)
	hex12         = regexp.MustCompile(`^[0-9A-Fa-f]{12}$`)
)

// Normalize canonicalizes a MAC address to 12 uppercase hex digits, handling
// colon, hyphen, dot and whitespace separators. Malformed input returns the
// [InvalidMAC] sentinel.
func Normalize(mac string) string {
	clean := macSeparators.ReplaceAllString(strings.TrimSpace(mac), "")
	if !hex12.MatchString(clean) {
		return InvalidMAC
	}
	return strings.ToUpper(clean)
}

// confirmFunc asks the user to approve a download; swapped in tests. It
// reads a single y/N line from stdin.
var confirmFunc = func(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// fetchManufFile implements the fetch_latest_wireshark_manuf_file tool:
// gzipped primary then plain fallback, written atomically, with interactive
// confirmation unless silent, and a local analyzer generation fallback when
// the network path fails.
func fetchManufFile(ctx context.Context, args map[string]any) *envelope.Result {
	silent := tools.BoolArg(args, "silent", false)
	options := map[string]any{"silent": silent}
	start := time.Now()
	command := "download wireshark manufacturer database"

	target, err := netops.WritableManufPath()
	if err != nil {
		return envelope.ConfigurationError(envelope.CodePermissionError, envelope.ErrorParams{
			Tool: "fetch_latest_wireshark_manuf_file", Command: command,
			Stderr: err.Error(), Message: "No writable location for the manufacturer database",
			Elapsed: time.Since(start), Options: options,
		})
	}

	if !silent {
		prompt := fmt.Sprintf("Download the latest manufacturer database from wireshark.org to %s? (y/N): ", target)
		if !confirmFunc(prompt) {
			return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
				Tool: "fetch_latest_wireshark_manuf_file", Command: command,
				Message: "Download declined by user",
				Elapsed: time.Since(start), Options: options,
			})
		}
	}

	var lastErr error
	for _, url := range []string{primaryURL, fallbackURL} {
		data, fetchErr := fetchFull(ctx, url)
		if fetchErr != nil {
			lastErr = fetchErr
			continue
		}
		if writeErr := netops.WriteFileAtomic(target, data, 0o644); writeErr != nil {
			lastErr = writeErr
			continue
		}

		return envelope.NewSuccess(envelope.SuccessParams{
			Tool: "fetch_latest_wireshark_manuf_file", Command: command,
			Stdout:  fmt.Sprintf("Downloaded manufacturer database to %s", target),
			Elapsed: time.Since(start), Options: options,
			Parsed: map[string]any{
				"file_path":       target,
				"file_size":       len(data),
				"download_source": url,
			},
		})
	}

	// Network path failed; try generating the database with a locally
	// installed analyzer.
	if res := tsharkFallback(ctx, target); res != nil {
		return envelope.NewSuccess(envelope.SuccessParams{
			Tool: "fetch_latest_wireshark_manuf_file", Command: command + " (tshark fallback)",
			Stdout:  fmt.Sprintf("Generated manufacturer database at %s via tshark", target),
			Elapsed: time.Since(start), Options: options,
			Parsed: map[string]any{
				"file_path":       target,
				"file_size":       res.size,
				"download_source": "tshark -G manuf",
			},
		})
	}

	stderr := ""
	if lastErr != nil {
		stderr = lastErr.Error()
	}
	return envelope.NetworkError(envelope.CodeConnectionFailed, envelope.ErrorParams{
		Tool: "fetch_latest_wireshark_manuf_file", Command: command,
		Stderr: stderr, Message: "Could not download the manufacturer database from any source",
		Elapsed: time.Since(start), Options: options,
	})
}

// downloadClient fetches the full database stream; the probe-layer HTTP GET
// caps bodies at a snippet, which a megabyte database cannot use.
var downloadClient = &http.Client{Timeout: 60 * time.Second}

// fetchFull streams url fully, transparently gunzipping .gz content.
func fetchFull(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "netscout/1.0")
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("maclookup: %s returned HTTP %d", url, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("maclookup: bad gzip stream from %s: %w", url, err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, 64<<20))
}

// tsharkResult reports a successful analyzer-generated database.
type tsharkResult struct{ size int }

// tsharkFallback generates the database with `tshark -G manuf` when the
// binary is installed.
func tsharkFallback(ctx context.Context, target string) *tsharkResult {
	res, err := netops.RunCommand(ctx, 30*time.Second, "tshark", "-G", "manuf")
	if err != nil || res.ExitCode != 0 || res.Stdout == "" {
		return nil
	}
	if err := netops.WriteFileAtomic(target, []byte(res.Stdout), 0o644); err != nil {
		return nil
	}
	return &tsharkResult{size: len(res.Stdout)}
}

// macLookup implements the mac_address_manufacturer_lookup tool.
func macLookup(_ context.Context, args map[string]any) *envelope.Result {
	mac := tools.StringArg(args, "mac_address", tools.StringArg(args, "target", ""))
	options := map[string]any{"mac_address": mac}
	start := time.Now()
	command := fmt.Sprintf("manufacturer lookup for %s", mac)

	normalized := Normalize(mac)
	if normalized == InvalidMAC {
		return envelope.InputError(envelope.CodeInvalidTarget, envelope.ErrorParams{
			Tool: "mac_address_manufacturer_lookup", Target: mac, Command: command,
			Message: fmt.Sprintf("Malformed MAC address: %q", mac),
			Elapsed: time.Since(start), Options: options,
		})
	}

	dbPath, found := netops.FindManufFile()
	if !found {
		return envelope.ConfigurationError(envelope.CodeFileNotFound, envelope.ErrorParams{
			Tool: "mac_address_manufacturer_lookup", Target: mac, Command: command,
			Message: "Manufacturer database not found locally; fetch it with fetch_latest_wireshark_manuf_file",
			Elapsed: time.Since(start), Options: options,
		})
	}

	var ageDays int
	var stale bool
	if info, err := os.Stat(dbPath); err == nil {
		age := time.Since(info.ModTime())
		ageDays = int(age.Hours() / 24)
		stale = age > staleAfter
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return envelope.ConfigurationError(envelope.CodePermissionError, envelope.ErrorParams{
			Tool: "mac_address_manufacturer_lookup", Target: mac, Command: command,
			Stderr: err.Error(), Elapsed: time.Since(start), Options: options,
		})
	}
	defer f.Close()

	oui := normalized[:6]
	entry := parse.ManufLookup(f, oui)

	parsed := map[string]any{
		"input_mac":         mac,
		"normalized_mac":    normalized,
		"oui":               oui,
		"manufacturer":      UnknownManufacturer,
		"comment":           "",
		"database_age_days": ageDays,
		"database_stale":    stale,
	}
	stdout := "Manufacturer: " + UnknownManufacturer
	if entry != nil {
		parsed["manufacturer"] = entry.Manufacturer
		parsed["comment"] = entry.Comment
		stdout = "Manufacturer: " + entry.Manufacturer
	}

	return envelope.NewSuccess(envelope.SuccessParams{
		Tool: "mac_address_manufacturer_lookup", Target: mac, Command: command,
		Stdout:  stdout,
		Elapsed: time.Since(start), Options: options,
		Parsed: parsed,
	})
}

// Tools returns the MAC lookup probe set ready for registration.
func Tools() []tools.Tool {
	return []tools.Tool{
		{
			Metadata: tools.Metadata{
				Name:        "fetch_latest_wireshark_manuf_file",
				Description: "Download the latest Wireshark manufacturer database for offline MAC lookups",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"silent": tools.SilentParam(),
				},
				Aliases:  []string{"fetch_manuf", "update_manuf_db"},
				Examples: []string{"fetch_latest_wireshark_manuf_file"},
			},
			Handler: fetchManufFile,
		},
		{
			Metadata: tools.Metadata{
				Name:        "mac_address_manufacturer_lookup",
				Description: "Identify a MAC address manufacturer from the local Wireshark database",
				Category:    tools.CategoryNetworkDiagnostics,
				Parameters: map[string]tools.ParameterInfo{
					"mac_address": {Type: tools.TypeString, Required: true, Description: "MAC address in any common format"},
					"silent":      tools.SilentParam(),
				},
				Aliases:  []string{"mac_lookup", "oui_lookup", "manufacturer_lookup"},
				Examples: []string{"mac_address_manufacturer_lookup aa:bb:cc:dd:ee:ff", "mac_address_manufacturer_lookup AABB.CCDD.EEFF"},
			},
			Handler: macLookup,
		},
	}
}
