// Package selftest runs the four-phase startup sequence: core system
// verification, internet connectivity assessment, pentesting tool inventory
// and target scope configuration. The interactive shell runs it before the
// first prompt; the selftest subcommand exposes it directly.
package selftest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/tools"
)

// Phase names in execution order.
const (
	PhaseCoreSystem   = "core_system_verification"
	PhaseConnectivity = "internet_connectivity_assessment"
	PhaseToolsInv     = "pentesting_tool_inventory"
	PhaseTargetScope  = "target_scope_configuration"
)

// defaultTargetScope is the scope recorded when none is configured.
const defaultTargetScope = "local network only"

// PhaseResult is the outcome of one startup phase.
type PhaseResult struct {
	Name    string         `json:"name"`
	Success bool           `json:"success"`
	Detail  string         `json:"detail"`
	Data    map[string]any `json:"data,omitempty"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Report is the outcome of the whole startup sequence.
type Report struct {
	Success bool          `json:"success"`
	Phases  []PhaseResult `json:"phases"`
	Elapsed time.Duration `json:"elapsed"`
}

// Run executes all four phases against the registry. Phases run even when
// earlier ones fail; overall success requires the first two (the machine
// works and the network is reachable) — a missing scanner inventory only
// degrades.
func Run(ctx context.Context, reg *registry.Registry) *Report {
	start := time.Now()
	report := &Report{}

	core := runPhase(PhaseCoreSystem, func() (string, map[string]any, bool) {
		res := reg.ExecuteTool(ctx, "get_system_info", nil, tools.ModeInteractive)
		if !res.Success {
			return "system identity unavailable: " + res.ErrorMessage, nil, false
		}
		local := reg.ExecuteTool(ctx, "get_local_ip", nil, tools.ModeInteractive)
		data := map[string]any{"system": res.ParsedData}
		if local.Success {
			data["local_ip"] = local.ParsedData["local_ip"]
		}
		return "host identity and local address resolved", data, true
	})
	report.Phases = append(report.Phases, core)

	connectivity := runPhase(PhaseConnectivity, func() (string, map[string]any, bool) {
		ext := reg.ExecuteTool(ctx, "get_external_ip", nil, tools.ModeInteractive)
		if !ext.Success {
			return "no internet connectivity: " + ext.ErrorMessage, nil, false
		}
		dns := reg.ExecuteTool(ctx, "check_dns_resolvers", nil, tools.ModeInteractive)
		data := map[string]any{"external_ip": ext.ParsedData["external_ip"]}
		detail := "external address reachable"
		if dns.Success {
			if fastest, ok := dns.ParsedData["fastest_server"]; ok {
				data["fastest_dns"] = fastest
				detail += fmt.Sprintf(", fastest resolver %v", fastest)
			}
		}
		return detail, data, true
	})
	report.Phases = append(report.Phases, connectivity)

	inventory := runPhase(PhaseToolsInv, func() (string, map[string]any, bool) {
		reg.DetectBinaries(ctx, "nmap", "traceroute", "dig", "tshark")
		statuses := reg.Binaries()
		present := make([]string, 0, len(statuses))
		missing := make([]string, 0, len(statuses))
		for _, st := range statuses {
			if st.Present {
				present = append(present, st.Name)
			} else {
				missing = append(missing, st.Name)
			}
		}
		detail := fmt.Sprintf("%d/%d external tools present", len(present), len(statuses))
		if len(missing) > 0 {
			detail += " (missing: " + strings.Join(missing, ", ") + ")"
		}
		return detail, map[string]any{"present": present, "missing": missing}, true
	})
	report.Phases = append(report.Phases, inventory)

	scope := runPhase(PhaseTargetScope, func() (string, map[string]any, bool) {
		return "target scope: " + defaultTargetScope,
			map[string]any{"scope": defaultTargetScope}, true
	})
	report.Phases = append(report.Phases, scope)

	report.Success = core.Success && connectivity.Success
	report.Elapsed = time.Since(start)
	return report
}

// runPhase wraps one phase body with timing.
func runPhase(name string, body func() (string, map[string]any, bool)) PhaseResult {
	start := time.Now()
	detail, data, ok := body()
	return PhaseResult{
		Name:    name,
		Success: ok,
		Detail:  detail,
		Data:    data,
		Elapsed: time.Since(start),
	}
}

// Summary renders the report as terminal text.
func (r *Report) Summary() string {
	var b strings.Builder
	for _, phase := range r.Phases {
		status := "OK  "
		if !phase.Success {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %-36s %s\n", status, phase.Name, phase.Detail)
	}
	overall := "DEGRADED"
	if r.Success {
		overall = "READY"
	}
	fmt.Fprintf(&b, "Startup %s in %.1fs\n", overall, r.Elapsed.Seconds())
	return b.String()
}
