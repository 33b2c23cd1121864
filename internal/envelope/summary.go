package envelope

import "fmt"

// BatchStatus is the overall outcome of a multi-target probe.
type BatchStatus string

const (
	// StatusSuccess means all (or at least 80% of) targets succeeded.
	StatusSuccess BatchStatus = "success"

	// StatusPartial means some but fewer than 80% of targets succeeded.
	StatusPartial BatchStatus = "partial"

	// StatusError means no target succeeded.
	StatusError BatchStatus = "error"
)

// Summary aggregates the outcome of a multi-target probe. It is embedded in
// parsed_data by every sweep-style tool under the "summary" key.
type Summary struct {
	Total       int         `json:"total"`
	Successful  int         `json:"successful"`
	Failed      int         `json:"failed"`
	SuccessRate float64     `json:"success_rate"`
	Status      BatchStatus `json:"status"`
	Text        string      `json:"text"`
}

// Summarize computes the batch summary for total targets of which successful
// succeeded. The status bands follow the sweep probes' convention: success at
// ≥80%, partial above zero, error at zero.
func Summarize(kind string, total, successful int) Summary {
	failed := total - successful
	rate := 0.0
	if total > 0 {
		rate = float64(successful) / float64(total)
	}

	var status BatchStatus
	var text string
	switch {
	case total > 0 && successful == total:
		status = StatusSuccess
		text = fmt.Sprintf("All %d %s targets are reachable", total, kind)
	case float64(successful) >= float64(total)*0.8 && successful > 0:
		status = StatusSuccess
		text = fmt.Sprintf("%d/%d %s targets reachable (%.1f%%)", successful, total, kind, rate*100)
	case successful > 0:
		status = StatusPartial
		text = fmt.Sprintf("Partial %s connectivity: %d/%d targets reachable (%.1f%%)", kind, successful, total, rate*100)
	default:
		status = StatusError
		text = fmt.Sprintf("No %s targets reachable (0/%d)", kind, total)
	}

	return Summary{
		Total:       total,
		Successful:  successful,
		Failed:      failed,
		SuccessRate: rate,
		Status:      status,
		Text:        text,
	}
}

// Map renders the summary as a parsed_data-ready map.
func (s Summary) Map() map[string]any {
	return map[string]any{
		"total":        s.Total,
		"successful":   s.Successful,
		"failed":       s.Failed,
		"success_rate": s.SuccessRate,
		"status":       string(s.Status),
		"text":         s.Text,
	}
}
