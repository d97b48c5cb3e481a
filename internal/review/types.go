package review

// Severity classifies a single finding. Ordered info < warning < error.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// NormalizeSeverity coerces any string to a valid Severity. Values
// outside the enum become info so a malformed model response can never
// propagate an invalid severity downstream.
func NormalizeSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityInfo, SeverityWarning, SeverityError:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Issue is one finding within a file. Line 0 means the issue is
// file-level rather than anchored to a specific line.
type Issue struct {
	Severity   Severity `json:"severity"`
	Line       int      `json:"line,omitempty"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Code       string   `json:"code,omitempty"`
}

// Result is one file's review outcome. Issues keep discovery order;
// presentation may re-group by severity.
type Result struct {
	File    string  `json:"file"`
	Issues  []Issue `json:"issues"`
	Summary string  `json:"summary"`
}

// SeverityCounts holds per-severity issue counts.
type SeverityCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Info + c.Warning + c.Error
}

// CountSeverities tallies issues across a batch of results.
func CountSeverities(results []Result) SeverityCounts {
	var c SeverityCounts
	for _, r := range results {
		for _, issue := range r.Issues {
			switch issue.Severity {
			case SeverityError:
				c.Error++
			case SeverityWarning:
				c.Warning++
			default:
				c.Info++
			}
		}
	}
	return c
}
