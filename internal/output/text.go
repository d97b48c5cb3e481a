package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/revu-dev/revu/internal/review"
)

// WriteDetailed renders a full single-file report: the file summary
// followed by every issue with its suggestion and code sample.
func WriteDetailed(w io.Writer, r review.Result) error {
	ew := &errWriter{w: w}

	ew.printf("Review: %s\n", r.File)
	ew.println(strings.Repeat("─", 60))
	if r.Summary != "" {
		for _, line := range wrapText(r.Summary, 70) {
			ew.printf("%s\n", line)
		}
		ew.println(strings.Repeat("─", 60))
	}

	if len(r.Issues) == 0 {
		ew.println("No issues found. Looks good!")
		return ew.err
	}

	for _, issue := range r.Issues {
		ew.printf("\n%s %s", severityIcon(issue.Severity), strings.ToUpper(string(issue.Severity)))
		if issue.Line > 0 {
			ew.printf("  line %d", issue.Line)
		}
		ew.println("")
		for _, line := range wrapText(issue.Message, 70) {
			ew.printf("  %s\n", line)
		}
		if issue.Suggestion != "" {
			ew.println("  Suggestion:")
			for _, line := range wrapText(issue.Suggestion, 70) {
				ew.printf("    %s\n", line)
			}
		}
		if issue.Code != "" {
			ew.println("  Example:")
			for _, line := range strings.Split(issue.Code, "\n") {
				ew.printf("    %s\n", line)
			}
		}
	}
	return ew.err
}

// WriteBatch renders a run's results grouped by severity, most severe
// first, then the aggregate summary when present.
func WriteBatch(w io.Writer, results []review.Result, summary string) error {
	ew := &errWriter{w: w}
	counts := review.CountSeverities(results)

	ew.printf("Reviewed %d files\n", len(results))
	ew.println(strings.Repeat("─", 60))
	ew.printf("Issues: %d total", counts.Total())
	if counts.Total() > 0 {
		ew.printf(" (%d error, %d warning, %d info)", counts.Error, counts.Warning, counts.Info)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if counts.Total() == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	for _, sev := range []review.Severity{review.SeverityError, review.SeverityWarning, review.SeverityInfo} {
		printed := false
		for _, r := range results {
			for _, issue := range r.Issues {
				if issue.Severity != sev {
					continue
				}
				if !printed {
					ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
					ew.println(strings.Repeat("─", 40))
					printed = true
				}
				ew.printf("\n  %s%s\n", r.File, lineSuffix(issue))
				for _, line := range wrapText(issue.Message, 70) {
					ew.printf("    %s\n", line)
				}
				if issue.Suggestion != "" {
					ew.println("    Suggestion:")
					for _, line := range wrapText(issue.Suggestion, 66) {
						ew.printf("      %s\n", line)
					}
				}
			}
		}
	}

	if summary != "" {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("Summary")
		ew.println(strings.Repeat("─", 60))
		ew.printf("%s\n", strings.TrimSpace(summary))
	}
	return ew.err
}

func lineSuffix(issue review.Issue) string {
	if issue.Line > 0 {
		return fmt.Sprintf(":%d", issue.Line)
	}
	return ""
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityError:
		return "[!!]"
	case review.SeverityWarning:
		return "[!]"
	default:
		return "[-]"
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
