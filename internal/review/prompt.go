package review

import (
	"fmt"
	"strings"

	"github.com/revu-dev/revu/internal/diff"
)

// Templates holds optional user-supplied prompt overrides. Empty fields
// fall back to the built-in prompts.
type Templates struct {
	System  string
	Review  string
	Summary string
}

const defaultSystemPrompt = `You are a strict, expert code reviewer. You review code diffs and produce structured findings in JSON format.

Rules:
1. Only review the changes shown in the diff. Do not comment on unchanged code.
2. Focus on bugs, security issues, performance problems, and correctness. Avoid bikeshedding on style unless it significantly hurts readability.
3. Be concise and actionable. Prefer findings with a concrete suggestion.
4. Reference line numbers from the diff hunks.
5. Rate severity as "info", "warning", or "error".`

// SystemPrompt returns the system prompt, honoring a custom override.
func SystemPrompt(tpl Templates) string {
	if tpl.System != "" {
		return tpl.System
	}
	return defaultSystemPrompt
}

// BuildReviewPrompt renders the per-file review prompt. A custom review
// template has the first occurrence of each of {{language}}, {{filePath}}
// and {{diffContent}} substituted; unmatched placeholders stay as-is.
func BuildReviewPrompt(d diff.CodeDiff, language string, tpl Templates) string {
	if tpl.Review != "" {
		s := strings.Replace(tpl.Review, "{{language}}", language, 1)
		s = strings.Replace(s, "{{filePath}}", d.Path(), 1)
		s = strings.Replace(s, "{{diffContent}}", d.DiffContent, 1)
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Review the following %s changes in %s.\n\n", language, d.Path())
	b.WriteString(`Respond with ONLY a JSON object of this exact shape, inside a fenced json block:
{
  "file": "relative/file/path",
  "summary": "one-paragraph overview of the change",
  "issues": [
    {
      "severity": "info|warning|error",
      "line": 1,
      "message": "what is wrong and why it matters",
      "suggestion": "how to fix it",
      "code": "optional corrected snippet"
    }
  ]
}

"line", "suggestion" and "code" are optional per issue. If there are no issues, return an empty issues array.
`)
	fmt.Fprintf(&b, "\n```diff\n%s\n```\n", d.DiffContent)
	return b.String()
}

// BuildSummaryPrompt renders the aggregate summary prompt from a batch
// of per-file results.
func BuildSummaryPrompt(results []Result, tpl Templates) string {
	counts := CountSeverities(results)
	total := counts.Total()
	distribution := severityDistribution(counts)
	breakdown := resultsBreakdown(results)

	if tpl.Summary != "" {
		s := strings.Replace(tpl.Summary, "{{filesCount}}", fmt.Sprintf("%d", len(results)), 1)
		s = strings.Replace(s, "{{issuesCount}}", fmt.Sprintf("%d", total), 1)
		s = strings.Replace(s, "{{resultsSummary}}", breakdown, 1)
		s = strings.Replace(s, "{{severityDistribution}}", distribution, 1)
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A code review covered %d files and raised %d issues.\n", len(results), total)
	fmt.Fprintf(&b, "Severity distribution: %s\n\n", distribution)
	b.WriteString("Per-file results:\n\n")
	b.WriteString(breakdown)
	b.WriteString(`
Write an overall review summary covering:
1. An overall assessment of the change quality.
2. The key issues per file.
3. Common issue patterns across files.
4. Which fixes to prioritize.
5. General recommendations.
`)
	return b.String()
}

// severityDistribution renders per-severity counts with their share of
// the total, guarding the zero-issue case.
func severityDistribution(c SeverityCounts) string {
	total := c.Total()
	pct := func(n int) int {
		if total == 0 {
			return 0
		}
		return n * 100 / total
	}
	return fmt.Sprintf("error: %d (%d%%), warning: %d (%d%%), info: %d (%d%%)",
		c.Error, pct(c.Error), c.Warning, pct(c.Warning), c.Info, pct(c.Info))
}

func resultsBreakdown(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		c := CountSeverities([]Result{r})
		fmt.Fprintf(&b, "### %s (%d issues: %d error, %d warning, %d info)\n",
			r.File, c.Total(), c.Error, c.Warning, c.Info)
		if r.Summary != "" {
			fmt.Fprintf(&b, "%s\n", r.Summary)
		}
		for _, issue := range r.Issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n",
				strings.ToUpper(string(issue.Severity)), lineInfo(issue), issue.Message)
			if issue.Suggestion != "" {
				fmt.Fprintf(&b, "  suggestion: %s\n", issue.Suggestion)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func lineInfo(issue Issue) string {
	if issue.Line > 0 {
		return fmt.Sprintf("line %d", issue.Line)
	}
	return "general"
}
