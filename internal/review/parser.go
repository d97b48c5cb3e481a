package review

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// parseFailureMessage is emitted when the parser itself fails; parsing
// must degrade to a result, never abort the pipeline.
const parseFailureMessage = "failed to parse review response"

// Parse turns one model response into a structured Result for filePath.
// It is total over its input: malformed text degrades through a chain of
// fallback strategies, and an unrecoverable internal error yields a
// single error-severity diagnostic issue instead of propagating.
func Parse(text, filePath string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				File: filePath,
				Issues: []Issue{{
					Severity:   SeverityError,
					Message:    parseFailureMessage,
					Suggestion: fmt.Sprintf("%v", r),
				}},
				Summary: "",
			}
		}
	}()

	// Strategy 1: fenced JSON with an issues array wins outright.
	if issues, summary, ok := parseFencedJSON(text); ok {
		return Result{File: filePath, Issues: issues, Summary: summary}
	}

	// Strategy 2: sectioned markdown.
	issues := parseSections(text)

	// Strategy 3: loose line scan, only when sections produced nothing.
	if len(issues) == 0 {
		issues = parseLooseLines(text)
	}

	// Strategy 4: degenerate single-issue result for any non-empty text.
	trimmed := strings.TrimSpace(text)
	if len(issues) == 0 && trimmed != "" {
		issues = []Issue{{
			Severity:   SeverityInfo,
			Message:    "review feedback",
			Suggestion: trimmed,
		}}
	}

	if issues == nil {
		issues = []Issue{}
	}
	return Result{File: filePath, Issues: issues, Summary: extractSummary(text)}
}

// --- Strategy 1: fenced JSON ---

func parseFencedJSON(text string) ([]Issue, string, bool) {
	for _, label := range []string{"json", ""} {
		block, ok := fencedBlock(text, label)
		if !ok {
			continue
		}
		var envelope struct {
			Summary string          `json:"summary"`
			Issues  json.RawMessage `json:"issues"`
		}
		if err := json.Unmarshal([]byte(block), &envelope); err != nil {
			continue
		}
		// The issues field must exist and be an array.
		rawIssues := strings.TrimSpace(string(envelope.Issues))
		if !strings.HasPrefix(rawIssues, "[") {
			continue
		}
		var parsed []struct {
			Severity   string `json:"severity"`
			Line       int    `json:"line"`
			Message    string `json:"message"`
			Suggestion string `json:"suggestion"`
			Code       string `json:"code"`
		}
		if err := json.Unmarshal(envelope.Issues, &parsed); err != nil {
			continue
		}
		issues := make([]Issue, 0, len(parsed))
		for _, p := range parsed {
			issues = append(issues, Issue{
				Severity:   NormalizeSeverity(p.Severity),
				Line:       p.Line,
				Message:    p.Message,
				Suggestion: p.Suggestion,
				Code:       p.Code,
			})
		}
		return issues, envelope.Summary, true
	}
	return nil, "", false
}

// fencedBlock returns the contents of the first fenced block with the
// given label ("" matches any fence).
func fencedBlock(text, label string) (string, bool) {
	marker := "```" + label
	start := strings.Index(text, marker)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(marker):]
	nl := strings.IndexByte(rest, '\n')
	if nl == -1 {
		return "", false
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// --- Strategy 2: sectioned markdown ---

var (
	errorWordRe   = regexp.MustCompile(`(?i)\berrors?\b`)
	warningWordRe = regexp.MustCompile(`(?i)\bwarnings?\b`)
	infoWordRe    = regexp.MustCompile(`(?i)\binfo\b`)
	lineHeaderRe  = regexp.MustCompile(`第\s*(\d+)\s*行`)
)

const suggestionLabel = "**💡 改进建议"

func parseSections(text string) []Issue {
	var issues []Issue
	for _, section := range splitOnHeader(text, "### ") {
		sev, ok := sectionSeverity(section)
		if !ok {
			continue
		}
		for _, block := range splitOnHeader(section, "#### ") {
			if issue, ok := problemIssue(block, sev); ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

// splitOnHeader returns the chunks of text that begin at lines starting
// with the given markdown header prefix. Text before the first header is
// dropped.
func splitOnHeader(text, prefix string) []string {
	lines := strings.Split(text, "\n")
	var chunks []string
	var current []string
	inChunk := false
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			if inChunk && len(current) > 0 {
				chunks = append(chunks, strings.Join(current, "\n"))
			}
			current = []string{strings.TrimPrefix(line, prefix)}
			inChunk = true
			continue
		}
		if inChunk {
			current = append(current, line)
		}
	}
	if inChunk && len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	return chunks
}

// sectionSeverity classifies a section by its severity markers, or
// reports that the section carries no marker at all and must be skipped.
func sectionSeverity(section string) (Severity, bool) {
	switch {
	case strings.Contains(section, "🔴"),
		strings.Contains(section, "严重问题"),
		errorWordRe.MatchString(section):
		return SeverityError, true
	case strings.Contains(section, "🟠"),
		strings.Contains(section, "警告"),
		warningWordRe.MatchString(section):
		return SeverityWarning, true
	case strings.Contains(section, "🔵"),
		strings.Contains(section, "建议"),
		infoWordRe.MatchString(section):
		return SeverityInfo, true
	}
	return SeverityInfo, false
}

// problemIssue extracts one issue from a "#### " delimited block. The
// first line is the header (optionally "第N行:" carrying a line number),
// the following text is the message, a "**💡 改进建议:**" labeled region
// is the suggestion, and the first fenced block is the code sample.
func problemIssue(block string, sev Severity) (Issue, bool) {
	header, body, _ := strings.Cut(block, "\n")
	header = strings.TrimSpace(header)
	if header == "" && strings.TrimSpace(body) == "" {
		return Issue{}, false
	}

	issue := Issue{Severity: sev}
	if m := lineHeaderRe.FindStringSubmatch(header); m != nil {
		issue.Line, _ = strconv.Atoi(m[1])
	}

	if code, ok := fencedBlock(body, ""); ok {
		issue.Code = strings.TrimRight(code, "\n")
	}
	issue.Suggestion = extractSuggestion(body)
	issue.Message = extractMessage(header, body)
	if issue.Message == "" {
		return Issue{}, false
	}
	return issue, true
}

func extractMessage(header, body string) string {
	end := len(body)
	if i := strings.Index(body, suggestionLabel); i >= 0 && i < end {
		end = i
	}
	if i := strings.Index(body, "```"); i >= 0 && i < end {
		end = i
	}
	msg := strings.TrimSpace(body[:end])
	if msg != "" {
		return msg
	}
	// No body text: fall back to the header label itself, minus any
	// line prefix.
	h := lineHeaderRe.ReplaceAllString(header, "")
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(h), ":： "))
}

func extractSuggestion(body string) string {
	i := strings.Index(body, suggestionLabel)
	if i == -1 {
		return ""
	}
	after := body[i+len(suggestionLabel):]
	// Skip past the closing "**" of the bold label (and any colon).
	if j := strings.Index(after, "**"); j >= 0 && j <= 4 {
		after = after[j+2:]
	}
	for _, stop := range []string{"\n**", "\n```", "\n####", "\n### "} {
		if j := strings.Index(after, stop); j >= 0 {
			after = after[:j]
		}
	}
	return strings.TrimSpace(after)
}

// --- Strategy 3: loose line scan ---

// parseLooseLines scans the text once, line by line, matching lines of
// the shape "<number?>: [severity?] message". The scan is a single
// forward pass with no backtracking so adversarially long responses
// stay linear-time.
func parseLooseLines(text string) []Issue {
	var issues []Issue
	for _, line := range strings.Split(text, "\n") {
		if issue, ok := scanIssueLine(line); ok {
			issues = append(issues, issue)
		}
	}
	return issues
}

func scanIssueLine(line string) (Issue, bool) {
	i, n := 0, len(line)
	for i < n && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	numStart := i
	for i < n && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	numEnd := i
	switch {
	case i < n && line[i] == ':':
		i++
	case strings.HasPrefix(line[i:], "："):
		i += len("：")
	default:
		return Issue{}, false
	}
	for i < n && line[i] == ' ' {
		i++
	}

	sev := SeverityInfo
	if i < n && line[i] == '[' {
		if end := strings.IndexByte(line[i:], ']'); end > 1 {
			switch strings.ToLower(line[i+1 : i+end]) {
			case "error":
				sev = SeverityError
				i += end + 1
			case "warning":
				sev = SeverityWarning
				i += end + 1
			case "info":
				i += end + 1
			}
			for i < n && line[i] == ' ' {
				i++
			}
		}
	}

	msg := strings.TrimSpace(line[i:])
	if msg == "" {
		return Issue{}, false
	}
	num := 0
	if numEnd > numStart {
		num, _ = strconv.Atoi(line[numStart:numEnd])
	}
	return Issue{Severity: sev, Line: num, Message: msg}, true
}

// --- Summary extraction ---

var summaryLabels = []string{"总结", "总体评价", "总体评估", "总览", "Summary"}

// extractSummary pulls a free-text overview from the response. Rules are
// tried in order; the first that yields text wins.
func extractSummary(text string) string {
	if s := summaryHeaderSection(text); s != "" {
		return s
	}
	if s := summaryLabeledLine(text); s != "" {
		return s
	}
	paras := paragraphs(text)
	if len(paras) == 0 {
		return ""
	}
	if utf8.RuneCountInString(paras[0]) < 200 {
		return paras[0]
	}
	return paras[len(paras)-1]
}

// summaryHeaderSection captures the text under a level-2 header titled
// "📝 总体评价", up to the next header.
func summaryHeaderSection(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "## ") || !strings.Contains(line, "📝 总体评价") {
			continue
		}
		var captured []string
		for _, next := range lines[i+1:] {
			if strings.HasPrefix(next, "#") {
				break
			}
			captured = append(captured, next)
		}
		return strings.TrimSpace(strings.Join(captured, "\n"))
	}
	return ""
}

func summaryLabeledLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, "*-# \t")
		for _, label := range summaryLabels {
			rest, ok := strings.CutPrefix(trimmed, label)
			if !ok {
				continue
			}
			rest = strings.TrimLeft(rest, "* ")
			if r, ok := strings.CutPrefix(rest, ":"); ok {
				return strings.TrimSpace(strings.Trim(r, "*"))
			}
			if r, ok := strings.CutPrefix(rest, "："); ok {
				return strings.TrimSpace(strings.Trim(r, "*"))
			}
		}
	}
	return ""
}

func paragraphs(text string) []string {
	var paras []string
	for _, chunk := range strings.Split(text, "\n\n") {
		if p := strings.TrimSpace(chunk); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}
