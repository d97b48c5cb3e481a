package diff

import (
	"regexp"
	"strings"
)

// FilterConfig carries the four optional pattern lists that decide which
// changed files enter the review pipeline.
type FilterConfig struct {
	IgnoreFiles     []string
	IgnorePaths     []string
	IncludePatterns []string
	ExcludePatterns []string
}

// Filter returns the diffs whose paths survive the configured rules.
// Rules are checked in priority order per file; the first matching rule
// wins: ignoreFiles, then ignorePaths (literal prefixes), then
// includePatterns (must match at least one when set), then
// excludePatterns. Pure function; callers may log skipped files.
func Filter(diffs []CodeDiff, cfg FilterConfig) []CodeDiff {
	kept := make([]CodeDiff, 0, len(diffs))
	for _, d := range diffs {
		if Included(d.Path(), cfg) {
			kept = append(kept, d)
		}
	}
	return kept
}

// Included reports whether a single path passes the filter rules.
func Included(path string, cfg FilterConfig) bool {
	if matchesAny(path, cfg.IgnoreFiles) {
		return false
	}
	for _, prefix := range cfg.IgnorePaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	if len(cfg.IncludePatterns) > 0 && !matchesAny(path, cfg.IncludePatterns) {
		return false
	}
	if matchesAny(path, cfg.ExcludePatterns) {
		return false
	}
	return true
}

func matchesAny(path string, patterns []string) bool {
	for _, p := range patterns {
		if Match(p, path) {
			return true
		}
	}
	return false
}

// Match checks one pattern against a path. A pattern containing "*" is
// compiled to an anchored regular expression where "." matches literally
// and "*" matches any run of characters, so "*.min.js" matches any path
// ending in ".min.js". A pattern without "*" requires exact equality.
func Match(pattern, path string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == path
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
