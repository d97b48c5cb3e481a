// Package diff models changed files and selects which of them are in
// scope for review.
package diff

import (
	"strings"

	"github.com/revu-dev/revu/internal/lang"
)

// CodeDiff is one changed file under review. DiffContent holds the
// unified diff text exactly as produced by the source platform.
type CodeDiff struct {
	OldPath     string
	NewPath     string
	OldContent  string
	NewContent  string
	DiffContent string
	Language    string
}

// Path returns the path identifying the file, preferring the new path.
func (d CodeDiff) Path() string {
	if d.NewPath != "" {
		return d.NewPath
	}
	return d.OldPath
}

// SplitUnified splits a multi-file unified diff into per-file CodeDiffs.
// File boundaries are "diff --git" headers; old/new paths come from the
// "--- a/" and "+++ b/" lines, with /dev/null handled for added and
// deleted files.
func SplitUnified(unified string) []CodeDiff {
	var diffs []CodeDiff
	for _, section := range splitSections(unified) {
		d := CodeDiff{DiffContent: section}
		for _, line := range strings.Split(section, "\n") {
			switch {
			case strings.HasPrefix(line, "--- a/"):
				d.OldPath = strings.TrimPrefix(line, "--- a/")
			case strings.HasPrefix(line, "+++ b/"):
				d.NewPath = strings.TrimPrefix(line, "+++ b/")
			}
			if d.OldPath != "" && d.NewPath != "" {
				break
			}
		}
		// Deleted files have no "+++ b/" line; keep them addressable
		// by their old path.
		if d.NewPath == "" {
			d.NewPath = d.OldPath
		}
		if d.NewPath == "" {
			continue
		}
		d.Language = lang.Detect(d.NewPath).Tag
		diffs = append(diffs, d)
	}
	return diffs
}

func splitSections(unified string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if strings.TrimSpace(current.String()) != "" {
		sections = append(sections, current.String())
	}
	return sections
}
