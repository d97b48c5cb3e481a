// Package local implements the diff source and comment sink for a local
// git working tree. Comments are published to the console.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/revu-dev/revu/internal/diff"
	"github.com/revu-dev/revu/internal/output"
	"github.com/revu-dev/revu/internal/review"
)

// Mode selects which local changes are reviewed.
type Mode string

const (
	ModeUnstaged Mode = "unstaged"
	ModeStaged   Mode = "staged"
	ModeRange    Mode = "range"
)

// Tree reviews changes in the local git repository.
type Tree struct {
	mode     Mode
	revRange string
	out      io.Writer
}

// NewTree creates a local platform for the given mode. revRange is only
// consulted in ModeRange. out receives published comments; nil defaults
// to stdout.
func NewTree(mode Mode, revRange string, out io.Writer) *Tree {
	if out == nil {
		out = os.Stdout
	}
	return &Tree{mode: mode, revRange: revRange, out: out}
}

// FetchDiffs collects the unified diff for the configured mode and
// splits it into per-file diffs. New-side file contents are attached
// best-effort from the working tree.
func (t *Tree) FetchDiffs(ctx context.Context) ([]diff.CodeDiff, error) {
	args := []string{"diff"}
	switch t.mode {
	case ModeStaged:
		args = append(args, "--cached")
	case ModeRange:
		if t.revRange == "" {
			return nil, fmt.Errorf("range mode requires a revision range")
		}
		args = append(args, t.revRange)
	}

	unified, err := gitOutput(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	diffs := diff.SplitUnified(unified)
	root := repoRoot(ctx)
	for i := range diffs {
		diffs[i].NewContent = readWorkingFile(root, diffs[i].NewPath)
	}
	return diffs, nil
}

// SubmitReviewComment prints one comment to the console sink.
func (t *Tree) SubmitReviewComment(ctx context.Context, file string, line int, body string) error {
	loc := file
	if line > 0 {
		loc = fmt.Sprintf("%s:%d", file, line)
	}
	_, err := fmt.Fprintf(t.out, "\n%s\n%s\n", loc, body)
	return err
}

// SubmitReviewSummary prints the aggregate summary to the console sink.
func (t *Tree) SubmitReviewSummary(ctx context.Context, body string) error {
	_, err := fmt.Fprintf(t.out, "\nSummary\n%s\n%s\n", strings.Repeat("─", 60), strings.TrimSpace(body))
	return err
}

// SubmitBatch renders the whole run as a console report. A run that
// covered exactly one file gets the detailed per-issue report.
func (t *Tree) SubmitBatch(ctx context.Context, results []review.Result) error {
	if len(results) == 1 {
		return output.WriteDetailed(t.out, results[0])
	}
	return output.WriteBatch(t.out, results, "")
}

func repoRoot(ctx context.Context) string {
	root, err := gitOutput(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(root)
}

func readWorkingFile(root, path string) string {
	if root == "" || path == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(root, path))
	if err != nil {
		return ""
	}
	return string(data)
}

func gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
