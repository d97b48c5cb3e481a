// Package github implements the pull-request diff source and comment
// sink over the GitHub REST API.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/revu-dev/revu/internal/diff"
	"github.com/revu-dev/revu/internal/lang"
	"github.com/revu-dev/revu/internal/review"
)

const defaultAPIURL = "https://api.github.com"

// Client reviews one pull request: it fetches the changed files and
// publishes comments back to it.
type Client struct {
	owner    string
	repo     string
	prNumber int

	token   string
	apiURL  string
	httpCli *http.Client

	headSHA string // cached PR head commit, needed for inline comments
}

// NewClient creates a client for one PR. Requires GITHUB_TOKEN; the API
// root is overridable via GITHUB_API_URL for GitHub Enterprise and tests.
func NewClient(owner, repo string, prNumber int) (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}
	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		owner:    owner,
		repo:     repo,
		prNumber: prNumber,
		token:    token,
		apiURL:   strings.TrimRight(apiURL, "/"),
		httpCli:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type prFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
	Patch            string `json:"patch"`
}

// FetchDiffs returns one CodeDiff per changed file in the PR. Files
// without a textual patch (binaries) are skipped.
func (c *Client) FetchDiffs(ctx context.Context) ([]diff.CodeDiff, error) {
	var diffs []diff.CodeDiff
	for page := 1; ; page++ {
		var files []prFile
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=100&page=%d",
			c.owner, c.repo, c.prNumber, page)
		if err := c.do(ctx, "GET", path, nil, &files); err != nil {
			return nil, fmt.Errorf("fetching PR files: %w", err)
		}
		for _, f := range files {
			if f.Patch == "" {
				continue
			}
			oldPath := f.PreviousFilename
			if oldPath == "" && f.Status != "added" {
				oldPath = f.Filename
			}
			diffs = append(diffs, diff.CodeDiff{
				OldPath:     oldPath,
				NewPath:     f.Filename,
				DiffContent: f.Patch,
				Language:    lang.Detect(f.Filename).Tag,
			})
		}
		if len(files) < 100 {
			break
		}
	}
	return diffs, nil
}

// SubmitReviewComment posts one comment. Line-anchored issues become
// inline review comments on the PR head commit; file-level issues fall
// back to an issue comment naming the file.
func (c *Client) SubmitReviewComment(ctx context.Context, file string, line int, body string) error {
	if line <= 0 {
		return c.postIssueComment(ctx, fmt.Sprintf("**%s**\n\n%s", file, body))
	}
	sha, err := c.prHeadSHA(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"body":      body,
		"commit_id": sha,
		"path":      file,
		"line":      line,
		"side":      "RIGHT",
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", c.owner, c.repo, c.prNumber)
	if err := c.do(ctx, "POST", path, payload, nil); err != nil {
		return fmt.Errorf("posting inline comment: %w", err)
	}
	return nil
}

// SubmitReviewSummary posts the aggregate summary as an issue comment.
func (c *Client) SubmitReviewSummary(ctx context.Context, body string) error {
	return c.postIssueComment(ctx, "## Review Summary\n\n"+body)
}

type reviewComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

type reviewRequest struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []reviewComment `json:"comments"`
}

// SubmitBatch publishes a whole run as a single PR review: line-anchored
// issues become inline comments, everything else lands in the review
// body under a severity table.
func (c *Client) SubmitBatch(ctx context.Context, results []review.Result) error {
	req := buildBatchReview(results)
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", c.owner, c.repo, c.prNumber)
	if err := c.do(ctx, "POST", path, req, nil); err != nil {
		return fmt.Errorf("posting review: %w", err)
	}
	return nil
}

func buildBatchReview(results []review.Result) reviewRequest {
	counts := review.CountSeverities(results)
	var comments []reviewComment
	var general []string

	for _, r := range results {
		for _, issue := range r.Issues {
			body := review.FormatIssueComment(issue)
			if issue.Line > 0 {
				comments = append(comments, reviewComment{
					Path: r.File,
					Line: issue.Line,
					Side: "RIGHT",
					Body: body,
				})
			} else {
				general = append(general, fmt.Sprintf("- `%s`: %s", r.File, strings.ReplaceAll(body, "\n", " ")))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("## Automated Code Review\n\n")
	sb.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(&sb, "| Error | %d |\n", counts.Error)
	fmt.Fprintf(&sb, "| Warning | %d |\n", counts.Warning)
	fmt.Fprintf(&sb, "| Info | %d |\n\n", counts.Info)

	if len(general) > 0 {
		sb.WriteString("### General Findings\n\n")
		sb.WriteString(strings.Join(general, "\n"))
		sb.WriteString("\n")
	}

	return reviewRequest{
		Body:     sb.String(),
		Event:    "COMMENT",
		Comments: comments,
	}
}

func (c *Client) postIssueComment(ctx context.Context, body string) error {
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, c.prNumber)
	if err := c.do(ctx, "POST", path, map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("posting issue comment: %w", err)
	}
	return nil
}

func (c *Client) prHeadSHA(ctx context.Context) (string, error) {
	if c.headSHA != "" {
		return c.headSHA, nil
	}
	var pr struct {
		Head struct {
			SHA string `json:"sha"`
		} `json:"head"`
	}
	path := fmt.Sprintf("/repos/%s/%s/pulls/%d", c.owner, c.repo, c.prNumber)
	if err := c.do(ctx, "GET", path, nil, &pr); err != nil {
		return "", fmt.Errorf("fetching PR head: %w", err)
	}
	if pr.Head.SHA == "" {
		return "", fmt.Errorf("PR #%d has no head commit", c.prNumber)
	}
	c.headSHA = pr.Head.SHA
	return c.headSHA, nil
}

// do performs one API call with auth headers and status-code triage,
// optionally decoding the response into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == 404:
		return fmt.Errorf("not found: %s", path)
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return fmt.Errorf("authentication failed: %s", string(respBody))
	case resp.StatusCode == 422:
		return fmt.Errorf("request rejected (422): %s", string(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo() (owner, repo string, err error) {
	out, err := exec.Command("git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")
	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
