package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/revu-dev/revu/internal/review"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Client{
		owner:    "octo",
		repo:     "demo",
		prNumber: 7,
		token:    "test-token",
		apiURL:   server.URL,
		httpCli:  &http.Client{Timeout: 5 * time.Second},
	}, server
}

func TestFetchDiffs(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/demo/pulls/7/files" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("Missing or wrong Authorization header")
		}
		files := []prFile{
			{Filename: "main.go", Status: "modified", Patch: "@@ -1 +1 @@\n-a\n+b"},
			{Filename: "image.png", Status: "added", Patch: ""}, // binary, skipped
			{Filename: "pkg/new.go", Status: "added", Patch: "@@ -0,0 +1 @@\n+x"},
			{Filename: "renamed.go", PreviousFilename: "old.go", Status: "renamed", Patch: "@@ -1 +1 @@\n-y\n+z"},
		}
		json.NewEncoder(w).Encode(files)
	}))

	diffs, err := client.FetchDiffs(context.Background())
	if err != nil {
		t.Fatalf("FetchDiffs error: %v", err)
	}
	if len(diffs) != 3 {
		t.Fatalf("got %d diffs, want 3 (binary skipped)", len(diffs))
	}

	if diffs[0].NewPath != "main.go" || diffs[0].OldPath != "main.go" {
		t.Errorf("diffs[0] paths = %q/%q", diffs[0].OldPath, diffs[0].NewPath)
	}
	if diffs[0].Language != "go" {
		t.Errorf("diffs[0].Language = %q, want go", diffs[0].Language)
	}
	if diffs[1].OldPath != "" {
		t.Errorf("added file OldPath = %q, want empty", diffs[1].OldPath)
	}
	if diffs[2].OldPath != "old.go" || diffs[2].NewPath != "renamed.go" {
		t.Errorf("renamed file paths = %q/%q", diffs[2].OldPath, diffs[2].NewPath)
	}
}

func TestFetchDiffs_Paginated(t *testing.T) {
	pages := 0
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		page := r.URL.Query().Get("page")
		if page == "1" {
			files := make([]prFile, 100)
			for i := range files {
				files[i] = prFile{Filename: fmt.Sprintf("f%d.go", i), Patch: "+x"}
			}
			json.NewEncoder(w).Encode(files)
			return
		}
		json.NewEncoder(w).Encode([]prFile{{Filename: "last.go", Patch: "+y"}})
	}))

	diffs, err := client.FetchDiffs(context.Background())
	if err != nil {
		t.Fatalf("FetchDiffs error: %v", err)
	}
	if len(diffs) != 101 {
		t.Errorf("got %d diffs, want 101", len(diffs))
	}
	if pages != 2 {
		t.Errorf("fetched %d pages, want 2", pages)
	}
}

func TestSubmitReviewComment_Inline(t *testing.T) {
	var gotComment map[string]any
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octo/demo/pulls/7":
			json.NewEncoder(w).Encode(map[string]any{"head": map[string]string{"sha": "abc123"}})
		case "/repos/octo/demo/pulls/7/comments":
			json.NewDecoder(r.Body).Decode(&gotComment)
			w.WriteHeader(201)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	err := client.SubmitReviewComment(context.Background(), "main.go", 12, "fix this")
	if err != nil {
		t.Fatalf("SubmitReviewComment error: %v", err)
	}
	if gotComment["commit_id"] != "abc123" {
		t.Errorf("commit_id = %v", gotComment["commit_id"])
	}
	if gotComment["path"] != "main.go" || gotComment["line"] != float64(12) {
		t.Errorf("payload = %v", gotComment)
	}
	if gotComment["side"] != "RIGHT" {
		t.Errorf("side = %v", gotComment["side"])
	}

	// Second inline comment must reuse the cached head SHA.
	if err := client.SubmitReviewComment(context.Background(), "main.go", 13, "and this"); err != nil {
		t.Fatalf("second SubmitReviewComment error: %v", err)
	}
}

func TestSubmitReviewComment_FileLevel(t *testing.T) {
	var gotBody map[string]string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/demo/issues/7/comments" {
			t.Errorf("path = %q, want issue comment endpoint", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(201)
	}))

	err := client.SubmitReviewComment(context.Background(), "main.go", 0, "general note")
	if err != nil {
		t.Fatalf("SubmitReviewComment error: %v", err)
	}
	if !strings.HasPrefix(gotBody["body"], "**main.go**\n\n") {
		t.Errorf("body = %q, want file name prefix", gotBody["body"])
	}
}

func TestSubmitReviewSummary(t *testing.T) {
	var gotBody map[string]string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(201)
	}))

	if err := client.SubmitReviewSummary(context.Background(), "all good"); err != nil {
		t.Fatalf("SubmitReviewSummary error: %v", err)
	}
	if gotBody["body"] != "## Review Summary\n\nall good" {
		t.Errorf("body = %q", gotBody["body"])
	}
}

func TestSubmitBatch(t *testing.T) {
	var got reviewRequest
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/demo/pulls/7/reviews" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(200)
	}))

	results := []review.Result{
		{File: "a.go", Issues: []review.Issue{
			{Severity: review.SeverityError, Line: 3, Message: "nil deref"},
			{Severity: review.SeverityInfo, Message: "naming"},
		}},
	}
	if err := client.SubmitBatch(context.Background(), results); err != nil {
		t.Fatalf("SubmitBatch error: %v", err)
	}

	if got.Event != "COMMENT" {
		t.Errorf("event = %q, want COMMENT", got.Event)
	}
	if len(got.Comments) != 1 {
		t.Fatalf("got %d inline comments, want 1", len(got.Comments))
	}
	if got.Comments[0].Path != "a.go" || got.Comments[0].Line != 3 {
		t.Errorf("comment = %+v", got.Comments[0])
	}
	if !strings.Contains(got.Body, "| Error | 1 |") {
		t.Errorf("body missing severity table:\n%s", got.Body)
	}
	if !strings.Contains(got.Body, "### General Findings") {
		t.Errorf("body missing general findings:\n%s", got.Body)
	}
	if !strings.Contains(got.Body, "`a.go`") {
		t.Errorf("general finding missing file reference:\n%s", got.Body)
	}
}

func TestDo_StatusTriage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{404, "not found"},
		{401, "authentication failed"},
		{422, "request rejected"},
		{500, "GitHub API error"},
	}
	for _, tt := range tests {
		client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		err := client.do(context.Background(), "GET", "/x", nil, nil)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: err = %v, want %q", tt.status, err, tt.want)
		}
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/octo/demo.git", "octo", "demo", true},
		{"https://github.com/octo/demo", "octo", "demo", true},
		{"git@github.com:octo/demo.git", "octo", "demo", true},
		{"https://ghe.corp.example/team/service.git", "team", "service", true},
		{"not a url", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRemoteURL(tt.url)
		if tt.ok && err != nil {
			t.Errorf("ParseRemoteURL(%q) error: %v", tt.url, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ParseRemoteURL(%q) should fail", tt.url)
			}
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("ParseRemoteURL(%q) = %q/%q, want %q/%q", tt.url, owner, repo, tt.owner, tt.repo)
		}
	}
}
