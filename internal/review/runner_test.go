package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/diff"
	"github.com/revu-dev/revu/internal/providers"
)

type fakeSource struct {
	diffs []diff.CodeDiff
	err   error
}

func (s *fakeSource) FetchDiffs(ctx context.Context) ([]diff.CodeDiff, error) {
	return s.diffs, s.err
}

type cannedResponse struct {
	match   string // substring of the user prompt
	content string
}

type fakeModel struct {
	responses []cannedResponse // first match wins
	fallback  string
	err       error
	calls     []providers.Request
}

func (m *fakeModel) Review(ctx context.Context, req providers.Request) (providers.Response, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return providers.Response{}, m.err
	}
	for _, r := range m.responses {
		if strings.Contains(req.UserPrompt, r.match) {
			return providers.Response{Content: r.content}, nil
		}
	}
	return providers.Response{Content: m.fallback}, nil
}

func (m *fakeModel) Name() string { return "fake" }

type notifyCall struct {
	file string
	line int
	body string
}

type fakeNotifier struct {
	comments   []notifyCall
	summaries  []string
	commentErr error
}

func (n *fakeNotifier) SubmitReviewComment(ctx context.Context, file string, line int, body string) error {
	n.comments = append(n.comments, notifyCall{file, line, body})
	return n.commentErr
}

func (n *fakeNotifier) SubmitReviewSummary(ctx context.Context, body string) error {
	n.summaries = append(n.summaries, body)
	return nil
}

// fakeBatchNotifier also implements BatchNotifier.
type fakeBatchNotifier struct {
	fakeNotifier
	batches  [][]Result
	batchErr error
}

func (n *fakeBatchNotifier) SubmitBatch(ctx context.Context, results []Result) error {
	n.batches = append(n.batches, results)
	return n.batchErr
}

type fakeStore struct {
	results []Result
	summary string
	saves   int
}

func (s *fakeStore) SaveRun(results []Result, summary string) error {
	s.results = results
	s.summary = summary
	s.saves++
	return nil
}

func codeDiff(path, content string) diff.CodeDiff {
	return diff.CodeDiff{NewPath: path, DiffContent: content}
}

func issueJSON(msg string) string {
	return "```json\n{\"issues\": [{\"severity\": \"warning\", \"line\": 1, \"message\": \"" + msg + "\"}]}\n```"
}

func TestRun_NoDiffs(t *testing.T) {
	model := &fakeModel{}
	runner := NewRunner(&fakeSource{}, &fakeNotifier{}, model, nil, nil, config.Config{})

	results, summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(results) != 0 || summary != "" {
		t.Errorf("got %d results, summary %q, want empty outcome", len(results), summary)
	}
	if len(model.calls) != 0 {
		t.Errorf("model was called %d times with no diffs, want 0", len(model.calls))
	}
}

func TestRun_AllDiffsFilteredOut(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{codeDiff("vendor/x.go", "+a")}}
	model := &fakeModel{}
	cfg := config.Config{ExcludePatterns: []string{"vendor/*"}}
	runner := NewRunner(source, &fakeNotifier{}, model, nil, nil, cfg)

	results, _, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
	if len(model.calls) != 0 {
		t.Error("model should not be called when every diff is filtered out")
	}
}

func TestRun_SingleFileNoSummary(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{codeDiff("a.go", "+x")}}
	model := &fakeModel{fallback: issueJSON("only file")}
	notifier := &fakeNotifier{}
	runner := NewRunner(source, notifier, model, nil, nil, config.Config{})

	results, summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if summary != "" {
		t.Errorf("summary = %q, want none for a single file", summary)
	}
	if len(model.calls) != 1 {
		t.Errorf("model called %d times, want 1 (no summary call)", len(model.calls))
	}
	if len(notifier.summaries) != 0 {
		t.Errorf("summary submitted %d times, want 0", len(notifier.summaries))
	}
	if len(notifier.comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(notifier.comments))
	}
	if notifier.comments[0].file != "a.go" || notifier.comments[0].line != 1 {
		t.Errorf("comment = %+v", notifier.comments[0])
	}
}

func TestRun_MultipleFilesWithSummary(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{
		codeDiff("a.go", "+a"),
		codeDiff("b.go", "+b"),
	}}
	model := &fakeModel{
		responses: []cannedResponse{
			{"covered 2 files", "Overall the change is fine."},
			{"a.go", issueJSON("issue in a")},
			{"b.go", issueJSON("issue in b")},
		},
	}
	notifier := &fakeBatchNotifier{}
	store := &fakeStore{}
	runner := NewRunner(source, notifier, model, store, nil, config.Config{})

	results, summary, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if summary != "Overall the change is fine." {
		t.Errorf("summary = %q", summary)
	}
	if len(model.calls) != 3 {
		t.Errorf("model called %d times, want 3 (2 files + summary)", len(model.calls))
	}

	// Batch submission preferred over per-issue comments.
	if len(notifier.batches) != 1 {
		t.Fatalf("got %d batch submissions, want 1", len(notifier.batches))
	}
	if len(notifier.comments) != 0 {
		t.Errorf("got %d per-issue comments, want 0 when batching", len(notifier.comments))
	}
	if len(notifier.summaries) != 1 || notifier.summaries[0] != summary {
		t.Errorf("summaries = %v", notifier.summaries)
	}

	if store.saves != 1 {
		t.Fatalf("store.SaveRun called %d times, want 1", store.saves)
	}
	if store.summary != summary {
		t.Errorf("stored summary = %q, want %q", store.summary, summary)
	}
}

func TestRun_ResultsKeepFetchOrder(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{
		codeDiff("z.go", "+z"),
		codeDiff("a.go", "+a"),
	}}
	model := &fakeModel{fallback: issueJSON("m")}
	runner := NewRunner(source, &fakeBatchNotifier{}, model, nil, nil, config.Config{})

	results, _, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if results[0].File != "z.go" || results[1].File != "a.go" {
		t.Errorf("results out of order: %s, %s", results[0].File, results[1].File)
	}
}

func TestRun_ModelErrorKeepsCollectedResults(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{
		codeDiff("a.go", "+a"),
		codeDiff("b.go", "+b"),
	}}
	model := &fakeModel{fallback: issueJSON("ok")}
	runner := NewRunner(source, &fakeNotifier{}, model, nil, nil, config.Config{})

	// Fail the second call only.
	calls := 0
	wrapped := reviewerFunc(func(ctx context.Context, req providers.Request) (providers.Response, error) {
		calls++
		if calls == 2 {
			return providers.Response{}, errors.New("model unavailable")
		}
		return model.Review(ctx, req)
	})
	runner.model = wrapped

	results, _, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Run should fail when the model fails")
	}
	if len(results) != 1 {
		t.Errorf("got %d collected results, want 1", len(results))
	}
	if results[0].File != "a.go" {
		t.Errorf("collected result = %q, want a.go", results[0].File)
	}
}

type reviewerFunc func(ctx context.Context, req providers.Request) (providers.Response, error)

func (f reviewerFunc) Review(ctx context.Context, req providers.Request) (providers.Response, error) {
	return f(ctx, req)
}

func (f reviewerFunc) Name() string { return "func" }

func TestRun_FetchErrorFatal(t *testing.T) {
	source := &fakeSource{err: errors.New("git not found")}
	runner := NewRunner(source, &fakeNotifier{}, &fakeModel{}, nil, nil, config.Config{})

	_, _, err := runner.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "git not found") {
		t.Errorf("err = %v, want wrapped fetch error", err)
	}
}

func TestRun_NotificationErrorNotFatal(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{codeDiff("a.go", "+a")}}
	model := &fakeModel{fallback: issueJSON("m")}
	notifier := &fakeNotifier{commentErr: errors.New("network down")}
	runner := NewRunner(source, notifier, model, nil, nil, config.Config{})

	results, _, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v, notification failures must not abort", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestRunFile_TargetNotFound(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{codeDiff("a.go", "+a")}}
	model := &fakeModel{}
	runner := NewRunner(source, &fakeNotifier{}, model, nil, nil, config.Config{})

	result, err := runner.RunFile(context.Background(), "missing.go")
	if err != nil {
		t.Fatalf("RunFile error: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil for a target outside the diff set", result)
	}
	if len(model.calls) != 0 {
		t.Error("model should not be called for a missing target")
	}
}

func TestRunFile_PerIssueComments(t *testing.T) {
	source := &fakeSource{diffs: []diff.CodeDiff{
		codeDiff("a.go", "+a"),
		codeDiff("b.go", "+b"),
	}}
	response := "```json\n{\"issues\": [" +
		"{\"severity\": \"error\", \"line\": 4, \"message\": \"first\"}," +
		"{\"severity\": \"info\", \"message\": \"second\", \"suggestion\": \"tidy up\"}" +
		"]}\n```"
	model := &fakeModel{fallback: response}
	notifier := &fakeNotifier{}
	runner := NewRunner(source, notifier, model, nil, nil, config.Config{})

	result, err := runner.RunFile(context.Background(), "b.go")
	if err != nil {
		t.Fatalf("RunFile error: %v", err)
	}
	if result == nil || result.File != "b.go" {
		t.Fatalf("result = %+v, want b.go", result)
	}
	if len(model.calls) != 1 {
		t.Errorf("model called %d times, want 1", len(model.calls))
	}
	if len(notifier.comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(notifier.comments))
	}
	if notifier.comments[0].line != 4 {
		t.Errorf("comment[0].line = %d, want 4", notifier.comments[0].line)
	}
	if notifier.comments[1].line != 0 {
		t.Errorf("comment[1].line = %d, want 0 (file-level)", notifier.comments[1].line)
	}
	if !strings.Contains(notifier.comments[1].body, "**Suggestion:** tidy up") {
		t.Errorf("comment[1].body = %q", notifier.comments[1].body)
	}
}

func TestFormatIssueComment(t *testing.T) {
	issue := Issue{
		Severity:   SeverityWarning,
		Message:    "unbounded growth",
		Suggestion: "cap the slice",
		Code:       "s = s[:0]",
	}
	got := FormatIssueComment(issue)
	want := "**[warning]** unbounded growth\n\n**Suggestion:** cap the slice\n\n```\ns = s[:0]\n```"
	if got != want {
		t.Errorf("FormatIssueComment = %q, want %q", got, want)
	}

	minimal := FormatIssueComment(Issue{Severity: SeverityInfo, Message: "note"})
	if minimal != "**[info]** note" {
		t.Errorf("FormatIssueComment minimal = %q", minimal)
	}
}
