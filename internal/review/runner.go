package review

import (
	"context"
	"fmt"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/diff"
	"github.com/revu-dev/revu/internal/lang"
	"github.com/revu-dev/revu/internal/providers"
	"github.com/revu-dev/revu/internal/redact"
)

// Source supplies the changed files for the configured scope.
type Source interface {
	FetchDiffs(ctx context.Context) ([]diff.CodeDiff, error)
}

// Notifier publishes review output back to the originating platform.
// Line 0 marks a file-level comment.
type Notifier interface {
	SubmitReviewComment(ctx context.Context, file string, line int, body string) error
	SubmitReviewSummary(ctx context.Context, body string) error
}

// BatchNotifier is an optional Notifier capability: a single platform
// operation submitting all comments at once. When a Notifier implements
// it, the runner prefers it over per-issue submission.
type BatchNotifier interface {
	SubmitBatch(ctx context.Context, results []Result) error
}

// Store persists a finished run's results.
type Store interface {
	SaveRun(results []Result, summary string) error
}

// Observer receives lifecycle events during a run. All diagnostic output
// goes through it; the pipeline itself never writes to the console.
type Observer interface {
	FileStarted(path string, index, total int)
	FileCompleted(path string, r Result, total int)
	RunCompleted(results []Result, summary string)
	Error(stage string, err error)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) FileStarted(string, int, int) {}

func (NopObserver) FileCompleted(string, Result, int) {}

func (NopObserver) RunCompleted([]Result, string) {}

func (NopObserver) Error(string, error) {}

// Runner sequences one review run: fetch diffs, filter, review each file
// in turn, aggregate, persist, and notify. Files are reviewed strictly
// sequentially; the only mutable state is the growing result list.
type Runner struct {
	source   Source
	notifier Notifier
	model    providers.Reviewer
	store    Store
	obs      Observer
	cfg      config.Config
}

// NewRunner constructs a Runner. store may be nil to skip persistence;
// a nil observer is replaced with NopObserver.
func NewRunner(source Source, notifier Notifier, model providers.Reviewer, store Store, obs Observer, cfg config.Config) *Runner {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Runner{
		source:   source,
		notifier: notifier,
		model:    model,
		store:    store,
		obs:      obs,
		cfg:      cfg,
	}
}

// Run executes a whole-scope review. Fetch and model errors are fatal
// and propagate with whatever results were already collected;
// notification errors are reported to the observer and do not abort.
// Zero in-scope diffs is a valid empty outcome and never touches the
// model.
func (r *Runner) Run(ctx context.Context) ([]Result, string, error) {
	diffs, err := r.source.FetchDiffs(ctx)
	if err != nil {
		r.obs.Error("fetch", err)
		return nil, "", fmt.Errorf("fetching diffs: %w", err)
	}

	filtered := diff.Filter(diffs, r.filterConfig())
	if len(filtered) == 0 {
		r.obs.RunCompleted(nil, "")
		return nil, "", nil
	}

	results := make([]Result, 0, len(filtered))
	for i, d := range filtered {
		r.obs.FileStarted(d.Path(), i+1, len(filtered))
		result, err := r.reviewOne(ctx, d)
		if err != nil {
			r.obs.Error("review", err)
			return results, "", err
		}
		results = append(results, result)
		r.obs.FileCompleted(d.Path(), result, len(filtered))
	}

	var summary string
	if len(filtered) > 1 && len(results) > 0 {
		summary, err = r.generateSummary(ctx, results)
		if err != nil {
			r.obs.Error("summary", err)
			return results, "", err
		}
	}

	if r.store != nil {
		if err := r.store.SaveRun(results, summary); err != nil {
			r.obs.Error("persist", err)
		}
	}

	r.notify(ctx, results, summary)
	r.obs.RunCompleted(results, summary)
	return results, summary, nil
}

// RunFile executes a targeted review of a single path. A target not
// present in the fetched diffs is an empty outcome, not an error. Each
// resulting issue is submitted as an individual inline comment.
func (r *Runner) RunFile(ctx context.Context, target string) (*Result, error) {
	diffs, err := r.source.FetchDiffs(ctx)
	if err != nil {
		r.obs.Error("fetch", err)
		return nil, fmt.Errorf("fetching diffs: %w", err)
	}

	for _, d := range diffs {
		if d.Path() != target {
			continue
		}
		r.obs.FileStarted(d.Path(), 1, 1)
		result, err := r.reviewOne(ctx, d)
		if err != nil {
			r.obs.Error("review", err)
			return nil, err
		}
		r.obs.FileCompleted(d.Path(), result, 1)

		for _, issue := range result.Issues {
			body := FormatIssueComment(issue)
			if err := r.notifier.SubmitReviewComment(ctx, result.File, issue.Line, body); err != nil {
				r.obs.Error("notify", err)
			}
		}
		return &result, nil
	}

	return nil, nil
}

func (r *Runner) reviewOne(ctx context.Context, d diff.CodeDiff) (Result, error) {
	if r.cfg.Privacy.RedactSecrets {
		d.DiffContent = redact.Content(d.DiffContent, d.Path(), r.cfg.Privacy.RedactPaths)
	}

	req := providers.Request{
		SystemPrompt: SystemPrompt(r.templates()),
		UserPrompt:   BuildReviewPrompt(d, lang.Display(d.Path()), r.templates()),
		MaxTokens:    r.cfg.MaxTokens,
	}
	resp, err := r.model.Review(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("reviewing %s: %w", d.Path(), err)
	}
	return Parse(resp.Content, d.Path()), nil
}

func (r *Runner) generateSummary(ctx context.Context, results []Result) (string, error) {
	req := providers.Request{
		SystemPrompt: SystemPrompt(r.templates()),
		UserPrompt:   BuildSummaryPrompt(results, r.templates()),
		MaxTokens:    r.cfg.MaxTokens,
	}
	resp, err := r.model.Review(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return resp.Content, nil
}

// notify publishes the batch, preferring a platform bulk operation and
// falling back to one submission per issue. Failures are reported and
// skipped so the run completes.
func (r *Runner) notify(ctx context.Context, results []Result, summary string) {
	if bn, ok := r.notifier.(BatchNotifier); ok {
		if err := bn.SubmitBatch(ctx, results); err != nil {
			r.obs.Error("notify", err)
		}
	} else {
		for _, result := range results {
			for _, issue := range result.Issues {
				body := FormatIssueComment(issue)
				if err := r.notifier.SubmitReviewComment(ctx, result.File, issue.Line, body); err != nil {
					r.obs.Error("notify", err)
				}
			}
		}
	}

	if summary != "" {
		if err := r.notifier.SubmitReviewSummary(ctx, summary); err != nil {
			r.obs.Error("notify", err)
		}
	}
}

func (r *Runner) filterConfig() diff.FilterConfig {
	return diff.FilterConfig{
		IgnoreFiles:     r.cfg.IgnoreFiles,
		IgnorePaths:     r.cfg.IgnorePaths,
		IncludePatterns: r.cfg.IncludePatterns,
		ExcludePatterns: r.cfg.ExcludePatterns,
	}
}

func (r *Runner) templates() Templates {
	return Templates{
		System:  r.cfg.Prompts.System,
		Review:  r.cfg.Prompts.Review,
		Summary: r.cfg.Prompts.Summary,
	}
}

// FormatIssueComment renders one issue as a markdown comment body.
func FormatIssueComment(issue Issue) string {
	var b []byte
	b = fmt.Appendf(b, "**[%s]** %s", issue.Severity, issue.Message)
	if issue.Suggestion != "" {
		b = fmt.Appendf(b, "\n\n**Suggestion:** %s", issue.Suggestion)
	}
	if issue.Code != "" {
		b = fmt.Appendf(b, "\n\n```\n%s\n```", issue.Code)
	}
	return string(b)
}
