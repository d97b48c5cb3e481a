package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/local"
	"github.com/revu-dev/revu/internal/output"
	"github.com/revu-dev/revu/internal/providers"
	"github.com/revu-dev/revu/internal/review"
	"github.com/revu-dev/revu/internal/store"
	"github.com/spf13/cobra"
)

// Shared review flags
var (
	flagProvider    string
	flagModel       string
	flagFailOn      string
	flagFormat      string
	flagMaxTokens   int
	flagIgnoreFiles string
	flagIgnorePaths string
	flagInclude     string
	flagExclude     string
	flagTarget      string
	flagNoRedact    bool
	flagNoStore     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "Model provider (openai, anthropic)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, warning, error)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json)")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Maximum response tokens per model call")
	cmd.Flags().StringVar(&flagIgnoreFiles, "ignore-files", "", "Ignore file patterns (comma-separated)")
	cmd.Flags().StringVar(&flagIgnorePaths, "ignore-paths", "", "Ignore literal path prefixes (comma-separated)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "Include patterns (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude patterns (comma-separated)")
	cmd.Flags().StringVar(&flagTarget, "target", "", "Review only this file and publish per-issue inline comments")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoStore, "no-store", false, "Skip persisting results")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = fmt.Sprintf("%d", flagMaxTokens)
	}
	return m
}

// loadConfig builds the effective config, layering repo-local overrides
// from the current directory and pattern flags on top.
func loadConfig() (config.Config, error) {
	cwd, _ := os.Getwd()
	cfg, err := config.Load(cwd, buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	if flagIgnoreFiles != "" {
		cfg.IgnoreFiles = splitComma(flagIgnoreFiles)
	}
	if flagIgnorePaths != "" {
		cfg.IgnorePaths = splitComma(flagIgnorePaths)
	}
	if flagInclude != "" {
		cfg.IncludePatterns = splitComma(flagInclude)
	}
	if flagExclude != "" {
		cfg.ExcludePatterns = splitComma(flagExclude)
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	if flagNoStore {
		cfg.Store.Enabled = false
	}
	return cfg, nil
}

func splitComma(s string) []string {
	var result []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func buildStore(cfg config.Config) review.Store {
	if !cfg.Store.Enabled {
		return nil
	}
	s, err := store.New(cfg.Store.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: results store disabled: %v\n", err)
		return nil
	}
	return s
}

// execute runs the pipeline against the given platform and applies the
// fail-on threshold to the exit code.
func execute(ctx context.Context, source review.Source, notifier review.Notifier, cfg config.Config) ([]review.Result, string) {
	model, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitAuthError
		return nil, ""
	}

	runner := review.NewRunner(source, notifier, model, buildStore(cfg), &consoleObserver{w: os.Stderr}, cfg)

	if flagTarget != "" {
		result, err := runner.RunFile(ctx, flagTarget)
		if err != nil {
			reportRunError(err)
			return nil, ""
		}
		if result == nil {
			fmt.Fprintf(os.Stderr, "No diff found for %s, nothing to review.\n", flagTarget)
			return nil, ""
		}
		applyFailOn([]review.Result{*result}, cfg.FailOn)
		return []review.Result{*result}, ""
	}

	results, summary, err := runner.Run(ctx)
	if err != nil {
		reportRunError(err)
		return nil, ""
	}
	applyFailOn(results, cfg.FailOn)
	return results, summary
}

func reportRunError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if providers.IsAuthError(err) {
		exitCode = ExitAuthError
		return
	}
	exitCode = ExitRuntimeError
}

func applyFailOn(results []review.Result, failOn string) {
	if failOn == "" || failOn == "none" {
		return
	}
	for _, r := range results {
		for _, issue := range r.Issues {
			if review.MeetsThreshold(issue.Severity, failOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

var (
	flagStaged bool
	flagRange  string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review local git changes",
	Long:  "Review unstaged changes (default), staged changes, or a revision range in the local repository.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mode := local.ModeUnstaged
		if flagStaged {
			mode = local.ModeStaged
		}
		if flagRange != "" {
			mode = local.ModeRange
		}

		// For JSON output the console sink stays quiet and the report
		// is written below in one piece.
		var sink io.Writer = os.Stdout
		if cfg.Format == "json" {
			sink = io.Discard
		}
		tree := local.NewTree(mode, flagRange, sink)

		results, summary := execute(cmd.Context(), tree, tree, cfg)
		if cfg.Format == "json" && results != nil {
			if err := output.WriteJSON(os.Stdout, results, summary); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				exitCode = ExitRuntimeError
			}
		}
		return nil
	},
}

func init() {
	addReviewFlags(reviewCmd)
	reviewCmd.Flags().BoolVar(&flagStaged, "staged", false, "Review staged changes (index vs HEAD)")
	reviewCmd.Flags().StringVar(&flagRange, "range", "", "Review a revision range (e.g. origin/main..HEAD)")
}
