package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/github"
	"github.com/revu-dev/revu/internal/output"
	"github.com/revu-dev/revu/internal/review"
	"github.com/spf13/cobra"
)

var (
	flagOwner  string
	flagRepo   string
	flagDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Review a GitHub pull request",
	Long:  "Fetch the changed files of a pull request, review them, and publish the findings back to the PR.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil || prNumber <= 0 {
			exitCode = ExitUsageError
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		owner, repo := flagOwner, flagRepo
		if owner == "" || repo == "" {
			owner, repo, err = github.DetectRepo()
			if err != nil {
				exitCode = ExitUsageError
				fmt.Fprintf(os.Stderr, "Error: %v (use --owner and --repo)\n", err)
				return nil
			}
		}

		client, err := github.NewClient(owner, repo, prNumber)
		if err != nil {
			exitCode = ExitAuthError
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil
		}

		var notifier review.Notifier = client
		if flagDryRun {
			fmt.Fprintln(os.Stderr, "Dry run: findings will not be posted to GitHub.")
			notifier = dryRunNotifier{}
		}

		results, summary := execute(cmd.Context(), client, notifier, cfg)
		if results == nil {
			return nil
		}
		return writeReport(cfg, results, summary)
	},
}

// writeReport mirrors the run on the console. GitHub gets the review
// through the notifier; the terminal gets the same findings here.
func writeReport(cfg config.Config, results []review.Result, summary string) error {
	if cfg.Format == "text" && len(results) == 1 {
		return output.WriteDetailed(os.Stdout, results[0])
	}
	return output.Write(os.Stdout, cfg.Format, results, summary)
}

// dryRunNotifier swallows every publish call so a review can be
// inspected locally without touching the pull request.
type dryRunNotifier struct{}

func (dryRunNotifier) SubmitReviewComment(ctx context.Context, file string, line int, body string) error {
	return nil
}

func (dryRunNotifier) SubmitReviewSummary(ctx context.Context, body string) error {
	return nil
}

func init() {
	addReviewFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagOwner, "owner", "", "Repository owner (detected from origin remote if omitted)")
	githubCmd.Flags().StringVar(&flagRepo, "repo", "", "Repository name (detected from origin remote if omitted)")
	githubCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Review without posting anything to GitHub")
}
