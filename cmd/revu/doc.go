// Revu is a CLI for reviewing code changes with LLM backends.
//
// It fetches diffs from a GitHub pull request or the local git tree,
// sends each changed file to a model, normalizes the response into
// structured findings, and publishes them as PR comments or console
// output. Exit codes are deterministic and suitable for CI gating.
//
// Usage:
//
//	revu review                       # review working tree changes
//	revu review --staged              # review staged changes
//	revu review --range origin/main..HEAD  # review a revision range
//	revu github 42                    # review pull request #42
//	revu config init                  # write a default config file
//	revu results list                 # list stored review runs
//
// See https://github.com/revu-dev/revu for full documentation.
package main
