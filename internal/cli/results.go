package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/store"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage stored review results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored review runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		runs, err := s.List()
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stdout, "No stored runs.")
			return nil
		}
		for _, run := range runs {
			issues := 0
			for _, r := range run.Results {
				issues += len(r.Issues)
			}
			fmt.Fprintf(os.Stdout, "%s  %s  %d files, %d issues\n",
				run.ID, run.CreatedAt.Format("2006-01-02 15:04"), len(run.Results), issues)
		}
		return nil
	},
}

var resultsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored review runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := s.Clear(); err != nil {
			return fmt.Errorf("clearing results: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Results cleared.")
		return nil
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show results store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		stats, err := s.GetStats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func openStore() (*store.Store, error) {
	cwd, _ := os.Getwd()
	cfg, err := config.Load(cwd, nil)
	if err != nil {
		return nil, err
	}
	s, err := store.New(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}
	return s, nil
}

func init() {
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsClearCmd)
	resultsCmd.AddCommand(resultsShowCmd)
}
