package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/plan"
	"github.com/pdiddy/post-engine/internal/state"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Select the next topic from live and fallback candidate sources",
	Long: `Plan aggregates topic candidates from Hacker News, the trend feeds, and
the static fallback pool, scores them against publish history, and writes
the selection to topic.json. Live sources are best-effort; the fallback
pool guarantees a selection.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringSlice("exclude", nil, "titles to exclude from selection")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	excluded, _ := cmd.Flags().GetStringSlice("exclude")

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	var index plan.TitleReader
	if hist, err := openHistory(stateDir(cmd, cfg), contentDir(cmd, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
	} else {
		defer hist.Close()
		index = hist
	}

	client := newHTTPClient(cfg.Planning.HTTPConfig)
	if cfg.Planning.UserAgent == "" {
		cfg.Planning.UserAgent = defaultUserAgent
	}

	ctx := cmd.Context()
	candidates := plan.Candidates(ctx, client, cfg.Planning, excluded, os.Stdout)
	historyTitles := plan.HistoryTitles(ctx, index, store, os.Stderr)

	selection, err := plan.Select(candidates, historyTitles, cfg.Planning, nil)
	if err != nil {
		return err
	}
	if err := store.Write(state.TopicFile, selection); err != nil {
		return err
	}

	fmt.Printf("Topic selected: %s (score %d)\n", selection.Selected.Title, selection.Selected.Score)
	return nil
}
