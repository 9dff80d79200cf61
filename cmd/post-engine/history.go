package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Rebuild the publish-history index from the content directory",
	Long: `History reindexes every post in the content directory into the SQLite
index that serves novelty scoring and the duplicate-content check.
Unchanged files are skipped; deleting the index is always safe.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Bool("titles", false, "print indexed titles after reindexing")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	hist, err := openHistory(stateDir(cmd, cfg), contentDir(cmd, cfg))
	if err != nil {
		return err
	}
	defer hist.Close()

	summary, err := hist.Reindex(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("History index up to date: %d posts\n", summary.Total()-summary.Failed)

	if show, _ := cmd.Flags().GetBool("titles"); show {
		titles, err := hist.Titles(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range titles {
			fmt.Println(t)
		}
	}
	return nil
}
