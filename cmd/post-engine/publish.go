package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/publish"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Write the gated article into the content directory",
	Long: `Publish renders article.json as a front-mattered MDX document in the
content directory and records it in the publish-history index. It refuses
to run unless quality-report.json passed.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	var article types.Article
	if err := store.Read(state.ArticleFile, &article); err != nil {
		return fmt.Errorf("no article draft; run write first: %w", err)
	}
	var report types.QualityReport
	if err := store.Read(state.QualityFile, &report); err != nil {
		return fmt.Errorf("no quality report; run gate first: %w", err)
	}

	var recorder publish.Recorder
	if hist, err := openHistory(stateDir(cmd, cfg), contentDir(cmd, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
	} else {
		defer hist.Close()
		recorder = hist
	}

	path, err := publish.Publish(cmd.Context(), article, report, contentDir(cmd, cfg), recorder, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Post published: %s\n", path)
	return nil
}
