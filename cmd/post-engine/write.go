package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/draft"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Draft the article from the research bundle",
	Long: `Write reads research.json and produces article.json. The deterministic
composer always works; a configured generation backend replaces the prose
while the slug, date, canonical URL, and verified sources stay fixed.`,
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	var bundle types.ResearchBundle
	if err := store.Read(state.ResearchFile, &bundle); err != nil {
		return fmt.Errorf("no research bundle; run research first: %w", err)
	}

	backend := newBackend(cfg.Draft.AIConfig)
	article := draft.Build(cmd.Context(), backend, bundle, cfg.Draft, nil, cmd.ErrOrStderr())

	if err := store.Write(state.ArticleFile, article); err != nil {
		return err
	}
	fmt.Printf("Article draft generated: %s\n", article.Slug)
	return nil
}
