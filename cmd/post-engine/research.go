package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/research"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Build the verified research bundle for the selected topic",
	Long: `Research reads topic.json and produces research.json: a trusted source
list inferred from keyword rules plus supported claims. With a generation
credential configured the bundle is enriched, but every generated source
is verified against the trusted list first.`,
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	var selection types.TopicSelection
	if err := store.Read(state.TopicFile, &selection); err != nil {
		return fmt.Errorf("no topic selection; run plan first: %w", err)
	}

	backend := newBackend(cfg.Research.AIConfig)
	bundle := research.Build(cmd.Context(), backend, selection.Selected, cfg.Research, nil, cmd.ErrOrStderr())

	if err := store.Write(state.ResearchFile, bundle); err != nil {
		return err
	}
	fmt.Printf("Research bundle ready: %d claims, %d sources\n", len(bundle.Claims), len(bundle.SourceList))
	return nil
}
