package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/gate"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Judge the drafted article against the publication criteria",
	Long: `Gate evaluates article.json and writes quality-report.json. All checks
run every time: structure, citations, fabricated-URL heuristics, source
reachability, duplication against published posts, and word count. A
failing report exits non-zero and is the only thing that blocks publish.`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().Bool("skip-reachability", false, "skip the network reachability check")

	rootCmd.AddCommand(gateCmd)
}

func runGate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if skip, _ := cmd.Flags().GetBool("skip-reachability"); skip {
		cfg.Gate.SkipReachability = true
	}

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	var article types.Article
	if err := store.Read(state.ArticleFile, &article); err != nil {
		return fmt.Errorf("no article draft; run write first: %w", err)
	}

	var corpus gate.CorpusReader
	if hist, err := openHistory(stateDir(cmd, cfg), contentDir(cmd, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
	} else {
		defer hist.Close()
		if _, err := hist.Reindex(cmd.Context(), os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "warning: reindexing published posts: %v\n", err)
		}
		corpus = hist
	}

	report := gate.Evaluate(cmd.Context(), article, corpus, cfg.Gate, gate.Deps{
		HTTP: newHTTPClient(cfg.Gate.HTTPConfig),
		Log:  os.Stdout,
	})

	if err := store.Write(state.QualityFile, report); err != nil {
		return err
	}
	if !report.Pass {
		return fmt.Errorf("quality gate failed with score %d", report.Score)
	}
	fmt.Printf("Quality gate passed with score %d\n", report.Score)
	return nil
}
