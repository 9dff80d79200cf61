package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/post-engine/internal/batch"
	"github.com/pdiddy/post-engine/internal/draft"
	"github.com/pdiddy/post-engine/internal/gate"
	"github.com/pdiddy/post-engine/internal/genai"
	"github.com/pdiddy/post-engine/internal/history"
	"github.com/pdiddy/post-engine/internal/plan"
	"github.com/pdiddy/post-engine/internal/publish"
	"github.com/pdiddy/post-engine/internal/research"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the full pipeline with a retry budget",
	Long: `Batch chains plan, research, write, gate, and publish until the target
number of posts is published or the attempt budget (target × attempts per
post) is exhausted. A failed attempt excludes its topic and replans;
exhaustion exits non-zero.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("count", 0, "posts to publish this run (default 1)")
	batchCmd.Flags().Int("attempts-per-post", 0, "attempt budget multiplier (default 3)")

	rootCmd.AddCommand(batchCmd)
}

// pipelineStages wires the real stage packages into the orchestrator.
type pipelineStages struct {
	cfg        types.PipelineConfig
	store      *state.Store
	hist       *history.Store
	client     *http.Client
	backend    genai.Backend
	contentDir string
}

func (p *pipelineStages) Plan(ctx context.Context, excluded []string) (types.TopicSelection, error) {
	candidates := plan.Candidates(ctx, p.client, p.cfg.Planning, excluded, os.Stdout)

	var index plan.TitleReader
	if p.hist != nil {
		index = p.hist
	}
	historyTitles := plan.HistoryTitles(ctx, index, p.store, os.Stderr)

	selection, err := plan.Select(candidates, historyTitles, p.cfg.Planning, nil)
	if err != nil {
		return types.TopicSelection{}, err
	}
	if err := p.store.Write(state.TopicFile, selection); err != nil {
		return types.TopicSelection{}, err
	}
	return selection, nil
}

func (p *pipelineStages) Research(ctx context.Context, topic types.SelectedTopic) (types.ResearchBundle, error) {
	bundle := research.Build(ctx, p.backend, topic, p.cfg.Research, nil, os.Stderr)
	if err := p.store.Write(state.ResearchFile, bundle); err != nil {
		return types.ResearchBundle{}, err
	}
	return bundle, nil
}

func (p *pipelineStages) Draft(ctx context.Context, bundle types.ResearchBundle) (types.Article, error) {
	article := draft.Build(ctx, p.backend, bundle, p.cfg.Draft, nil, os.Stderr)
	if err := p.store.Write(state.ArticleFile, article); err != nil {
		return types.Article{}, err
	}
	return article, nil
}

func (p *pipelineStages) Gate(ctx context.Context, article types.Article) (types.QualityReport, error) {
	var corpus gate.CorpusReader
	if p.hist != nil {
		if _, err := p.hist.Reindex(ctx, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "warning: reindexing published posts: %v\n", err)
		}
		corpus = p.hist
	}

	report := gate.Evaluate(ctx, article, corpus, p.cfg.Gate, gate.Deps{
		HTTP: newHTTPClient(p.cfg.Gate.HTTPConfig),
		Log:  os.Stdout,
	})
	if err := p.store.Write(state.QualityFile, report); err != nil {
		return types.QualityReport{}, err
	}
	return report, nil
}

func (p *pipelineStages) Publish(ctx context.Context, article types.Article, report types.QualityReport) (string, error) {
	var recorder publish.Recorder
	if p.hist != nil {
		recorder = p.hist
	}
	return publish.Publish(ctx, article, report, p.contentDir, recorder, os.Stdout)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if count, _ := cmd.Flags().GetInt("count"); count > 0 {
		cfg.Batch.TargetCount = count
	}
	if attempts, _ := cmd.Flags().GetInt("attempts-per-post"); attempts > 0 {
		cfg.Batch.AttemptsPerPost = attempts
	}
	if cfg.Planning.UserAgent == "" {
		cfg.Planning.UserAgent = defaultUserAgent
	}

	store, err := newStateStore(stateDir(cmd, cfg))
	if err != nil {
		return err
	}

	stages := &pipelineStages{
		cfg:        cfg,
		store:      store,
		client:     newHTTPClient(cfg.Planning.HTTPConfig),
		backend:    newBackend(cfg.Research.AIConfig),
		contentDir: contentDir(cmd, cfg),
	}
	if hist, err := openHistory(stateDir(cmd, cfg), contentDir(cmd, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history index unavailable: %v\n", err)
	} else {
		defer hist.Close()
		stages.hist = hist
	}

	runner := batch.NewRunner(stages, cfg.Batch, os.Stdout)
	result, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Batch complete: %d post(s) published in %d attempt(s)\n", result.Successes, result.Attempts)
	return nil
}
