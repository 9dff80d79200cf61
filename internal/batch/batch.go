// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch is the retry orchestrator: it drives the
// plan→research→draft→gate→publish pipeline attempt by attempt until the
// target number of posts is published or the attempt budget runs out.
// Stage failures end the attempt, never the batch; only the orchestrator
// decides to give up.
package batch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/post-engine/pkg/types"
)

// State names the orchestrator's position in an attempt.
type State string

const (
	StateIdle          State = "Idle"
	StatePlanning      State = "Planning"
	StateResearching   State = "Researching"
	StateDrafting      State = "Drafting"
	StateGating        State = "Gating"
	StatePublishing    State = "Publishing"
	StateSucceeded     State = "Succeeded"
	StateAttemptFailed State = "AttemptFailed"
	StateExhausted     State = "Exhausted"
)

const (
	defaultTargetCount     = 1
	defaultAttemptsPerPost = 3
)

// Stages is the per-attempt pipeline. It is an interface so orchestrator
// tests drive the state machine without network or filesystem access.
type Stages interface {
	// Plan selects a topic, never re-picking an excluded title.
	Plan(ctx context.Context, excluded []string) (types.TopicSelection, error)

	// Research builds the verified bundle for the selected topic.
	Research(ctx context.Context, topic types.SelectedTopic) (types.ResearchBundle, error)

	// Draft composes the article from the bundle.
	Draft(ctx context.Context, bundle types.ResearchBundle) (types.Article, error)

	// Gate judges the article. A returned report with Pass=false is an
	// attempt failure, not an error.
	Gate(ctx context.Context, article types.Article) (types.QualityReport, error)

	// Publish writes the article and returns the published path.
	Publish(ctx context.Context, article types.Article, report types.QualityReport) (string, error)
}

// Result summarizes a batch run.
type Result struct {
	// Published lists the paths written, one per successful attempt.
	Published []string

	// Attempts is how many attempts ran.
	Attempts int

	// Successes is how many attempts published a post.
	Successes int
}

// Runner owns one batch run's budget and exclusion list.
type Runner struct {
	Stages Stages
	Cfg    types.BatchConfig
	Log    io.Writer

	state State
}

// NewRunner builds a Runner in the Idle state.
func NewRunner(stages Stages, cfg types.BatchConfig, log io.Writer) *Runner {
	if log == nil {
		log = io.Discard
	}
	return &Runner{Stages: stages, Cfg: cfg, Log: log, state: StateIdle}
}

func (r *Runner) transition(next State) {
	r.state = next
	fmt.Fprintf(r.Log, "state: %s\n", next)
}

// Run executes attempts sequentially until the target is met or the
// budget (targetCount × attemptsPerPost) is spent. Every selected title
// joins the exclusion list whether its attempt succeeded or failed, so a
// title that survived planning is never retried verbatim. Exhaustion is a
// hard error carrying the attempt and success counts.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	target := r.Cfg.TargetCount
	if target <= 0 {
		target = defaultTargetCount
	}
	perPost := r.Cfg.AttemptsPerPost
	if perPost <= 0 {
		perPost = defaultAttemptsPerPost
	}
	maxAttempts := target * perPost

	var result Result
	var excluded []string

	for result.Successes < target && result.Attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch interrupted: %w", err)
		}

		result.Attempts++
		fmt.Fprintf(r.Log, "attempt %d/%d (published %d/%d)\n",
			result.Attempts, maxAttempts, result.Successes, target)

		path, err := r.attempt(ctx, &excluded)
		if err != nil {
			r.transition(StateAttemptFailed)
			fmt.Fprintf(r.Log, "attempt %d failed: %v\n", result.Attempts, err)
			continue
		}

		r.transition(StateSucceeded)
		result.Successes++
		result.Published = append(result.Published, path)
	}

	if result.Successes < target {
		r.transition(StateExhausted)
		return result, fmt.Errorf("batch exhausted: published %d of %d after %d attempts",
			result.Successes, target, result.Attempts)
	}
	return result, nil
}

// attempt runs one pass through the pipeline. The selected title is
// appended to excluded as soon as planning returns, before any later
// stage can fail.
func (r *Runner) attempt(ctx context.Context, excluded *[]string) (string, error) {
	r.transition(StatePlanning)
	selection, err := r.Stages.Plan(ctx, *excluded)
	if err != nil {
		return "", fmt.Errorf("planning: %w", err)
	}
	*excluded = append(*excluded, selection.Selected.Title)
	fmt.Fprintf(r.Log, "topic: %s\n", selection.Selected.Title)

	r.transition(StateResearching)
	bundle, err := r.Stages.Research(ctx, selection.Selected)
	if err != nil {
		return "", fmt.Errorf("researching: %w", err)
	}

	r.transition(StateDrafting)
	article, err := r.Stages.Draft(ctx, bundle)
	if err != nil {
		return "", fmt.Errorf("drafting: %w", err)
	}

	r.transition(StateGating)
	report, err := r.Stages.Gate(ctx, article)
	if err != nil {
		return "", fmt.Errorf("gating: %w", err)
	}
	if !report.Pass {
		return "", fmt.Errorf("quality gate failed (score %d): %s",
			report.Score, strings.Join(report.Reasons, "; "))
	}

	r.transition(StatePublishing)
	path, err := r.Stages.Publish(ctx, article, report)
	if err != nil {
		return "", fmt.Errorf("publishing: %w", err)
	}
	return path, nil
}
