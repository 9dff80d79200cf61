// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft turns a ResearchBundle into an Article. The deterministic
// composer always works; a generation backend may replace the prose, but
// slug, date, canonical URL, and the cited source list stay deterministic
// and verified.
package draft

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/post-engine/internal/genai"
	"github.com/pdiddy/post-engine/internal/textutil"
	"github.com/pdiddy/post-engine/internal/verify"
	"github.com/pdiddy/post-engine/pkg/types"
)

const defaultBaseURL = "https://example.dev"

// maxCitedSources caps how many bundle sources the article cites.
const maxCitedSources = 4

// Compose builds the deterministic article for a research bundle.
func Compose(bundle types.ResearchBundle, cfg types.DraftConfig, now func() time.Time) types.Article {
	if now == nil {
		now = time.Now
	}
	slug := textutil.Slugify(bundle.Topic)
	date := now().Format("2006-01-02")

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	sources := bundle.SourceList
	if len(sources) > maxCitedSources {
		sources = sources[:maxCitedSources]
	}

	return types.Article{
		Title:           bundle.Topic,
		Summary:         buildSummary(bundle.Topic),
		Slug:            slug,
		Date:            date,
		Tags:            inferTags(bundle.Topic),
		Category:        inferCategory(bundle.Topic),
		CanonicalURL:    strings.TrimRight(base, "/") + "/blog/" + slug,
		Sources:         sources,
		ContentMarkdown: buildMarkdown(bundle),
	}
}

func buildSummary(topic string) string {
	return fmt.Sprintf("A practical guide to %s, with concrete implementation details, tradeoffs, and production-ready checks.",
		strings.ToLower(topic))
}

func inferTags(topic string) []string {
	lower := strings.ToLower(topic)
	tags := []string{"engineering", "practical-guide"}

	switch {
	case strings.Contains(lower, "typescript"):
		tags = append(tags, "typescript", "api")
	case strings.Contains(lower, "ci"), strings.Contains(lower, "pipeline"):
		tags = append(tags, "ci-cd", "automation")
	case strings.Contains(lower, "docker"), strings.Contains(lower, "kubernetes"):
		tags = append(tags, "devops", "infrastructure")
	default:
		tags = append(tags, "architecture", "backend")
	}

	if len(tags) > 6 {
		tags = tags[:6]
	}
	return tags
}

func inferCategory(topic string) string {
	lower := strings.ToLower(topic)
	switch {
	case strings.Contains(lower, "ci"), strings.Contains(lower, "pipeline"),
		strings.Contains(lower, "docker"), strings.Contains(lower, "kubernetes"):
		return "devops"
	case strings.Contains(lower, "ai"), strings.Contains(lower, "llm"):
		return "ai_news"
	default:
		return "software"
	}
}

// topicProfile holds the per-topic prose blocks the composer assembles.
type topicProfile struct {
	problem   string
	coreIdea  string
	steps     string
	codeLang  string
	codeBlock string
	pitfalls  string
	checklist string
}

func buildMarkdown(bundle types.ResearchBundle) string {
	profile := profileFor(bundle.Topic)

	var claimLines []string
	for _, c := range bundle.Claims {
		claimLines = append(claimLines,
			fmt.Sprintf("- %s ([%s](%s))", c.Text, c.SourceTitle, c.SourceURL))
	}

	var refLines []string
	for _, s := range bundle.SourceList {
		refLines = append(refLines, fmt.Sprintf("- [%s](%s)", s.Title, s.URL))
	}

	return fmt.Sprintf(`## Problem

%s

In many teams, this problem stays invisible until it shows up as failed deploys, delayed reviews, or noisy incidents. By the time symptoms appear, the fix is more expensive because multiple systems already depend on the wrong default behavior.

## Core Idea

%s

Key points from current references:
%s

Use these claims as implementation constraints, not as abstract guidance. If a claim cannot be checked automatically, it usually means the rollout is still too broad.

## Implementation

%s

`+"```%s\n%s\n```"+`

The important part is not the exact syntax, but the explicit gate condition and fallback path. This ensures engineers can move fast without losing observability.

### Rollout pattern

1. Start in one bounded service or pipeline stage.
2. Add one quality gate that can fail hard.
3. Measure outcome metrics for one week.
4. Expand scope only after stable trends.

## Pitfalls

%s

## Practical Checklist

%s

Suggested operating rhythm:

- Daily: generate one candidate and enforce quality checks.
- Weekly: review failures and tune thresholds.
- Monthly: update topic heuristics from reader feedback.

## References

%s
`,
		profile.problem,
		profile.coreIdea,
		strings.Join(claimLines, "\n"),
		profile.steps,
		profile.codeLang,
		profile.codeBlock,
		profile.pitfalls,
		profile.checklist,
		strings.Join(refLines, "\n"),
	)
}

func profileFor(topic string) topicProfile {
	lower := strings.ToLower(topic)

	if strings.Contains(lower, "retry") || strings.Contains(lower, "distributed") {
		return topicProfile{
			problem: "Distributed requests fail for many reasons: network jitter, partial outages, and upstream timeouts. " +
				"Without disciplined retry boundaries, clients either give up too early or amplify failures with synchronized retry storms.",
			coreIdea: "Design retries as a reliability budget: bounded attempts, exponential backoff, and idempotent operations. " +
				"Pair this with circuit-breaker signals so retries stop when dependency health degrades.",
			steps: strings.Join([]string{
				"1. Classify errors into retryable and non-retryable categories.",
				"2. Set max-attempt and max-elapsed-time per endpoint.",
				"3. Add jitter to avoid synchronized bursts.",
				"4. Emit retry metrics (`attempt_count`, `retry_success`, `terminal_failure`).",
			}, "\n"),
			codeLang: "go",
			codeBlock: strings.Join([]string{
				"type RetryPolicy struct {",
				"\tAttempts int",
				"\tBase     time.Duration",
				"\tMax      time.Duration",
				"}",
				"",
				"func WithRetry(ctx context.Context, run func() error, policy RetryPolicy) error {",
				"\tvar lastErr error",
				"\tfor attempt := 1; attempt <= policy.Attempts; attempt++ {",
				"\t\tif lastErr = run(); lastErr == nil {",
				"\t\t\treturn nil",
				"\t\t}",
				"\t\tdelay := min(policy.Max, policy.Base<<(attempt-1))",
				"\t\tselect {",
				"\t\tcase <-time.After(delay + jitter()):",
				"\t\tcase <-ctx.Done():",
				"\t\t\treturn ctx.Err()",
				"\t\t}",
				"\t}",
				"\treturn fmt.Errorf(\"retry exhausted: %w\", lastErr)",
				"}",
			}, "\n"),
			pitfalls: strings.Join([]string{
				"- Retrying non-idempotent operations can create duplicate writes.",
				"- Missing jitter causes retry waves and cache stampedes.",
				"- No terminal alert makes silent degradation look healthy.",
			}, "\n"),
			checklist: strings.Join([]string{
				"- [ ] Retry only documented transient errors",
				"- [ ] Idempotency key strategy defined",
				"- [ ] Retry metrics exported to dashboards",
				"- [ ] Circuit-breaker integration verified",
			}, "\n"),
		}
	}

	if strings.Contains(lower, "ci") || strings.Contains(lower, "pipeline") {
		return topicProfile{
			problem: "CI pipelines often become slow and flaky as checks accumulate. " +
				"Teams then skip safeguards to regain speed, which raises merge risk and post-deploy failures.",
			coreIdea: "Split checks by confidence and cost: run fail-fast validations early, run expensive suites conditionally, " +
				"and cache dependencies aggressively. The goal is fast feedback without reducing signal quality.",
			steps: strings.Join([]string{
				"1. Separate lint/type/unit checks into a fast lane.",
				"2. Trigger integration tests only on affected paths.",
				"3. Reuse cache keys tied to lockfiles and tool versions.",
				"4. Publish per-job durations for weekly optimization.",
			}, "\n"),
			codeLang: "yaml",
			codeBlock: strings.Join([]string{
				"jobs:",
				"  quick-check:",
				"    runs-on: ubuntu-latest",
				"    steps:",
				"      - uses: actions/checkout@v4",
				"      - uses: actions/setup-go@v5",
				"      - run: go vet ./... && go test ./... -short",
				"  integration:",
				"    needs: quick-check",
				"    if: contains(github.event.pull_request.changed_files, 'api/')",
				"    runs-on: ubuntu-latest",
				"    steps:",
				"      - uses: actions/checkout@v4",
				"      - run: go test ./... -run Integration",
			}, "\n"),
			pitfalls: strings.Join([]string{
				"- Running every heavy job on every PR causes queue congestion.",
				"- Unstable cache keys create nondeterministic results.",
				"- No flaky-test policy leads to silent trust erosion.",
			}, "\n"),
			checklist: strings.Join([]string{
				"- [ ] Fast lane under 10 minutes",
				"- [ ] Heavy jobs path-filtered",
				"- [ ] Cache hit rate monitored",
				"- [ ] Flaky tests quarantined with owner",
			}, "\n"),
		}
	}

	return topicProfile{
		problem: "Engineering initiatives often fail at the integration stage: the idea is valid, " +
			"but teams cannot translate it into reversible and observable delivery changes.",
		coreIdea: "Use a constraints-first rollout. Define objective success metrics, add one mandatory gate, " +
			"and expand only when outcomes remain stable.",
		steps: strings.Join([]string{
			"1. Define success and failure thresholds before coding.",
			"2. Add one mandatory gate that blocks unsafe publication.",
			"3. Capture logs, metrics, and owner metadata.",
			"4. Roll out in stages with explicit rollback instructions.",
		}, "\n"),
		codeLang: "go",
		codeBlock: strings.Join([]string{
			"type GateReport struct {",
			"\tPass    bool",
			"\tReasons []string",
			"}",
			"",
			"func EnforceGate(report GateReport) error {",
			"\tif !report.Pass {",
			"\t\treturn fmt.Errorf(\"publish blocked: %s\", strings.Join(report.Reasons, \", \"))",
			"\t}",
			"\treturn nil",
			"}",
		}, "\n"),
		pitfalls: strings.Join([]string{
			"- Publishing automation without rollback notes.",
			"- Optimizing volume without measuring quality outcomes.",
			"- Relying on manual checks for repeated risks.",
		}, "\n"),
		checklist: strings.Join([]string{
			"- [ ] At least 2 reliable references linked",
			"- [ ] Quality gate blocks low-confidence output",
			"- [ ] Duplicate threshold enforced",
			"- [ ] Alert channel tested",
		}, "\n"),
	}
}

// aiArticle is the shape requested from the generation backend. Slug, date,
// and canonical URL are never delegated.
type aiArticle struct {
	Title           string         `json:"title"`
	Summary         string         `json:"summary"`
	Tags            []string       `json:"tags"`
	Sources         []types.Source `json:"sources"`
	ContentMarkdown string         `json:"content_markdown"`
}

const draftSystemPrompt = `You are a senior engineer writing for a technical blog.
Respond with a JSON object: {"title", "summary", "tags", "sources":
[{"title", "url"}], "content_markdown"}. The body must use "## " section
headings, include one fenced code block, cite the provided sources inline,
and end with a "## References" section listing them.`

// Build produces the article for a bundle, preferring generated prose when
// a backend is available. The generated article's cited sources are
// verified against the bundle's source list; anything unverifiable, and any
// generation failure, degrades to the deterministic composition.
func Build(ctx context.Context, backend genai.Backend, bundle types.ResearchBundle, cfg types.DraftConfig, now func() time.Time, w io.Writer) types.Article {
	article := Compose(bundle, cfg, now)

	var claimText strings.Builder
	for _, c := range bundle.Claims {
		fmt.Fprintf(&claimText, "- %s (%s)\n", c.Text, c.SourceURL)
	}
	var sourceText strings.Builder
	for _, s := range bundle.SourceList {
		fmt.Fprintf(&sourceText, "- %s: %s\n", s.Title, s.URL)
	}

	var generated aiArticle
	req := genai.Request{
		SystemPrompt: draftSystemPrompt,
		UserPrompt: fmt.Sprintf("Topic: %s\nAngle: %s\n\nVerified claims:\n%s\nAllowed sources:\n%s",
			bundle.Topic, bundle.Angle, claimText.String(), sourceText.String()),
	}
	if !genai.DecodeInto(ctx, backend, req, &generated, w) {
		return article
	}
	if generated.Title == "" || generated.ContentMarkdown == "" {
		fmt.Fprintf(w, "warning: generated article incomplete, using deterministic draft\n")
		return article
	}

	article.Title = generated.Title
	if generated.Summary != "" {
		article.Summary = generated.Summary
	}
	if len(generated.Tags) > 0 {
		if len(generated.Tags) > 6 {
			generated.Tags = generated.Tags[:6]
		}
		article.Tags = generated.Tags
	}
	article.ContentMarkdown = generated.ContentMarkdown
	if len(generated.Sources) > 0 {
		article.Sources = verify.Sources(generated.Sources, article.Sources)
	}
	return article
}
