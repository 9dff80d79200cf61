// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate evaluates a drafted article against the publication
// criteria and produces the QualityReport that is the sole gate for
// publishing. Every check always runs; a report lists all failures at
// once so an unattended run's log tells the whole story.
package gate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/post-engine/internal/textutil"
	"github.com/pdiddy/post-engine/pkg/types"
)

// Default thresholds, applied when the config leaves a field zero.
const (
	defaultMinCitations    = 2
	defaultMaxSimilarity   = 0.85
	defaultMinWordCount    = 900
	defaultMaxReachability = 8
	defaultProbeTimeout    = 10 * time.Second
	minSectionCount        = 4
	reasonPenalty          = 30
	warningPenalty         = 10
)

// referenceHeadings are the accepted spellings of the references section.
var referenceHeadings = []string{"## References", "## 참고 자료", "## Sources", "## 참고한 글"}

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	h2Pattern       = regexp.MustCompile(`(?m)^##\s+`)
	datePathPattern = regexp.MustCompile(`/(\d{4}-\d{2}-\d{2})[-/]`)
)

// CorpusReader supplies published post bodies for the duplication check.
type CorpusReader interface {
	Bodies(ctx context.Context) ([]string, error)
}

// Deps carries the gate's injectable collaborators. Zero values get
// production defaults.
type Deps struct {
	// HTTP performs reachability probes.
	HTTP *http.Client

	// Now anchors the fabricated-URL heuristic.
	Now func() time.Time

	// Log receives progress and warning lines.
	Log io.Writer
}

// Evaluate runs every quality check against the article and returns the
// report. Checks never short-circuit: a structurally broken article still
// gets its word count and duplication verdicts. The report is complete
// once returned and is never mutated afterward.
func Evaluate(ctx context.Context, article types.Article, corpus CorpusReader, cfg types.GateConfig, deps Deps) types.QualityReport {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = io.Discard
	}
	if deps.HTTP == nil {
		deps.HTTP = http.DefaultClient
	}

	minCitations := cfg.MinCitations
	if minCitations == 0 {
		minCitations = defaultMinCitations
	}
	maxSimilarity := cfg.MaxSimilarity
	if maxSimilarity == 0 {
		maxSimilarity = defaultMaxSimilarity
	}
	minWords := cfg.MinWordCount
	if minWords == 0 {
		minWords = defaultMinWordCount
	}

	var reasons, warnings []string

	reasons = append(reasons, checkStructure(article)...)

	if len(article.Sources) < minCitations {
		reasons = append(reasons, fmt.Sprintf("at least %d citations are required", minCitations))
	}

	if fabricated := countFabricatedURLs(article.Sources, deps.Now()); fabricated > 0 {
		reasons = append(reasons, fmt.Sprintf("%d source URL(s) appear to be fabricated (contain today's date or suspicious patterns)", fabricated))
	}

	if !cfg.SkipReachability {
		reachable := countReachable(ctx, deps.HTTP, article.Sources, cfg, deps.Log)
		if reachable < minCitations {
			reasons = append(reasons, fmt.Sprintf("at least %d reachable source links are required (found %d)", minCitations, reachable))
		}
	}

	reasons = append(reasons, checkSections(article.ContentMarkdown, cfg.RequiredSections)...)

	highest, err := highestSimilarity(ctx, article.ContentMarkdown, corpus)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("duplication check skipped: %v", err))
	} else if highest >= maxSimilarity {
		reasons = append(reasons, fmt.Sprintf("duplicate risk too high (%.2f >= %.2f)", highest, maxSimilarity))
	}

	if words := textutil.CountWords(article.ContentMarkdown); words < minWords {
		reasons = append(reasons, fmt.Sprintf("minimum word count not met (%d < %d)", words, minWords))
	}

	score := 100 - reasonPenalty*len(reasons) - warningPenalty*len(warnings)
	if score < 0 {
		score = 0
	}

	report := types.QualityReport{
		Pass:     len(reasons) == 0,
		Score:    score,
		Reasons:  reasons,
		Warnings: warnings,
	}
	if report.Pass {
		fmt.Fprintf(deps.Log, "quality gate passed with score %d\n", report.Score)
	} else {
		fmt.Fprintf(deps.Log, "quality gate failed: %s\n", strings.Join(report.Reasons, " | "))
	}
	return report
}

// checkStructure validates the article's required fields, emitting one
// reason per offending field path.
func checkStructure(article types.Article) []string {
	var reasons []string

	require := func(path, value string) {
		if strings.TrimSpace(value) == "" {
			reasons = append(reasons, fmt.Sprintf("structural violation at %s: must not be empty", path))
		}
	}

	require("/title", article.Title)
	require("/summary", article.Summary)
	require("/content_markdown", article.ContentMarkdown)
	require("/canonical_url", article.CanonicalURL)

	if article.Slug == "" {
		reasons = append(reasons, "structural violation at /slug: must not be empty")
	} else if !slugPattern.MatchString(article.Slug) {
		reasons = append(reasons, fmt.Sprintf("structural violation at /slug: %q is not a lowercase hyphenated slug", article.Slug))
	}

	if article.Date == "" {
		reasons = append(reasons, "structural violation at /date: must not be empty")
	} else if _, err := time.Parse("2006-01-02", article.Date); err != nil {
		reasons = append(reasons, fmt.Sprintf("structural violation at /date: %q is not a YYYY-MM-DD date", article.Date))
	}

	for i, s := range article.Sources {
		if strings.TrimSpace(s.Title) == "" {
			reasons = append(reasons, fmt.Sprintf("structural violation at /sources/%d/title: must not be empty", i))
		}
		if strings.TrimSpace(s.URL) == "" {
			reasons = append(reasons, fmt.Sprintf("structural violation at /sources/%d/url: must not be empty", i))
		}
	}

	return reasons
}

// checkSections verifies the body's heading structure. With a
// RequiredSections list every named heading must appear; otherwise the
// body needs at least four H2 sections. A references heading is required
// in both modes.
func checkSections(markdown string, required []string) []string {
	var reasons []string

	if len(required) > 0 {
		for _, section := range required {
			if !strings.Contains(markdown, section) {
				reasons = append(reasons, fmt.Sprintf("required section %q is missing", section))
			}
		}
	} else if count := len(h2Pattern.FindAllString(markdown, -1)); count < minSectionCount {
		reasons = append(reasons, fmt.Sprintf("at least %d H2 sections are required (found %d)", minSectionCount, count))
	}

	hasReferences := false
	for _, heading := range referenceHeadings {
		if strings.Contains(markdown, heading) {
			hasReferences = true
			break
		}
	}
	if !hasReferences {
		reasons = append(reasons, "references section is required")
	}

	return reasons
}

// countFabricatedURLs applies the hallucinated-URL heuristic: generation
// services tend to stamp the current date into invented URLs. A URL
// containing today's date, or a /YYYY-MM-DD path segment within seven
// days of now, counts as fabricated. Empty URLs count too.
func countFabricatedURLs(sources []types.Source, now time.Time) int {
	today := now.Format("2006-01-02")
	count := 0

	for _, s := range sources {
		if s.URL == "" {
			count++
			continue
		}
		if strings.Contains(s.URL, today) {
			count++
			continue
		}
		if m := datePathPattern.FindStringSubmatch(s.URL); m != nil {
			urlDate, err := time.Parse("2006-01-02", m[1])
			if err == nil {
				diff := now.Sub(urlDate)
				if diff < 0 {
					diff = -diff
				}
				if diff < 7*24*time.Hour {
					count++
				}
			}
		}
	}
	return count
}

// countReachable probes the first MaxReachabilityChecks sources
// sequentially and counts the ones answering with a 2xx/3xx status.
func countReachable(ctx context.Context, client *http.Client, sources []types.Source, cfg types.GateConfig, w io.Writer) int {
	limit := cfg.MaxReachabilityChecks
	if limit == 0 {
		limit = defaultMaxReachability
	}
	if len(sources) > limit {
		sources = sources[:limit]
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultProbeTimeout
	}

	count := 0
	for _, s := range sources {
		if isReachable(ctx, client, s.URL, timeout) {
			count++
		} else {
			fmt.Fprintf(w, "unreachable source: %s\n", s.URL)
		}
	}
	return count
}

// isReachable tries HEAD first and falls back to GET, since some hosts
// reject HEAD requests outright.
func isReachable(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) bool {
	if rawURL == "" {
		return false
	}

	probe := func(method string) bool {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, method, rawURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode < 400
	}

	if probe(http.MethodHead) {
		return true
	}
	return probe(http.MethodGet)
}

// highestSimilarity returns the maximum Jaccard similarity between the
// article body and every published body. A nil corpus is an empty corpus.
func highestSimilarity(ctx context.Context, markdown string, corpus CorpusReader) (float64, error) {
	if corpus == nil {
		return 0, nil
	}
	bodies, err := corpus.Bodies(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading published bodies: %w", err)
	}

	return textutil.MaxJaccard(markdown, bodies), nil
}
