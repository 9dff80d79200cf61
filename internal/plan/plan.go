// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan is the planning stage: it aggregates topic candidates from
// Hacker News, the trend feeds, and a static fallback pool, scores them
// against publish history, and persists the selection. Live sources are
// best-effort; the fallback pool guarantees the stage always has
// candidates to rank.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/post-engine/internal/feeds"
	"github.com/pdiddy/post-engine/internal/score"
	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

// HackerNewsBase is the Firebase API root. Declared as a var so tests can
// point it at an httptest server.
var HackerNewsBase = "https://hacker-news.firebaseio.com/v0"

const (
	defaultHackerNewsItems = 12
	defaultMaxCandidates   = 20
	hnTimeout              = 10 * time.Second
	topCandidatesKept      = 8

	selectedAngle = "Explain the concept with implementation steps and concrete tradeoffs."
	fallbackAngle = "Cover a pragmatic migration path and failure modes."
)

// DefaultFallbackTopics is the static candidate pool used when every live
// source is empty or unreachable.
var DefaultFallbackTopics = []string{
	"Practical TypeScript patterns for safer API boundaries",
	"How to design retry logic for distributed systems",
	"Building reliable CI pipelines with incremental checks",
	"Feature flags in modern web applications",
	"Database indexing strategies every backend engineer should know",
}

type hnItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Time  int64  `json:"time"`
}

// FetchHackerNews returns candidates from the top stories list. Any
// failure on the list itself yields an empty result with a warning;
// individual item failures are skipped. Item fetches run concurrently and
// results merge in list order.
func FetchHackerNews(ctx context.Context, client *http.Client, cfg types.PlanningConfig, w io.Writer) []types.TopicCandidate {
	limit := cfg.HackerNewsItems
	if limit == 0 {
		limit = defaultHackerNewsItems
	}

	var ids []int64
	if err := getJSON(ctx, client, HackerNewsBase+"/topstories.json", &ids); err != nil {
		fmt.Fprintf(w, "warning: hacker news top stories unavailable: %v\n", err)
		return nil
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	items := make([]*hnItem, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			var item hnItem
			if err := getJSON(ctx, client, fmt.Sprintf("%s/item/%d.json", HackerNewsBase, id), &item); err != nil {
				return
			}
			items[i] = &item
		}(i, id)
	}
	wg.Wait()

	var candidates []types.TopicCandidate
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		candidates = append(candidates, types.TopicCandidate{
			Title:       item.Title,
			Category:    "hn",
			SourceType:  types.SourceHackerNews,
			SourceURL:   item.URL,
			PublishedAt: time.Unix(item.Time, 0).UTC(),
		})
	}
	fmt.Fprintf(w, "hacker news: %d candidates\n", len(candidates))
	return candidates
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, hnTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// Candidates aggregates the full candidate pool: Hacker News, then trend
// feeds, then the fallback topics. Duplicates (by title) keep their first
// occurrence, excluded titles are dropped before scoring, and the pool is
// capped.
func Candidates(ctx context.Context, client *http.Client, cfg types.PlanningConfig, excluded []string, w io.Writer) []types.TopicCandidate {
	pool := FetchHackerNews(ctx, client, cfg, w)

	specs := cfg.Feeds
	if len(specs) == 0 {
		specs = feeds.DefaultFeeds
	}
	pool = append(pool, feeds.FetchAll(ctx, client, specs, cfg, w)...)

	fallback := cfg.FallbackTopics
	if len(fallback) == 0 {
		fallback = DefaultFallbackTopics
	}
	for _, title := range fallback {
		pool = append(pool, types.TopicCandidate{Title: title, SourceType: types.SourcePool})
	}

	excludedSet := make(map[string]bool, len(excluded))
	for _, title := range excluded {
		excludedSet[normalizeTitle(title)] = true
	}

	maxCandidates := cfg.MaxCandidates
	if maxCandidates == 0 {
		maxCandidates = defaultMaxCandidates
	}

	seen := make(map[string]bool, len(pool))
	var out []types.TopicCandidate
	for _, c := range pool {
		key := normalizeTitle(c.Title)
		if key == "" || seen[key] || excludedSet[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Select ranks the candidates against history and builds the selection:
// the winner, a runner-up fallback, and the top scored candidates for the
// state file. An empty pool is an error; with the static fallback topics
// in place it only happens when every candidate was excluded.
func Select(candidates []types.TopicCandidate, historyTitles []string, cfg types.PlanningConfig, now func() time.Time) (types.TopicSelection, error) {
	if len(candidates) == 0 {
		return types.TopicSelection{}, fmt.Errorf("no topic candidates remain after exclusions")
	}
	if now == nil {
		now = time.Now
	}

	weights := cfg.Weights
	if weights == (types.ScoreWeights{}) {
		weights = types.DefaultScoreWeights()
	}

	ranked := score.Rank(candidates, historyTitles, weights)

	selected := ranked[0]
	fallback := selected
	if len(ranked) > 1 {
		fallback = ranked[1]
	}

	kept := ranked
	if len(kept) > topCandidatesKept {
		kept = kept[:topCandidatesKept]
	}

	return types.TopicSelection{
		Date: now().UTC(),
		Selected: types.SelectedTopic{
			Title: selected.Title,
			Angle: selectedAngle,
			Score: selected.Total,
		},
		Fallback: types.SelectedTopic{
			Title: fallback.Title,
			Angle: fallbackAngle,
			Score: fallback.Total,
		},
		Candidates: kept,
	}, nil
}

// TitleReader supplies published titles for novelty scoring.
type TitleReader interface {
	Titles(ctx context.Context) ([]string, error)
}

// HistoryTitles loads published titles from the history index. When the
// index is unavailable or empty it falls back to the previous run's topic
// selection, so back-to-back runs without any published post still avoid
// re-picking the same title.
func HistoryTitles(ctx context.Context, index TitleReader, store *state.Store, w io.Writer) []string {
	if index != nil {
		titles, err := index.Titles(ctx)
		if err != nil {
			fmt.Fprintf(w, "warning: history index unavailable: %v\n", err)
		} else if len(titles) > 0 {
			return titles
		}
	}

	if store != nil && store.Exists(state.TopicFile) {
		var previous types.TopicSelection
		if err := store.Read(state.TopicFile, &previous); err == nil && previous.Selected.Title != "" {
			return []string{previous.Selected.Title}
		}
	}
	return nil
}
