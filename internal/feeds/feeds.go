// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package feeds polls RSS/Atom trend feeds and returns topic candidates.
// Feeds are fetched concurrently with per-request timeouts; an unreachable
// or malformed feed degrades to an empty contribution and never fails the
// stage.
package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pdiddy/post-engine/pkg/types"
)

// feedTimeout bounds a single feed fetch unless the config overrides it.
const feedTimeout = 12 * time.Second

// DefaultFeeds is the built-in trend feed table, used when the config does
// not provide one.
var DefaultFeeds = []types.FeedSpec{
	{Category: "software", Source: "GeekNews", URL: "https://news.hada.io/rss/news"},
	{Category: "ai_news", Source: "WIRED AI", URL: "https://www.wired.com/feed/tag/ai/latest/rss"},
	{Category: "ai_news", Source: "Google AI Blog", URL: "https://ai.googleblog.com/feeds/posts/default"},
	{Category: "frontend", Source: "web.dev", URL: "https://web.dev/feed.xml"},
	{Category: "software", Source: "TypeScript Blog", URL: "https://devblogs.microsoft.com/typescript/feed/"},
	{Category: "backend_engineering", Source: "InfoQ", URL: "https://www.infoq.com/feed/"},
	{Category: "cloud_platform", Source: "GCP Release Notes", URL: "https://cloud.google.com/feeds/gcp-release-notes.xml"},
	{Category: "architecture", Source: "Martin Fowler", URL: "https://martinfowler.com/feed.atom"},
	{Category: "cloud_platform", Source: "Azure Updates", URL: "https://azure.microsoft.com/updates/feed/"},
}

// FetchAll polls every feed concurrently and merges the results after all
// fetches settle. Each fetch carries its own timeout; a timed-out or
// erroring feed contributes nothing and produces only a warning on w. The
// merged order follows the feed table so output is deterministic for a
// fixed set of responses.
func FetchAll(ctx context.Context, client *http.Client, specs []types.FeedSpec, cfg types.PlanningConfig, w io.Writer) []types.TopicCandidate {
	maxPerFeed := cfg.MaxPerFeed
	if maxPerFeed <= 0 {
		maxPerFeed = 6
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = feedTimeout
	}

	type feedResult struct {
		index   int
		entries []types.TopicCandidate
		err     error
		source  string
	}

	ch := make(chan feedResult, len(specs))
	var wg sync.WaitGroup

	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec types.FeedSpec) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			entries, err := fetchFeed(fetchCtx, client, spec, cfg.UserAgent)
			ch <- feedResult{index: i, entries: entries, err: err, source: spec.Source}
		}(i, spec)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	// Collect in one goroutine; nothing is merged until every fetch has
	// settled, so no partial feed state is ever observed.
	results := make([][]types.TopicCandidate, len(specs))
	for fr := range ch {
		if fr.err != nil {
			fmt.Fprintf(w, "warning: feed %s failed: %v\n", fr.source, fr.err)
			continue
		}
		entries := fr.entries
		if len(entries) > maxPerFeed {
			entries = entries[:maxPerFeed]
		}
		results[fr.index] = entries
	}

	var merged []types.TopicCandidate
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

func fetchFeed(ctx context.Context, client *http.Client, spec types.FeedSpec, userAgent string) ([]types.TopicCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	entries, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	candidates := make([]types.TopicCandidate, 0, len(entries))
	for _, e := range entries {
		candidates = append(candidates, types.TopicCandidate{
			Title:       e.Title,
			Category:    spec.Category,
			SourceType:  types.SourceTrendFeed,
			SourceURL:   e.URL,
			PublishedAt: e.PublishedAt,
		})
	}
	return candidates, nil
}
