// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/post-engine/internal/state"
	"github.com/pdiddy/post-engine/pkg/types"
)

func fixedNow() time.Time {
	return time.Date(2026, 2, 13, 9, 0, 0, 0, time.UTC)
}

// newHackerNewsServer serves a top-stories list and items for the given
// titles, and rewires HackerNewsBase for the duration of the test.
func newHackerNewsServer(t *testing.T, titles []string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		ids := make([]string, len(titles))
		for i := range titles {
			ids[i] = fmt.Sprint(i + 1)
		}
		fmt.Fprintf(w, "[%s]", strings.Join(ids, ","))
	})
	for i, title := range titles {
		mux.HandleFunc(fmt.Sprintf("/item/%d.json", i+1), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"title": %q, "url": "https://news.example.com/%d", "time": 1770000000}`, title, i+1)
		})
	}

	srv := httptest.NewServer(mux)
	old := HackerNewsBase
	HackerNewsBase = srv.URL
	t.Cleanup(func() {
		HackerNewsBase = old
		srv.Close()
	})
	return srv
}

func TestFetchHackerNews(t *testing.T) {
	srv := newHackerNewsServer(t, []string{"Show HN: a build cache", "Postgres 18 released", "Why we left the monolith"})

	var log bytes.Buffer
	got := FetchHackerNews(context.Background(), srv.Client(), types.PlanningConfig{}, &log)

	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}
	if got[0].Title != "Show HN: a build cache" {
		t.Errorf("merge order broken: %q", got[0].Title)
	}
	if got[1].SourceType != types.SourceHackerNews {
		t.Errorf("source type = %q", got[1].SourceType)
	}
	if got[2].SourceURL != "https://news.example.com/3" {
		t.Errorf("source url = %q", got[2].SourceURL)
	}
}

func TestFetchHackerNewsItemLimit(t *testing.T) {
	titles := make([]string, 15)
	for i := range titles {
		titles[i] = fmt.Sprintf("Story %d", i+1)
	}
	srv := newHackerNewsServer(t, titles)

	got := FetchHackerNews(context.Background(), srv.Client(), types.PlanningConfig{}, &bytes.Buffer{})
	if len(got) != 12 {
		t.Errorf("candidates = %d, want first 12 stories", len(got))
	}
}

func TestFetchHackerNewsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	old := HackerNewsBase
	HackerNewsBase = srv.URL
	t.Cleanup(func() {
		HackerNewsBase = old
		srv.Close()
	})

	var log bytes.Buffer
	got := FetchHackerNews(context.Background(), srv.Client(), types.PlanningConfig{}, &log)

	if got != nil {
		t.Errorf("candidates = %v, want none", got)
	}
	if !strings.Contains(log.String(), "unavailable") {
		t.Errorf("log = %q", log.String())
	}
}

func TestCandidatesMergesAndExcludes(t *testing.T) {
	srv := newHackerNewsServer(t, []string{
		"Feature flags in modern web applications", // duplicates a fallback topic
		"Postgres 18 released",
	})

	deadFeed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer deadFeed.Close()

	cfg := types.PlanningConfig{
		Feeds: []types.FeedSpec{{Category: "software", Source: "dead", URL: deadFeed.URL}},
	}
	excluded := []string{"Postgres 18 released"}

	var log bytes.Buffer
	got := Candidates(context.Background(), srv.Client(), cfg, excluded, &log)

	titles := make(map[string]int)
	for _, c := range got {
		titles[c.Title]++
	}
	if titles["Postgres 18 released"] != 0 {
		t.Error("excluded title survived aggregation")
	}
	if titles["Feature flags in modern web applications"] != 1 {
		t.Errorf("duplicate fallback topic counted %d times", titles["Feature flags in modern web applications"])
	}
	// HN winner + 5 fallback topics, minus the overlap.
	if len(got) != 5 {
		t.Errorf("candidates = %d, want 5: %v", len(got), got)
	}
	if got[0].SourceType != types.SourceHackerNews {
		t.Errorf("first candidate should come from hacker news, got %q", got[0].SourceType)
	}
}

func TestCandidatesCap(t *testing.T) {
	titles := make([]string, 12)
	for i := range titles {
		titles[i] = fmt.Sprintf("Unique story number %d about infrastructure", i+1)
	}
	srv := newHackerNewsServer(t, titles)

	deadFeed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer deadFeed.Close()

	cfg := types.PlanningConfig{
		Feeds:         []types.FeedSpec{{Category: "software", Source: "dead", URL: deadFeed.URL}},
		MaxCandidates: 10,
	}
	got := Candidates(context.Background(), srv.Client(), cfg, nil, &bytes.Buffer{})
	if len(got) != 10 {
		t.Errorf("candidates = %d, want capped at 10", len(got))
	}
}

func TestSelect(t *testing.T) {
	candidates := []types.TopicCandidate{
		{Title: "Quarterly opinion roundup", SourceType: types.SourcePool},
		{Title: "How to build a TypeScript API with runtime validation", SourceType: types.SourceTrendFeed},
		{Title: "Some other story", SourceType: types.SourcePool},
	}

	selection, err := Select(candidates, nil, types.PlanningConfig{}, fixedNow)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if selection.Selected.Title != "How to build a TypeScript API with runtime validation" {
		t.Errorf("selected = %q", selection.Selected.Title)
	}
	if selection.Fallback.Title == selection.Selected.Title {
		t.Error("fallback should be the runner-up when one exists")
	}
	if selection.Selected.Angle == "" || selection.Fallback.Angle == "" {
		t.Error("angles must be set")
	}
	if !selection.Date.Equal(fixedNow()) {
		t.Errorf("date = %v", selection.Date)
	}
	if len(selection.Candidates) != 3 {
		t.Errorf("kept candidates = %d", len(selection.Candidates))
	}
}

func TestSelectKeepsTopEight(t *testing.T) {
	var candidates []types.TopicCandidate
	for i := 0; i < 12; i++ {
		candidates = append(candidates, types.TopicCandidate{
			Title:      fmt.Sprintf("Candidate number %d on different subjects", i+1),
			SourceType: types.SourcePool,
		})
	}

	selection, err := Select(candidates, nil, types.PlanningConfig{}, fixedNow)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(selection.Candidates) != 8 {
		t.Errorf("kept candidates = %d, want 8", len(selection.Candidates))
	}
}

func TestSelectEmptyPool(t *testing.T) {
	if _, err := Select(nil, nil, types.PlanningConfig{}, fixedNow); err == nil {
		t.Error("empty pool must error")
	}
}

func TestSelectSingleCandidateFallsBackToItself(t *testing.T) {
	selection, err := Select([]types.TopicCandidate{{Title: "Only one", SourceType: types.SourcePool}}, nil, types.PlanningConfig{}, fixedNow)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if selection.Fallback.Title != "Only one" {
		t.Errorf("fallback = %q", selection.Fallback.Title)
	}
}

type stubTitles struct {
	titles []string
	err    error
}

func (s stubTitles) Titles(context.Context) ([]string, error) {
	return s.titles, s.err
}

func TestHistoryTitlesFromIndex(t *testing.T) {
	got := HistoryTitles(context.Background(), stubTitles{titles: []string{"Old Post"}}, nil, &bytes.Buffer{})
	if len(got) != 1 || got[0] != "Old Post" {
		t.Errorf("titles = %v", got)
	}
}

func TestHistoryTitlesFallsBackToPreviousSelection(t *testing.T) {
	store, err := state.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	previous := types.TopicSelection{Selected: types.SelectedTopic{Title: "Previously Selected"}}
	if err := store.Write(state.TopicFile, previous); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var log bytes.Buffer
	got := HistoryTitles(context.Background(), stubTitles{err: errors.New("locked")}, store, &log)

	if len(got) != 1 || got[0] != "Previously Selected" {
		t.Errorf("titles = %v", got)
	}
	if !strings.Contains(log.String(), "history index unavailable") {
		t.Errorf("log = %q", log.String())
	}
}

func TestHistoryTitlesEmptyEverywhere(t *testing.T) {
	store, err := state.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if got := HistoryTitles(context.Background(), stubTitles{}, store, &bytes.Buffer{}); got != nil {
		t.Errorf("titles = %v", got)
	}
}
