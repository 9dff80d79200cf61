// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"reflect"
	"testing"

	"github.com/pdiddy/post-engine/pkg/types"
)

func candidate(title string, st types.TopicSourceType) types.TopicCandidate {
	return types.TopicCandidate{Title: title, SourceType: st}
}

func TestScoreDeterminism(t *testing.T) {
	c := candidate("How to build resilient API pipelines", types.SourceHackerNews)
	history := []string{"Feature flags in modern web applications"}
	weights := types.DefaultScoreWeights()

	first := Score(c, history, weights)
	second := Score(c, history, weights)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Score is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestScoreColdStartNovelty(t *testing.T) {
	weights := types.DefaultScoreWeights()
	titles := []string{
		"Database indexing strategies",
		"How to design retry logic for distributed systems",
		"Feature flags in modern web applications",
	}
	for _, title := range titles {
		got := Score(candidate(title, types.SourcePool), nil, weights)
		if got.Novelty != 100 {
			t.Errorf("cold-start novelty for %q = %d, want 100", title, got.Novelty)
		}
	}
}

func TestScoreNoveltyAgainstIdenticalHistory(t *testing.T) {
	title := "Practical TypeScript patterns for safer API boundaries"
	got := Score(candidate(title, types.SourcePool), []string{title}, types.DefaultScoreWeights())
	if got.Novelty != 0 {
		t.Errorf("novelty against identical history = %d, want 0", got.Novelty)
	}
}

func TestScoreUtility(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"base score", "Stories from the trenches", 55},
		{"practical keywords add", "How to build an API", 85}, // how to, build, api
		{"opinion keywords subtract", "Why I have an opinion on frameworks", 25},
		{"clamped at 100", "How to build, design, implement, testing, migration, performance, security api ci", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreUtility(tt.title); got != tt.want {
				t.Errorf("scoreUtility(%q) = %d, want %d", tt.title, got, tt.want)
			}
		})
	}
}

func TestScoreTrendWordBoundary(t *testing.T) {
	// "ai" must match as a whole word only.
	if got := scoreTrend("Maintaining legacy systems"); got != 50 {
		t.Errorf("substring should not match domain keyword: got %d, want 50", got)
	}
	if got := scoreTrend("AI coding assistants in production"); got != 62 {
		t.Errorf("whole-word domain keyword should match: got %d, want 62", got)
	}
}

func TestScoreSearchIntent(t *testing.T) {
	if got := scoreSearchIntent("A plain headline"); got != 45 {
		t.Errorf("intent base = %d, want 45", got)
	}
	// "guide" phrase (+12) and "performance" demand term (+8).
	if got := scoreSearchIntent("A guide to performance tuning"); got != 65 {
		t.Errorf("intent with phrase and demand term = %d, want 65", got)
	}
}

func TestSourcePriority(t *testing.T) {
	tests := []struct {
		st   types.TopicSourceType
		want int
	}{
		{types.SourceTrendFeed, 100},
		{types.SourceHackerNews, 85},
		{types.SourcePool, 40},
	}
	for _, tt := range tests {
		got := Score(candidate("t", tt.st), nil, types.DefaultScoreWeights())
		if got.SourcePriority != tt.want {
			t.Errorf("sourcePriority(%s) = %d, want %d", tt.st, got.SourcePriority, tt.want)
		}
	}
}

func TestScoreTotalUnclamped(t *testing.T) {
	// A fresh, practical, trendy, high-intent candidate from a live feed
	// exceeds 100 because intent and priority are layered additively.
	c := candidate("How to build an AI agent: a performance guide", types.SourceTrendFeed)
	got := Score(c, nil, types.DefaultScoreWeights())
	if got.Total <= 100 {
		t.Errorf("total = %d, expected the additive layering to exceed 100", got.Total)
	}
}

func TestRankStableOrder(t *testing.T) {
	// Identical candidates tie on every component; stable sort must keep
	// input order.
	candidates := []types.TopicCandidate{
		{Title: "Same total A", SourceType: types.SourcePool},
		{Title: "Same total B", SourceType: types.SourcePool},
		{Title: "Same total C", SourceType: types.SourcePool},
	}
	ranked := Rank(candidates, nil, types.DefaultScoreWeights())
	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3", len(ranked))
	}
	if ranked[0].Title != "Same total A" || ranked[1].Title != "Same total B" || ranked[2].Title != "Same total C" {
		t.Errorf("tie-break changed input order: %v", []string{ranked[0].Title, ranked[1].Title, ranked[2].Title})
	}
}

func TestRankDescending(t *testing.T) {
	candidates := []types.TopicCandidate{
		{Title: "Plain headline", SourceType: types.SourcePool},
		{Title: "How to build an API performance guide", SourceType: types.SourceTrendFeed},
	}
	ranked := Rank(candidates, nil, types.DefaultScoreWeights())
	if ranked[0].Title != "How to build an API performance guide" {
		t.Errorf("highest-total candidate should rank first, got %q", ranked[0].Title)
	}
	if ranked[0].Total < ranked[1].Total {
		t.Errorf("ranking not descending: %d < %d", ranked[0].Total, ranked[1].Total)
	}
}
