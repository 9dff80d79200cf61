// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score turns raw topic candidates into weighted fitness scores.
// Scoring is pure and deterministic: the same candidate, history, and
// weights always produce the same ScoredCandidate.
package score

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/post-engine/internal/textutil"
	"github.com/pdiddy/post-engine/pkg/types"
)

// Keyword tables consulted by the component scorers. They are declarative
// data rather than branching logic so categories can grow without touching
// the scoring code.
var (
	practicalKeywords = []string{
		"how to", "build", "design", "implement", "migration",
		"performance", "security", "testing", "ci", "api",
	}

	opinionKeywords = []string{"why", "opinion", "thoughts", "considered harmful", "rant"}

	domainKeywords = []string{
		"ai", "llm", "agent", "release", "v1",
		"typescript", "react", "next", "go", "kubernetes",
	}

	intentPhrases = []string{
		"guide", "checklist", "vs", "tutorial", "best practices",
		"step by step", "cheat sheet",
	}

	highDemandTerms = []string{
		"performance", "migration", "debugging", "production", "scaling",
	}
)

const (
	utilityBase      = 55
	utilityPerHit    = 10
	opinionPenalty   = 15
	trendBase        = 50
	trendPerHit      = 12
	intentBase       = 45
	intentPerPhrase  = 12
	intentPerDemand  = 8
	searchIntentGain = 0.2
	priorityGain     = 0.15
)

// Score computes the component and total scores for one candidate against
// the published-title history. No I/O is performed.
//
// When historyTitles is empty every candidate scores novelty 100. That is
// the intended cold-start behavior for a fresh corpus, not a degenerate
// case.
func Score(c types.TopicCandidate, historyTitles []string, weights types.ScoreWeights) types.ScoredCandidate {
	novelty := int(math.Round((1 - textutil.MaxJaccard(c.Title, historyTitles)) * 100))
	utility := scoreUtility(c.Title)
	trend := scoreTrend(c.Title)
	intent := scoreSearchIntent(c.Title)
	priority := sourcePriority(c.SourceType)

	// The intent and priority terms are additive on top of weights that
	// already sum to 1.0, so the total can exceed 100. Preserved on
	// purpose: it pushes fresh, high-intent candidates from live sources
	// to the front of the ranking.
	total := int(math.Round(
		float64(novelty)*weights.Novelty +
			float64(utility)*weights.Utility +
			float64(trend)*weights.Trend +
			float64(intent)*searchIntentGain +
			float64(priority)*priorityGain))

	return types.ScoredCandidate{
		TopicCandidate: c,
		Novelty:        novelty,
		Utility:        utility,
		Trend:          trend,
		SearchIntent:   intent,
		SourcePriority: priority,
		Total:          total,
	}
}

// Rank scores every candidate and sorts descending by total. The sort is
// stable so equal totals keep their input order and results stay
// deterministic.
func Rank(candidates []types.TopicCandidate, historyTitles []string, weights types.ScoreWeights) []types.ScoredCandidate {
	scored := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Score(c, historyTitles, weights))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Total > scored[j].Total
	})
	return scored
}

func scoreUtility(title string) int {
	lower := strings.ToLower(title)
	score := utilityBase
	score += countMatches(lower, practicalKeywords, false) * utilityPerHit
	score -= countMatches(lower, opinionKeywords, false) * opinionPenalty
	return clamp(score, 0, 100)
}

func scoreTrend(title string) int {
	lower := strings.ToLower(title)
	score := trendBase + countMatches(lower, domainKeywords, true)*trendPerHit
	return clamp(score, 0, 100)
}

func scoreSearchIntent(title string) int {
	lower := strings.ToLower(title)
	score := intentBase
	score += countMatches(lower, intentPhrases, false) * intentPerPhrase
	score += countMatches(lower, highDemandTerms, false) * intentPerDemand
	return clamp(score, 0, 100)
}

// sourcePriority ranks candidates by origin: live trend feeds over the
// news aggregator over the static pool.
func sourcePriority(st types.TopicSourceType) int {
	switch st {
	case types.SourceTrendFeed:
		return 100
	case types.SourceHackerNews:
		return 85
	default:
		return 40
	}
}

// countMatches counts keywords present in the lowercased title. With
// wordBoundary set, ASCII keywords must appear as whole words so that
// "ai" does not match "maintain"; non-ASCII keywords fall back to
// substring matching because word boundaries are not meaningful for
// unsegmented scripts.
func countMatches(lower string, keywords []string, wordBoundary bool) int {
	hits := 0
	for _, kw := range keywords {
		if wordBoundary && isASCII(kw) {
			if containsWord(lower, kw) {
				hits++
			}
		} else if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(rune(haystack[start-1]))
		afterOK := end == len(haystack) || !isWordChar(rune(haystack[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
