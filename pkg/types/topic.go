// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the domain types shared across pipeline stages.
package types

import "time"

// TopicSourceType identifies where a topic candidate came from.
type TopicSourceType string

const (
	// SourcePool marks candidates from the static fallback topic pool.
	SourcePool TopicSourceType = "pool"

	// SourceHackerNews marks candidates pulled from the Hacker News API.
	SourceHackerNews TopicSourceType = "hn"

	// SourceTrendFeed marks candidates from a live RSS/Atom trend feed.
	SourceTrendFeed TopicSourceType = "trend"
)

// TopicCandidate is a raw topic string plus aggregator metadata. Candidates
// are immutable once produced by an aggregator.
type TopicCandidate struct {
	// Title is the candidate topic title.
	Title string `json:"title" yaml:"title"`

	// Category classifies the candidate (e.g. "software", "ai_news").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// SourceType records which aggregator produced the candidate.
	SourceType TopicSourceType `json:"source_type" yaml:"source_type"`

	// SourceURL is the upstream item URL, when one exists.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// PublishedAt is the upstream publication time, when known.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// ScoredCandidate is a TopicCandidate with its component scores. Scores are
// derived and recomputed each run; they are never persisted past one run's
// state files.
type ScoredCandidate struct {
	TopicCandidate `yaml:",inline"`

	// Novelty measures distance from already-published titles [0,100].
	Novelty int `json:"novelty" yaml:"novelty"`

	// Utility measures practical, how-to value of the title [0,100].
	Utility int `json:"utility" yaml:"utility"`

	// Trend measures overlap with current domain keywords [0,100].
	Trend int `json:"trend" yaml:"trend"`

	// SearchIntent measures alignment with search-style phrasing [0,100].
	SearchIntent int `json:"search_intent" yaml:"search_intent"`

	// SourcePriority ranks the aggregator that produced the candidate [0,100].
	SourcePriority int `json:"source_priority" yaml:"source_priority"`

	// Total is the weighted sum of the components. The search-intent and
	// source-priority terms are layered additively on top of weights that
	// already sum to 1.0, so Total can exceed 100. That is intentional: it
	// rewards fresh, high-intent candidates from live sources.
	Total int `json:"total" yaml:"total"`
}

// ScoreWeights configures the weighted portion of candidate scoring.
type ScoreWeights struct {
	// Novelty weights the novelty component (default 0.4).
	Novelty float64 `json:"novelty_weight" yaml:"novelty_weight"`

	// Utility weights the utility component (default 0.35).
	Utility float64 `json:"utility_weight" yaml:"utility_weight"`

	// Trend weights the trend component (default 0.25).
	Trend float64 `json:"trend_weight" yaml:"trend_weight"`
}

// DefaultScoreWeights returns the standard scoring weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Novelty: 0.4, Utility: 0.35, Trend: 0.25}
}

// TopicSelection is the planning stage's output, persisted as topic.json.
type TopicSelection struct {
	// Date is the selection timestamp.
	Date time.Time `json:"date" yaml:"date"`

	// Selected is the highest-scoring candidate.
	Selected SelectedTopic `json:"selected_topic" yaml:"selected_topic"`

	// Fallback is the runner-up, used when drafting the winner fails.
	Fallback SelectedTopic `json:"fallback_topic" yaml:"fallback_topic"`

	// Candidates holds the top scored candidates for observability.
	Candidates []ScoredCandidate `json:"candidates" yaml:"candidates"`
}

// SelectedTopic pairs a chosen title with its editorial angle and score.
type SelectedTopic struct {
	Title string `json:"title" yaml:"title"`
	Angle string `json:"angle" yaml:"angle"`
	Score int    `json:"score" yaml:"score"`
}
