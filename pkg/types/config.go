package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "post-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for stages that call the structured
// generation API. An empty APIKey disables the AI path; every stage then
// falls back to its deterministic logic.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4.1-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FeedSpec describes one trend feed the planning stage polls.
type FeedSpec struct {
	// Category classifies entries from this feed.
	Category string `json:"category" yaml:"category"`

	// Source is the feed's display name.
	Source string `json:"source" yaml:"source"`

	// URL is the RSS or Atom feed URL.
	URL string `json:"url" yaml:"url"`
}

// PlanningConfig holds settings for candidate aggregation and scoring.
type PlanningConfig struct {
	HTTPConfig `yaml:",inline"`

	// Weights configures the weighted portion of candidate scoring.
	Weights ScoreWeights `json:"weights" yaml:"weights"`

	// Feeds lists trend feeds to poll. Empty uses the built-in defaults.
	Feeds []FeedSpec `json:"feeds,omitempty" yaml:"feeds,omitempty"`

	// FallbackTopics is the static topic pool used when live sources are
	// empty or unreachable. Empty uses the built-in defaults.
	FallbackTopics []string `json:"fallback_topics,omitempty" yaml:"fallback_topics,omitempty"`

	// MaxCandidates caps the scored candidate pool (default 20).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`

	// MaxPerFeed caps entries taken from each trend feed (default 6).
	MaxPerFeed int `json:"max_per_feed" yaml:"max_per_feed"`

	// HackerNewsItems is how many top stories to consider (default 12).
	HackerNewsItems int `json:"hacker_news_items" yaml:"hacker_news_items"`
}

// SourceRule maps topic keywords to trusted reference sources.
type SourceRule struct {
	// Keywords are matched against the lowercased topic title.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Sources are the references suggested when a keyword matches.
	Sources []Source `json:"sources" yaml:"sources"`
}

// ResearchConfig holds settings for the research stage.
type ResearchConfig struct {
	AIConfig `yaml:",inline"`

	// SourceRules maps topic keywords to trusted sources. Empty uses the
	// built-in defaults.
	SourceRules []SourceRule `json:"source_rules,omitempty" yaml:"source_rules,omitempty"`

	// FallbackSources pad the source list when keyword rules match fewer
	// than two sources. Empty uses the built-in defaults.
	FallbackSources []Source `json:"fallback_sources,omitempty" yaml:"fallback_sources,omitempty"`

	// MaxSources caps the verified source list (default 6).
	MaxSources int `json:"max_sources" yaml:"max_sources"`
}

// DraftConfig holds settings for the drafting stage.
type DraftConfig struct {
	AIConfig `yaml:",inline"`

	// BaseURL is the site base used for canonical URLs (default
	// "https://example.dev").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// GateConfig holds thresholds for the quality gate.
type GateConfig struct {
	HTTPConfig `yaml:",inline"`

	// MinCitations is the minimum number of (reachable) citations (default 2).
	MinCitations int `json:"min_citations" yaml:"min_citations"`

	// MaxSimilarity is the duplicate-content threshold against existing
	// posts (default 0.85).
	MaxSimilarity float64 `json:"max_similarity_with_existing_posts" yaml:"max_similarity_with_existing_posts"`

	// MinWordCount is the minimum body word count after stripping code
	// (default 900).
	MinWordCount int `json:"min_word_count" yaml:"min_word_count"`

	// MaxReachabilityChecks caps how many sources are probed (default 8).
	MaxReachabilityChecks int `json:"max_reachability_checks" yaml:"max_reachability_checks"`

	// RequiredSections switches the structure check from "at least four H2
	// sections" to a fixed named set. Empty keeps the count-based mode.
	RequiredSections []string `json:"required_sections,omitempty" yaml:"required_sections,omitempty"`

	// SkipReachability disables the network reachability check. Intended
	// for offline runs and tests.
	SkipReachability bool `json:"skip_reachability" yaml:"skip_reachability"`
}

// PublishConfig holds filesystem layout settings.
type PublishConfig struct {
	// ContentDir is where published posts live (default "content/posts").
	ContentDir string `json:"content_dir" yaml:"content_dir"`

	// StateDir is where per-attempt JSON state files live (default ".state").
	StateDir string `json:"state_dir" yaml:"state_dir"`
}

// BatchConfig holds settings for the retry orchestrator.
type BatchConfig struct {
	// TargetCount is how many posts one batch run should publish (default 1).
	TargetCount int `json:"target_count" yaml:"target_count"`

	// AttemptsPerPost multiplies TargetCount into the attempt budget
	// (default 3).
	AttemptsPerPost int `json:"attempts_per_post" yaml:"attempts_per_post"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Planning PlanningConfig `json:"planning" yaml:"planning"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Draft    DraftConfig    `json:"draft" yaml:"draft"`
	Gate     GateConfig     `json:"gate" yaml:"gate"`
	Publish  PublishConfig  `json:"publish" yaml:"publish"`
	Batch    BatchConfig    `json:"batch" yaml:"batch"`
}
