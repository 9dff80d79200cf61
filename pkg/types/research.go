// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Confidence grades how well a claim is supported by its source.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Source is a citable reference. Sources are unique by URL within a bundle.
type Source struct {
	// Title is the human-readable source title.
	Title string `json:"title" yaml:"title"`

	// URL is the source location. Only http/https URLs are valid.
	URL string `json:"url" yaml:"url"`

	// PublishedAt is the publication date in YYYY-MM-DD form, when known.
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// Claim is a statement the article may assert, tied to a verified source.
// Every claim in a ResearchBundle cites a source present in the same
// bundle's SourceList.
type Claim struct {
	// Text is the claim statement.
	Text string `json:"claim" yaml:"claim"`

	// SourceURL cites the supporting source by URL.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// SourceTitle mirrors the cited source's title for rendering.
	SourceTitle string `json:"source_title" yaml:"source_title"`

	// Confidence grades the claim's support: low, medium, or high.
	Confidence Confidence `json:"confidence" yaml:"confidence"`
}

// ResearchBundle is the research stage's output: the selected topic with
// supporting claims and a verified source list. One bundle is created per
// attempt and superseded by the next.
type ResearchBundle struct {
	// Topic is the selected topic title.
	Topic string `json:"topic" yaml:"topic"`

	// Angle is the editorial angle carried from planning.
	Angle string `json:"angle" yaml:"angle"`

	// Claims lists supported statements for the drafting stage.
	Claims []Claim `json:"claims" yaml:"claims"`

	// SourceList is the verified set of citable sources.
	SourceList []Source `json:"source_list" yaml:"source_list"`
}
