// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Article is a drafted post ready for quality gating. It is created by the
// drafting stage and read-only afterward.
type Article struct {
	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Summary is a one-paragraph abstract used in the front matter.
	Summary string `json:"summary" yaml:"summary"`

	// Slug is derived deterministically from Title.
	Slug string `json:"slug" yaml:"slug"`

	// Date is the draft date in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// Tags lists up to six topic tags.
	Tags []string `json:"tags" yaml:"tags"`

	// Category classifies the article, carried from the topic candidate.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// CanonicalURL is the article's permanent URL under the site base.
	CanonicalURL string `json:"canonical_url" yaml:"canonical_url"`

	// Sources are the cited references, a subset of the producing
	// ResearchBundle's source list.
	Sources []Source `json:"sources" yaml:"sources"`

	// ContentMarkdown is the article body.
	ContentMarkdown string `json:"content_markdown" yaml:"content_markdown"`
}

// QualityReport is the quality gate's verdict for one attempt. It is never
// mutated after creation and is the sole gate for publication.
type QualityReport struct {
	// Pass is true when no hard-fail reasons were recorded.
	Pass bool `json:"pass" yaml:"pass"`

	// Score is 100 minus 30 per reason and 10 per warning, floored at 0.
	Score int `json:"score" yaml:"score"`

	// Reasons lists hard failures. Any entry blocks publication.
	Reasons []string `json:"reasons" yaml:"reasons"`

	// Warnings lists soft findings that reduce the score only.
	Warnings []string `json:"warnings" yaml:"warnings"`
}
